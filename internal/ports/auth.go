package ports

import "context"

// TokenSource supplies a valid bearer token for the venue REST APIs,
// authenticating (or re-authenticating) as needed.
type TokenSource interface {
	// Token returns a non-expired access token, running the wallet-signature
	// login flow when the cached token is missing or stale.
	Token(ctx context.Context) (string, error)
}
