package swarmauth

// Wallet-signature authentication against the venue auth service. The flow:
// check whether the address is registered, fetch a nonce message, sign it
// with the wallet key (personal-message scheme), then login or register.
// Tokens are cached per address and refreshed when expired.

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/jperezh/swarmtrader/internal/adapters/httpapi"
)

const (
	defaultSignTimeout = 60 * time.Second

	// Expiry margin so a token is never presented in its final seconds.
	expirySlack = 30 * time.Second

	registrationTerms = "Terms and Conditions"
)

// ErrSigningTimeout means the wallet did not produce a signature in time.
// Distinct from authentication rejection so callers can retry.
var ErrSigningTimeout = errors.New("message signing timed out")

// Tokens is one address's bearer credentials.
type Tokens struct {
	AccessToken      string
	RefreshToken     string
	ExpiresAt        time.Time
	RefreshExpiresAt time.Time
	Address          string
}

// Expired reports whether the access token is past (or within slack of) its
// expiry.
func (t Tokens) Expired() bool {
	return !time.Now().Add(expirySlack).Before(t.ExpiresAt)
}

// Authenticator implements ports.TokenSource for one signing wallet.
type Authenticator struct {
	api         *httpapi.Client
	privKey     *ecdsa.PrivateKey
	address     string
	signTimeout time.Duration

	mu     sync.Mutex
	cached map[string]Tokens // keyed by lowercased address
}

// New builds an Authenticator against the auth service at base.
func New(base, privateKeyHex string) (*Authenticator, error) {
	pkBytes, err := hex.DecodeString(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("auth: decode private key: %w", err)
	}
	privKey, err := crypto.ToECDSA(pkBytes)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid private key: %w", err)
	}
	return &Authenticator{
		api:         httpapi.NewClient(base, nil),
		privKey:     privKey,
		address:     crypto.PubkeyToAddress(privKey.PublicKey).Hex(),
		signTimeout: defaultSignTimeout,
		cached:      make(map[string]Tokens),
	}, nil
}

// Token returns a valid access token, running the signature flow when the
// cached one is missing or expired.
func (a *Authenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := strings.ToLower(a.address)
	if tokens, ok := a.cached[key]; ok && !tokens.Expired() {
		return tokens.AccessToken, nil
	}

	tokens, err := a.verify(ctx)
	if err != nil {
		return "", err
	}
	a.cached[key] = tokens
	return tokens.AccessToken, nil
}

// verify runs the full authentication flow.
func (a *Authenticator) verify(ctx context.Context) (Tokens, error) {
	slog.Info("auth: authenticating wallet", "address", a.address)

	exists, err := a.checkExistence(ctx)
	if err != nil {
		return Tokens{}, err
	}

	terms := ""
	if !exists {
		terms = registrationTerms
	}
	message, err := a.nonce(ctx, terms)
	if err != nil {
		return Tokens{}, err
	}

	signature, err := a.signWithTimeout(ctx, message)
	if err != nil {
		return Tokens{}, err
	}

	var resp tokenAttrs
	if exists {
		resp, err = a.login(ctx, signature)
	} else {
		slog.Info("auth: wallet not registered, registering", "address", a.address)
		resp, err = a.register(ctx, signature)
	}
	if err != nil {
		return Tokens{}, err
	}

	now := time.Now().UTC()
	tokens := Tokens{
		AccessToken:      resp.AccessToken,
		RefreshToken:     resp.RefreshToken,
		ExpiresAt:        now.Add(time.Duration(resp.ExpiresIn) * time.Second),
		RefreshExpiresAt: now.Add(time.Duration(resp.RefreshExpiresIn) * time.Second),
		Address:          a.address,
	}
	slog.Info("auth: authenticated", "address", a.address, "expires_at", tokens.ExpiresAt)
	return tokens, nil
}

// checkExistence distinguishes a registered wallet from an unknown one by
// the 404 on the address lookup.
func (a *Authenticator) checkExistence(ctx context.Context) (bool, error) {
	err := a.api.Get(ctx, "/addresses/"+a.address, nil, &struct{}{})
	if err == nil {
		return true, nil
	}
	if httpapi.IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("auth: check existence: %w", err)
}

type nonceAttrs struct {
	Message string `json:"message"`
}

type tokenAttrs struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
}

type envelope[T any] struct {
	Data struct {
		Attributes T `json:"attributes"`
	} `json:"data"`
}

func (a *Authenticator) nonce(ctx context.Context, terms string) (string, error) {
	attrs := map[string]any{"address": a.address}
	if terms != "" {
		attrs["terms_hash"] = terms
	}
	body := map[string]any{
		"data": map[string]any{
			"type":       "auth_nonce_request",
			"attributes": attrs,
		},
	}

	var resp envelope[nonceAttrs]
	if err := a.api.Post(ctx, "/nonce", body, &resp); err != nil {
		return "", fmt.Errorf("auth: nonce: %w", err)
	}
	return resp.Data.Attributes.Message, nil
}

func (a *Authenticator) login(ctx context.Context, signature string) (tokenAttrs, error) {
	body := authBody("login_request", a.address, signature)
	var resp envelope[tokenAttrs]
	if err := a.api.Post(ctx, "/login", body, &resp); err != nil {
		return tokenAttrs{}, fmt.Errorf("auth: login: %w", err)
	}
	return resp.Data.Attributes, nil
}

func (a *Authenticator) register(ctx context.Context, signature string) (tokenAttrs, error) {
	body := authBody("register", a.address, signature)
	var resp envelope[tokenAttrs]
	if err := a.api.Post(ctx, "/register", body, &resp); err != nil {
		return tokenAttrs{}, fmt.Errorf("auth: register: %w", err)
	}
	return resp.Data.Attributes, nil
}

func authBody(reqType, address, signature string) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"type": reqType,
			"attributes": map[string]any{
				"auth_pair": map[string]any{
					"address":        address,
					"signed_message": signature,
				},
			},
		},
	}
}

// signWithTimeout signs the nonce as an EIP-191 personal message. Signing is
// local but bounded anyway; hardware wallets behind a signer proxy can stall.
func (a *Authenticator) signWithTimeout(ctx context.Context, message string) (string, error) {
	type signResult struct {
		sig string
		err error
	}
	done := make(chan signResult, 1)
	go func() {
		sig, err := a.sign(message)
		done <- signResult{sig: sig, err: err}
	}()

	timer := time.NewTimer(a.signTimeout)
	defer timer.Stop()
	select {
	case r := <-done:
		return r.sig, r.err
	case <-timer.C:
		return "", ErrSigningTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (a *Authenticator) sign(message string) (string, error) {
	hash := accounts.TextHash([]byte(message))
	sig, err := crypto.Sign(hash, a.privKey)
	if err != nil {
		return "", fmt.Errorf("auth: sign nonce: %w", err)
	}
	// Ethereum signatures use recovery id 27/28 on the wire.
	sig[64] += 27
	return "0x" + hex.EncodeToString(sig), nil
}
