package swarmauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// devKey is a throwaway key for tests.
const devKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func tokenResponse(expiresIn int) string {
	return `{"data": {"attributes": {
		"access_token": "acc-1",
		"refresh_token": "ref-1",
		"token_type": "bearer",
		"expires_in": ` + itoa(expiresIn) + `,
		"refresh_expires_in": 86400
	}}}`
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func newAuthServer(t *testing.T, registered bool, loginCalls, registerCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	var nonceMsg = "Sign this nonce: 12345"
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/addresses/"):
			if registered {
				w.Write([]byte(`{"data": {}}`))
			} else {
				w.WriteHeader(http.StatusNotFound)
			}
		case r.URL.Path == "/nonce":
			w.Write([]byte(`{"data": {"attributes": {"message": "` + nonceMsg + `"}}}`))
		case r.URL.Path == "/login":
			loginCalls.Add(1)
			verifySignature(t, r, nonceMsg)
			w.Write([]byte(tokenResponse(3600)))
		case r.URL.Path == "/register":
			registerCalls.Add(1)
			verifySignature(t, r, nonceMsg)
			w.Write([]byte(tokenResponse(3600)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// verifySignature recovers the signer from the submitted personal-message
// signature and checks it matches the test key's address.
func verifySignature(t *testing.T, r *http.Request, message string) {
	t.Helper()
	var body struct {
		Data struct {
			Attributes struct {
				AuthPair struct {
					Address       string `json:"address"`
					SignedMessage string `json:"signed_message"`
				} `json:"auth_pair"`
			} `json:"attributes"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

	sig, err := hexutil.Decode(body.Data.Attributes.AuthPair.SignedMessage)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	sig[64] -= 27

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	require.NoError(t, err)
	assert.Equal(t, body.Data.Attributes.AuthPair.Address, crypto.PubkeyToAddress(*pub).Hex())
}

func TestTokenLoginsWhenRegistered(t *testing.T) {
	var logins, registers atomic.Int32
	srv := newAuthServer(t, true, &logins, &registers)
	defer srv.Close()

	a, err := New(srv.URL, devKey)
	require.NoError(t, err)

	token, err := a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acc-1", token)
	assert.Equal(t, int32(1), logins.Load())
	assert.Equal(t, int32(0), registers.Load())
}

func TestTokenRegistersUnknownWallet(t *testing.T) {
	var logins, registers atomic.Int32
	srv := newAuthServer(t, false, &logins, &registers)
	defer srv.Close()

	a, err := New(srv.URL, devKey)
	require.NoError(t, err)

	_, err = a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(0), logins.Load())
	assert.Equal(t, int32(1), registers.Load())
}

func TestTokenCachedUntilExpiry(t *testing.T) {
	var logins, registers atomic.Int32
	srv := newAuthServer(t, true, &logins, &registers)
	defer srv.Close()

	a, err := New(srv.URL, devKey)
	require.NoError(t, err)

	_, err = a.Token(context.Background())
	require.NoError(t, err)
	_, err = a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), logins.Load(), "second call uses the cache")
}

func TestTokenReauthenticatesWhenExpired(t *testing.T) {
	var logins, registers atomic.Int32
	srv := newAuthServer(t, true, &logins, &registers)
	defer srv.Close()

	a, err := New(srv.URL, devKey)
	require.NoError(t, err)

	_, err = a.Token(context.Background())
	require.NoError(t, err)

	// Force the cached token past expiry.
	key := strings.ToLower(a.address)
	tokens := a.cached[key]
	tokens.ExpiresAt = time.Now().Add(-time.Minute)
	a.cached[key] = tokens

	_, err = a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), logins.Load())
}

func TestTokensExpired(t *testing.T) {
	assert.True(t, Tokens{ExpiresAt: time.Now().Add(-time.Second)}.Expired())
	assert.True(t, Tokens{ExpiresAt: time.Now().Add(10 * time.Second)}.Expired(), "inside the slack window")
	assert.False(t, Tokens{ExpiresAt: time.Now().Add(time.Hour)}.Expired())
}
