package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type fakeBroker struct {
	t          *testing.T
	token      string
	logins     int
	healthHits int
}

func (b *fakeBroker) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(b.t, "did:ethr:0xabc", req.DID)
		assert.NotEmpty(b.t, req.RequestID)

		b.logins++
		json.NewEncoder(w).Encode(loginResponse{Token: b.token})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		b.healthHits++
		if r.Header.Get("Authorization") != "Bearer "+b.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
	})
	return mux
}

func newTestClient(srvURL string) *Client {
	return NewClient(Config{BaseURL: srvURL, DID: "did:ethr:0xabc"}, testLogger())
}

func TestClient_HealthLogsInOnce(t *testing.T) {
	fb := &fakeBroker{t: t}
	fb.token = signedToken(t, time.Now().Add(time.Hour))
	srv := httptest.NewServer(fb.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)

	for i := 0; i < 3; i++ {
		result, err := client.Health(context.Background())
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Equal(t, "OK", result.Message)
	}

	assert.Equal(t, 1, fb.logins, "token is cached until expiry")
	assert.Equal(t, 3, fb.healthHits)
}

func TestClient_ReloginOnExpiredToken(t *testing.T) {
	fb := &fakeBroker{t: t}
	fb.token = signedToken(t, time.Now().Add(time.Second))
	srv := httptest.NewServer(fb.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, err := client.Health(context.Background())
	require.NoError(t, err)

	// The cached token is within the expiry slack, so the next call must
	// log in again before hitting the endpoint.
	_, err = client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fb.logins)
}

func TestClient_SingleReloginOn401(t *testing.T) {
	fb := &fakeBroker{t: t}
	fb.token = signedToken(t, time.Now().Add(time.Hour))
	srv := httptest.NewServer(fb.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, err := client.Health(context.Background())
	require.NoError(t, err)

	// Broker rotates its accepted token: the cached one now yields 401,
	// and the client must recover with exactly one re-login.
	fb.token = signedToken(t, time.Now().Add(2*time.Hour))

	result, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, 2, fb.logins)
}

func TestClient_LoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker login returned 403")
}
