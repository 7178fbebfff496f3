package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCacheServerClient_GetClaimsBySubject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/claim", r.URL.Path)
		assert.Equal(t, "did:ethr:0xabc", r.URL.Query().Get("subject"))
		assert.Equal(t, "energyweb.iam.ewc", r.URL.Query().Get("parentNamespace"))

		json.NewEncoder(w).Encode([]interfaces.Claim{
			{ClaimType: "user.roles.energyweb.iam.ewc", IsAccepted: true},
			{ClaimType: "messagebroker.roles.energyweb.iam.ewc", IsAccepted: false},
		})
	}))
	defer srv.Close()

	client := NewCacheServerClient(srv.URL, testLogger())
	claims, err := client.GetClaimsBySubject(context.Background(), "did:ethr:0xabc", "energyweb.iam.ewc")
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.True(t, claims[0].IsAccepted)
	assert.Equal(t, "messagebroker.roles.energyweb.iam.ewc", claims[1].ClaimType)
}

func TestCacheServerClient_GetClaimsBySubject_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewCacheServerClient(srv.URL, testLogger())
	claims, err := client.GetClaimsBySubject(context.Background(), "did:ethr:0xabc", "ns")
	require.Error(t, err)
	assert.Nil(t, claims, "no partial claim list on error")
}

func TestCacheServerClient_GetDIDDocument_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewCacheServerClient(srv.URL, testLogger())
	_, err := client.GetDIDDocument(context.Background(), "did:ethr:0xabc")
	assert.ErrorIs(t, err, ErrDIDNotFound)
}

func TestCacheServerClient_CreateClaimRequest(t *testing.T) {
	var body claimRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/claim", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewCacheServerClient(srv.URL, testLogger())
	err := client.CreateClaimRequest(context.Background(), "did:ethr:0xabc", "user.roles.ns")
	require.NoError(t, err)

	assert.Equal(t, "did:ethr:0xabc", body.DID)
	assert.Equal(t, "user.roles.ns", body.Claim.ClaimType)
	assert.Equal(t, 1, body.Claim.ClaimTypeVersion)
	assert.Equal(t, []interfaces.RegistrationType{
		interfaces.RegistrationOnChain,
		interfaces.RegistrationOffChain,
	}, body.RegistrationTypes)
}
