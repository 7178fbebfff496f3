package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dsbgw/dsb-client-gateway/broker"
	"github.com/dsbgw/dsb-client-gateway/identity"
	"github.com/dsbgw/dsb-client-gateway/interfaces"
	"github.com/dsbgw/dsb-client-gateway/registry"
	"github.com/dsbgw/dsb-client-gateway/storage"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
const testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

var testRoles = interfaces.RoleSet{ParentNamespace: "ns"}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type stubBroker struct {
	result broker.HealthResult
	err    error
}

func (s *stubBroker) Health(ctx context.Context) (broker.HealthResult, error) {
	return s.result, s.err
}

func newTestHandler(t *testing.T, reg *registry.MockClaimsRegistry, brokerClient BrokerHealthChecker) (*Handler, *storage.FileIdentityStore) {
	t.Helper()

	reg.On("ResolveDID", mock.Anything, testAddress).Return(registry.DIDFor(testAddress), nil).Once()
	mgr, err := identity.NewManager(context.Background(), testKey, reg, testRoles, testLogger())
	require.NoError(t, err)

	holder := &identity.Holder{}
	holder.Store(mgr)

	store, err := storage.NewFileIdentityStore(filepath.Join(t.TempDir(), "identity.json"), testLogger())
	require.NoError(t, err)

	return NewHandler(holder, store, brokerClient, testLogger()), store
}

func TestHandleGetIdentity(t *testing.T) {
	reg := &registry.MockClaimsRegistry{}
	handler, _ := newTestHandler(t, reg, &stubBroker{})

	reg.On("FetchClaims", mock.Anything, registry.DIDFor(testAddress)).
		Return([]interfaces.Claim{{ClaimType: "user.roles.ns", IsAccepted: true}}, nil).Once()

	rec := httptest.NewRecorder()
	handler.HandleGetIdentity(rec, httptest.NewRequest(http.MethodGet, "/api/v1/identity", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp IdentityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, registry.DIDFor(testAddress), resp.DID)
	assert.Equal(t, interfaces.RoleStatusApproved, resp.Enrolment.User)
	assert.Equal(t, interfaces.RoleStatusNoClaim, resp.Enrolment.MessageBroker)
	reg.AssertNotCalled(t, "SubmitClaim", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleGetIdentity_FetchError(t *testing.T) {
	reg := &registry.MockClaimsRegistry{}
	handler, _ := newTestHandler(t, reg, &stubBroker{})

	reg.On("FetchClaims", mock.Anything, mock.Anything).
		Return(nil, interfaces.Internal(interfaces.ErrCodeFetchClaimsFailed, assert.AnError)).Once()

	rec := httptest.NewRecorder()
	handler.HandleGetIdentity(rec, httptest.NewRequest(http.MethodGet, "/api/v1/identity", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FETCH_CLAIMS_FAILED", resp.Error)
}

func TestHandleCreateEnrolment(t *testing.T) {
	reg := &registry.MockClaimsRegistry{}
	handler, store := newTestHandler(t, reg, &stubBroker{})

	did := registry.DIDFor(testAddress)
	reg.On("FetchClaims", mock.Anything, did).Return([]interfaces.Claim{}, nil).Once()
	reg.On("SubmitClaim", mock.Anything, did, "messagebroker.roles.ns").Return(nil).Once()
	reg.On("SubmitClaim", mock.Anything, did, "user.roles.ns").Return(nil).Once()
	reg.On("FetchClaims", mock.Anything, did).Return([]interfaces.Claim{
		{ClaimType: "messagebroker.roles.ns", IsAccepted: false},
		{ClaimType: "user.roles.ns", IsAccepted: false},
	}, nil).Once()

	rec := httptest.NewRecorder()
	handler.HandleCreateEnrolment(rec, httptest.NewRequest(http.MethodPost, "/api/v1/identity", nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp IdentityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, interfaces.RoleStatusAwaitingApproval, resp.Enrolment.User)
	assert.Equal(t, interfaces.RoleStatusAwaitingApproval, resp.Enrolment.MessageBroker)
	reg.AssertExpectations(t)

	// Enrolment checkpoints the identity record.
	record, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, did, record.DID)
}

func TestHandleCreateEnrolment_SubmitFailure(t *testing.T) {
	reg := &registry.MockClaimsRegistry{}
	handler, _ := newTestHandler(t, reg, &stubBroker{})

	reg.On("FetchClaims", mock.Anything, mock.Anything).Return([]interfaces.Claim{}, nil).Once()
	reg.On("SubmitClaim", mock.Anything, mock.Anything, "messagebroker.roles.ns").
		Return(assert.AnError).Once()

	rec := httptest.NewRecorder()
	handler.HandleCreateEnrolment(rec, httptest.NewRequest(http.MethodPost, "/api/v1/identity", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CREATE_MESSAGEBROKER_CLAIM_FAILED", resp.Error)
}

func TestHandleHealth(t *testing.T) {
	reg := &registry.MockClaimsRegistry{}
	handler, _ := newTestHandler(t, reg, &stubBroker{
		result: broker.HealthResult{StatusCode: http.StatusOK, Message: "OK"},
	})

	rec := httptest.NewRecorder()
	handler.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp broker.HealthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Message)
}

func TestHandler_IdentityNotInitialized(t *testing.T) {
	handler := NewHandler(&identity.Holder{}, nil, &stubBroker{}, testLogger())

	rec := httptest.NewRecorder()
	handler.HandleGetIdentity(rec, httptest.NewRequest(http.MethodGet, "/api/v1/identity", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
