package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dsbgw/dsb-client-gateway/broker"
	"github.com/dsbgw/dsb-client-gateway/identity"
	"github.com/dsbgw/dsb-client-gateway/interfaces"
	"github.com/dsbgw/dsb-client-gateway/metrics"
)

// BrokerHealthChecker is the broker probe used by the health endpoint.
type BrokerHealthChecker interface {
	Health(ctx context.Context) (broker.HealthResult, error)
}

// Handler implements the REST surface over the identity core. It reads the
// current manager through the holder so key rotation swaps the identity
// without restarting the server.
type Handler struct {
	identities *identity.Holder
	store      interfaces.IdentityStore
	broker     BrokerHealthChecker
	log        *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(identities *identity.Holder, store interfaces.IdentityStore, brokerClient BrokerHealthChecker, log *slog.Logger) *Handler {
	return &Handler{
		identities: identities,
		store:      store,
		broker:     brokerClient,
		log:        log,
	}
}

// IdentityResponse is the GET /api/v1/identity payload.
type IdentityResponse struct {
	DID       string                    `json:"did"`
	Address   string                    `json:"address"`
	PublicKey string                    `json:"publicKey"`
	Enrolment interfaces.EnrolmentState `json:"enrolment"`
}

// HandleGetIdentity reports the gateway identity and its live enrolment
// state. Read-only: no claims are submitted.
func (h *Handler) HandleGetIdentity(w http.ResponseWriter, r *http.Request) {
	mgr := h.identities.Load()
	if mgr == nil {
		h.writeError(w, http.StatusServiceUnavailable, "identity not initialized")
		return
	}

	state, err := mgr.GetEnrolmentState(r.Context())
	if err != nil {
		h.writeGatewayError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, IdentityResponse{
		DID:       mgr.DID(),
		Address:   mgr.Address(),
		PublicKey: mgr.PublicKey(),
		Enrolment: state,
	})
}

// HandleCreateEnrolment submits claim requests for all roles without a
// claim, persists the identity record, and reports the re-polled state.
func (h *Handler) HandleCreateEnrolment(w http.ResponseWriter, r *http.Request) {
	mgr := h.identities.Load()
	if mgr == nil {
		h.writeError(w, http.StatusServiceUnavailable, "identity not initialized")
		return
	}

	state, err := mgr.GetEnrolmentState(r.Context())
	if err != nil {
		h.writeGatewayError(w, err)
		return
	}

	if _, err := mgr.HandleEnrolment(r.Context(), state); err != nil {
		h.writeGatewayError(w, err)
		return
	}

	if err := h.store.Write(r.Context(), mgr.Record()); err != nil {
		h.writeGatewayError(w, err)
		return
	}

	// Re-poll so the response reflects the just-submitted claims.
	state, err = mgr.GetEnrolmentState(r.Context())
	if err != nil {
		h.writeGatewayError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, IdentityResponse{
		DID:       mgr.DID(),
		Address:   mgr.Address(),
		PublicKey: mgr.PublicKey(),
		Enrolment: state,
	})
}

// HandleHealth proxies the message broker health probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	result, err := h.broker.Health(r.Context())
	if err != nil {
		metrics.BrokerHealthUp.Set(0)
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if result.StatusCode == http.StatusOK {
		metrics.BrokerHealthUp.Set(1)
	} else {
		metrics.BrokerHealthUp.Set(0)
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: message})
}

// writeGatewayError maps a GatewayError to its HTTP status class and
// exposes the typed code, never the underlying cause.
func (h *Handler) writeGatewayError(w http.ResponseWriter, err error) {
	h.log.Error("Request failed", "err", err)

	code := interfaces.CodeOf(err)
	if code == "" {
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeError(w, interfaces.StatusOf(err), string(code))
}
