package identity

import (
	"context"

	"github.com/dsbgw/dsb-client-gateway/interfaces"
	"github.com/dsbgw/dsb-client-gateway/metrics"
)

// EvaluateEnrolment reduces a claim list to the per-role enrolment state.
// Both roles start at NO_CLAIM; a matching claim moves its role to APPROVED
// when accepted, AWAITING_APPROVAL otherwise. Claims for unrelated roles
// are ignored, and a duplicate claim for the same role overwrites the
// previous one (last match wins).
func EvaluateEnrolment(roles interfaces.RoleSet, claims []interfaces.Claim) interfaces.EnrolmentState {
	state := interfaces.EnrolmentState{
		User:          interfaces.RoleStatusNoClaim,
		MessageBroker: interfaces.RoleStatusNoClaim,
	}

	for _, claim := range claims {
		status := interfaces.RoleStatusAwaitingApproval
		if claim.IsAccepted {
			status = interfaces.RoleStatusApproved
		}
		switch claim.ClaimType {
		case roles.MessageBrokerRole():
			state.MessageBroker = status
		case roles.UserRole():
			state.User = status
		}
	}
	return state
}

// GetEnrolmentState re-fetches the identity's claims and evaluates them.
// The result is a pure projection of the remote claim set at call time;
// staleness is bounded only by network latency. Fails fast with
// FETCH_CLAIMS_FAILED.
func (m *Manager) GetEnrolmentState(ctx context.Context) (interfaces.EnrolmentState, error) {
	claims, err := m.registry.FetchClaims(ctx, m.did)
	if err != nil {
		metrics.EnrolmentChecks.WithLabelValues("error").Inc()
		return interfaces.EnrolmentState{}, err
	}

	state := EvaluateEnrolment(m.roles, claims)
	metrics.EnrolmentChecks.WithLabelValues("ok").Inc()
	return state, nil
}

// HandleEnrolment submits exactly one claim request for each role currently
// at NO_CLAIM, message broker before user. Submissions are strictly
// sequential and fail fast: if one fails the operation returns that role's
// error code without attempting the next, and nothing is rolled back.
// Partial submission is a legitimate terminal outcome; the caller re-polls
// state and retries only the roles still at NO_CLAIM. No internal retries:
// each remote call is attempted once per invocation.
func (m *Manager) HandleEnrolment(ctx context.Context, state interfaces.EnrolmentState) (bool, error) {
	if state.MessageBroker == interfaces.RoleStatusNoClaim {
		if err := m.registry.SubmitClaim(ctx, m.did, m.roles.MessageBrokerRole()); err != nil {
			metrics.ClaimSubmissions.WithLabelValues("messagebroker", "error").Inc()
			return false, interfaces.Internal(interfaces.ErrCodeCreateMessageBrokerClaimFailed, err)
		}
		metrics.ClaimSubmissions.WithLabelValues("messagebroker", "ok").Inc()
		m.log.Info("Submitted message broker claim request", "did", m.did)
	}

	if state.User == interfaces.RoleStatusNoClaim {
		if err := m.registry.SubmitClaim(ctx, m.did, m.roles.UserRole()); err != nil {
			metrics.ClaimSubmissions.WithLabelValues("user", "error").Inc()
			return false, interfaces.Internal(interfaces.ErrCodeCreateUserClaimFailed, err)
		}
		metrics.ClaimSubmissions.WithLabelValues("user", "ok").Inc()
		m.log.Info("Submitted user claim request", "did", m.did)
	}

	return true, nil
}
