package interfaces

import "fmt"

// RoleStatus is the approval state of a single role claim.
type RoleStatus int

const (
	// RoleStatusNoClaim means no claim for the role has ever been submitted.
	RoleStatusNoClaim RoleStatus = iota

	// RoleStatusAwaitingApproval means a claim exists but has not been
	// accepted by an authority yet.
	RoleStatusAwaitingApproval

	// RoleStatusApproved means the claim has been accepted on or off chain.
	RoleStatusApproved
)

// String returns the status name used in API responses and logs.
func (s RoleStatus) String() string {
	switch s {
	case RoleStatusNoClaim:
		return "NO_CLAIM"
	case RoleStatusAwaitingApproval:
		return "AWAITING_APPROVAL"
	case RoleStatusApproved:
		return "APPROVED"
	default:
		return fmt.Sprintf("RoleStatus(%d)", int(s))
	}
}

// MarshalText lets RoleStatus serialize as its name in JSON documents.
func (s RoleStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name back into a RoleStatus.
func (s *RoleStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "NO_CLAIM":
		*s = RoleStatusNoClaim
	case "AWAITING_APPROVAL":
		*s = RoleStatusAwaitingApproval
	case "APPROVED":
		*s = RoleStatusApproved
	default:
		return fmt.Errorf("unknown role status %q", string(text))
	}
	return nil
}

// EnrolmentState is the per-role enrolment status of a gateway identity.
// It is always derived fresh from the live claim list, never cached.
type EnrolmentState struct {
	User          RoleStatus `json:"user"`
	MessageBroker RoleStatus `json:"messagebroker"`
}

// Complete reports whether both roles have been approved.
func (s EnrolmentState) Complete() bool {
	return s.User == RoleStatusApproved && s.MessageBroker == RoleStatusApproved
}

// Claim is a role claim as reported by the claims registry. Read-only to
// this gateway; approval happens out of band.
type Claim struct {
	ClaimType  string `json:"claimType"`
	IsAccepted bool   `json:"isAccepted"`
}

// RegistrationType selects where a claim request is registered for
// verification.
type RegistrationType string

const (
	RegistrationOnChain  RegistrationType = "RegistrationTypes::OnChain"
	RegistrationOffChain RegistrationType = "RegistrationTypes::OffChain"
)

// RoleSet computes the two role identifiers tracked by the gateway under a
// configured parent namespace.
type RoleSet struct {
	ParentNamespace string
}

// UserRole returns the namespaced user role identifier.
func (r RoleSet) UserRole() string {
	return "user.roles." + r.ParentNamespace
}

// MessageBrokerRole returns the namespaced message broker role identifier.
func (r RoleSet) MessageBrokerRole() string {
	return "messagebroker.roles." + r.ParentNamespace
}

// IdentityRecord is the flat identity document persisted to durable storage.
// It is the single source of truth for restarting the gateway identity
// without re-deriving it from the private key, though re-derivation must
// always produce the same did and publicKey.
type IdentityRecord struct {
	DID        string `json:"did"`
	Address    string `json:"address"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}
