// Package identity implements the gateway identity core: key validation,
// DID resolution, enrolment state evaluation, and the claim submission
// workflow against the IAM registry.
package identity

import (
	"context"
	"log/slog"

	"go.uber.org/atomic"

	"github.com/dsbgw/dsb-client-gateway/cryptoutils"
	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

// Manager is the per-process gateway identity. DID, address, and public key
// are immutable once resolved; every further operation is a method taking
// and returning explicit state rather than mutating the manager.
type Manager struct {
	registry interfaces.ClaimsRegistry
	roles    interfaces.RoleSet
	wallet   *cryptoutils.Wallet
	did      string
	log      *slog.Logger
}

// NewManager validates the private key, resolves the DID bound to the
// derived address, and returns the manager. A missing DID is a terminal
// NO_DID failure: the gateway does not auto-provision identities, the DID
// has to exist in the registry before enrolment (claim fetches are never
// attempted without one).
func NewManager(ctx context.Context, privateKey string, reg interfaces.ClaimsRegistry, roles interfaces.RoleSet, log *slog.Logger) (*Manager, error) {
	wallet, err := cryptoutils.ValidateKey(privateKey)
	if err != nil {
		return nil, err
	}

	did, err := reg.ResolveDID(ctx, wallet.Address)
	if err != nil {
		return nil, err
	}
	if did == "" {
		return nil, interfaces.BadRequest(interfaces.ErrCodeNoDID, nil)
	}

	log.Info("Gateway identity initialized", "did", did, "address", wallet.Address)

	return &Manager{
		registry: reg,
		roles:    roles,
		wallet:   wallet,
		did:      did,
		log:      log,
	}, nil
}

// DID returns the decentralized identifier of the gateway identity.
func (m *Manager) DID() string {
	return m.did
}

// Address returns the wallet address of the gateway identity.
func (m *Manager) Address() string {
	return m.wallet.Address
}

// PublicKey returns the compressed public key of the gateway identity.
func (m *Manager) PublicKey() string {
	return m.wallet.PublicKey
}

// Record returns the persistable identity document.
func (m *Manager) Record() interfaces.IdentityRecord {
	return interfaces.IdentityRecord{
		DID:        m.did,
		Address:    m.wallet.Address,
		PublicKey:  m.wallet.PublicKey,
		PrivateKey: m.wallet.PrivateKey,
	}
}

// Holder publishes the current manager to concurrent readers (HTTP
// handlers, cron jobs) while the private key job swaps it on rotation.
type Holder struct {
	p atomic.Pointer[Manager]
}

// Load returns the current manager, nil before the first Store.
func (h *Holder) Load() *Manager {
	return h.p.Load()
}

// Store replaces the current manager.
func (h *Holder) Store(m *Manager) {
	h.p.Store(m)
}
