package interfaces

import (
	"context"
	"errors"
)

// ErrNoPrivateKey is returned by secret stores when no private key has been
// provisioned yet.
var ErrNoPrivateKey = errors.New("no private key in secret store")

// ErrNoIdentity is returned by identity stores when no record has been
// persisted yet.
var ErrNoIdentity = errors.New("no identity record persisted")

// IdentityStore persists the gateway identity record to a single
// authoritative location. Write is all-or-nothing from the caller's
// perspective.
type IdentityStore interface {
	Write(ctx context.Context, record IdentityRecord) error
	Read(ctx context.Context) (IdentityRecord, error)
}

// SecretStore holds the gateway private key at rest. Backends are addressed
// by location URI (file://, vault://, awssm://) and created by the storage
// factory.
type SecretStore interface {
	// GetPrivateKey returns the hex-encoded private key, or ErrNoPrivateKey.
	GetPrivateKey(ctx context.Context) (string, error)

	// SetPrivateKey stores a new private key, overwriting any previous one.
	SetPrivateKey(ctx context.Context, privateKey string) error

	// Name identifies the backend in logs.
	Name() string
}
