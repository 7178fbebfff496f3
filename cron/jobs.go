package cron

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dsbgw/dsb-client-gateway/identity"
	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

const (
	JobDIDListener = "DID_LISTENER"
	JobPrivateKey  = "PRIVATE_KEY"
)

// NewEnrolmentJob builds the DID listener job: poll the enrolment state,
// submit claims for roles still missing one, and checkpoint the identity
// record. Roles awaiting approval are only polled; approval happens outside
// this system.
func NewEnrolmentJob(identities *identity.Holder, store interfaces.IdentityStore, every time.Duration, log *slog.Logger) Job {
	return Job{
		Name:  JobDIDListener,
		Every: every,
		Run: func(ctx context.Context) error {
			mgr := identities.Load()
			if mgr == nil {
				return fmt.Errorf("identity not initialized")
			}

			state, err := mgr.GetEnrolmentState(ctx)
			if err != nil {
				return err
			}
			if state.Complete() {
				log.Debug("Enrolment complete", "did", mgr.DID())
				return nil
			}

			if _, err := mgr.HandleEnrolment(ctx, state); err != nil {
				return err
			}
			return store.Write(ctx, mgr.Record())
		},
	}
}

// ManagerFactory rebuilds the identity manager from a private key. Used by
// the private key job after a rotation.
type ManagerFactory func(ctx context.Context, privateKey string) (*identity.Manager, error)

// NewPrivateKeyJob builds the key watcher job: read the private key from
// the secret store and rebuild the identity when it changed. The swap is
// atomic through the holder, so concurrent readers always see a complete
// identity.
func NewPrivateKeyJob(identities *identity.Holder, secrets interfaces.SecretStore, factory ManagerFactory, every time.Duration, log *slog.Logger) Job {
	return Job{
		Name:  JobPrivateKey,
		Every: every,
		Run: func(ctx context.Context) error {
			key, err := secrets.GetPrivateKey(ctx)
			if err != nil {
				return fmt.Errorf("read private key from %s: %w", secrets.Name(), err)
			}

			current := identities.Load()
			if current != nil && current.Record().PrivateKey == normalizeKey(key) {
				return nil
			}

			mgr, err := factory(ctx, key)
			if err != nil {
				return err
			}

			identities.Store(mgr)
			log.Info("Gateway identity rebuilt after key rotation", "did", mgr.DID())
			return nil
		},
	}
}

// normalizeKey matches the wallet's canonical private key form: lowercase
// hex with a 0x prefix.
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if !strings.HasPrefix(key, "0x") {
		key = "0x" + key
	}
	return key
}
