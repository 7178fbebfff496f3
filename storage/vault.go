package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

const vaultKeyField = "private_key"

// VaultSecretStore keeps the private key in a HashiCorp Vault KV v2 secret.
type VaultSecretStore struct {
	client    *api.Client
	mountPath string
	dataPath  string
	log       *slog.Logger
}

// NewVaultSecretStore creates a Vault-backed secret store.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - token: Vault token with read/write access to the secret path
//   - mountPath: KV v2 mount (e.g. "secret")
//   - dataPath: path within the mount (e.g. "dsb-gw/private_key")
//   - log: structured logger for operational insights
func NewVaultSecretStore(address, token, mountPath, dataPath string, log *slog.Logger) (*VaultSecretStore, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{Timeout: 30 * time.Second}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	client.SetToken(token)

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultSecretStore{
		client:    client,
		mountPath: mountPath,
		dataPath:  dataPath,
		log:       log,
	}, nil
}

// GetPrivateKey reads the key from the KV v2 secret.
func (s *VaultSecretStore) GetPrivateKey(ctx context.Context) (string, error) {
	secret, err := s.client.KVv2(s.mountPath).Get(ctx, s.dataPath)
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return "", interfaces.ErrNoPrivateKey
		}
		return "", fmt.Errorf("failed to read secret from Vault: %w", err)
	}

	value, ok := secret.Data[vaultKeyField].(string)
	if !ok || value == "" {
		return "", interfaces.ErrNoPrivateKey
	}
	return value, nil
}

// SetPrivateKey writes a new version of the KV v2 secret.
func (s *VaultSecretStore) SetPrivateKey(ctx context.Context, privateKey string) error {
	_, err := s.client.KVv2(s.mountPath).Put(ctx, s.dataPath, map[string]interface{}{
		vaultKeyField: privateKey,
	})
	if err != nil {
		return fmt.Errorf("failed to write secret to Vault: %w", err)
	}

	s.log.Debug("Stored private key in Vault", slog.String("path", s.dataPath))
	return nil
}

// Name identifies the backend in logs.
func (s *VaultSecretStore) Name() string {
	return fmt.Sprintf("vault-%s/%s", s.mountPath, s.dataPath)
}
