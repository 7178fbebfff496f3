package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

// SecretStoreFactory creates secret store engines from location URIs.
type SecretStoreFactory struct {
	log *slog.Logger
}

// NewSecretStoreFactory creates a new factory instance.
func NewSecretStoreFactory(log *slog.Logger) *SecretStoreFactory {
	return &SecretStoreFactory{log: log}
}

// SecretStoreFor creates a secret store from a location URI.
//
// Supported schemes:
//   - file:///path/to/key - local file (development)
//   - vault://host:port/mount/data/path?token=... - HashiCorp Vault KV v2
//   - awssm://region/secret-id - AWS Secrets Manager
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (f *SecretStoreFactory) SecretStoreFor(locationURI string) (interfaces.SecretStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("invalid secret store URI: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return NewFileSecretStore(u.Path, f.log)
	case "vault":
		return f.createVaultStore(u)
	case "awssm":
		return f.createAWSStore(u)
	default:
		return nil, fmt.Errorf("unsupported secret store scheme: %s", u.Scheme)
	}
}

func (f *SecretStoreFactory) createVaultStore(u *url.URL) (interfaces.SecretStore, error) {
	token := u.Query().Get("token")
	if token == "" {
		return nil, fmt.Errorf("vault secret store requires a token query parameter")
	}

	scheme := "https"
	if u.Query().Get("insecure") == "true" {
		scheme = "http"
	}
	address := fmt.Sprintf("%s://%s", scheme, u.Host)

	// First path segment is the KV mount, the rest is the data path.
	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("vault secret store URI must include mount and data path")
	}

	return NewVaultSecretStore(address, token, parts[0], parts[1], f.log)
}

func (f *SecretStoreFactory) createAWSStore(u *url.URL) (interfaces.SecretStore, error) {
	region := u.Host
	secretID := strings.Trim(u.Path, "/")
	if region == "" || secretID == "" {
		return nil, fmt.Errorf("awssm secret store URI must include region and secret id")
	}

	return NewAWSSecretsStore(region, secretID, f.log)
}
