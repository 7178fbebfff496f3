package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

// FileSecretStore keeps the private key in a plain file. Development only;
// production deployments use the Vault or AWS Secrets Manager engines.
type FileSecretStore struct {
	path string
	log  *slog.Logger
}

// NewFileSecretStore creates a file-backed secret store at path.
func NewFileSecretStore(path string, log *slog.Logger) (*FileSecretStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create secret directory: %w", err)
	}
	return &FileSecretStore{path: path, log: log}, nil
}

// GetPrivateKey reads the key file.
func (s *FileSecretStore) GetPrivateKey(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", interfaces.ErrNoPrivateKey
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SetPrivateKey overwrites the key file with owner-only permissions.
func (s *FileSecretStore) SetPrivateKey(ctx context.Context, privateKey string) error {
	if err := os.WriteFile(s.path, []byte(privateKey), 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	s.log.Debug("Stored private key", slog.String("path", s.path))
	return nil
}

// Name identifies the backend in logs.
func (s *FileSecretStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.path))
}
