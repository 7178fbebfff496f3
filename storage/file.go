// Package storage provides the durable backends of the gateway: the
// identity record file store and the pluggable secret store engines holding
// the private key at rest (file, Vault, AWS Secrets Manager), created from
// location URIs by the factory.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

// FileIdentityStore persists the identity record to a single configured
// path. Writes go to a temp file in the same directory followed by a
// rename, so a crash mid-write never leaves a corrupted record behind.
type FileIdentityStore struct {
	path string
	log  *slog.Logger
}

// NewFileIdentityStore creates a store writing to path, creating the parent
// directory if needed.
func NewFileIdentityStore(path string, log *slog.Logger) (*FileIdentityStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create identity directory: %w", err)
	}
	return &FileIdentityStore{path: path, log: log}, nil
}

// Write serializes the record as indented JSON and atomically replaces any
// prior content. Any I/O failure maps to DISK_PERSIST_FAILED.
func (s *FileIdentityStore) Write(ctx context.Context, record interfaces.IdentityRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return interfaces.Internal(interfaces.ErrCodeDiskPersistFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp")
	if err != nil {
		return interfaces.Internal(interfaces.ErrCodeDiskPersistFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return interfaces.Internal(interfaces.ErrCodeDiskPersistFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return interfaces.Internal(interfaces.ErrCodeDiskPersistFailed, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return interfaces.Internal(interfaces.ErrCodeDiskPersistFailed, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return interfaces.Internal(interfaces.ErrCodeDiskPersistFailed, err)
	}

	s.log.Debug("Persisted identity record", slog.String("path", s.path))
	return nil
}

// Read loads the persisted record, or ErrNoIdentity when none exists.
func (s *FileIdentityStore) Read(ctx context.Context) (interfaces.IdentityRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return interfaces.IdentityRecord{}, interfaces.ErrNoIdentity
	}
	if err != nil {
		return interfaces.IdentityRecord{}, fmt.Errorf("failed to read identity file: %w", err)
	}

	var record interfaces.IdentityRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return interfaces.IdentityRecord{}, fmt.Errorf("failed to parse identity file: %w", err)
	}
	return record, nil
}
