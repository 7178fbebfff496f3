package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

var testRecord = interfaces.IdentityRecord{
	DID:        "did:ethr:0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
	Address:    "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
	PublicKey:  "0x038318535b54105d4a7aae60c08fc45f9687181b4fdfc625bd1a753fa7397fed75",
	PrivateKey: "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
}

func TestFileIdentityStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	store, err := NewFileIdentityStore(path, testLogger())
	require.NoError(t, err)

	require.NoError(t, store.Write(context.Background(), testRecord))

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testRecord, got)

	// The on-disk layout is part of the contract: 2-space indented JSON
	// with all four fields.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	expected, err := json.MarshalIndent(testRecord, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, expected, raw)
}

func TestFileIdentityStore_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	store, err := NewFileIdentityStore(path, testLogger())
	require.NoError(t, err)

	require.NoError(t, store.Write(context.Background(), testRecord))

	updated := testRecord
	updated.DID = "did:ethr:0x0000000000000000000000000000000000000001"
	require.NoError(t, store.Write(context.Background(), updated))

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	// No temp files left behind after the rename.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "identity.json", entries[0].Name())
}

func TestFileIdentityStore_ReadMissing(t *testing.T) {
	store, err := NewFileIdentityStore(filepath.Join(t.TempDir(), "identity.json"), testLogger())
	require.NoError(t, err)

	_, err = store.Read(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrNoIdentity)
}

func TestFileIdentityStore_WriteFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	store, err := NewFileIdentityStore(filepath.Join(dir, "identity.json"), testLogger())
	require.NoError(t, err)

	// Make the directory unwritable so the temp file creation fails.
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	err = store.Write(context.Background(), testRecord)
	require.Error(t, err)
	assert.Equal(t, interfaces.ErrCodeDiskPersistFailed, interfaces.CodeOf(err))
}

func TestFileSecretStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private.key")
	store, err := NewFileSecretStore(path, testLogger())
	require.NoError(t, err)

	_, err = store.GetPrivateKey(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrNoPrivateKey)

	require.NoError(t, store.SetPrivateKey(context.Background(), "0xabcd"))

	key, err := store.GetPrivateKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xabcd", key)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSecretStoreFactory_Schemes(t *testing.T) {
	factory := NewSecretStoreFactory(testLogger())

	fileStore, err := factory.SecretStoreFor("file://" + filepath.Join(t.TempDir(), "key"))
	require.NoError(t, err)
	assert.IsType(t, &FileSecretStore{}, fileStore)

	vaultStore, err := factory.SecretStoreFor("vault://127.0.0.1:8200/secret/dsb-gw/key?token=root&insecure=true")
	require.NoError(t, err)
	assert.IsType(t, &VaultSecretStore{}, vaultStore)

	_, err = factory.SecretStoreFor("vault://127.0.0.1:8200/secret/dsb-gw/key")
	assert.Error(t, err, "vault URIs require a token")

	awsStore, err := factory.SecretStoreFor("awssm://eu-west-1/dsb-gw/private_key")
	require.NoError(t, err)
	assert.IsType(t, &AWSSecretsStore{}, awsStore)

	_, err = factory.SecretStoreFor("gopher://nope")
	assert.Error(t, err)
}
