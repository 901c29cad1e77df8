package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// staticKeyProvider returns a fixed key, keeping tests off the system keyring.
type staticKeyProvider struct {
	key []byte
}

func (p *staticKeyProvider) GetKey() ([]byte, error) { return p.key, nil }
func (p *staticKeyProvider) Description() string     { return "static test key" }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("MEETSCRIBE_CONFIG_DIR", t.TempDir())
	t.Setenv("MEETSCRIBE_API_KEY", "")

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	store, err := NewStoreWithKeyProvider(&staticKeyProvider{key: key})
	require.NoError(t, err)
	return store
}

func TestStoreSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Credentials{
		APIKey:    "sk-live-abcdef123456",
		ServerURL: "https://transcripts.example.com",
	}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-live-abcdef123456", loaded.APIKey)
	assert.Equal(t, "https://transcripts.example.com", loaded.ServerURL)
	assert.False(t, loaded.LastUpdated.IsZero())
}

func TestStoreEncryptsAPIKeyAtRest(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&Credentials{APIKey: "sk-live-abcdef123456"}))

	path, err := CredentialsPath()
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "sk-live-abcdef123456")

	var onDisk Credentials
	require.NoError(t, yaml.Unmarshal(raw, &onDisk))
	assert.NotEmpty(t, onDisk.APIKey)
	assert.NotEqual(t, "sk-live-abcdef123456", onDisk.APIKey)
}

func TestStoreRejectsEmptyAPIKey(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(&Credentials{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestStoreLoadWithoutCredentials(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestStoreLoadWithWrongKeyFails(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEETSCRIBE_CONFIG_DIR", dir)

	keyA := make([]byte, 32)
	keyB := make([]byte, 32)
	keyB[0] = 0xFF

	storeA, err := NewStoreWithKeyProvider(&staticKeyProvider{key: keyA})
	require.NoError(t, err)
	require.NoError(t, storeA.Save(&Credentials{APIKey: "sk-secret"}))

	storeB, err := NewStoreWithKeyProvider(&staticKeyProvider{key: keyB})
	require.NoError(t, err)
	_, err = storeB.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncryptionFailed)
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Credentials{APIKey: "sk-secret"}))
	assert.True(t, store.Exists())

	require.NoError(t, store.Delete())
	assert.False(t, store.Exists())

	// Deleting again is not an error.
	require.NoError(t, store.Delete())
}

func TestActiveAPIKeyPrefersEnvironment(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&Credentials{APIKey: "sk-stored"}))

	t.Setenv("MEETSCRIBE_API_KEY", "sk-from-env")
	key, err := store.ActiveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", key)

	t.Setenv("MEETSCRIBE_API_KEY", "")
	key, err = store.ActiveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-stored", key)
}

func TestCredentialsPathHonorsConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEETSCRIBE_CONFIG_DIR", dir)

	path, err := CredentialsPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultCredentialsFile), path)
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"sk-live-abcdef123456", "sk-l************3456"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskAPIKey(tt.in))
	}
}
