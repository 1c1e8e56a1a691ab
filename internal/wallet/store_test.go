package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStoreSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	store := NewJSONStore(path)

	wallets := []*Wallet{
		{Name: "alice", Address: "0x1111", Type: TypeWatchOnly},
		{Name: "bob", Address: "0x2222", Type: TypeSigning, KeyRef: "rollupdash.bob"},
	}
	require.NoError(t, store.Save(wallets))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "alice", loaded[0].Name)
	assert.Equal(t, "bob", loaded[1].Name)
	assert.Equal(t, TypeSigning, loaded[1].Type)
	assert.Equal(t, "rollupdash.bob", loaded[1].KeyRef)
}

func TestJSONStoreLoadNoFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "nonexistent.json"))

	wallets, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, wallets, "loading a missing file should return nil, nil")
}

func TestJSONStoreSaveRestrictivePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	store := NewJSONStore(path)
	require.NoError(t, store.Save([]*Wallet{{Name: "w", Address: "0x1"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Mode().Perm() != 0 { // Unix only
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestJSONStoreUsesSnakeCaseKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	store := NewJSONStore(path)
	require.NoError(t, store.Save([]*Wallet{{
		Name: "full", Address: "0xABCD", Type: TypeSigning, KeyRef: "rollupdash.full",
		IsDefault: true, CreatedAt: "2024-01-01T00:00:00Z",
	}}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"key_ref": "rollupdash.full"`)
	assert.Contains(t, string(raw), `"is_default": true`)
	assert.Contains(t, string(raw), `"created_at": "2024-01-01T00:00:00Z"`)
}

func TestJSONStoreWatchOnlyOmitsKeyRef(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	require.NoError(t, NewJSONStore(path).Save([]*Wallet{{Name: "w", Address: "0x1", Type: TypeWatchOnly}}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "key_ref")
}

func TestJSONStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0600))

	_, err := NewJSONStore(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt.json")
}

func TestJSONStoreSaveCreatesDirAndLeavesNoTemp(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "wallets.json")
	store := NewJSONStore(path)
	require.NoError(t, store.Save([]*Wallet{{Name: "a", Address: "0x1"}}))
	require.NoError(t, store.Save([]*Wallet{{Name: "b", Address: "0x2"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "wallets.json", entries[0].Name())

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "b", loaded[0].Name)
}

func TestWithStoreOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")

	mgr := NewManager(WithStore(NewJSONStore(path)))
	require.NoError(t, mgr.Add("test-ws", &Wallet{
		Address: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", Type: TypeWatchOnly,
	}))

	mgr2 := NewManager(WithStore(NewJSONStore(path)))
	w, err := mgr2.Get("test-ws")
	require.NoError(t, err)
	assert.Equal(t, "test-ws", w.Name)
}

func TestWithKeystoreOption(t *testing.T) {
	ks := NewInMemoryKeystore()
	mgr := NewManager(WithKeystore(ks))
	require.NoError(t, mgr.AddWithKey("k", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"))

	_, err := ks.Retrieve("rollupdash.k")
	require.NoError(t, err)
}

func TestRemoveWalletWhoseKeyFileIsGone(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")
	ks := testKeystore(t)
	mgr := NewManager(WithStore(NewJSONStore(filepath.Join(t.TempDir(), "wallets.json"))), WithKeystore(ks))
	require.NoError(t, mgr.AddWithKey("dev", testPrivKeyHex))

	w, err := mgr.Get("dev")
	require.NoError(t, err)
	require.NoError(t, ks.Delete(w.KeyRef))

	require.NoError(t, mgr.Remove("dev"))
	_, err = mgr.Get("dev")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}
