package wallet_test

import (
	"testing"

	"github.com/Mohsinsiddi/rollupdash/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	anvilKey0  = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	anvilAddr0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	anvilAddr1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	anvilAddr2 = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
)

func TestAddWatchOnlyWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	err := mgr.Add("mywallet", &wallet.Wallet{
		Address: "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
		Type:    wallet.TypeWatchOnly,
	})
	require.NoError(t, err)

	w, err := mgr.Get("mywallet")
	require.NoError(t, err)
	assert.Equal(t, "mywallet", w.Name)
	assert.Equal(t, wallet.TypeWatchOnly, w.Type)
	assert.Equal(t, anvilAddr1, w.Address, "address should be checksummed")
	assert.False(t, w.CanSign())
}

func TestAddWatchOnlyInvalidAddress(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	err := mgr.Add("bad", &wallet.Wallet{Address: "0x123", Type: wallet.TypeWatchOnly})
	assert.ErrorIs(t, err, wallet.ErrInvalidAddress)
}

func TestAddDuplicateWalletErrors(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	require.NoError(t, mgr.Add("dup", &wallet.Wallet{Address: anvilAddr1, Type: wallet.TypeWatchOnly}))
	err := mgr.Add("dup", &wallet.Wallet{Address: anvilAddr2, Type: wallet.TypeWatchOnly})
	assert.ErrorIs(t, err, wallet.ErrWalletExists)
}

func TestAddSigningWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	require.NoError(t, mgr.AddWithKey("signer", anvilKey0))

	w, err := mgr.Get("signer")
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeSigning, w.Type)
	assert.Equal(t, anvilAddr0, w.Address)
	assert.Equal(t, "rollupdash.signer", w.KeyRef)
	assert.True(t, w.CanSign())

	stored, err := mgr.Keystore().Retrieve(w.KeyRef)
	require.NoError(t, err)
	assert.Equal(t, anvilKey0[2:], stored)
}

func TestInvalidPrivateKey(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	err := mgr.AddWithKey("bad", "not-a-valid-key")
	assert.ErrorIs(t, err, wallet.ErrInvalidKey)
}

func TestListWalletsSortedByName(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.Add("w3", &wallet.Wallet{Address: anvilAddr2, Type: wallet.TypeWatchOnly}))
	require.NoError(t, mgr.Add("w1", &wallet.Wallet{Address: anvilAddr1, Type: wallet.TypeWatchOnly}))
	require.NoError(t, mgr.AddWithKey("w2", anvilKey0))

	wallets := mgr.List()
	require.Len(t, wallets, 3)
	assert.Equal(t, "w1", wallets[0].Name)
	assert.Equal(t, "w2", wallets[1].Name)
	assert.Equal(t, "w3", wallets[2].Name)
}

func TestRemoveWalletDeletesKey(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.AddWithKey("w1", anvilKey0))
	w, err := mgr.Get("w1")
	require.NoError(t, err)
	ref := w.KeyRef

	require.NoError(t, mgr.Remove("w1"))

	_, err = mgr.Get("w1")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)

	_, err = mgr.Keystore().Retrieve(ref)
	assert.ErrorIs(t, err, wallet.ErrKeyNotFound)
}

func TestRemoveNonExistentWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	err := mgr.Remove("ghost")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestGetNonExistentWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.Get("ghost")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestSetDefault(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.Add("w1", &wallet.Wallet{Address: anvilAddr1, Type: wallet.TypeWatchOnly}))
	require.NoError(t, mgr.Add("w2", &wallet.Wallet{Address: anvilAddr2, Type: wallet.TypeWatchOnly}))

	require.NoError(t, mgr.SetDefault("w2"))

	def := mgr.Default()
	require.NotNil(t, def)
	assert.Equal(t, "w2", def.Name)
}

func TestSetDefaultUnknown(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	assert.ErrorIs(t, mgr.SetDefault("nope"), wallet.ErrWalletNotFound)
}

func TestDefaultWalletWithSingleWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.Add("only", &wallet.Wallet{Address: anvilAddr1, Type: wallet.TypeWatchOnly}))

	def := mgr.Default()
	require.NotNil(t, def)
	assert.Equal(t, "only", def.Name)
}

func TestDefaultNilWhenAmbiguous(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.Add("w1", &wallet.Wallet{Address: anvilAddr1, Type: wallet.TypeWatchOnly}))
	require.NoError(t, mgr.Add("w2", &wallet.Wallet{Address: anvilAddr2, Type: wallet.TypeWatchOnly}))
	assert.Nil(t, mgr.Default())
}

func TestCreatedAtIsSet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.Add("w", &wallet.Wallet{Address: anvilAddr1, Type: wallet.TypeWatchOnly}))

	w, err := mgr.Get("w")
	require.NoError(t, err)
	assert.NotEmpty(t, w.CreatedAt)
}

func TestSignerForNamedWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.AddWithKey("dev", anvilKey0))

	s, err := mgr.Signer("dev")
	require.NoError(t, err)
	assert.Equal(t, "dev", s.Name())
	assert.Equal(t, anvilAddr0, s.Address().Hex())
}

func TestSignerFallsBackToDefault(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.AddWithKey("dev", anvilKey0))

	s, err := mgr.Signer("")
	require.NoError(t, err)
	assert.Equal(t, "dev", s.Name())
}

func TestSignerNoDefault(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.Signer("")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestSignerWatchOnlyRejected(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.Add("watch", &wallet.Wallet{Address: anvilAddr1, Type: wallet.TypeWatchOnly}))

	_, err := mgr.Signer("watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch-only")
}

func TestSignerWatchOnlyIsSentinel(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.Add("watch", &wallet.Wallet{Address: anvilAddr2, Type: wallet.TypeWatchOnly}))
	require.NoError(t, mgr.SetDefault("watch"))

	_, err := mgr.Signer("")
	assert.ErrorIs(t, err, wallet.ErrWatchOnly)
}
