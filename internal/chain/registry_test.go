package chain_test

import (
	"testing"

	"github.com/Mohsinsiddi/rollupdash/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetByName(t *testing.T) {
	registry := chain.NewRegistry()

	tests := []struct {
		name    string
		chainID int64
	}{
		{"cannon", 13370},
		{"anvil", 31337},
		{"ethereum", 1},
		{"sepolia", 11155111},
		{"base", 8453},
		{"arbitrum-sepolia", 421614},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := registry.GetByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, c.Name)
			assert.Equal(t, tt.chainID, c.ChainID)
		})
	}
}

func TestRegistryGetByNameIsCaseInsensitive(t *testing.T) {
	c, err := chain.NewRegistry().GetByName("Sepolia")
	require.NoError(t, err)
	assert.Equal(t, "sepolia", c.Name)
}

func TestRegistryGetUnknownChain(t *testing.T) {
	registry := chain.NewRegistry()
	_, err := registry.GetByName("unknownchain")
	assert.ErrorIs(t, err, chain.ErrChainNotFound)

	_, err = registry.GetByChainID(999999)
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}

func TestRegistryResolve(t *testing.T) {
	registry := chain.NewRegistry()

	for _, in := range []string{"cannon", "13370", "0x343a", "0X343A", " cannon "} {
		t.Run(in, func(t *testing.T) {
			c, err := registry.Resolve(in)
			require.NoError(t, err)
			assert.Equal(t, int64(13370), c.ChainID)
		})
	}
}

func TestRegistryResolveErrors(t *testing.T) {
	registry := chain.NewRegistry()

	for _, in := range []string{"", "0xzz", "0x1234567", "nowhere"} {
		t.Run(in, func(t *testing.T) {
			_, err := registry.Resolve(in)
			assert.ErrorIs(t, err, chain.ErrChainNotFound)
		})
	}
}

func TestAllChainsHaveRPCAndUniqueIDs(t *testing.T) {
	seen := map[int64]string{}
	for _, c := range chain.NewRegistry().All() {
		t.Run(c.Name, func(t *testing.T) {
			assert.NotEmpty(t, c.RPCs)
			assert.NotZero(t, c.ChainID)
			if prev, dup := seen[c.ChainID]; dup {
				t.Fatalf("chain id %d shared by %s and %s", c.ChainID, prev, c.Name)
			}
			seen[c.ChainID] = c.Name
		})
	}
}

func TestHexID(t *testing.T) {
	c, err := chain.NewRegistry().GetByName("cannon")
	require.NoError(t, err)
	assert.Equal(t, "0x343a", c.HexID())
}

func TestEndpointsExpandNodePlaceholder(t *testing.T) {
	c, err := chain.NewRegistry().GetByName("cannon")
	require.NoError(t, err)

	assert.Equal(t, []string{"http://127.0.0.1:6751/anvil"}, c.Endpoints("http://127.0.0.1:6751/"))
	assert.Empty(t, c.Endpoints(""))
}

func TestEndpointsWithoutPlaceholder(t *testing.T) {
	c, err := chain.NewRegistry().GetByName("anvil")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://127.0.0.1:8545"}, c.Endpoints("http://127.0.0.1:6751"))
}

func TestTxURL(t *testing.T) {
	reg := chain.NewRegistry()

	sepolia, _ := reg.GetByName("sepolia")
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", sepolia.TxURL("0xabc"))

	cannon, _ := reg.GetByName("cannon")
	assert.Empty(t, cannon.TxURL("0xabc"))
}
