package chain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrChainNotFound is returned when a chain is not in the registry.
var ErrChainNotFound = errors.New("no deployment on this chain")

// NodePlaceholder is replaced by the rollup node URL in RPC templates. The
// Cartesi CLI devnet proxies its anvil instance under <node>/anvil.
const NodePlaceholder = "{node}"

// Chain holds the metadata of a base-layer chain an application can live on.
type Chain struct {
	Name           string   `json:"name"`
	DisplayName    string   `json:"display_name"`
	ChainID        int64    `json:"chain_id"`
	NativeCurrency string   `json:"native_currency"`
	RPCs           []string `json:"rpcs"`
	Explorer       string   `json:"explorer,omitempty"`
	Local          bool     `json:"local"`
}

// Registry is the chain registry.
type Registry struct {
	chains []Chain
	byName map[string]*Chain
	byID   map[int64]*Chain
}

// NewRegistry creates the registry of built-in chains.
func NewRegistry() *Registry {
	chains := allChains()
	r := &Registry{
		chains: chains,
		byName: make(map[string]*Chain, len(chains)),
		byID:   make(map[int64]*Chain, len(chains)),
	}
	for i := range r.chains {
		c := &r.chains[i]
		r.byName[c.Name] = c
		r.byID[c.ChainID] = c
	}
	return r
}

// All returns every chain in the registry.
func (r *Registry) All() []Chain {
	return r.chains
}

// GetByName finds a chain by its slug name (e.g. "cannon", "sepolia").
func (r *Registry) GetByName(name string) (*Chain, error) {
	c, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChainNotFound, name)
	}
	return c, nil
}

// GetByChainID finds a chain by its numeric chain ID.
func (r *Registry) GetByChainID(id int64) (*Chain, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrChainNotFound, id)
	}
	return c, nil
}

// Resolve accepts a slug, a decimal chain ID or a 0x-prefixed hex chain ID
// (the form wallets use, e.g. "0x343a").
func (r *Registry) Resolve(s string) (*Chain, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty chain", ErrChainNotFound)
	}
	if lower := strings.ToLower(s); strings.HasPrefix(lower, "0x") {
		id, err := strconv.ParseInt(lower[2:], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrChainNotFound, s)
		}
		return r.GetByChainID(id)
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return r.GetByChainID(id)
	}
	return r.GetByName(s)
}

// HexID returns the chain ID in wallet notation.
func (c *Chain) HexID() string {
	return "0x" + strconv.FormatInt(c.ChainID, 16)
}

// Endpoints returns the chain's RPC URLs with the node placeholder expanded.
func (c *Chain) Endpoints(nodeURL string) []string {
	out := make([]string, 0, len(c.RPCs))
	node := strings.TrimRight(nodeURL, "/")
	for _, u := range c.RPCs {
		if strings.Contains(u, NodePlaceholder) {
			if node == "" {
				continue
			}
			u = strings.ReplaceAll(u, NodePlaceholder, node)
		}
		out = append(out, u)
	}
	return out
}

// TxURL links a transaction hash to the chain's explorer, or "" for local chains.
func (c *Chain) TxURL(hash string) string {
	if c.Explorer == "" {
		return ""
	}
	return c.Explorer + "/tx/" + hash
}

// --- chain data ---

func allChains() []Chain {
	return []Chain{
		{
			Name: "cannon", DisplayName: "Cannon (Cartesi devnet)", ChainID: 13370,
			NativeCurrency: "ETH", Local: true,
			RPCs: []string{NodePlaceholder + "/anvil"},
		},
		{
			Name: "anvil", DisplayName: "Anvil", ChainID: 31337,
			NativeCurrency: "ETH", Local: true,
			RPCs: []string{"http://127.0.0.1:8545"},
		},
		{
			Name: "ethereum", DisplayName: "Ethereum", ChainID: 1,
			NativeCurrency: "ETH",
			RPCs:           []string{"https://eth.llamarpc.com", "https://ethereum-rpc.publicnode.com"},
			Explorer:       "https://etherscan.io",
		},
		{
			Name: "sepolia", DisplayName: "Sepolia", ChainID: 11155111,
			NativeCurrency: "ETH",
			RPCs:           []string{"https://ethereum-sepolia-rpc.publicnode.com", "https://sepolia.gateway.tenderly.co"},
			Explorer:       "https://sepolia.etherscan.io",
		},
		{
			Name: "base", DisplayName: "Base", ChainID: 8453,
			NativeCurrency: "ETH",
			RPCs:           []string{"https://mainnet.base.org", "https://base.llamarpc.com"},
			Explorer:       "https://basescan.org",
		},
		{
			Name: "base-sepolia", DisplayName: "Base Sepolia", ChainID: 84532,
			NativeCurrency: "ETH",
			RPCs:           []string{"https://sepolia.base.org"},
			Explorer:       "https://sepolia.basescan.org",
		},
		{
			Name: "optimism", DisplayName: "OP Mainnet", ChainID: 10,
			NativeCurrency: "ETH",
			RPCs:           []string{"https://mainnet.optimism.io", "https://optimism-rpc.publicnode.com"},
			Explorer:       "https://optimistic.etherscan.io",
		},
		{
			Name: "optimism-sepolia", DisplayName: "OP Sepolia", ChainID: 11155420,
			NativeCurrency: "ETH",
			RPCs:           []string{"https://sepolia.optimism.io"},
			Explorer:       "https://sepolia-optimism.etherscan.io",
		},
		{
			Name: "arbitrum", DisplayName: "Arbitrum One", ChainID: 42161,
			NativeCurrency: "ETH",
			RPCs:           []string{"https://arb1.arbitrum.io/rpc", "https://arbitrum-one-rpc.publicnode.com"},
			Explorer:       "https://arbiscan.io",
		},
		{
			Name: "arbitrum-sepolia", DisplayName: "Arbitrum Sepolia", ChainID: 421614,
			NativeCurrency: "ETH",
			RPCs:           []string{"https://sepolia-rollup.arbitrum.io/rpc"},
			Explorer:       "https://sepolia.arbiscan.io",
		},
	}
}
