package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

const (
	defaultNetwork   = "cannon"
	defaultAlgorithm = "fastest"
	defaultInterval  = 10
	defaultLogLevel  = "warn"

	// DefaultAppAddress is the address the sample applications deploy to on
	// a fresh local devnet.
	DefaultAppAddress = "0xa966c86F18D463C90DA64940053B411Be671E77E"
	// DefaultNodeURL is the local rollup node started by the Cartesi CLI.
	DefaultNodeURL = "http://127.0.0.1:6751"
	// DefaultInputBoxAddress is the deterministic InputBox deployment of
	// rollups-contracts v2.
	DefaultInputBoxAddress = "0xc70074BDD26d8cF983Ca6A5b89b8db52D5850051"

	configFile  = "config.json"
	walletsFile = "wallets.json"
	logFile     = "rollupdash.log"
)

// Environment overrides applied by ApplyEnv.
const (
	EnvConfigDir = "ROLLUPDASH_CONFIG_DIR"
	EnvApp       = "ROLLUPDASH_APP"
	EnvNode      = "ROLLUPDASH_NODE"
	EnvNetwork   = "ROLLUPDASH_NETWORK"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidNodeURL = errors.New("invalid node URL")
)

// Load reads config from dir (or creates defaults). dir defaults to ~/.rollupdash.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".rollupdash")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultInterval
	}

	return cfg, nil
}

// ApplyEnv overrides app, node and network from the environment. Values set
// this way are not persisted unless Save is called afterwards.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvApp); v != "" {
		c.AppAddress = v
	}
	if v := os.Getenv(EnvNode); v != "" {
		c.NodeURL = v
	}
	if v := os.Getenv(EnvNetwork); v != "" {
		c.DefaultNetwork = v
	}
}

// Validate checks the addresses and node URL the rollup commands depend on.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.AppAddress) {
		return fmt.Errorf("%w: application %q", ErrInvalidAddress, c.AppAddress)
	}
	if !common.IsHexAddress(c.InputBoxAddress) {
		return fmt.Errorf("%w: input box %q", ErrInvalidAddress, c.InputBoxAddress)
	}
	return ValidateNodeURL(c.NodeURL)
}

// ValidateNodeURL accepts absolute http and https URLs only.
func ValidateNodeURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNodeURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidNodeURL, raw)
	}
	return nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// AddRPC adds a custom RPC URL for a chain.
func (c *Config) AddRPC(chain, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[chain], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = append(c.CustomRPCs[chain], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain.
func (c *Config) RemoveRPC(chain, url string) error {
	rpcs := c.CustomRPCs[chain]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns custom RPCs for a chain.
func (c *Config) GetRPCs(chain string) []string {
	return c.CustomRPCs[chain]
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is the JSON file holding wallet metadata.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// LogPath is where the dashboard writes its logs.
func (c *Config) LogPath() string {
	return filepath.Join(c.configDir, logFile)
}

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork:  defaultNetwork,
		AppAddress:      DefaultAppAddress,
		NodeURL:         DefaultNodeURL,
		InputBoxAddress: DefaultInputBoxAddress,
		RPCAlgorithm:    defaultAlgorithm,
		RefreshInterval: defaultInterval,
		LogLevel:        defaultLogLevel,
		CustomRPCs:      make(map[string][]string),
		configDir:       dir,
	}
}
