package config

// Config holds all rollupdash configuration.
type Config struct {
	DefaultNetwork  string              `json:"default_network" yaml:"default_network"`
	DefaultWallet   string              `json:"default_wallet" yaml:"default_wallet"`
	AppAddress      string              `json:"app_address" yaml:"app_address"`
	NodeURL         string              `json:"node_url" yaml:"node_url"`
	InputBoxAddress string              `json:"input_box_address" yaml:"input_box_address"`
	RPCAlgorithm    string              `json:"rpc_algorithm" yaml:"rpc_algorithm"`       // "fastest" | "round-robin" | "failover"
	RefreshInterval int                 `json:"refresh_interval" yaml:"refresh_interval"` // seconds
	LogLevel        string              `json:"log_level" yaml:"log_level"`
	CustomRPCs      map[string][]string `json:"custom_rpcs" yaml:"custom_rpcs"`

	// internal: config dir path used for Save()
	configDir string
}
