package cmd

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/Mohsinsiddi/rollupdash/internal/chain"
	"github.com/Mohsinsiddi/rollupdash/internal/config"
	"github.com/Mohsinsiddi/rollupdash/internal/sync"
	"github.com/Mohsinsiddi/rollupdash/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return render(cmd, cfg, func() string {
			rpcs := 0
			for _, urls := range cfg.CustomRPCs {
				rpcs += len(urls)
			}
			return ui.KeyValueBlock("Current Configuration", [][2]string{
				{"Network", cfg.DefaultNetwork},
				{"Default wallet", cfg.DefaultWallet},
				{"Application", cfg.AppAddress},
				{"Node", cfg.NodeURL},
				{"Input box", cfg.InputBoxAddress},
				{"RPC algorithm", cfg.RPCAlgorithm},
				{"Refresh interval", fmt.Sprintf("%ds", cfg.RefreshInterval)},
				{"Log level", cfg.LogLevel},
				{"Custom RPCs", strconv.Itoa(rpcs)},
			}) + "\n" + ui.Meta("Config directory: "+cfg.Dir()) + "\n"
		})
	},
}

// addressSetter builds a set-* command for an address field.
func addressSetter(use, short, label string, set func(*config.Config, string)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !common.IsHexAddress(args[0]) {
				return fmt.Errorf("%w: %q", config.ErrInvalidAddress, args[0])
			}
			addr := common.HexToAddress(args[0]).Hex()
			if err := updateConfig(func(c *config.Config) error {
				set(c, addr)
				return nil
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("%s set to %s", label, ui.Addr(addr))))
			return nil
		},
	}
}

var configSetAppCmd = addressSetter("set-app <address>", "Set the application address", "Application",
	func(c *config.Config, a string) { c.AppAddress = a })

var configSetInputBoxCmd = addressSetter("set-input-box <address>", "Set the InputBox contract address", "Input box",
	func(c *config.Config, a string) { c.InputBoxAddress = a })

var configSetNodeCmd = &cobra.Command{
	Use:   "set-node <url>",
	Short: "Set the rollup node URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ValidateNodeURL(args[0]); err != nil {
			return err
		}
		if err := updateConfig(func(c *config.Config) error {
			c.NodeURL = args[0]
			return nil
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Node set to "+args[0]))
		return nil
	},
}

var configSetDefaultWalletCmd = &cobra.Command{
	Use:   "set-default-wallet <name>",
	Short: "Set the default wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := newWalletManager().Get(args[0]); err != nil {
			return err
		}
		if err := updateConfig(func(c *config.Config) error {
			c.DefaultWallet = args[0]
			return nil
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default wallet set to %q", args[0])))
		return nil
	},
}

var configSetDefaultNetworkCmd = &cobra.Command{
	Use:   "set-default-network <chain>",
	Short: "Set the default network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := chain.NewRegistry().Resolve(args[0])
		if err != nil {
			return err
		}
		if err := updateConfig(func(cc *config.Config) error {
			cc.DefaultNetwork = c.Name
			return nil
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default network set to %q", c.Name)))
		return nil
	},
}

var configSetRPCCmd = &cobra.Command{
	Use:   "set-rpc <chain> <url>",
	Short: "Add a custom RPC for a chain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := chain.NewRegistry().Resolve(args[0])
		if err != nil {
			return err
		}
		url := args[1]
		if slices.Contains(cfg.GetRPCs(c.Name), url) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Warn(fmt.Sprintf("RPC %s already configured for %s", url, c.Name)))
			return nil
		}
		if err := updateConfig(func(cc *config.Config) error {
			return cc.AddRPC(c.Name, url)
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("RPC for %s set to %s", ui.ChainName(c.Name), url)))
		return nil
	},
}

var configSetLogLevelCmd = &cobra.Command{
	Use:   "set-log-level <debug|info|warn|error>",
	Short: "Set the log level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := zapcore.ParseLevel(args[0]); err != nil {
			return err
		}
		if err := updateConfig(func(c *config.Config) error {
			c.LogLevel = args[0]
			return nil
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Log level set to "+args[0]))
		return nil
	},
}

var configSetRefreshCmd = &cobra.Command{
	Use:   "set-refresh-interval <seconds>",
	Short: "Set how often the dashboard reloads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid interval %q: want a positive number of seconds", args[0])
		}
		if err := updateConfig(func(c *config.Config) error {
			c.RefreshInterval = n
			return nil
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Refresh interval set to %ds", n)))
		return nil
	},
}

var configSyncCmd = &cobra.Command{
	Use:   "sync <manifest-url> [application]",
	Short: "Load application addresses from a deployments manifest",
	Long: `Fetch a deployments manifest and store the application address, input box
and node URL of the active network. The manifest maps application names to
chains (by name or chain id) to deployments:

  {"applications": {"echo": {"sepolia": {"address": "0x...",
    "input_box": "0x...", "node_url": "https://..."}}}}

The application name may be left out when the manifest lists only one.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveChain()
		if err != nil {
			return err
		}
		app := ""
		if len(args) == 2 {
			app = args[1]
		}

		s := sync.New(sync.WithLogger(logger))
		var m *sync.Manifest
		if err := spin("Fetching manifest...", func() error {
			m, err = s.Fetch(cmd.Context(), args[0])
			return err
		}); err != nil {
			return err
		}
		res, err := m.Lookup(app, c.Name, c.ChainID)
		if err != nil {
			return err
		}
		if err := updateConfig(func(cc *config.Config) error {
			res.Apply(cc)
			return nil
		}); err != nil {
			return err
		}
		return render(cmd, res, func() string {
			return ui.Success(fmt.Sprintf("Synced %s on %s", ui.Val(res.Application), ui.ChainName(c.Name))) + "\n" +
				ui.KeyValueBlock("Deployment", [][2]string{
					{"Application", cfg.AppAddress},
					{"Input box", cfg.InputBoxAddress},
					{"Node", cfg.NodeURL},
				})
		})
	},
}

func init() {
	configCmd.AddCommand(
		configSyncCmd,
		configListCmd,
		configSetAppCmd,
		configSetNodeCmd,
		configSetInputBoxCmd,
		configSetRPCCmd,
		configSetDefaultWalletCmd,
		configSetDefaultNetworkCmd,
		configSetLogLevelCmd,
		configSetRefreshCmd,
	)
}
