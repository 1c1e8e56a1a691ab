package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/rollupdash/internal/chain"
	"github.com/Mohsinsiddi/rollupdash/internal/config"
	"github.com/Mohsinsiddi/rollupdash/internal/ui"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage the base-layer chain",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported chains",
	RunE: func(cmd *cobra.Command, args []string) error {
		chains := chain.NewRegistry().All()
		return render(cmd, chains, func() string {
			t := ui.NewTable([]ui.Column{
				{Title: "Name", Width: 18},
				{Title: "Display", Width: 24},
				{Title: "Chain ID", Width: 10},
				{Title: "Hex", Width: 10},
				{Title: "Currency", Width: 8},
				{Title: "Default", Width: 8},
			})
			for _, c := range chains {
				def := ""
				if c.Name == cfg.DefaultNetwork {
					def = ui.StyleSuccess.Render("✓")
				}
				t.AddRow(ui.Row{
					ui.ChainName(c.Name),
					c.DisplayName,
					strconv.FormatInt(c.ChainID, 10),
					c.HexID(),
					c.NativeCurrency,
					def,
				})
			}
			return t.Render() + ui.Meta(fmt.Sprintf("%d chains", len(chains))) + "\n"
		})
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use [chain]",
	Short: "Set the default chain",
	Long: `Set the default chain and persist it to config. The chain may be given
by name, decimal chain id or hex chain id (e.g. 0x343a). Without an argument
an interactive picker is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()
		var target string
		if len(args) == 1 {
			target = args[0]
		} else {
			var items []ui.PickerItem
			for _, c := range reg.All() {
				items = append(items, ui.PickerItem{
					Label:    c.Name,
					SubLabel: fmt.Sprintf("%s · %d", c.DisplayName, c.ChainID),
					Value:    c.Name,
					Current:  c.Name == cfg.DefaultNetwork,
				})
			}
			picked, err := ui.PickItem("Select network", items)
			if err != nil {
				return err
			}
			if picked == "" {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
				return nil
			}
			target = picked
		}

		c, err := reg.Resolve(target)
		if err != nil {
			return fmt.Errorf("%w\n  Run `rollupdash network list` to see supported chains", err)
		}
		if err := updateConfig(func(cc *config.Config) error {
			cc.DefaultNetwork = c.Name
			return nil
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default network set to %s (%d)", ui.ChainName(c.Name), c.ChainID)))
		return nil
	},
}

// connectInfo is what network connect reports.
type connectInfo struct {
	Chain   string `json:"chain" yaml:"chain"`
	ChainID int64  `json:"chain_id" yaml:"chain_id"`
	RPC     string `json:"rpc" yaml:"rpc"`
	Wallet  string `json:"wallet,omitempty" yaml:"wallet,omitempty"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	CanSign bool   `json:"can_sign" yaml:"can_sign"`
}

var networkConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to the chain and show the active wallet",
	Long: `Resolve the default chain, pick an RPC endpoint, verify it serves the
expected chain id and resolve the wallet that will sign transactions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()

		var conn *connection
		err := spin("Connecting...", func() error {
			var err error
			conn, err = connect(ctx, false)
			return err
		})
		if err != nil {
			return err
		}
		defer conn.Close()

		info := connectInfo{Chain: conn.chain.Name, ChainID: conn.chain.ChainID, RPC: conn.evm.URL()}
		if conn.wallet != nil {
			info.Wallet = conn.wallet.Name
			info.Address = conn.wallet.Address
			info.CanSign = conn.signer != nil
		}
		return render(cmd, info, func() string {
			wallet := ui.StyleWarning.Render("none")
			if info.Wallet != "" {
				wallet = info.Wallet + " " + ui.Addr(info.Address)
			}
			out := ui.KeyValueBlock("Connected", [][2]string{
				{"Chain", conn.chain.DisplayName},
				{"Chain ID", fmt.Sprintf("%d (%s)", info.ChainID, conn.chain.HexID())},
				{"RPC", info.RPC},
				{"Wallet", wallet},
				{"Can sign", strconv.FormatBool(info.CanSign)},
			}) + "\n"
			if info.Wallet == "" {
				out += ui.Hint("Add a wallet with: rollupdash wallet add <name> --key <private-key>") + "\n"
			}
			return out
		})
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd, networkConnectCmd)
}
