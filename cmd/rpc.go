package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/rollupdash/internal/chain"
	"github.com/Mohsinsiddi/rollupdash/internal/config"
	"github.com/Mohsinsiddi/rollupdash/internal/rpc"
	"github.com/Mohsinsiddi/rollupdash/internal/ui"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage base-layer RPC endpoints",
}

var rpcAddCmd = &cobra.Command{
	Use:   "add <chain> <url>",
	Short: "Add a custom RPC URL for a chain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := chain.NewRegistry().Resolve(args[0])
		if err != nil {
			return err
		}
		url := args[1]
		if err := updateConfig(func(cc *config.Config) error {
			return cc.AddRPC(c.Name, url)
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Added RPC for %s: %s", ui.ChainName(c.Name), url)))
		return nil
	},
}

var rpcRemoveCmd = &cobra.Command{
	Use:   "remove <chain> <url>",
	Short: "Remove a custom RPC URL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := chain.NewRegistry().Resolve(args[0])
		if err != nil {
			return err
		}
		url := args[1]
		if err := updateConfig(func(cc *config.Config) error {
			return cc.RemoveRPC(c.Name, url)
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Removed RPC for %s: %s", c.Name, url)))
		return nil
	},
}

var rpcListCmd = &cobra.Command{
	Use:   "list [chain]",
	Short: "List the RPCs of a chain (default: the configured network)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := chainArg(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.StyleTitle.Render("RPCs for "+c.DisplayName))
		fmt.Fprintln(out, ui.StyleHeader.Render("Built-in:"))
		for _, u := range c.Endpoints(cfg.NodeURL) {
			fmt.Fprintf(out, "  %s\n", u)
		}
		if custom := cfg.GetRPCs(c.Name); len(custom) > 0 {
			fmt.Fprintln(out, ui.StyleHeader.Render("Custom:"))
			for _, u := range custom {
				fmt.Fprintf(out, "  %s\n", u)
			}
		}
		return nil
	},
}

// benchmarkRow is one endpoint in rpc benchmark output.
type benchmarkRow struct {
	URL       string `json:"url" yaml:"url"`
	LatencyMS int64  `json:"latency_ms" yaml:"latency_ms"`
	Block     uint64 `json:"block" yaml:"block"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

var rpcBenchmarkCmd = &cobra.Command{
	Use:   "benchmark [chain]",
	Short: "Probe every RPC of a chain and show the one that would be picked",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := chainArg(args)
		if err != nil {
			return err
		}
		urls := chainEndpoints(c)

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()

		var results []rpc.Endpoint
		spin(fmt.Sprintf("Benchmarking %d %s RPCs...", len(urls), c.DisplayName), func() error { //nolint:errcheck
			results = rpc.Probe(ctx, urls, nil)
			return nil
		})
		best, pickErr := rpc.NewPicker(rpc.Algorithm(cfg.RPCAlgorithm)).Pick(results)

		rows := make([]benchmarkRow, 0, len(results))
		for _, r := range results {
			row := benchmarkRow{URL: r.URL, LatencyMS: r.Latency.Milliseconds(), Block: r.BlockNumber}
			if r.Err != nil {
				row.Error = r.Err.Error()
			}
			rows = append(rows, row)
		}

		return render(cmd, rows, func() string {
			t := ui.NewTable([]ui.Column{
				{Title: "RPC URL", Width: 44},
				{Title: "Latency", Width: 10},
				{Title: "Block #", Width: 12},
				{Title: "Status", Width: 10},
			})
			for _, r := range rows {
				status := ui.StyleSuccess.Render("healthy")
				latency := fmt.Sprintf("%dms", r.LatencyMS)
				block := strconv.FormatUint(r.Block, 10)
				if r.Error != "" {
					status = ui.StyleError.Render("down")
					latency, block = "-", "-"
				}
				if pickErr == nil && r.URL == best.URL {
					status += " " + ui.StyleChain.Render("★")
				}
				t.AddRow(ui.Row{r.URL, latency, block, status})
			}
			s := t.Render()
			if pickErr != nil {
				s += ui.Err(pickErr.Error()) + "\n"
			}
			return s
		})
	},
}

var rpcAlgorithmCmd = &cobra.Command{
	Use:   "algorithm",
	Short: "Show or set the RPC selection algorithm",
}

var rpcAlgorithmSetCmd = &cobra.Command{
	Use:   "set <fastest|round-robin|failover>",
	Short: "Set the RPC selection algorithm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		algo := rpc.Algorithm(args[0])
		switch algo {
		case rpc.AlgorithmFastest, rpc.AlgorithmRoundRobin, rpc.AlgorithmFailover:
		default:
			return fmt.Errorf("invalid algorithm %q: choose fastest, round-robin or failover", algo)
		}
		if err := updateConfig(func(c *config.Config) error {
			c.RPCAlgorithm = string(algo)
			return nil
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("RPC algorithm set to %q", algo)))
		return nil
	},
}

// chainArg resolves an optional chain argument, defaulting to the
// configured network.
func chainArg(args []string) (*chain.Chain, error) {
	if len(args) == 0 {
		return resolveChain()
	}
	return chain.NewRegistry().Resolve(args[0])
}

func init() {
	rpcAlgorithmCmd.AddCommand(rpcAlgorithmSetCmd)
	rpcCmd.AddCommand(rpcAddCmd, rpcRemoveCmd, rpcListCmd, rpcBenchmarkCmd, rpcAlgorithmCmd)
}
