package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/rollupdash/internal/node"
	"github.com/Mohsinsiddi/rollupdash/internal/ui"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Rollup node information",
}

var nodeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show node version, chain and application progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newNodeClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		var st *node.Status
		if err := spin("Querying node...", func() error {
			st, err = client.Status(cmd.Context())
			return err
		}); err != nil {
			return err
		}
		return render(cmd, st, func() string {
			return ui.KeyValueBlock("Rollup node", [][2]string{
				{"URL", client.URL()},
				{"Version", st.NodeVersion},
				{"Chain ID", st.ChainID.String()},
				{"Application", client.Application()},
				{"Processed inputs", st.ProcessedInputCount.String()},
				{"Last accepted epoch", st.LastAcceptedEpoch.String()},
			}) + "\n" + chainHint(int64(st.ChainID.Uint64()))
		})
	},
}

// chainHint warns when the node runs on a different chain than the
// configured network.
func chainHint(id int64) string {
	c, err := resolveChain()
	if err != nil || c.ChainID == id {
		return ""
	}
	return ui.Warn(fmt.Sprintf("Node runs on chain %d but the configured network is %s (%d)", id, c.Name, c.ChainID)) +
		"\n" + ui.Hint("Switch with: rollupdash network use "+fmt.Sprint(id)) + "\n"
}

func init() {
	nodeCmd.AddCommand(nodeStatusCmd)
}
