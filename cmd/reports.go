package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/rollupdash/internal/node"
	"github.com/Mohsinsiddi/rollupdash/internal/ui"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Work with application reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := node.ReportFilter{
			Limit:      uint64Flag(cmd, "limit"),
			Offset:     uint64Flag(cmd, "offset"),
			EpochIndex: uint64Flag(cmd, "epoch"),
			InputIndex: uint64Flag(cmd, "input"),
		}
		client, err := newNodeClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		var list *node.ReportList
		if err := spin("Fetching reports...", func() error {
			list, err = client.ListReports(cmd.Context(), f)
			return err
		}); err != nil {
			return err
		}
		return render(cmd, list, func() string {
			if len(list.Data) == 0 {
				return ui.Meta("No reports.") + "\n"
			}
			return ui.ReportTable(list.Data, -1).Render() + pageLine(list.Pagination, len(list.Data))
		})
	},
}

func addPageFlags(c *cobra.Command) {
	c.Flags().Uint64("limit", 0, "maximum number of items")
	c.Flags().Uint64("offset", 0, "number of items to skip")
}

func init() {
	addPageFlags(reportsListCmd)
	reportsListCmd.Flags().Uint64("epoch", 0, "only reports of this epoch")
	reportsListCmd.Flags().Uint64("input", 0, "only reports of this input")
	reportsCmd.AddCommand(reportsListCmd)
}
