package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/rollupdash/internal/node"
	"github.com/Mohsinsiddi/rollupdash/internal/rollups"
	"github.com/Mohsinsiddi/rollupdash/internal/ui"
)

var inspectHexFlag bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <payload>",
	Short: "Query the application state without creating an input",
	Long: `Send an inspect request to the rollup node. The payload is sent as UTF-8
text, or as raw bytes with --hex. Inspect requests never touch the base layer
and need no wallet.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := rollups.EncodeInput(args[0], inspectHexFlag)
		if err != nil {
			return err
		}
		client, err := newNodeClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		var res *node.InspectResult
		if err := spin("Inspecting...", func() error {
			res, err = client.Inspect(cmd.Context(), payload)
			return err
		}); err != nil {
			return err
		}
		return render(cmd, res, func() string { return inspectTable(res) })
	},
}

func inspectTable(res *node.InspectResult) string {
	var sb strings.Builder
	status := ui.StyleSuccess.Render(res.Status)
	if !res.Accepted() {
		status = ui.StyleError.Render(res.Status)
	}
	sb.WriteString("Status: " + status + "\n")
	if res.ProcessedInputCount != nil {
		sb.WriteString(ui.Meta(fmt.Sprintf("Processed inputs: %d", res.ProcessedInputCount.Uint64())) + "\n")
	}
	if res.Metadata != nil {
		sb.WriteString(ui.Meta(fmt.Sprintf("Epoch %d, input %d",
			res.Metadata.ActiveEpochIndex.Uint64(), res.Metadata.CurrentInputIndex.Uint64())) + "\n")
	}
	if len(res.ExceptionPayload) > 0 {
		sb.WriteString(ui.Err("Exception: "+rollups.FormatReportPayload(res.ExceptionPayload)) + "\n")
	}
	if len(res.Reports) == 0 {
		sb.WriteString(ui.Meta("No reports.") + "\n")
		return sb.String()
	}
	sb.WriteString(ui.StyleHeader.Render("Reports") + "\n")
	for i, r := range res.Reports {
		sb.WriteString(fmt.Sprintf("  %s %s\n", ui.Meta(fmt.Sprintf("#%d", i)), rollups.FormatReportPayload(r.Payload)))
	}
	return sb.String()
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectHexFlag, "hex", false, "payload is hex encoded")
}
