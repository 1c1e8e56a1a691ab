package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/rollupdash/internal/config"
	"github.com/Mohsinsiddi/rollupdash/internal/node"
	"github.com/Mohsinsiddi/rollupdash/internal/rollups"
	"github.com/Mohsinsiddi/rollupdash/internal/ui"
)

var (
	inputHexFlag    bool
	inputYesFlag    bool
	inputNoWaitFlag bool
)

var inputCmd = &cobra.Command{
	Use:   "input",
	Short: "Send and list application inputs",
}

// sendResult is what input send prints in json/yaml.
type sendResult struct {
	TxHash      string  `json:"tx_hash" yaml:"tx_hash"`
	InputIndex  *uint64 `json:"input_index,omitempty" yaml:"input_index,omitempty"`
	BlockNumber uint64  `json:"block_number,omitempty" yaml:"block_number,omitempty"`
	Explorer    string  `json:"explorer,omitempty" yaml:"explorer,omitempty"`
}

var inputSendCmd = &cobra.Command{
	Use:   "send <payload>",
	Short: "Send an input to the application through the InputBox",
	Long: `Submit payload with InputBox.addInput. The payload is sent as UTF-8 text,
or as raw bytes with --hex. The selected wallet signs and pays for the
transaction. Unless --no-wait is given the command waits for the receipt and
reports the index the input was assigned.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := rollups.EncodeInput(args[0], inputHexFlag)
		if err != nil {
			return err
		}
		app, err := appAddress()
		if err != nil {
			return err
		}

		conn, err := connect(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer conn.Close()
		box, err := conn.inputBox(true)
		if err != nil {
			return err
		}

		if !inputYesFlag {
			q := fmt.Sprintf("Send %d byte input to %s from %s on %s?",
				len(payload), app.Hex(), walletLabel(conn.wallet), conn.chain.DisplayName)
			if !prompter(cmd).Confirm(q) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
				return nil
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.TxConfirmTimeout)
		defer cancel()
		hash, err := box.AddInput(ctx, app, payload)
		if err != nil {
			return err
		}
		logger.Info("addInput sent", zap.Stringer("tx", hash), zap.Int("bytes", len(payload)))

		res := sendResult{TxHash: hash.Hex(), Explorer: conn.chain.TxURL(hash.Hex())}
		if !inputNoWaitFlag {
			err := spin("Waiting for confirmation...", func() error {
				ev, err := box.WaitInputAdded(ctx, hash, config.TxConfirmTimeout)
				if err != nil {
					return err
				}
				res.InputIndex = &ev.Index
				res.BlockNumber = ev.BlockNumber
				return nil
			})
			if err != nil {
				return fmt.Errorf("input tx %s: %w", hash.Hex(), err)
			}
		}

		return render(cmd, res, func() string {
			s := ui.Success("Input sent") + "\n" + ui.Meta("tx "+res.TxHash) + "\n"
			if res.InputIndex != nil {
				s += ui.Meta(fmt.Sprintf("input index %d, block %d", *res.InputIndex, res.BlockNumber)) + "\n"
			}
			if res.Explorer != "" {
				s += ui.Meta(res.Explorer) + "\n"
			}
			return s
		})
	},
}

var inputListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inputs processed by the node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := node.InputFilter{
			Limit:      uint64Flag(cmd, "limit"),
			Offset:     uint64Flag(cmd, "offset"),
			EpochIndex: uint64Flag(cmd, "epoch"),
			Sender:     stringFlag(cmd, "sender"),
		}
		client, err := newNodeClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		var list *node.InputList
		if err := spin("Fetching inputs...", func() error {
			list, err = client.ListInputs(cmd.Context(), f)
			return err
		}); err != nil {
			return err
		}
		return render(cmd, list, func() string {
			if len(list.Data) == 0 {
				return ui.Meta("No inputs.") + "\n"
			}
			t := ui.NewTable([]ui.Column{
				{Title: "Epoch", Width: 6},
				{Title: "Index", Width: 6},
				{Title: "Block", Width: 10},
				{Title: "Sender", Width: 14},
				{Title: "Status", Width: 12},
				{Title: "Payload", Width: 48},
			})
			for _, in := range list.Data {
				sender := in.Sender()
				if sender != "" {
					sender = ui.Addr(ui.TruncateAddr(sender))
				}
				t.AddRow(ui.Row{
					in.EpochIndex.String(),
					in.Index.String(),
					in.BlockNumber.String(),
					sender,
					in.Status,
					rollups.Truncate(rollups.FormatNoticePayload(in.Payload()), 44),
				})
			}
			return t.Render() + pageLine(list.Pagination, len(list.Data))
		})
	},
}

var inputCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Read the number of inputs the InputBox holds for the application",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appAddress()
		if err != nil {
			return err
		}
		conn, err := connect(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer conn.Close()

		box, err := conn.inputBox(false)
		if err != nil {
			return err
		}
		n, err := box.NumberOfInputs(cmd.Context(), app)
		if err != nil {
			return err
		}
		return render(cmd, map[string]uint64{"inputs": n}, func() string {
			return fmt.Sprintf("%s %s\n", ui.Meta("Inputs for "+app.Hex()+":"), ui.Val(fmt.Sprint(n)))
		})
	},
}

func init() {
	inputSendCmd.Flags().BoolVar(&inputHexFlag, "hex", false, "payload is hex encoded")
	inputSendCmd.Flags().BoolVarP(&inputYesFlag, "yes", "y", false, "skip confirmation")
	inputSendCmd.Flags().BoolVar(&inputNoWaitFlag, "no-wait", false, "do not wait for the receipt")
	addPageFlags(inputListCmd)
	inputListCmd.Flags().Uint64("epoch", 0, "only inputs of this epoch")
	inputListCmd.Flags().String("sender", "", "only inputs from this address")
	inputCmd.AddCommand(inputSendCmd, inputListCmd, inputCountCmd)
}
