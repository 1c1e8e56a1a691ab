package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/rollupdash/internal/config"
	"github.com/Mohsinsiddi/rollupdash/internal/node"
	"github.com/Mohsinsiddi/rollupdash/internal/rollups"
	"github.com/Mohsinsiddi/rollupdash/internal/ui"
)

var outputsYesFlag bool

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "List, validate and execute notices and vouchers",
}

// outputPage is what outputs list prints in json/yaml.
type outputPage struct {
	Data              []ui.OutputView `json:"data" yaml:"data"`
	Pagination        node.Pagination `json:"pagination" yaml:"pagination"`
	LastAcceptedEpoch uint64          `json:"last_accepted_epoch" yaml:"last_accepted_epoch"`
}

var outputsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List outputs with their available action",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := node.OutputFilter{
			Limit:          uint64Flag(cmd, "limit"),
			Offset:         uint64Flag(cmd, "offset"),
			EpochIndex:     uint64Flag(cmd, "epoch"),
			InputIndex:     uint64Flag(cmd, "input"),
			OutputType:     stringFlag(cmd, "type"),
			VoucherAddress: stringFlag(cmd, "voucher-address"),
		}
		client, err := newNodeClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		var snap *node.Snapshot
		if err := spin("Fetching outputs...", func() error {
			snap, err = client.FetchOutputs(cmd.Context(), f)
			return err
		}); err != nil {
			return err
		}

		page := outputPage{
			Data:              ui.NewOutputViews(snap.Outputs.Data, snap.LastAcceptedEpoch),
			Pagination:        snap.Outputs.Pagination,
			LastAcceptedEpoch: snap.LastAcceptedEpoch,
		}
		return render(cmd, page, func() string {
			head := ui.Meta(fmt.Sprintf("Last accepted epoch: %d", page.LastAcceptedEpoch)) + "\n"
			if len(page.Data) == 0 {
				return head + ui.Meta("No outputs.") + "\n"
			}
			return head + ui.OutputTable(page.Data, -1).Render() + pageLine(page.Pagination, len(page.Data))
		})
	},
}

// loadOutput fetches one output and decides its action.
func loadOutput(ctx context.Context, client *node.Client, arg string) (ui.OutputView, error) {
	index, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return ui.OutputView{}, fmt.Errorf("invalid output index %q", arg)
	}
	var (
		o     *node.Output
		epoch uint64
	)
	err = spin(fmt.Sprintf("Fetching output %d...", index), func() error {
		var err error
		if o, err = client.GetOutput(ctx, index); err != nil {
			return err
		}
		epoch = client.LastAcceptedEpochOrZero(ctx)
		return nil
	})
	if err != nil {
		return ui.OutputView{}, err
	}
	return ui.NewOutputView(*o, epoch), nil
}

var outputsShowCmd = &cobra.Command{
	Use:   "show <index>",
	Short: "Show one output, decoded",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newNodeClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		v, err := loadOutput(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		return render(cmd, v, func() string { return outputBlock(v) })
	},
}

func outputBlock(v ui.OutputView) string {
	pairs := [][2]string{
		{"Index", v.Index.String()},
		{"Epoch", v.EpochIndex.String()},
		{"Input", v.InputIndex.String()},
		{"Type", string(v.Decoded.Type)},
	}
	if v.Decoded.IsVoucher() {
		pairs = append(pairs,
			[2]string{"Destination", v.Destination()},
			[2]string{"Value", rollups.FormatValue(v.Decoded)})
	}
	pairs = append(pairs, [2]string{"Payload", v.Payload})
	if v.Hash != nil {
		pairs = append(pairs, [2]string{"Hash", v.Hash.Hex()})
	}
	pairs = append(pairs, [2]string{"Proof", strconv.FormatBool(v.HasProof())})
	if v.Executed() {
		pairs = append(pairs, [2]string{"Executed in", v.ExecutionTransactionHash.Hex()})
	}
	if v.Action != rollups.ActionNone {
		pairs = append(pairs, [2]string{"Action", ui.ActionLabel(v.Action)})
	}
	return ui.KeyValueBlock(fmt.Sprintf("Output %d", v.Index.Uint64()), pairs) + "\n"
}

// validationResult is what outputs validate prints in json/yaml.
type validationResult struct {
	Index  uint64 `json:"index" yaml:"index"`
	Valid  bool   `json:"valid" yaml:"valid"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

var outputsValidateCmd = &cobra.Command{
	Use:   "validate <index>",
	Short: "Check an output against the accepted claim on the base layer",
	Long: `Call validateOutput on the application contract with the output's proof.
The output's epoch must be accepted. No transaction is sent and no signing
wallet is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newNodeClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		v, err := loadOutput(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		if err := validatable(v); err != nil {
			return fmt.Errorf("output %d: %w", v.Index.Uint64(), err)
		}

		conn, err := connect(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer conn.Close()
		app, err := conn.application(false)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.NodeRequestTimeout)
		defer cancel()
		validity, err := app.ValidateOutput(ctx, &v.Output)
		if err != nil {
			return err
		}
		res := validationResult{Index: v.Index.Uint64(), Valid: validity.Valid, Reason: validity.Reason}
		return render(cmd, res, func() string {
			if validity.Valid {
				return ui.Success(validity.Message()) + "\n"
			}
			msg := validity.Message()
			if validity.Reason != "" {
				msg += " " + validity.Reason
			}
			return ui.Err(msg) + "\n"
		})
	},
}

// validatable allows notices and vouchers whose epoch has been accepted.
func validatable(v ui.OutputView) error {
	switch {
	case v.Decoded.Type == rollups.TypeUnknown:
		return rollups.ErrNotActionable
	case v.Action == rollups.ActionNotReady:
		return rollups.ErrNotReady
	}
	return nil
}

// executionResult is what outputs execute prints in json/yaml.
type executionResult struct {
	Index       uint64 `json:"index" yaml:"index"`
	TxHash      string `json:"tx_hash" yaml:"tx_hash"`
	BlockNumber uint64 `json:"block_number" yaml:"block_number"`
	GasUsed     uint64 `json:"gas_used" yaml:"gas_used"`
	Explorer    string `json:"explorer,omitempty" yaml:"explorer,omitempty"`
}

var outputsExecuteCmd = &cobra.Command{
	Use:   "execute <index>",
	Short: "Execute a voucher on the base layer",
	Long: `Send an executeOutput transaction for a voucher whose epoch has been
accepted. The transaction is signed by the selected wallet and its
confirmation is awaited.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newNodeClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		v, err := loadOutput(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		index := v.Index.Uint64()
		if v.Action != rollups.ActionExecute {
			err := v.Action.Err()
			if err == nil {
				err = rollups.ErrNotActionable
			}
			return fmt.Errorf("output %d: %w", index, err)
		}

		conn, err := connect(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer conn.Close()
		app, err := conn.application(true)
		if err != nil {
			return err
		}

		// The node may lag behind the chain.
		if done, err := app.WasOutputExecuted(cmd.Context(), index); err != nil {
			logger.Debug("wasOutputExecuted failed", zap.Error(err))
		} else if done {
			return fmt.Errorf("output %d: %w", index, rollups.ErrAlreadyExecuted)
		}

		if !outputsYesFlag {
			fmt.Fprint(cmd.OutOrStdout(), outputBlock(v))
			q := fmt.Sprintf("Execute voucher %d from %s on %s?", index, walletLabel(conn.wallet), conn.chain.DisplayName)
			if !prompter(cmd).ConfirmDanger(q) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
				return nil
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.TxConfirmTimeout)
		defer cancel()
		hash, err := app.ExecuteOutput(ctx, &v.Output)
		if err != nil {
			return err
		}
		logger.Info("executeOutput sent", zap.Uint64("index", index), zap.Stringer("tx", hash))

		res := executionResult{Index: index, TxHash: hash.Hex(), Explorer: conn.chain.TxURL(hash.Hex())}
		err = spin("Waiting for confirmation...", func() error {
			r, err := conn.evm.WaitForReceipt(ctx, hash, 2*time.Second, config.TxConfirmTimeout)
			if r != nil {
				res.BlockNumber, res.GasUsed = r.BlockNumber, r.GasUsed
			}
			return err
		})
		if err != nil {
			return fmt.Errorf("voucher %d (tx %s): %w", index, hash.Hex(), err)
		}
		return render(cmd, res, func() string {
			s := ui.Success(fmt.Sprintf("Voucher %d executed in block %d", index, res.BlockNumber)) + "\n" +
				ui.Meta("tx "+res.TxHash) + "\n"
			if res.Explorer != "" {
				s += ui.Meta(res.Explorer) + "\n"
			}
			return s
		})
	},
}

// pageLine summarises a page for table output.
func pageLine(p node.Pagination, shown int) string {
	total := p.TotalCount.Uint64()
	if total == 0 {
		total = uint64(shown)
	}
	return ui.Meta(fmt.Sprintf("Showing %d of %d (offset %d)", shown, total, p.Offset.Uint64())) + "\n"
}

func init() {
	addPageFlags(outputsListCmd)
	outputsListCmd.Flags().Uint64("epoch", 0, "only outputs of this epoch")
	outputsListCmd.Flags().Uint64("input", 0, "only outputs of this input")
	outputsListCmd.Flags().String("type", "", "notice, voucher, delegatecallvoucher or a 4-byte selector")
	outputsListCmd.Flags().String("voucher-address", "", "only vouchers to this destination")
	outputsExecuteCmd.Flags().BoolVarP(&outputsYesFlag, "yes", "y", false, "skip confirmation")
	outputsCmd.AddCommand(outputsListCmd, outputsShowCmd, outputsValidateCmd, outputsExecuteCmd)
}
