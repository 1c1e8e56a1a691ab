package cmd

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/rollupdash/internal/rollups"
	"github.com/Mohsinsiddi/rollupdash/internal/ui"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <output>",
	Short: "Decode a raw rollup output blob",
	Long: `Decode the raw bytes of an output (hex) into its type and fields.

No node or RPC call is made. Voucher payloads that call a known ERC-20 or
ERC-721 method are described in plain words.

Examples:
  rollupdash decode 0xc258d6e5...
  rollupdash decode 0x237a816f... -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := decodeHexArg(args[0])
		if err != nil {
			return err
		}
		d, err := rollups.Classify(raw)
		if err != nil {
			return err
		}
		return render(cmd, d, func() string { return decodedBlock(d) })
	},
}

func decodeHexArg(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0x" {
		return nil, fmt.Errorf("empty output: provide a hex string")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}

func decodedBlock(d rollups.Decoded) string {
	pairs := [][2]string{{"Type", ui.Val(string(d.Type))}}
	if d.IsVoucher() {
		pairs = append(pairs, [2]string{"Destination", ui.Addr(d.Destination.Hex())})
	}
	if d.Type == rollups.TypeVoucher {
		pairs = append(pairs, [2]string{"Value", rollups.FormatValue(d) + " ETH"})
	}
	switch d.Type {
	case rollups.TypeNotice:
		pairs = append(pairs, [2]string{"Payload", rollups.FormatNoticePayload(d.Payload)})
	default:
		pairs = append(pairs, [2]string{"Payload", rollups.InferVoucherPayload(d.Payload)})
	}
	pairs = append(pairs, [2]string{"Payload (hex)", ui.Meta(hexutil.Encode(d.Payload))})
	return ui.KeyValueBlock("Decoded Output", pairs)
}
