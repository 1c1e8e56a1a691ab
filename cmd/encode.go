package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/rollupdash/internal/rollups"
)

var encodeHexFlag bool

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Build raw output blobs, the reverse of decode",
	Long: `Encode notices and vouchers the way an application emits them. Handy for
checking what an application should produce or for feeding decode.

Examples:
  rollupdash encode notice "hello"
  rollupdash encode voucher 0xDest 1000000000000000000 0x
  rollupdash encode delegatecall 0xDest 0xa9059cbb...`,
}

var encodeNoticeCmd = &cobra.Command{
	Use:   "notice <payload>",
	Short: "Encode a notice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := rollups.EncodeInput(args[0], encodeHexFlag)
		if err != nil {
			return err
		}
		raw, err := rollups.EncodeNotice(payload)
		if err != nil {
			return err
		}
		return printBlob(cmd, raw)
	},
}

var encodeVoucherCmd = &cobra.Command{
	Use:   "voucher <destination> <value-wei> <payload-hex>",
	Short: "Encode a voucher",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		value, ok := new(big.Int).SetString(args[1], 10)
		if !ok || value.Sign() < 0 {
			return fmt.Errorf("invalid value %q: want a non-negative integer in wei", args[1])
		}
		payload, err := rollups.EncodeInput(args[2], true)
		if err != nil {
			return err
		}
		raw, err := rollups.EncodeVoucher(dest, value, payload)
		if err != nil {
			return err
		}
		return printBlob(cmd, raw)
	},
}

var encodeDelegateCmd = &cobra.Command{
	Use:     "delegatecall <destination> <payload-hex>",
	Aliases: []string{"delegatecallvoucher"},
	Short:   "Encode a delegate-call voucher",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		payload, err := rollups.EncodeInput(args[1], true)
		if err != nil {
			return err
		}
		raw, err := rollups.EncodeDelegateCallVoucher(dest, payload)
		if err != nil {
			return err
		}
		return printBlob(cmd, raw)
	},
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func printBlob(cmd *cobra.Command, raw []byte) error {
	enc := hexutil.Encode(raw)
	return render(cmd, map[string]string{"output": enc}, func() string { return enc })
}

func init() {
	encodeNoticeCmd.Flags().BoolVar(&encodeHexFlag, "hex", false, "treat the payload as hex")
	encodeCmd.AddCommand(encodeNoticeCmd, encodeVoucherCmd, encodeDelegateCmd)
}
