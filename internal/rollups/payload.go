package rollups

import (
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"

	"github.com/Mohsinsiddi/rollupdash/internal/chain"
)

// MaxPayloadDisplay is how many characters of a payload a table cell shows.
const MaxPayloadDisplay = 80

// Known voucher call selectors.
var (
	selTransfer         = selector("transfer(address,uint256)")
	selApprove          = selector("approve(address,uint256)")
	selTransferFrom     = selector("transferFrom(address,address,uint256)")
	selSafeTransferFrom = selector("safeTransferFrom(address,address,uint256)")
)

var (
	addressT = mustType("address")
	uint256T = mustType("uint256")

	addrAmountArgs   = abi.Arguments{{Type: addressT}, {Type: uint256T}}
	addrAddrUintArgs = abi.Arguments{{Type: addressT}, {Type: addressT}, {Type: uint256T}}
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// selector returns the first 4 bytes of keccak256(sig).
func selector(sig string) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	var out [4]byte
	copy(out[:], h.Sum(nil))
	return out
}

// InferVoucherPayload describes a voucher's call data. Selectors are only
// read from payloads longer than 4 bytes, so bare selectors read as empty.
func InferVoucherPayload(payload []byte) string {
	if len(payload) <= 4 {
		return "(empty)"
	}
	var sel [4]byte
	copy(sel[:], payload[:4])
	data := payload[4:]

	switch sel {
	case selTransfer:
		if v, err := addrAmountArgs.Unpack(data); err == nil {
			return fmt.Sprintf("Erc20 Transfer - Amount: %s - Address: %s",
				v[1].(*big.Int), v[0].(common.Address).Hex())
		}
	case selApprove:
		if v, err := addrAmountArgs.Unpack(data); err == nil {
			return fmt.Sprintf("Erc20 Approve - Amount: %s - Spender: %s",
				v[1].(*big.Int), v[0].(common.Address).Hex())
		}
	case selTransferFrom:
		if v, err := addrAddrUintArgs.Unpack(data); err == nil {
			return fmt.Sprintf("Erc20 TransferFrom - Amount: %s - From: %s - To: %s",
				v[2].(*big.Int), v[0].(common.Address).Hex(), v[1].(common.Address).Hex())
		}
	case selSafeTransferFrom:
		if v, err := addrAddrUintArgs.Unpack(data); err == nil {
			return fmt.Sprintf("Erc721 Transfer - Token: %s - From: %s - To: %s",
				v[2].(*big.Int), v[0].(common.Address).Hex(), v[1].(common.Address).Hex())
		}
	}
	return hexutil.Encode(payload) + " (hex)"
}

// FormatNoticePayload shows valid UTF-8 as text, anything else as hex.
func FormatNoticePayload(p []byte) string {
	if utf8.Valid(p) {
		return string(p)
	}
	return "(hex) " + hexutil.Encode(p)
}

// FormatReportPayload shows valid UTF-8 as text, anything else as hex.
func FormatReportPayload(p []byte) string {
	if utf8.Valid(p) {
		return string(p)
	}
	return hexutil.Encode(p) + " (hex)"
}

// FormatUnknown is the payload text of an output that could not be classified.
func FormatUnknown() string { return "unknown" }

// Truncate cuts s to n runes and marks the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Describe renders the payload column of an output row.
func Describe(d Decoded) string {
	switch d.Type {
	case TypeNotice:
		return Truncate(FormatNoticePayload(d.Payload), MaxPayloadDisplay)
	case TypeVoucher, TypeDelegateCallVoucher:
		return Truncate(InferVoucherPayload(d.Payload), MaxPayloadDisplay)
	default:
		return FormatUnknown()
	}
}

// FormatValue renders a voucher value in ether. Outputs without a value show "-".
func FormatValue(d Decoded) string {
	if d.Type != TypeVoucher {
		return "-"
	}
	return chain.FormatEther(d.Value)
}

// EncodeInput turns user text into input bytes. In hex mode the text must be
// hex, with or without the 0x prefix.
func EncodeInput(s string, isHex bool) ([]byte, error) {
	if !isHex {
		return []byte(s), nil
	}
	if !has0x(s) {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return b, nil
}

func has0x(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
