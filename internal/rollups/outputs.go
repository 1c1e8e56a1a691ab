// Package rollups decodes and classifies Cartesi rollup outputs and renders
// their payloads for display.
package rollups

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// OutputType is the kind of an output blob.
type OutputType string

const (
	TypeNotice              OutputType = "notice"
	TypeVoucher             OutputType = "voucher"
	TypeDelegateCallVoucher OutputType = "delegatecallvoucher"
	TypeUnknown             OutputType = "unknown"
)

// ErrUnknownOutput is returned when a blob matches none of the output encodings.
var ErrUnknownOutput = errors.New("unknown output type")

// outputsJSON is the CartesiOutputs interface. Outputs are ABI-encoded calls
// to these functions, which are never actually deployed.
const outputsJSON = `[
  {"type":"function","name":"Notice","inputs":[{"name":"payload","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"Voucher","inputs":[{"name":"destination","type":"address"},{"name":"value","type":"uint256"},{"name":"payload","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"DelegateCallVoucher","inputs":[{"name":"destination","type":"address"},{"name":"payload","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"}
]`

var outputsABI = mustABI(outputsJSON)

var methodTypes = map[string]OutputType{
	"Notice":              TypeNotice,
	"Voucher":             TypeVoucher,
	"DelegateCallVoucher": TypeDelegateCallVoucher,
}

func mustABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("rollups: bad embedded ABI: %v", err))
	}
	return parsed
}

// Decoded is an output blob split into its fields. Destination and Value are
// zero for notices; Value is nil for delegate-call vouchers.
type Decoded struct {
	Type        OutputType     `json:"type" yaml:"type"`
	Destination common.Address `json:"destination,omitempty" yaml:"destination,omitempty"`
	Value       *big.Int       `json:"value,omitempty" yaml:"value,omitempty"`
	Payload     hexutil.Bytes  `json:"payload" yaml:"payload"`
}

// IsVoucher reports whether the output is executable on the base layer.
func (d Decoded) IsVoucher() bool {
	return d.Type == TypeVoucher || d.Type == TypeDelegateCallVoucher
}

// Classify decodes raw output bytes. Blobs that match no known selector come
// back as TypeUnknown together with ErrUnknownOutput.
func Classify(raw []byte) (Decoded, error) {
	unknown := Decoded{Type: TypeUnknown, Payload: raw}
	if len(raw) < 4 {
		return unknown, ErrUnknownOutput
	}
	method, err := outputsABI.MethodById(raw[:4])
	if err != nil {
		return unknown, ErrUnknownOutput
	}
	vals, err := method.Inputs.Unpack(raw[4:])
	if err != nil {
		return unknown, fmt.Errorf("decoding %s: %w", method.Name, err)
	}

	d := Decoded{Type: methodTypes[method.Name]}
	switch d.Type {
	case TypeNotice:
		d.Payload = vals[0].([]byte)
	case TypeVoucher:
		d.Destination = vals[0].(common.Address)
		d.Value = vals[1].(*big.Int)
		d.Payload = vals[2].([]byte)
	case TypeDelegateCallVoucher:
		d.Destination = vals[0].(common.Address)
		d.Payload = vals[1].([]byte)
	}
	return d, nil
}

// EncodeNotice builds the raw output bytes of a notice.
func EncodeNotice(payload []byte) ([]byte, error) {
	return outputsABI.Pack("Notice", payload)
}

// EncodeVoucher builds the raw output bytes of a voucher.
func EncodeVoucher(destination common.Address, value *big.Int, payload []byte) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	return outputsABI.Pack("Voucher", destination, value, payload)
}

// EncodeDelegateCallVoucher builds the raw output bytes of a delegate-call voucher.
func EncodeDelegateCallVoucher(destination common.Address, payload []byte) ([]byte, error) {
	return outputsABI.Pack("DelegateCallVoucher", destination, payload)
}

// OutputTypeSelector resolves a type name or a raw 4-byte selector into the
// 0x-prefixed selector the node filters on.
func OutputTypeSelector(s string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "notice":
		return hexutil.Encode(outputsABI.Methods["Notice"].ID), nil
	case "voucher":
		return hexutil.Encode(outputsABI.Methods["Voucher"].ID), nil
	case "delegatecallvoucher", "delegate-call-voucher":
		return hexutil.Encode(outputsABI.Methods["DelegateCallVoucher"].ID), nil
	}
	b, err := hexutil.Decode(name)
	if err != nil || len(b) != 4 {
		return "", fmt.Errorf("invalid output type %q: want notice, voucher, delegatecallvoucher or a 4-byte selector", s)
	}
	return name, nil
}
