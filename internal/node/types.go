package node

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HexUint64 decodes either a "0x"-prefixed hex string, a decimal string or a
// plain JSON number. The node is not consistent about which one it sends.
type HexUint64 uint64

func (h *HexUint64) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*h = 0
		return nil
	}
	if b[0] != '"' {
		v, err := strconv.ParseUint(string(b), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %s: %w", b, err)
		}
		*h = HexUint64(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	var (
		v   uint64
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	*h = HexUint64(v)
	return nil
}

func (h HexUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(hexutil.EncodeUint64(uint64(h)))
}

// Uint64 returns the plain value.
func (h HexUint64) Uint64() uint64 { return uint64(h) }

func (h HexUint64) String() string { return strconv.FormatUint(uint64(h), 10) }

// Bytes is hex-encoded data. Unlike hexutil.Bytes it reads null as empty.
type Bytes []byte

func (b *Bytes) UnmarshalJSON(in []byte) error {
	if string(bytes.TrimSpace(in)) == "null" {
		*b = nil
		return nil
	}
	var h hexutil.Bytes
	if err := h.UnmarshalJSON(in); err != nil {
		return err
	}
	*b = Bytes(h)
	return nil
}

func (b Bytes) MarshalText() ([]byte, error) { return hexutil.Bytes(b).MarshalText() }

func (b Bytes) String() string { return hexutil.Encode(b) }

// Pagination is attached to every list response.
type Pagination struct {
	TotalCount HexUint64 `json:"total_count" yaml:"total_count"`
	Limit      HexUint64 `json:"limit" yaml:"limit"`
	Offset     HexUint64 `json:"offset" yaml:"offset"`
}

// Report is a piece of diagnostic data emitted by the application.
type Report struct {
	EpochIndex HexUint64 `json:"epoch_index" yaml:"epoch_index"`
	InputIndex HexUint64 `json:"input_index" yaml:"input_index"`
	Index      HexUint64 `json:"index" yaml:"index"`
	RawData    Bytes     `json:"raw_data" yaml:"raw_data"`
	CreatedAt  string    `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt  string    `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// DecodedOutput is the node's own decoding of an output blob.
type DecodedOutput struct {
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`
	Value       string `json:"value,omitempty" yaml:"value,omitempty"`
	Payload     string `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Output is a notice or voucher together with its validity proof once the
// epoch is closed.
type Output struct {
	EpochIndex               HexUint64      `json:"epoch_index" yaml:"epoch_index"`
	InputIndex               HexUint64      `json:"input_index" yaml:"input_index"`
	Index                    HexUint64      `json:"index" yaml:"index"`
	RawData                  Bytes          `json:"raw_data" yaml:"raw_data"`
	DecodedData              *DecodedOutput `json:"decoded_data,omitempty" yaml:"decoded_data,omitempty"`
	Hash                     *common.Hash   `json:"hash,omitempty" yaml:"hash,omitempty"`
	OutputHashesSiblings     []common.Hash  `json:"output_hashes_siblings,omitempty" yaml:"output_hashes_siblings,omitempty"`
	ExecutionTransactionHash *common.Hash   `json:"execution_transaction_hash,omitempty" yaml:"execution_transaction_hash,omitempty"`
	CreatedAt                string         `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt                string         `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Executed reports whether the node has seen the output executed on the base layer.
func (o *Output) Executed() bool {
	return o.ExecutionTransactionHash != nil && *o.ExecutionTransactionHash != (common.Hash{})
}

// HasProof reports whether the validity proof siblings are available.
func (o *Output) HasProof() bool {
	return len(o.OutputHashesSiblings) > 0
}

// DecodedInput is the node's decoding of an EvmAdvance input.
type DecodedInput struct {
	Sender         string    `json:"sender,omitempty" yaml:"sender,omitempty"`
	BlockNumber    HexUint64 `json:"block_number" yaml:"block_number"`
	BlockTimestamp HexUint64 `json:"block_timestamp" yaml:"block_timestamp"`
	Index          HexUint64 `json:"index" yaml:"index"`
	Payload        Bytes     `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Input is an advance request as recorded by the node.
type Input struct {
	EpochIndex           HexUint64     `json:"epoch_index" yaml:"epoch_index"`
	Index                HexUint64     `json:"index" yaml:"index"`
	BlockNumber          HexUint64     `json:"block_number" yaml:"block_number"`
	RawData              Bytes         `json:"raw_data" yaml:"raw_data"`
	DecodedData          *DecodedInput `json:"decoded_data,omitempty" yaml:"decoded_data,omitempty"`
	Status               string        `json:"status" yaml:"status"`
	TransactionReference string        `json:"transaction_reference,omitempty" yaml:"transaction_reference,omitempty"`
	CreatedAt            string        `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt            string        `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Sender returns the input's msg.sender when the node decoded it.
func (i *Input) Sender() string {
	if i.DecodedData == nil {
		return ""
	}
	return i.DecodedData.Sender
}

// Payload returns the decoded payload, falling back to the raw data.
func (i *Input) Payload() []byte {
	if i.DecodedData != nil && i.DecodedData.Payload != nil {
		return i.DecodedData.Payload
	}
	return i.RawData
}

// ReportList is a page of reports.
type ReportList struct {
	Data       []Report   `json:"data" yaml:"data"`
	Pagination Pagination `json:"pagination" yaml:"pagination"`
}

// OutputList is a page of outputs.
type OutputList struct {
	Data       []Output   `json:"data" yaml:"data"`
	Pagination Pagination `json:"pagination" yaml:"pagination"`
}

// InputList is a page of inputs.
type InputList struct {
	Data       []Input    `json:"data" yaml:"data"`
	Pagination Pagination `json:"pagination" yaml:"pagination"`
}

// Status summarises the node's view of the application.
type Status struct {
	NodeVersion         string    `json:"node_version" yaml:"node_version"`
	ChainID             HexUint64 `json:"chain_id" yaml:"chain_id"`
	ProcessedInputCount HexUint64 `json:"processed_input_count" yaml:"processed_input_count"`
	LastAcceptedEpoch   HexUint64 `json:"last_accepted_epoch" yaml:"last_accepted_epoch"`
}
