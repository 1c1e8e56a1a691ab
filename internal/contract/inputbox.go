package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/rollupdash/internal/chain"
	"github.com/Mohsinsiddi/rollupdash/internal/config"
)

// ErrNoInputAdded is returned when a receipt carries no InputAdded event.
var ErrNoInputAdded = errors.New("no InputAdded event in receipt")

// InputAdded is the decoded InputAdded event.
type InputAdded struct {
	AppContract common.Address
	Index       uint64
	Input       []byte
	TxHash      common.Hash
	BlockNumber uint64
}

// InputBox is the contract applications receive inputs through.
type InputBox struct {
	address common.Address
	backend Backend
	sender  *Sender
}

// NewInputBox binds the InputBox at address. sender may be nil for read-only use.
func NewInputBox(address common.Address, backend Backend, sender *Sender) *InputBox {
	return &InputBox{address: address, backend: backend, sender: sender}
}

// Address returns the contract address.
func (b *InputBox) Address() common.Address { return b.address }

// PackAddInput encodes an addInput call.
func PackAddInput(app common.Address, payload []byte) ([]byte, error) {
	if payload == nil {
		payload = []byte{}
	}
	return inputBoxABI.Pack("addInput", app, payload)
}

// AddInput submits payload as an input to app and returns the transaction hash.
func (b *InputBox) AddInput(ctx context.Context, app common.Address, payload []byte) (common.Hash, error) {
	if b.sender == nil {
		return common.Hash{}, ErrReadOnly
	}
	data, err := PackAddInput(app, payload)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding addInput: %w", err)
	}
	return b.sender.Send(ctx, b.address, data, config.GasLimitAddInput, &inputBoxABI)
}

// NumberOfInputs returns how many inputs app has received.
func (b *InputBox) NumberOfInputs(ctx context.Context, app common.Address) (uint64, error) {
	data, err := inputBoxABI.Pack("getNumberOfInputs", app)
	if err != nil {
		return 0, err
	}
	out, err := b.backend.CallContract(ctx, common.Address{}, b.address, data)
	if err != nil {
		return 0, fmt.Errorf("getNumberOfInputs: %w", err)
	}
	vals, err := inputBoxABI.Unpack("getNumberOfInputs", out)
	if err != nil {
		return 0, fmt.Errorf("getNumberOfInputs: %w", err)
	}
	return vals[0].(*big.Int).Uint64(), nil
}

// WaitInputAdded waits for the addInput transaction and decodes its event.
func (b *InputBox) WaitInputAdded(ctx context.Context, hash common.Hash, timeout time.Duration) (*InputAdded, error) {
	receipt, err := b.backend.WaitForReceipt(ctx, hash, 2*time.Second, timeout)
	if err != nil {
		return nil, err
	}
	ev, err := ParseInputAdded(receipt.Logs, b.address)
	if err != nil {
		return nil, err
	}
	ev.TxHash = hash
	ev.BlockNumber = receipt.BlockNumber
	return ev, nil
}

// ParseInputAdded finds the InputAdded event emitted by box in logs.
func ParseInputAdded(logs []chain.LogEntry, box common.Address) (*InputAdded, error) {
	event := inputBoxABI.Events["InputAdded"]
	for _, l := range logs {
		if l.Address != box || len(l.Topics) < 3 || l.Topics[0] != event.ID {
			continue
		}
		vals, err := event.Inputs.NonIndexed().Unpack(l.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding InputAdded: %w", err)
		}
		return &InputAdded{
			AppContract: common.BytesToAddress(l.Topics[1].Bytes()),
			Index:       new(big.Int).SetBytes(l.Topics[2].Bytes()).Uint64(),
			Input:       vals[0].([]byte),
		}, nil
	}
	return nil, ErrNoInputAdded
}
