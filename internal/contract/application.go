package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/rollupdash/internal/config"
	"github.com/Mohsinsiddi/rollupdash/internal/node"
)

var (
	// ErrNoProof is returned when an output has no validity proof yet.
	ErrNoProof = errors.New("output has no proof yet: its epoch has not been closed")
	// ErrReadOnly is returned when a write is attempted without a signer.
	ErrReadOnly = errors.New("no signing wallet connected")
)

// OutputValidityProof mirrors the Solidity struct of the same name.
type OutputValidityProof struct {
	OutputIndex          uint64
	OutputHashesSiblings [][32]byte
}

// ProofOf builds the validity proof of o from the siblings the node returned.
func ProofOf(o *node.Output) (OutputValidityProof, error) {
	if !o.HasProof() {
		return OutputValidityProof{}, ErrNoProof
	}
	siblings := make([][32]byte, len(o.OutputHashesSiblings))
	for i, h := range o.OutputHashesSiblings {
		siblings[i] = h
	}
	return OutputValidityProof{OutputIndex: o.Index.Uint64(), OutputHashesSiblings: siblings}, nil
}

// Validity is the outcome of validateOutput.
type Validity struct {
	Valid  bool
	Reason string
}

// Message is the user-facing summary of v.
func (v Validity) Message() string {
	if v.Valid {
		return "Output is Valid!"
	}
	return "Output is Invalid!"
}

// Application is a deployed Cartesi application contract.
type Application struct {
	address common.Address
	backend Backend
	sender  *Sender
}

// NewApplication binds the application at address. sender may be nil for
// read-only use.
func NewApplication(address common.Address, backend Backend, sender *Sender) *Application {
	return &Application{address: address, backend: backend, sender: sender}
}

// Address returns the contract address.
func (a *Application) Address() common.Address { return a.address }

// PackExecuteOutput encodes an executeOutput call for o.
func PackExecuteOutput(o *node.Output) ([]byte, error) {
	proof, err := ProofOf(o)
	if err != nil {
		return nil, err
	}
	return applicationABI.Pack("executeOutput", []byte(o.RawData), proof)
}

// PackValidateOutput encodes a validateOutput call for o.
func PackValidateOutput(o *node.Output) ([]byte, error) {
	proof, err := ProofOf(o)
	if err != nil {
		return nil, err
	}
	return applicationABI.Pack("validateOutput", []byte(o.RawData), proof)
}

// ValidateOutput checks o against the accepted claim with an eth_call. A
// revert means the output is invalid; Reason names the contract error.
func (a *Application) ValidateOutput(ctx context.Context, o *node.Output) (Validity, error) {
	data, err := PackValidateOutput(o)
	if err != nil {
		return Validity{}, err
	}
	_, err = a.backend.CallContract(ctx, common.Address{}, a.address, data)
	if err == nil {
		return Validity{Valid: true}, nil
	}
	if reason, ok := revertReason(err, &applicationABI); ok {
		return Validity{Valid: false, Reason: reason}, nil
	}
	return Validity{}, fmt.Errorf("validateOutput: %w", err)
}

// WasOutputExecuted asks the contract whether the output at index ran.
func (a *Application) WasOutputExecuted(ctx context.Context, index uint64) (bool, error) {
	data, err := applicationABI.Pack("wasOutputExecuted", new(big.Int).SetUint64(index))
	if err != nil {
		return false, err
	}
	out, err := a.backend.CallContract(ctx, common.Address{}, a.address, data)
	if err != nil {
		return false, fmt.Errorf("wasOutputExecuted: %w", err)
	}
	vals, err := applicationABI.Unpack("wasOutputExecuted", out)
	if err != nil {
		return false, fmt.Errorf("wasOutputExecuted: %w", err)
	}
	return vals[0].(bool), nil
}

// ExecuteOutput sends an executeOutput transaction for o.
func (a *Application) ExecuteOutput(ctx context.Context, o *node.Output) (common.Hash, error) {
	if a.sender == nil {
		return common.Hash{}, ErrReadOnly
	}
	data, err := PackExecuteOutput(o)
	if err != nil {
		return common.Hash{}, err
	}
	return a.sender.Send(ctx, a.address, data, config.GasLimitExecuteOutput, &applicationABI)
}
