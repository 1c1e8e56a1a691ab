package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/rollupdash/internal/chain"
)

// Backend is the chain access the contracts need. *chain.EVMClient satisfies it.
type Backend interface {
	PendingNonce(ctx context.Context, address common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	BaseFee(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, from, to common.Address, data []byte, value *big.Int) (uint64, error)
	CallContract(ctx context.Context, from, to common.Address, data []byte) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)
	WaitForReceipt(ctx context.Context, hash common.Hash, interval, timeout time.Duration) (*chain.TxReceipt, error)
}

// Signer signs transactions for one account. *wallet.Signer satisfies it.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// RevertError is a call or gas estimate rejected by the contract.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string { return "execution reverted: " + e.Reason }

// Sender builds, signs and broadcasts EIP-1559 transactions.
type Sender struct {
	backend Backend
	signer  Signer
	chainID *big.Int
	log     *zap.Logger
}

// NewSender creates a Sender. A nil logger is replaced with a no-op one.
func NewSender(backend Backend, signer Signer, chainID *big.Int, log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{backend: backend, signer: signer, chainID: chainID, log: log}
}

// From returns the sending account.
func (s *Sender) From() common.Address { return s.signer.Address() }

// Send broadcasts a call to `to` with data. When gas estimation fails for a
// reason other than a revert, fallbackGas is used.
func (s *Sender) Send(ctx context.Context, to common.Address, data []byte, fallbackGas uint64, errABI *abi.ABI) (common.Hash, error) {
	from := s.signer.Address()

	gas, err := s.backend.EstimateGas(ctx, from, to, data, nil)
	if err != nil {
		if reason, ok := revertReason(err, errABI); ok {
			return common.Hash{}, &RevertError{Reason: reason}
		}
		s.log.Warn("gas estimation failed, using fallback", zap.Uint64("gas", fallbackGas), zap.Error(err))
		gas = fallbackGas
	} else {
		gas = gas * 6 / 5
	}

	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	baseFee, err := s.backend.BaseFee(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	nonce, err := s.backend.PendingNonce(ctx, from)
	if err != nil {
		return common.Hash{}, err
	}

	feeCap := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     new(big.Int),
		Data:      data,
	})

	signed, err := s.signer.SignTx(tx, s.chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signing transaction: %w", err)
	}

	s.log.Debug("sending transaction",
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas),
		zap.String("hash", signed.Hash().Hex()))

	hash, err := s.backend.SendTransaction(ctx, signed)
	if err != nil {
		if reason, ok := revertReason(err, errABI); ok {
			return common.Hash{}, &RevertError{Reason: reason}
		}
		return common.Hash{}, err
	}
	return hash, nil
}

// revertReason extracts a revert reason from err. Custom errors declared in
// errABI are decoded by name.
func revertReason(err error, errABI *abi.ABI) (string, bool) {
	if errABI != nil {
		var dataErr rpc.DataError
		if errors.As(err, &dataErr) {
			if s, ok := dataErr.ErrorData().(string); ok {
				if name, ok := customError(common.FromHex(s), errABI); ok {
					return name, true
				}
			}
		}
	}
	return chain.RevertReason(err)
}

func customError(data []byte, errABI *abi.ABI) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	for name, e := range errABI.Errors {
		if bytes.Equal(e.ID[:4], data[:4]) {
			return name, true
		}
	}
	return "", false
}
