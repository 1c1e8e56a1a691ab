package contract

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Mohsinsiddi/rollupdash/internal/chain"
	"github.com/Mohsinsiddi/rollupdash/internal/wallet"
)

// Anvil account #0.
const devKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	inputBoxAddr = common.HexToAddress("0xc70074BDD26d8cF983Ca6A5b89b8db52D5850051")
	appAddr      = common.HexToAddress("0xa966c86F18D463C90DA64940053B411Be671E77E")
)

// fakeBackend records what the contracts ask of the chain.
type fakeBackend struct {
	estimate    uint64
	estimateErr error
	callOut     []byte
	callErr     error
	sendErr     error
	receipt     *chain.TxReceipt

	calls []callRecord
	sent  []*types.Transaction
}

type callRecord struct {
	to   common.Address
	data []byte
}

func (f *fakeBackend) PendingNonce(context.Context, common.Address) (uint64, error) { return 7, nil }

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) { return big.NewInt(1e9), nil }

func (f *fakeBackend) BaseFee(context.Context) (*big.Int, error) { return big.NewInt(10e9), nil }

func (f *fakeBackend) EstimateGas(_ context.Context, _, _ common.Address, _ []byte, _ *big.Int) (uint64, error) {
	return f.estimate, f.estimateErr
}

func (f *fakeBackend) CallContract(_ context.Context, _, to common.Address, data []byte) ([]byte, error) {
	f.calls = append(f.calls, callRecord{to: to, data: data})
	return f.callOut, f.callErr
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) (common.Hash, error) {
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	f.sent = append(f.sent, tx)
	return tx.Hash(), nil
}

func (f *fakeBackend) WaitForReceipt(context.Context, common.Hash, time.Duration, time.Duration) (*chain.TxReceipt, error) {
	if f.receipt == nil {
		return nil, errors.New("not mined")
	}
	return f.receipt, nil
}

// revertErr mimics a JSON-RPC execution revert carrying revert data.
type revertErr struct{ data string }

func (e revertErr) Error() string          { return "execution reverted" }
func (e revertErr) ErrorCode() int         { return 3 }
func (e revertErr) ErrorData() interface{} { return e.data }

func devSigner() *wallet.Signer {
	ks := wallet.NewInMemoryKeystore()
	ref, _ := ks.Store("dev", devKey)
	return wallet.NewSigner(&wallet.Wallet{
		Name:    "dev",
		Address: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Type:    wallet.TypeSigning,
		KeyRef:  ref,
	}, ks)
}
