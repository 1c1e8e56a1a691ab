package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrReverted is returned by WaitForReceipt for a mined but failed transaction.
var ErrReverted = errors.New("transaction reverted")

// EVMClient talks to a base-layer chain over JSON-RPC.
type EVMClient struct {
	url string
	rpc *rpc.Client
	eth *ethclient.Client
}

// TxReceipt holds the parts of a mined transaction receipt the CLI reports.
type TxReceipt struct {
	Hash        common.Hash
	Status      uint64 // 1 = success, 0 = reverted
	BlockNumber uint64
	GasUsed     uint64
	Logs        []LogEntry
}

// LogEntry is one event log of a receipt.
type LogEntry struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

// NewEVMClient creates a client for url. HTTP endpoints are dialled lazily.
func NewEVMClient(url string) (*EVMClient, error) {
	hc := &http.Client{Timeout: 15 * time.Second}
	c, err := rpc.DialOptions(context.Background(), url, rpc.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return &EVMClient{url: url, rpc: c, eth: ethclient.NewClient(c)}, nil
}

// URL returns the endpoint this client talks to.
func (c *EVMClient) URL() string { return c.url }

// Close releases the underlying connection.
func (c *EVMClient) Close() { c.rpc.Close() }

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID(ctx context.Context) (int64, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_chainId: %w", err)
	}
	return id.Int64(), nil
}

// BlockNumber returns the latest block number.
func (c *EVMClient) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}
	return n, nil
}

// Ping tests the RPC endpoint and returns latency + block number.
func (c *EVMClient) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	blockNum, err = c.BlockNumber(ctx)
	return time.Since(start), blockNum, err
}

// PendingNonce returns the next nonce for address including queued transactions.
func (c *EVMClient) PendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	n, err := c.eth.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("getting nonce: %w", err)
	}
	return n, nil
}

// SuggestGasTipCap returns the node's suggested priority fee.
func (c *EVMClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	tip, err := c.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas tip: %w", err)
	}
	return tip, nil
}

// BaseFee returns the base fee of the latest block. Pre-London chains report zero.
func (c *EVMClient) BaseFee(ctx context.Context) (*big.Int, error) {
	var head struct {
		BaseFee *hexutil.Big `json:"baseFeePerGas"`
	}
	if err := c.rpc.CallContext(ctx, &head, "eth_getBlockByNumber", "latest", false); err != nil {
		return nil, fmt.Errorf("getting latest block: %w", err)
	}
	if head.BaseFee == nil {
		return new(big.Int), nil
	}
	return head.BaseFee.ToInt(), nil
}

// EstimateGas estimates gas for a call from -> to with data.
func (c *EVMClient) EstimateGas(ctx context.Context, from, to common.Address, data []byte, value *big.Int) (uint64, error) {
	return c.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data, Value: value})
}

// CallContract executes a read-only call against the latest block.
func (c *EVMClient) CallContract(ctx context.Context, from, to common.Address, data []byte) ([]byte, error) {
	return c.eth.CallContract(ctx, ethereum.CallMsg{From: from, To: &to, Data: data}, nil)
}

// SendTransaction broadcasts a signed transaction and returns its hash.
func (c *EVMClient) SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	if err := c.eth.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("broadcasting transaction: %w", err)
	}
	return tx.Hash(), nil
}

// TransactionReceipt fetches the receipt for hash.
// Returns nil, nil if the transaction is still pending.
func (c *EVMClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*TxReceipt, error) {
	var raw *struct {
		Status      hexutil.Uint64 `json:"status"`
		BlockNumber hexutil.Uint64 `json:"blockNumber"`
		GasUsed     hexutil.Uint64 `json:"gasUsed"`
		Logs        []LogEntry     `json:"logs"`
	}
	if err := c.rpc.CallContext(ctx, &raw, "eth_getTransactionReceipt", hash); err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	return &TxReceipt{
		Hash:        hash,
		Status:      uint64(raw.Status),
		BlockNumber: uint64(raw.BlockNumber),
		GasUsed:     uint64(raw.GasUsed),
		Logs:        raw.Logs,
	}, nil
}

// WaitForReceipt polls every interval until the transaction is mined, the
// timeout expires or ctx is cancelled. A reverted transaction returns its
// receipt together with ErrReverted.
func (c *EVMClient) WaitForReceipt(ctx context.Context, hash common.Hash, interval, timeout time.Duration) (*TxReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		receipt, err := c.TransactionReceipt(ctx, hash)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("transaction %s not mined within %s: %w", hash.Hex(), timeout, ctx.Err())
			}
			return nil, err
		}
		if receipt != nil {
			if receipt.Status == 0 {
				return receipt, fmt.Errorf("%w (hash: %s)", ErrReverted, hash.Hex())
			}
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined within %s: %w", hash.Hex(), timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// RevertReason reports whether err is an execution revert and, if so, the
// decoded reason (Error(string)) or the raw revert data.
func RevertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok {
			if raw, decErr := hexutil.Decode(data); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason, true
				}
				if len(raw) > 0 {
					return dataErr.Error() + " " + data, true
				}
			}
		}
	}
	msg := err.Error()
	if idx := strings.Index(msg, "execution reverted"); idx >= 0 {
		return strings.TrimSpace(msg[idx:]), true
	}
	if strings.Contains(msg, "revert") {
		return msg, true
	}
	return "", false
}

// FormatEther renders wei as a decimal ETH string without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	neg := wei.Sign() < 0
	abs := new(big.Int).Abs(wei)
	whole, frac := new(big.Int).QuoRem(abs, unit, new(big.Int))

	out := whole.String()
	if frac.Sign() != 0 {
		fs := frac.String()
		fs = strings.Repeat("0", 18-len(fs)) + fs
		out += "." + strings.TrimRight(fs, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}
