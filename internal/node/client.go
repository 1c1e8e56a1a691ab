// Package node talks to a Cartesi rollup node: the inspect endpoint and the
// cartesi_* JSON-RPC API.
package node

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoApplication is returned when no application address is configured.
var ErrNoApplication = errors.New("no application address")

const (
	defaultRetryMax = 3
	defaultTimeout  = 15 * time.Second
)

// Client is a rollup node client bound to one application.
type Client struct {
	baseURL string
	app     string
	http    *http.Client
	rpc     *rpc.Client
	log     *zap.Logger

	retryMax int
	timeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRetryMax sets how many times idempotent requests are retried.
func WithRetryMax(n int) Option {
	return func(c *Client) { c.retryMax = n }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the node at nodeURL and the application app
// (an address or an application name).
func New(ctx context.Context, nodeURL, app string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(app) == "" {
		return nil, ErrNoApplication
	}
	if common.IsHexAddress(app) {
		app = common.HexToAddress(app).Hex()
	}
	c := &Client{
		baseURL:  strings.TrimRight(nodeURL, "/"),
		app:      app,
		log:      zap.NewNop(),
		retryMax: defaultRetryMax,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = newHTTPClient(c.retryMax, c.timeout, c.log)

	rpcHTTP := &http.Client{
		Transport: byNameParams{next: c.http.Transport},
		Timeout:   c.http.Timeout,
	}
	rc, err := rpc.DialOptions(ctx, c.baseURL+"/rpc", rpc.WithHTTPClient(rpcHTTP))
	if err != nil {
		return nil, fmt.Errorf("dialing node %s: %w", c.baseURL, err)
	}
	c.rpc = rc
	return c, nil
}

// Close releases the JSON-RPC client.
func (c *Client) Close() { c.rpc.Close() }

// Application returns the application the client is bound to.
func (c *Client) Application() string { return c.app }

// URL returns the node base URL.
func (c *Client) URL() string { return c.baseURL }

func (c *Client) call(ctx context.Context, result any, method string, params Params) error {
	start := time.Now()
	var raw json.RawMessage
	var err error
	if params == nil {
		err = c.rpc.CallContext(ctx, &raw, method)
	} else {
		err = c.rpc.CallContext(ctx, &raw, method, params)
	}
	c.log.Debug("node rpc",
		zap.String("method", method),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if err := decodeData(raw, result); err != nil {
		return fmt.Errorf("%s: decoding result: %w", method, err)
	}
	return nil
}

// decodeData decodes raw into dst, unwrapping a lone {"data": ...} envelope.
// List results keep their envelope because dst carries the pagination too.
func decodeData(raw json.RawMessage, dst any) error {
	switch dst.(type) {
	case *ReportList, *OutputList, *InputList:
		return json.Unmarshal(raw, dst)
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err == nil && len(env) == 1 {
		if data, ok := env["data"]; ok {
			return json.Unmarshal(data, dst)
		}
	}
	return json.Unmarshal(raw, dst)
}

// ListReports returns reports matching f.
func (c *Client) ListReports(ctx context.Context, f ReportFilter) (*ReportList, error) {
	var out ReportList
	if err := c.call(ctx, &out, "cartesi_listReports", f.Params(c.app)); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOutputs returns outputs matching f.
func (c *Client) ListOutputs(ctx context.Context, f OutputFilter) (*OutputList, error) {
	params, err := f.Params(c.app)
	if err != nil {
		return nil, err
	}
	var out OutputList
	if err := c.call(ctx, &out, "cartesi_listOutputs", params); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInputs returns inputs matching f.
func (c *Client) ListInputs(ctx context.Context, f InputFilter) (*InputList, error) {
	params, err := f.Params(c.app)
	if err != nil {
		return nil, err
	}
	var out InputList
	if err := c.call(ctx, &out, "cartesi_listInputs", params); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOutput fetches a single output by its index.
func (c *Client) GetOutput(ctx context.Context, index uint64) (*Output, error) {
	params := Params{"application": c.app}
	setIndex(params, "output_index", &index)
	var out Output
	if err := c.call(ctx, &out, "cartesi_getOutput", params); err != nil {
		return nil, err
	}
	return &out, nil
}

// LastAcceptedEpoch returns the index of the most recent epoch whose claim
// was accepted on the base layer.
func (c *Client) LastAcceptedEpoch(ctx context.Context) (uint64, error) {
	var out HexUint64
	if err := c.call(ctx, &out, "cartesi_getLastAcceptedEpochIndex", Params{"application": c.app}); err != nil {
		return 0, err
	}
	return out.Uint64(), nil
}

// LastAcceptedEpochOrZero is LastAcceptedEpoch with failures read as epoch 0,
// which keeps every output "Not Ready" until the node answers.
func (c *Client) LastAcceptedEpochOrZero(ctx context.Context) uint64 {
	epoch, err := c.LastAcceptedEpoch(ctx)
	if err != nil {
		c.log.Warn("last accepted epoch unavailable", zap.Error(err))
		return 0
	}
	return epoch
}

// ProcessedInputCount returns how many inputs the application has processed.
func (c *Client) ProcessedInputCount(ctx context.Context) (uint64, error) {
	var out HexUint64
	if err := c.call(ctx, &out, "cartesi_getProcessedInputCount", Params{"application": c.app}); err != nil {
		return 0, err
	}
	return out.Uint64(), nil
}

// ChainID returns the base-layer chain id the node is following.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	var out HexUint64
	if err := c.call(ctx, &out, "cartesi_getChainId", nil); err != nil {
		return 0, err
	}
	return out.Uint64(), nil
}

// NodeVersion returns the node software version.
func (c *Client) NodeVersion(ctx context.Context) (string, error) {
	var out string
	if err := c.call(ctx, &out, "cartesi_getNodeVersion", nil); err != nil {
		return "", err
	}
	return out, nil
}

// Status gathers version, chain id, processed inputs and last accepted epoch
// concurrently. The first failure cancels the rest.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var s Status
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.NodeVersion(gctx)
		s.NodeVersion = v
		return err
	})
	g.Go(func() error {
		v, err := c.ChainID(gctx)
		s.ChainID = HexUint64(v)
		return err
	})
	g.Go(func() error {
		v, err := c.ProcessedInputCount(gctx)
		s.ProcessedInputCount = HexUint64(v)
		return err
	})
	g.Go(func() error {
		v, err := c.LastAcceptedEpoch(gctx)
		s.LastAcceptedEpoch = HexUint64(v)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Snapshot is what the dashboard shows for one refresh.
type Snapshot struct {
	Outputs           *OutputList
	LastAcceptedEpoch uint64
}

// FetchOutputs loads outputs and the last accepted epoch concurrently. A
// failed epoch lookup reads as epoch 0.
func (c *Client) FetchOutputs(ctx context.Context, f OutputFilter) (*Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := c.ListOutputs(gctx, f)
		snap.Outputs = out
		return err
	})
	g.Go(func() error {
		snap.LastAcceptedEpoch = c.LastAcceptedEpochOrZero(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("node returned %s: %s", resp.Status, snippet(data))
	}
	return data, nil
}
