package node

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/rollupdash/internal/rollups"
)

const testApp = "0xa966c86F18D463C90DA64940053B411Be671E77E"

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// nodeMock serves canned JSON-RPC results on /rpc and records the params of
// every call so tests can assert on them.
type nodeMock struct {
	srv *httptest.Server

	mu     sync.Mutex
	params map[string]json.RawMessage

	inspect http.HandlerFunc
}

func newNodeMock(t *testing.T, responses map[string]interface{}) *nodeMock {
	t.Helper()
	m := &nodeMock{params: map[string]json.RawMessage{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			ID     json.RawMessage `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		m.mu.Lock()
		m.params[req.Method] = req.Params
		m.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if result, ok := responses[req.Method]; ok {
			json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  result,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
		})
	})
	mux.HandleFunc("/inspect/", func(w http.ResponseWriter, r *http.Request) {
		if m.inspect == nil {
			http.NotFound(w, r)
			return
		}
		m.inspect(w, r)
	})
	m.srv = httptest.NewServer(mux)
	t.Cleanup(m.srv.Close)
	return m
}

func (m *nodeMock) paramsOf(t *testing.T, method string) map[string]interface{} {
	t.Helper()
	m.mu.Lock()
	raw := m.params[method]
	m.mu.Unlock()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), "params of %s must be a by-name object: %s", method, raw)
	return out
}

func newTestClient(t *testing.T, m *nodeMock) *Client {
	t.Helper()
	c, err := New(context.Background(), m.srv.URL, testApp, WithRetryMax(0), WithTimeout(2*time.Second))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func u64(v uint64) *uint64 { return &v }
func str(s string) *string { return &s }

// ---------------------------------------------------------------------------
// construction
// ---------------------------------------------------------------------------

func TestNewRequiresApplication(t *testing.T) {
	_, err := New(context.Background(), "http://127.0.0.1:6751", "  ")
	assert.ErrorIs(t, err, ErrNoApplication)
}

func TestNewChecksumsAddressAndTrimsURL(t *testing.T) {
	c, err := New(context.Background(), "http://127.0.0.1:6751/", strings.ToLower(testApp))
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, testApp, c.Application())
	assert.Equal(t, "http://127.0.0.1:6751", c.URL())
}

func TestNewKeepsApplicationName(t *testing.T) {
	c, err := New(context.Background(), "http://127.0.0.1:6751", "echo-dapp")
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "echo-dapp", c.Application())
}

// ---------------------------------------------------------------------------
// list calls
// ---------------------------------------------------------------------------

func TestListReports(t *testing.T) {
	m := newNodeMock(t, map[string]interface{}{
		"cartesi_listReports": map[string]interface{}{
			"data": []interface{}{
				map[string]interface{}{
					"epoch_index": "0x1",
					"input_index": "0x2",
					"index":       "0x0",
					"raw_data":    "0x68656c6c6f",
					"created_at":  "2025-01-01T00:00:00Z",
				},
			},
			"pagination": map[string]interface{}{"total_count": 1, "limit": 50, "offset": 0},
		},
	})
	c := newTestClient(t, m)

	list, err := c.ListReports(context.Background(), ReportFilter{Limit: u64(10), EpochIndex: u64(1)})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	r := list.Data[0]
	assert.Equal(t, uint64(1), r.EpochIndex.Uint64())
	assert.Equal(t, uint64(2), r.InputIndex.Uint64())
	assert.Equal(t, []byte("hello"), []byte(r.RawData))
	assert.Equal(t, uint64(1), list.Pagination.TotalCount.Uint64())
	assert.Equal(t, uint64(50), list.Pagination.Limit.Uint64())

	want := map[string]interface{}{
		"application": testApp,
		"limit":       float64(10),
		"epoch_index": "0x1",
	}
	if diff := cmp.Diff(want, m.paramsOf(t, "cartesi_listReports")); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestListOutputs(t *testing.T) {
	execHash := common.HexToHash("0xabc")
	m := newNodeMock(t, map[string]interface{}{
		"cartesi_listOutputs": map[string]interface{}{
			"data": []interface{}{
				map[string]interface{}{
					"epoch_index":                "0x0",
					"input_index":                "0x0",
					"index":                      "0x3",
					"raw_data":                   "0xc258d6e5",
					"decoded_data":               map[string]interface{}{"type": "0xc258d6e5", "payload": "0x01"},
					"hash":                       common.HexToHash("0x01").Hex(),
					"output_hashes_siblings":     []string{common.HexToHash("0x02").Hex(), common.HexToHash("0x03").Hex()},
					"execution_transaction_hash": execHash.Hex(),
				},
			},
			"pagination": map[string]interface{}{"total_count": "0x1", "limit": "0x32", "offset": "0x0"},
		},
	})
	c := newTestClient(t, m)

	list, err := c.ListOutputs(context.Background(), OutputFilter{
		OutputType:     str("voucher"),
		VoucherAddress: str(strings.ToLower(testApp)),
	})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	o := list.Data[0]
	assert.Equal(t, uint64(3), o.Index.Uint64())
	assert.True(t, o.Executed())
	assert.True(t, o.HasProof())
	assert.Len(t, o.OutputHashesSiblings, 2)
	assert.Equal(t, execHash, *o.ExecutionTransactionHash)
	assert.Equal(t, "0xc258d6e5", o.DecodedData.Type)
	assert.Equal(t, uint64(50), list.Pagination.Limit.Uint64())

	got := m.paramsOf(t, "cartesi_listOutputs")
	assert.Equal(t, testApp, got["application"])
	assert.Equal(t, testApp, got["voucher_address"])
	voucherSel, err := rollups.OutputTypeSelector("voucher")
	require.NoError(t, err)
	assert.Equal(t, voucherSel, got["output_type"])
}

func TestListOutputsInvalidFilter(t *testing.T) {
	m := newNodeMock(t, nil)
	c := newTestClient(t, m)

	_, err := c.ListOutputs(context.Background(), OutputFilter{OutputType: str("report")})
	require.Error(t, err)
	_, err = c.ListOutputs(context.Background(), OutputFilter{VoucherAddress: str("0x12")})
	require.Error(t, err)
}

func TestListInputs(t *testing.T) {
	m := newNodeMock(t, map[string]interface{}{
		"cartesi_listInputs": map[string]interface{}{
			"data": []interface{}{
				map[string]interface{}{
					"epoch_index":  "0x0",
					"index":        "0x5",
					"block_number": "0x10",
					"raw_data":     "0x00",
					"status":       "ACCEPTED",
					"decoded_data": map[string]interface{}{
						"sender":  "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
						"payload": "0x6869",
						"index":   "0x5",
					},
				},
			},
			"pagination": map[string]interface{}{"total_count": 1, "limit": 50, "offset": 0},
		},
	})
	c := newTestClient(t, m)

	list, err := c.ListInputs(context.Background(), InputFilter{Sender: str("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	in := list.Data[0]
	assert.Equal(t, "ACCEPTED", in.Status)
	assert.Equal(t, uint64(16), in.BlockNumber.Uint64())
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", in.Sender())
	assert.Equal(t, []byte("hi"), in.Payload())

	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", m.paramsOf(t, "cartesi_listInputs")["sender"])
}

func TestListRPCError(t *testing.T) {
	c := newTestClient(t, newNodeMock(t, nil))
	_, err := c.ListReports(context.Background(), ReportFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cartesi_listReports")
}

// ---------------------------------------------------------------------------
// get calls
// ---------------------------------------------------------------------------

func TestGetOutputUnwrapsData(t *testing.T) {
	m := newNodeMock(t, map[string]interface{}{
		"cartesi_getOutput": map[string]interface{}{
			"data": map[string]interface{}{"epoch_index": "0x2", "input_index": "0x4", "index": "0x7", "raw_data": "0x"},
		},
	})
	c := newTestClient(t, m)

	o, err := c.GetOutput(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), o.Index.Uint64())
	assert.Equal(t, uint64(2), o.EpochIndex.Uint64())
	assert.False(t, o.Executed())
	assert.False(t, o.HasProof())

	assert.Equal(t, "0x7", m.paramsOf(t, "cartesi_getOutput")["output_index"])
}

func TestLastAcceptedEpoch(t *testing.T) {
	m := newNodeMock(t, map[string]interface{}{
		"cartesi_getLastAcceptedEpochIndex": map[string]interface{}{"data": "0xa"},
	})
	c := newTestClient(t, m)

	epoch, err := c.LastAcceptedEpoch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(10), epoch)
	assert.Equal(t, uint64(10), c.LastAcceptedEpochOrZero(context.Background()))
}

func TestLastAcceptedEpochOrZeroOnError(t *testing.T) {
	c := newTestClient(t, newNodeMock(t, nil))
	assert.Equal(t, uint64(0), c.LastAcceptedEpochOrZero(context.Background()))
}

func TestStatus(t *testing.T) {
	m := newNodeMock(t, map[string]interface{}{
		"cartesi_getNodeVersion":            map[string]interface{}{"data": "2.0.0"},
		"cartesi_getChainId":                map[string]interface{}{"data": "0x343a"},
		"cartesi_getProcessedInputCount":    map[string]interface{}{"data": 12},
		"cartesi_getLastAcceptedEpochIndex": "0x3",
	})
	c := newTestClient(t, m)

	s, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", s.NodeVersion)
	assert.Equal(t, uint64(13370), s.ChainID.Uint64())
	assert.Equal(t, uint64(12), s.ProcessedInputCount.Uint64())
	assert.Equal(t, uint64(3), s.LastAcceptedEpoch.Uint64())
}

func TestStatusPropagatesError(t *testing.T) {
	m := newNodeMock(t, map[string]interface{}{
		"cartesi_getNodeVersion": "2.0.0",
	})
	_, err := newTestClient(t, m).Status(context.Background())
	require.Error(t, err)
}

func TestFetchOutputsToleratesEpochFailure(t *testing.T) {
	m := newNodeMock(t, map[string]interface{}{
		"cartesi_listOutputs": map[string]interface{}{
			"data":       []interface{}{},
			"pagination": map[string]interface{}{"total_count": 0, "limit": 50, "offset": 0},
		},
	})
	snap, err := newTestClient(t, m).FetchOutputs(context.Background(), OutputFilter{})
	require.NoError(t, err)
	assert.Empty(t, snap.Outputs.Data)
	assert.Equal(t, uint64(0), snap.LastAcceptedEpoch)
}

// ---------------------------------------------------------------------------
// transport
// ---------------------------------------------------------------------------

func TestRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"Accepted","reports":[]}`) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), srv.URL, testApp, WithRetryMax(3), WithTimeout(time.Second))
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Inspect(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.True(t, res.Accepted())
	assert.Equal(t, int32(3), hits.Load())
}

func TestUnwrapParams(t *testing.T) {
	in := `{"jsonrpc":"2.0","id":1,"method":"m","params":[{"application":"echo"}]}`
	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(unwrapParams([]byte(in)), &got))
	assert.JSONEq(t, `{"application":"echo"}`, string(got["params"]))

	// Anything else passes through untouched.
	for _, body := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"m","params":[]}`,
		`{"jsonrpc":"2.0","id":1,"method":"m","params":["0x1",true]}`,
		`[{"jsonrpc":"2.0","id":1,"method":"m","params":[{}]}]`,
		`not json`,
	} {
		assert.Equal(t, body, string(unwrapParams([]byte(body))))
	}
}

func TestHexUint64Unmarshal(t *testing.T) {
	cases := map[string]uint64{
		`"0x1f"`: 31,
		`"0X10"`: 16,
		`"42"`:   42,
		`7`:      7,
		`null`:   0,
	}
	for in, want := range cases {
		var h HexUint64
		require.NoError(t, json.Unmarshal([]byte(in), &h), in)
		assert.Equal(t, want, h.Uint64(), in)
	}

	var h HexUint64
	assert.Error(t, json.Unmarshal([]byte(`"0xzz"`), &h))
	assert.Error(t, json.Unmarshal([]byte(`-1`), &h))
}

func TestHexUint64Marshal(t *testing.T) {
	b, err := json.Marshal(HexUint64(255))
	require.NoError(t, err)
	assert.Equal(t, `"0xff"`, string(b))
	assert.Equal(t, "255", HexUint64(255).String())
}
