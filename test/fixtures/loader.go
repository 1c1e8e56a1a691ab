package fixtures

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixturesDir returns the absolute path to the fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// LoadNodeResult loads the canned JSON-RPC result of a node method.
func LoadNodeResult(t *testing.T, filename string) json.RawMessage {
	t.Helper()
	path := filepath.Join(fixturesDir(), "node", filename)
	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to load node fixture: %s", filename)
	require.True(t, json.Valid(data), "node fixture %s is not valid JSON", filename)
	return data
}

// NodeResults maps the node methods the fixtures cover to their results.
func NodeResults(t *testing.T) map[string]json.RawMessage {
	t.Helper()
	return map[string]json.RawMessage{
		"cartesi_listReports":               LoadNodeResult(t, "list_reports.json"),
		"cartesi_listOutputs":               LoadNodeResult(t, "list_outputs.json"),
		"cartesi_getLastAcceptedEpochIndex": LoadNodeResult(t, "last_accepted_epoch.json"),
		"cartesi_getChainId":                json.RawMessage(`"0x343a"`),
		"cartesi_getNodeVersion":            json.RawMessage(`"2.0.0"`),
		"cartesi_getProcessedInputCount":    json.RawMessage(`"0x3"`),
	}
}

// NodeServer is an httptest server answering node JSON-RPC calls on /rpc
// from results. Unknown methods get a JSON-RPC "method not found" error.
func NodeServer(t *testing.T, results map[string]json.RawMessage) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			ID     json.RawMessage `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if result, ok := results[req.Method]; ok {
			resp["result"] = result
		} else {
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
