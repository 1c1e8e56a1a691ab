package node

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// newHTTPClient returns a retrying client. Requests are retried on
// connection errors and 5xx responses.
func newHTTPClient(retryMax int, timeout time.Duration, log *zap.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = zapLeveled{log.Sugar()}
	return rc.StandardClient()
}

// zapLeveled adapts zap to retryablehttp.LeveledLogger.
type zapLeveled struct{ s *zap.SugaredLogger }

func (l zapLeveled) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l zapLeveled) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l zapLeveled) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l zapLeveled) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }

// byNameParams rewrites single-object positional params ("params":[{...}])
// into by-name params ("params":{...}), which is what the node's JSON-RPC
// server expects.
type byNameParams struct {
	next http.RoundTripper
}

func (t byNameParams) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body == nil || req.Method != http.MethodPost {
		return t.next.RoundTrip(req)
	}
	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	body = unwrapParams(body)

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.ContentLength = int64(len(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return t.next.RoundTrip(out)
}

func unwrapParams(body []byte) []byte {
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return body
	}
	var params []json.RawMessage
	if err := json.Unmarshal(msg["params"], &params); err != nil || len(params) != 1 {
		return body
	}
	if p := bytes.TrimSpace(params[0]); len(p) == 0 || p[0] != '{' {
		return body
	}
	msg["params"] = params[0]
	out, err := json.Marshal(msg)
	if err != nil {
		return body
	}
	return out
}
