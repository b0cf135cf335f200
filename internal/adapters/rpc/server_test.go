package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/platform/observability"
	"hello-solana/go-backend/pkg/models"
)

type stubNode struct {
	mu      sync.Mutex
	invokes int
	err     error
}

func (s *stubNode) Invoke(_ context.Context, tx models.Transaction) (models.InvokeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invokes++
	if s.err != nil {
		return models.InvokeResult{}, s.err
	}
	return models.InvokeResult{Signature: "sig-" + tx.Nonce, Operation: tx.Invocation.Operation}, nil
}

func (s *stubNode) GetRecord(_ context.Context, addr model.Address) (models.RecordView, error) {
	return models.RecordView{Address: addr.String(), Hello: "hi"}, nil
}

func (s *stubNode) ProgramInfo(context.Context) (models.ProgramInfo, error) {
	return models.ProgramInfo{ProgramID: model.DefaultProgramID, Capacity: 200, Space: 208}, nil
}

func (s *stubNode) GetBalance(_ context.Context, addr model.Address) (models.Balance, error) {
	return models.Balance{Address: addr.String(), Lamports: 1000}, nil
}

func (s *stubNode) GetAccount(_ context.Context, addr model.Address) (models.AccountInfo, error) {
	return models.AccountInfo{Address: addr.String()}, nil
}

func (s *stubNode) Airdrop(_ context.Context, addr model.Address, lamports uint64) (models.AirdropResult, error) {
	return models.AirdropResult{Address: addr.String(), Lamports: lamports, Balance: lamports}, nil
}

func newTestServer(t *testing.T, node *stubNode, opts Options) *Server {
	t.Helper()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewServer(node, opts)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s
}

type rpcResult struct {
	status int
	header http.Header
	body   map[string]any
}

func call(t *testing.T, h http.Handler, body string, headers map[string]string) rpcResult {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	out := rpcResult{status: rec.Code, header: rec.Header()}
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out.body); err != nil {
			t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
		}
	}
	return out
}

func errorCode(t *testing.T, r rpcResult) int {
	t.Helper()
	errObj, ok := r.body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %v", r.body)
	}
	return int(errObj["code"].(float64))
}

func TestHealthCheckMethodAndEndpoint(t *testing.T) {
	s := newTestServer(t, &stubNode{}, Options{})
	h := s.Routes()

	res := call(t, h, `{"jsonrpc":"2.0","id":1,"method":"health_check"}`, nil)
	if res.status != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=200", res.status)
	}
	result, _ := res.body["result"].(map[string]any)
	if result["status"] != "ok" {
		t.Fatalf("unexpected result: %v", res.body)
	}
	if res.header.Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected healthz: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, &stubNode{}, Options{})
	res := call(t, s.Routes(), `{"jsonrpc":"2.0","id":1,"method":"health_check"}`, map[string]string{requestIDHeader: "cli.42"})
	if got := res.header.Get(requestIDHeader); got != "cli.42" {
		t.Fatalf("unexpected request id: got=%q want=%q", got, "cli.42")
	}
}

func TestJSONRPCProtocolErrors(t *testing.T) {
	s := newTestServer(t, &stubNode{}, Options{})
	h := s.Routes()

	cases := []struct {
		name string
		body string
		want int
	}{
		{"parse", `{"jsonrpc":`, -32700},
		{"version", `{"jsonrpc":"1.0","id":1,"method":"health_check"}`, -32600},
		{"trailing", `{"jsonrpc":"2.0","id":1,"method":"health_check"}{}`, -32600},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"identity.get"}`, -32601},
		{"bad params", `{"jsonrpc":"2.0","id":1,"method":"ledger.get_balance","params":[]}`, -32602},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := errorCode(t, call(t, h, tc.body, nil)); got != tc.want {
				t.Fatalf("unexpected code: got=%d want=%d", got, tc.want)
			}
		})
	}
}

func TestTokenAuth(t *testing.T) {
	s := newTestServer(t, &stubNode{}, Options{Token: "s3cret"})
	h := s.Routes()
	body := `{"jsonrpc":"2.0","id":1,"method":"program.info"}`

	res := call(t, h, body, nil)
	if res.status != http.StatusUnauthorized || errorCode(t, res) != -32001 {
		t.Fatalf("expected unauthorized, got %d %v", res.status, res.body)
	}
	res = call(t, h, body, map[string]string{rpcTokenHeader: "wrong"})
	if res.status != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for wrong token, got %d", res.status)
	}
	res = call(t, h, body, map[string]string{"Authorization": "Bearer s3cret"})
	if res.status != http.StatusOK || res.body["error"] != nil {
		t.Fatalf("expected success with bearer token, got %d %v", res.status, res.body)
	}
	res = call(t, h, body, map[string]string{rpcTokenHeader: "s3cret"})
	if res.status != http.StatusOK || res.body["error"] != nil {
		t.Fatalf("expected success with header token, got %d %v", res.status, res.body)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	metrics := observability.NewMetrics()
	s := newTestServer(t, &stubNode{}, Options{RateLimitRPS: 1, RateLimitBurst: 2, Metrics: metrics})
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	h := s.Routes()
	body := `{"jsonrpc":"2.0","id":1,"method":"health_check"}`

	for i := 0; i < 2; i++ {
		if res := call(t, h, body, nil); res.status != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i, res.status)
		}
	}
	res := call(t, h, body, nil)
	if res.status != http.StatusTooManyRequests || errorCode(t, res) != -32029 {
		t.Fatalf("expected rate limit, got %d %v", res.status, res.body)
	}
}

func TestProgramErrorCarriesData(t *testing.T) {
	node := &stubNode{err: model.ErrInvalidAmount}
	s := newTestServer(t, node, Options{})
	res := call(t, s.Routes(), `{"jsonrpc":"2.0","id":7,"method":"program.invoke","params":[{"invocation":{"operation":"transfer_lamports"},"nonce":"n"}]}`, nil)
	if errorCode(t, res) != -32000 {
		t.Fatalf("unexpected error: %v", res.body)
	}
	errObj := res.body["error"].(map[string]any)
	if errObj["message"] != "The transfer amount must be greater than 0" {
		t.Fatalf("unexpected message: %v", errObj["message"])
	}
	data := errObj["data"].(map[string]any)
	if data["name"] != "InvalidAmount" || data["code"].(float64) != 6000 {
		t.Fatalf("unexpected data: %v", data)
	}
	if res.body["id"].(float64) != 7 {
		t.Fatalf("id must be echoed: %v", res.body["id"])
	}
}

func TestIdempotentInvoke(t *testing.T) {
	node := &stubNode{}
	s := newTestServer(t, node, Options{})
	h := s.Routes()
	headers := map[string]string{idempotencyHeader: "k-1"}
	body := `{"jsonrpc":"2.0","id":1,"method":"program.invoke","params":[{"invocation":{"operation":"transfer_lamports"},"nonce":"a"}]}`

	first := call(t, h, body, headers)
	second := call(t, h, strings.Replace(body, `"id":1`, `"id":2`, 1), headers)
	if node.invokes != 1 {
		t.Fatalf("expected a single invoke, got %d", node.invokes)
	}
	if first.body["result"].(map[string]any)["signature"] != second.body["result"].(map[string]any)["signature"] {
		t.Fatalf("replayed result differs: %v vs %v", first.body, second.body)
	}
	if second.body["id"].(float64) != 2 {
		t.Fatalf("replayed response must carry the new id: %v", second.body["id"])
	}

	conflict := call(t, h, strings.Replace(body, `"nonce":"a"`, `"nonce":"b"`, 1), headers)
	if errorCode(t, conflict) != -32600 {
		t.Fatalf("expected conflict, got %v", conflict.body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observability.NewMetrics()
	s := newTestServer(t, &stubNode{}, Options{Metrics: metrics})
	h := s.Routes()
	call(t, h, `{"jsonrpc":"2.0","id":1,"method":"no.such.method"}`, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `hello_program_rpc_requests_total{code="-32601",method="unknown"} 1`) {
		t.Fatalf("unknown method not counted:\n%s", rec.Body.String())
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &stubNode{}, Options{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	_ = resp.Body.Close()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
