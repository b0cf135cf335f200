package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	programrpc "hello-solana/go-backend/internal/domains/program/adapters/rpc"
	"hello-solana/go-backend/internal/domains/program/transport"
	"hello-solana/go-backend/internal/domains/rpckit"
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

const maxRPCBodyBytes int64 = 1 << 20 // 1 MiB

var knownMethods = map[string]struct{}{
	transport.MethodHealthCheck:   {},
	transport.MethodProgramInvoke: {},
	transport.MethodProgramRecord: {},
	transport.MethodProgramInfo:   {},
	transport.MethodLedgerBalance: {},
	transport.MethodLedgerAccount: {},
	transport.MethodLedgerAirdrop: {},
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	reqID := requestIDFrom(r.Context())
	token := extractRPCToken(r)
	if !s.authorized(token) {
		s.logger.Warn("rpc unauthorized", "request_id", reqID, "remote_addr", r.RemoteAddr)
		writeRPCStatus(w, http.StatusUnauthorized, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: rpckit.CodeUnauthorized, Message: "unauthorized"},
		})
		return
	}
	scope := callerScope(r, token)
	if !s.limiter.Allow(scope, s.now()) {
		if s.metrics != nil {
			s.metrics.ObserveRateLimited()
		}
		writeRPCStatus(w, http.StatusTooManyRequests, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: rpckit.CodeRateLimited, Message: "rate limit exceeded"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRPCBodyBytes)
	var req rpcRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeRPC(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: rpckit.CodeParseError, Message: "parse error"},
		})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeRPCInvalidRequest(w, req.ID)
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeRPCInvalidRequest(w, req.ID)
		return
	}

	if key := strings.TrimSpace(r.Header.Get(idempotencyHeader)); key != "" && req.Method == transport.MethodProgramInvoke {
		s.serveIdempotent(r.Context(), w, scope+"|"+key, req)
		return
	}
	writeRPC(w, s.execute(r.Context(), req))
}

// serveIdempotent replays the stored result for a repeated key and rejects a
// key reused with different parameters.
func (s *Server) serveIdempotent(ctx context.Context, w http.ResponseWriter, key string, req rpcRequest) {
	fp := invokeFingerprint(req.Method, req.Params)
	resp, outcome := s.invokes.do(key, fp, s.now(), func() rpcResponse {
		return s.execute(ctx, req)
	})
	switch outcome {
	case cacheConflict:
		resp = rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: rpckit.CodeInvalidRequest, Message: "idempotency key reused with different parameters"},
		}
	case cacheHit:
		s.logger.Info("rpc idempotent replay", "request_id", requestIDFrom(ctx), "method", req.Method)
	}
	resp.ID = req.ID
	writeRPC(w, resp)
}

func (s *Server) execute(ctx context.Context, req rpcRequest) rpcResponse {
	reqID := requestIDFrom(ctx)
	started := time.Now()
	s.logger.Debug("rpc request", "request_id", reqID, "method", req.Method, "rpc_id", string(req.ID))

	result, rpcErr := s.dispatchRPC(ctx, req.Method, req.Params)
	elapsed := time.Since(started)
	code := 0
	if rpcErr != nil {
		code = rpcErr.Code
		s.logger.Warn("rpc failed",
			"request_id", reqID,
			"method", req.Method,
			"rpc_code", rpcErr.Code,
			"error_category", rpcErr.Category,
			"error", rpcErr.Message,
			"latency_ms", elapsed.Milliseconds(),
		)
	} else {
		s.logger.Info("rpc response", "request_id", reqID, "method", req.Method, "latency_ms", elapsed.Milliseconds())
	}
	if s.metrics != nil {
		s.metrics.ObserveRPC(metricMethod(req.Method), code, elapsed)
	}
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
	if rpcErr != nil {
		resp.Result = nil
		resp.Error = &rpcError{Code: rpcErr.Code, Message: rpcErr.Message, Data: rpcErr.Data}
	}
	return resp
}

func (s *Server) dispatchRPC(ctx context.Context, method string, rawParams json.RawMessage) (any, *rpckit.Error) {
	if method == transport.MethodHealthCheck {
		return map[string]string{"status": "ok"}, nil
	}
	if result, rpcErr, ok := programrpc.Dispatch(ctx, s.service, method, rawParams); ok {
		return result, rpcErr
	}
	return nil, rpckit.MethodNotFound()
}

func metricMethod(method string) string {
	if _, ok := knownMethods[method]; ok {
		return method
	}
	return "unknown"
}

func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	writeRPCStatus(w, http.StatusOK, resp)
}

func writeRPCStatus(w http.ResponseWriter, status int, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeRPCInvalidRequest(w http.ResponseWriter, id json.RawMessage) {
	writeRPC(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: rpckit.CodeInvalidRequest, Message: "invalid request"},
	})
}
