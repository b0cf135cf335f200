package client

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

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/domains/program/transport"
	"hello-solana/go-backend/internal/domains/rpckit"
	"hello-solana/go-backend/pkg/models"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 4 << 20
)

// RPCError is an error object returned by the node. When it carries a program
// error, errors.Is matches the corresponding model.ProgramError.
type RPCError struct {
	Code    int
	Message string
	Data    json.RawMessage
	program *model.ProgramError
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (e *RPCError) Unwrap() error {
	if e.program == nil {
		return nil
	}
	return e.program
}

type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New accepts host:port or a full URL; a bare address is served at /rpc.
func New(endpoint, token string, opts ...Option) *Client {
	c := &Client{
		endpoint: normalizeEndpoint(endpoint),
		token:    strings.TrimSpace(token),
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func normalizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	if strings.Count(raw, "/") == 2 {
		raw += "/rpc"
	}
	return raw
}

func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	if err := c.Call(ctx, transport.MethodHealthCheck, nil, &out); err != nil {
		return err
	}
	if out["status"] != "ok" {
		return fmt.Errorf("unexpected health status %q", out["status"])
	}
	return nil
}

func (c *Client) Invoke(ctx context.Context, tx models.Transaction) (models.InvokeResult, error) {
	var out models.InvokeResult
	err := c.Call(ctx, transport.MethodProgramInvoke, []models.Transaction{tx}, &out)
	return out, err
}

func (c *Client) GetRecord(ctx context.Context, addr model.Address) (models.RecordView, error) {
	var out models.RecordView
	err := c.Call(ctx, transport.MethodProgramRecord, []string{addr.String()}, &out)
	return out, err
}

func (c *Client) ProgramInfo(ctx context.Context) (models.ProgramInfo, error) {
	var out models.ProgramInfo
	err := c.Call(ctx, transport.MethodProgramInfo, nil, &out)
	return out, err
}

func (c *Client) GetBalance(ctx context.Context, addr model.Address) (models.Balance, error) {
	var out models.Balance
	err := c.Call(ctx, transport.MethodLedgerBalance, []string{addr.String()}, &out)
	return out, err
}

func (c *Client) GetAccount(ctx context.Context, addr model.Address) (models.AccountInfo, error) {
	var out models.AccountInfo
	err := c.Call(ctx, transport.MethodLedgerAccount, []string{addr.String()}, &out)
	return out, err
}

func (c *Client) Airdrop(ctx context.Context, addr model.Address, lamports uint64) (models.AirdropResult, error) {
	var out models.AirdropResult
	params := map[string]any{"address": addr.String(), "lamports": lamports}
	err := c.Call(ctx, transport.MethodLedgerAirdrop, params, &out)
	return out, err
}

// Call performs one JSON-RPC request and decodes its result into out.
func (c *Client) Call(ctx context.Context, method string, params any, out any) (retErr error) {
	id := uuid.NewString()
	payload := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "cli."+id)
	if c.token != "" {
		req.Header.Set("X-Hello-RPC-Token", c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("rpc status %d: non-json response", resp.StatusCode)
	}
	parsed := gjson.ParseBytes(raw)
	if errObj := parsed.Get("error"); errObj.Exists() && errObj.Type != gjson.Null {
		return decodeRPCError(errObj)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc status %d", resp.StatusCode)
	}
	if got := parsed.Get("id").String(); got != id {
		return fmt.Errorf("rpc response id mismatch: got %q", got)
	}
	if out == nil {
		return nil
	}
	result := parsed.Get("result")
	if !result.Exists() {
		return errors.New("rpc response has no result")
	}
	return json.Unmarshal([]byte(result.Raw), out)
}

func decodeRPCError(errObj gjson.Result) error {
	e := &RPCError{
		Code:    int(errObj.Get("code").Int()),
		Message: errObj.Get("message").String(),
	}
	if data := errObj.Get("data"); data.Exists() {
		e.Data = json.RawMessage(data.Raw)
		if e.Code == rpckit.CodeProgramError {
			if pe, ok := model.LookupProgramError(uint32(data.Get("code").Uint())); ok {
				e.program = pe
			}
		}
	}
	return e
}
