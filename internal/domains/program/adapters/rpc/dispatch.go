package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"hello-solana/go-backend/internal/domains/contracts"
	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/domains/program/transport"
	"hello-solana/go-backend/internal/domains/rpckit"
	"hello-solana/go-backend/pkg/models"
)

var errInvalidParams = errors.New("invalid params")

// Dispatch serves the program and ledger methods. The boolean reports whether
// method belongs to this domain.
func Dispatch(ctx context.Context, service contracts.NodeService, method string, rawParams json.RawMessage) (any, *rpckit.Error, bool) {
	switch method {
	case transport.MethodProgramInvoke:
		tx, err := decodeTransactionParam(rawParams)
		if err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		result, err := service.Invoke(ctx, tx)
		if err != nil {
			return nil, MapError(err), true
		}
		return result, nil, true
	case transport.MethodProgramRecord:
		result, rpcErr := callWithAddressParam(rawParams, func(addr model.Address) (any, error) {
			return service.GetRecord(ctx, addr)
		})
		return result, rpcErr, true
	case transport.MethodProgramInfo:
		result, err := service.ProgramInfo(ctx)
		if err != nil {
			return nil, MapError(err), true
		}
		return result, nil, true
	case transport.MethodLedgerBalance:
		result, rpcErr := callWithAddressParam(rawParams, func(addr model.Address) (any, error) {
			return service.GetBalance(ctx, addr)
		})
		return result, rpcErr, true
	case transport.MethodLedgerAccount:
		result, rpcErr := callWithAddressParam(rawParams, func(addr model.Address) (any, error) {
			return service.GetAccount(ctx, addr)
		})
		return result, rpcErr, true
	case transport.MethodLedgerAirdrop:
		addr, lamports, err := decodeAirdropParams(rawParams)
		if err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		result, err := service.Airdrop(ctx, addr, lamports)
		if err != nil {
			return nil, MapError(err), true
		}
		return result, nil, true
	default:
		return nil, nil, false
	}
}

func callWithAddressParam(rawParams json.RawMessage, call func(model.Address) (any, error)) (any, *rpckit.Error) {
	addr, err := decodeAddressParam(rawParams)
	if err != nil {
		return nil, rpckit.InvalidParams()
	}
	result, err := call(addr)
	if err != nil {
		return nil, MapError(err)
	}
	return result, nil
}

// decodeAddressParam accepts ["<base58>"] or {"address": "<base58>"}.
func decodeAddressParam(raw json.RawMessage) (model.Address, error) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) != 1 {
			return model.Address{}, errInvalidParams
		}
		return model.ParseAddress(arr[0])
	}
	var payload struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || strings.TrimSpace(payload.Address) == "" {
		return model.Address{}, errInvalidParams
	}
	return model.ParseAddress(payload.Address)
}

// decodeTransactionParam accepts [tx] or {"transaction": tx}.
func decodeTransactionParam(raw json.RawMessage) (models.Transaction, error) {
	var arr []models.Transaction
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 1 {
		return arr[0], nil
	}
	var wrapper struct {
		Transaction *models.Transaction `json:"transaction"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Transaction != nil {
		return *wrapper.Transaction, nil
	}
	return models.Transaction{}, errInvalidParams
}

// decodeAirdropParams accepts ["<base58>", lamports] or {"address", "lamports"}.
func decodeAirdropParams(raw json.RawMessage) (model.Address, uint64, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) != 2 {
			return model.Address{}, 0, errInvalidParams
		}
		var address string
		var lamports uint64
		if err := json.Unmarshal(arr[0], &address); err != nil {
			return model.Address{}, 0, errInvalidParams
		}
		if err := json.Unmarshal(arr[1], &lamports); err != nil {
			return model.Address{}, 0, errInvalidParams
		}
		addr, err := model.ParseAddress(address)
		return addr, lamports, err
	}
	var payload struct {
		Address  string  `json:"address"`
		Lamports *uint64 `json:"lamports"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Lamports == nil {
		return model.Address{}, 0, errInvalidParams
	}
	addr, err := model.ParseAddress(payload.Address)
	return addr, *payload.Lamports, err
}
