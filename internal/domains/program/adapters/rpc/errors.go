package rpc

import (
	"errors"

	"hello-solana/go-backend/internal/domains/contracts"
	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/domains/program/usecase"
	"hello-solana/go-backend/internal/domains/rpckit"
	"hello-solana/go-backend/internal/ledger"
	"hello-solana/go-backend/internal/runtime"
)

type codedError struct {
	target error
	code   int
}

var ledgerCodes = []codedError{
	{ledger.ErrAccountNotFound, rpckit.CodeLedgerFirst},
	{ledger.ErrAccountAlreadyInUse, rpckit.CodeLedgerFirst - 1},
	{ledger.ErrAccountDataTooSmall, rpckit.CodeLedgerFirst - 2},
	{ledger.ErrInvalidSpace, rpckit.CodeLedgerFirst - 2},
	{ledger.ErrInsufficientFundsForRent, rpckit.CodeLedgerFirst - 3},
	{ledger.ErrInsufficientLamports, rpckit.CodeLedgerFirst - 4},
	{ledger.ErrFromMustNotCarryData, rpckit.CodeLedgerFirst - 5},
	{ledger.ErrFromNotSystemOwned, rpckit.CodeLedgerFirst - 6},
	{ledger.ErrPayerIsNewAccount, rpckit.CodeLedgerFirst - 7},
	{ledger.ErrArithmeticOverflow, rpckit.CodeLedgerFirst - 8},
	{ledger.ErrFaucetDisabled, rpckit.CodeLedgerFirst - 9},
	{ledger.ErrFaucetLimit, rpckit.CodeLedgerFirst - 9},
	{ledger.ErrInvalidAirdropAmount, rpckit.CodeLedgerFirst - 9},
}

var runtimeCodes = []codedError{
	{runtime.ErrUnknownInstruction, rpckit.CodeRuntimeFirst},
	{runtime.ErrInvalidInstructionData, rpckit.CodeRuntimeFirst - 1},
	{runtime.ErrNotEnoughAccounts, rpckit.CodeRuntimeFirst - 2},
	{runtime.ErrTooManyAccounts, rpckit.CodeRuntimeFirst - 2},
	{runtime.ErrReservedAccount, rpckit.CodeRuntimeFirst - 2},
	{runtime.ErrMissingRequiredSignature, rpckit.CodeRuntimeFirst - 3},
	{runtime.ErrAccountNotWritable, rpckit.CodeRuntimeFirst - 4},
	{runtime.ErrIncorrectProgramID, rpckit.CodeRuntimeFirst - 5},
	{runtime.ErrInvalidSignature, rpckit.CodeRuntimeFirst - 6},
	{runtime.ErrUnexpectedSignature, rpckit.CodeRuntimeFirst - 6},
	{runtime.ErrAlreadyProcessed, rpckit.CodeRuntimeFirst - 7},
	{runtime.ErrNonceRequired, rpckit.CodeRuntimeFirst - 8},
}

// MapError translates a service error into its JSON-RPC code. Program errors
// carry their numeric code and name in Data.
func MapError(err error) *rpckit.Error {
	if err == nil {
		return nil
	}
	out := mapCode(err)
	out.Category = contracts.ErrorCategory(err)
	return out
}

func mapCode(err error) *rpckit.Error {
	var programErr *model.ProgramError
	if errors.As(err, &programErr) {
		return &rpckit.Error{
			Code:    rpckit.CodeProgramError,
			Message: programErr.Message,
			Data:    rpckit.ProgramErrorData{Code: programErr.Code, Name: programErr.Name},
		}
	}
	if errors.Is(err, model.ErrInvalidAddress) {
		return rpckit.ServiceError(rpckit.CodeInvalidParams, err)
	}
	for _, group := range [][]codedError{ledgerCodes, runtimeCodes} {
		for _, c := range group {
			if errors.Is(err, c.target) {
				return rpckit.ServiceError(c.code, err)
			}
		}
	}
	switch {
	case errors.Is(err, usecase.ErrNotProgramAccount),
		errors.Is(err, model.ErrDiscriminatorMismatch),
		errors.Is(err, model.ErrRecordTruncated),
		errors.Is(err, model.ErrRecordNotUTF8):
		return rpckit.ServiceError(rpckit.CodeRecordInvalid, err)
	}
	return rpckit.ServiceError(rpckit.CodeInternal, err)
}
