package ports

import (
	"context"

	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/pkg/models"
)

// ProgramAPI is a transport-neutral contract for the hello program.
type ProgramAPI interface {
	Invoke(ctx context.Context, tx models.Transaction) (models.InvokeResult, error)
	GetRecord(ctx context.Context, addr model.Address) (models.RecordView, error)
	ProgramInfo(ctx context.Context) (models.ProgramInfo, error)
}

// LedgerAPI exposes read access to accounts plus the development faucet.
type LedgerAPI interface {
	GetBalance(ctx context.Context, addr model.Address) (models.Balance, error)
	GetAccount(ctx context.Context, addr model.Address) (models.AccountInfo, error)
	Airdrop(ctx context.Context, addr model.Address, lamports uint64) (models.AirdropResult, error)
}

type NodeService interface {
	ProgramAPI
	LedgerAPI
}

type CategorizedError struct {
	Category string
	Err      error
}

func (e *CategorizedError) Error() string {
	return e.Err.Error()
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}
