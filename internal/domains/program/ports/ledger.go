package ports

import (
	"context"

	"hello-solana/go-backend/internal/domains/program/model"
)

// Account is the ledger's view of one address.
type Account struct {
	Address  model.Address
	Lamports uint64
	Owner    model.Address
	Space    int
	Data     []byte
}

// CreateAccountParams describes one payer-funded allocation.
// Data must fit within Space; the ledger rejects it otherwise.
type CreateAccountParams struct {
	Payer   model.Address
	Address model.Address
	Owner   model.Address
	Space   int
	Data    []byte
}

// Ledger owns balances and account storage. Every mutating call is atomic:
// on error no balance or account state has changed.
type Ledger interface {
	// Balance returns 0 for addresses the ledger has never seen.
	Balance(ctx context.Context, addr model.Address) (uint64, error)
	Account(ctx context.Context, addr model.Address) (Account, error)
	CreateAccount(ctx context.Context, params CreateAccountParams) error
	DebitCredit(ctx context.Context, from, to model.Address, amount uint64) error
}
