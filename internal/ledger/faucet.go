package ledger

import (
	"context"
	"fmt"

	"hello-solana/go-backend/internal/domains/program/model"
)

// Funder mints lamports. Only development faucets should hold one.
type Funder interface {
	Credit(ctx context.Context, addr model.Address, lamports uint64) (uint64, error)
}

type Faucet struct {
	funder      Funder
	enabled     bool
	maxLamports uint64
}

func NewFaucet(funder Funder, enabled bool, maxLamports uint64) *Faucet {
	return &Faucet{funder: funder, enabled: enabled && funder != nil, maxLamports: maxLamports}
}

func (f *Faucet) Enabled() bool {
	return f != nil && f.enabled
}

// Airdrop credits addr and returns its new balance.
func (f *Faucet) Airdrop(ctx context.Context, addr model.Address, lamports uint64) (uint64, error) {
	if !f.Enabled() {
		return 0, ErrFaucetDisabled
	}
	if lamports == 0 {
		return 0, ErrInvalidAirdropAmount
	}
	if f.maxLamports > 0 && lamports > f.maxLamports {
		return 0, fmt.Errorf("%w: requested %d, max %d", ErrFaucetLimit, lamports, f.maxLamports)
	}
	return f.funder.Credit(ctx, addr, lamports)
}
