package ledger

import (
	"fmt"
	"math"

	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/domains/program/ports"
)

// The plan functions compute post-states from pre-states without touching storage.
// Stores load the pre-states, call a plan, and write every result or none.

func emptyAccount(addr model.Address) ports.Account {
	return ports.Account{Address: addr, Owner: model.SystemProgramID}
}

// inUse ignores lamports: a funded system-owned account with no data can still
// be allocated, and the payer only tops it up to the rent minimum.
func inUse(acc ports.Account) bool {
	return acc.Space > 0 || len(acc.Data) > 0 || acc.Owner != model.SystemProgramID
}

func planCreate(payer, target ports.Account, params ports.CreateAccountParams, rent RentPolicy) (ports.Account, ports.Account, error) {
	if params.Payer == params.Address {
		return ports.Account{}, ports.Account{}, ErrPayerIsNewAccount
	}
	if params.Space < 0 || params.Space > model.MaxPermittedDataLength {
		return ports.Account{}, ports.Account{}, fmt.Errorf("%w: %d", ErrInvalidSpace, params.Space)
	}
	if inUse(target) {
		return ports.Account{}, ports.Account{}, fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, params.Address)
	}
	if len(params.Data) > params.Space {
		return ports.Account{}, ports.Account{}, fmt.Errorf("%w: need %d bytes, allocated %d", ErrAccountDataTooSmall, len(params.Data), params.Space)
	}
	if len(payer.Data) > 0 {
		return ports.Account{}, ports.Account{}, ErrFromMustNotCarryData
	}
	var topUp uint64
	if required := rent.MinimumBalance(params.Space); target.Lamports < required {
		topUp = required - target.Lamports
	}
	if payer.Lamports < topUp {
		return ports.Account{}, ports.Account{}, fmt.Errorf("%w: payer %s has %d, needs %d", ErrInsufficientFundsForRent, params.Payer, payer.Lamports, topUp)
	}

	data := make([]byte, params.Space)
	copy(data, params.Data)
	payer.Lamports -= topUp
	created := ports.Account{
		Address:  params.Address,
		Lamports: target.Lamports + topUp,
		Owner:    params.Owner,
		Space:    params.Space,
		Data:     data,
	}
	return payer, created, nil
}

func planTransfer(from, to ports.Account, amount uint64) (ports.Account, ports.Account, error) {
	if len(from.Data) > 0 {
		return ports.Account{}, ports.Account{}, ErrFromMustNotCarryData
	}
	if from.Owner != model.SystemProgramID {
		return ports.Account{}, ports.Account{}, ErrFromNotSystemOwned
	}
	if from.Lamports < amount {
		return ports.Account{}, ports.Account{}, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientLamports, from.Address, from.Lamports, amount)
	}
	if from.Address == to.Address {
		return from, from, nil
	}
	credited, err := addLamports(to.Lamports, amount)
	if err != nil {
		return ports.Account{}, ports.Account{}, err
	}
	from.Lamports -= amount
	to.Lamports = credited
	return from, to, nil
}

// addLamports caps balances at MaxInt64 so every backend can store them.
func addLamports(balance, amount uint64) (uint64, error) {
	if amount > math.MaxInt64 || balance > math.MaxInt64-amount {
		return 0, ErrArithmeticOverflow
	}
	return balance + amount, nil
}

func cloneAccount(acc ports.Account) ports.Account {
	acc.Data = append([]byte(nil), acc.Data...)
	return acc
}
