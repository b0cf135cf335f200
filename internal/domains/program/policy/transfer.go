package policy

import (
	"fmt"

	"hello-solana/go-backend/internal/domains/program/model"
)

// ValidateAmount is the first transfer check and runs before any balance is read.
func ValidateAmount(amount uint64) error {
	if amount == 0 {
		return model.ErrInvalidAmount
	}
	return nil
}

// ValidateFunds compares a freshly read balance against the requested amount.
func ValidateFunds(balance, amount uint64) error {
	if balance < amount {
		return model.ErrInsufficientFunds
	}
	return nil
}

func ValidateCapacity(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("record capacity must be positive, got %d", capacity)
	}
	if model.RecordSpace(capacity) > model.MaxPermittedDataLength {
		return fmt.Errorf("record capacity %d exceeds max account data length %d", capacity, model.MaxPermittedDataLength)
	}
	return nil
}
