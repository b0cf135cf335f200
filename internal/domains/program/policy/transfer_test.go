package policy

import (
	"errors"
	"testing"

	"hello-solana/go-backend/internal/domains/program/model"
)

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(0); !errors.Is(err, model.ErrInvalidAmount) {
		t.Fatalf("unexpected error: got=%v want=%v", err, model.ErrInvalidAmount)
	}
	if err := ValidateAmount(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateFunds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		amount  uint64
		balance uint64
		want    error
	}{
		{name: "amount above balance", amount: 150, balance: 100, want: model.ErrInsufficientFunds},
		{name: "amount equals balance", amount: 100, balance: 100},
		{name: "amount below balance", amount: 400, balance: 1000},
		{name: "max amount without funds", amount: ^uint64(0), balance: 1, want: model.ErrInsufficientFunds},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateFunds(tc.balance, tc.amount)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("unexpected error: got=%v want=%v", err, tc.want)
			}
		})
	}
}

func TestValidateCapacity(t *testing.T) {
	if err := ValidateCapacity(model.DefaultCapacity); err != nil {
		t.Fatalf("default capacity rejected: %v", err)
	}
	if err := ValidateCapacity(0); err == nil {
		t.Fatal("expected zero capacity to be rejected")
	}
	if err := ValidateCapacity(model.MaxPermittedDataLength); err == nil {
		t.Fatal("expected capacity above account limit to be rejected")
	}
}
