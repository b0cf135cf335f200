package ledger

import "errors"

var (
	ErrAccountNotFound          = errors.New("account not found")
	ErrAccountAlreadyInUse      = errors.New("account already in use")
	ErrAccountDataTooSmall      = errors.New("account data too small for instruction")
	ErrInvalidSpace             = errors.New("requested account space is invalid")
	ErrInsufficientFundsForRent = errors.New("insufficient funds for rent")
	ErrInsufficientLamports     = errors.New("insufficient lamports")
	ErrFromMustNotCarryData     = errors.New("from account must not carry data")
	ErrFromNotSystemOwned       = errors.New("from account is not owned by the system program")
	ErrPayerIsNewAccount        = errors.New("payer and new account must differ")
	ErrArithmeticOverflow       = errors.New("lamport arithmetic overflow")
	ErrFaucetDisabled           = errors.New("faucet is disabled")
	ErrFaucetLimit              = errors.New("airdrop exceeds faucet limit")
	ErrInvalidAirdropAmount     = errors.New("airdrop amount must be greater than 0")
	ErrStoreClosed              = errors.New("ledger store is closed")
)
