package runtime

import "errors"

var (
	ErrUnknownInstruction       = errors.New("unknown instruction")
	ErrInvalidInstructionData   = errors.New("invalid instruction data")
	ErrNotEnoughAccounts        = errors.New("not enough account keys given to the instruction")
	ErrTooManyAccounts          = errors.New("too many account keys given to the instruction")
	ErrMissingRequiredSignature = errors.New("missing required signature for instruction")
	ErrAccountNotWritable       = errors.New("instruction requires a writable account")
	ErrIncorrectProgramID       = errors.New("incorrect program id for instruction")
	ErrInvalidSignature         = errors.New("transaction signature verification failed")
	ErrUnexpectedSignature      = errors.New("signature supplied for a non-signer account")
	ErrAlreadyProcessed         = errors.New("transaction has already been processed")
	ErrNonceRequired            = errors.New("transaction nonce is required")
	ErrReservedAccount          = errors.New("reserved account used in a signer or writable slot")
)
