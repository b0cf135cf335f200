package model

// ProgramError is an application error raised by the program itself.
// Values compare equal under errors.Is when their codes match.
type ProgramError struct {
	Code    uint32
	Name    string
	Message string
}

func (e *ProgramError) Error() string {
	return e.Message
}

func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*ProgramError)
	return ok && t.Code == e.Code
}

const programErrorOffset = 6000

var (
	ErrInvalidAmount = &ProgramError{
		Code:    programErrorOffset,
		Name:    "InvalidAmount",
		Message: "The transfer amount must be greater than 0",
	}
	ErrInsufficientFunds = &ProgramError{
		Code:    programErrorOffset + 1,
		Name:    "InsufficientFunds",
		Message: "Insufficient funds for the transfer",
	}
)

var programErrors = []*ProgramError{ErrInvalidAmount, ErrInsufficientFunds}

// LookupProgramError resolves a code reported over the wire.
func LookupProgramError(code uint32) (*ProgramError, bool) {
	for _, e := range programErrors {
		if e.Code == code {
			return e, true
		}
	}
	return nil, false
}
