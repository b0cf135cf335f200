package runtime

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/domains/program/usecase"
	"hello-solana/go-backend/pkg/models"
)

const maxAccountsPerInstruction = 255

var (
	initializeDiscriminator = model.InstructionDiscriminator(usecase.OperationInitialize)
	transferDiscriminator   = model.InstructionDiscriminator(usecase.OperationTransferLamports)
)

// AccountRef is an account reference as supplied by the caller.
type AccountRef struct {
	Address  model.Address
	Signer   bool
	Writable bool
}

// Instruction is a decoded invocation: the target program, ordered accounts and
// binary data starting with the operation discriminator.
type Instruction struct {
	ProgramID model.Address
	Accounts  []AccountRef
	Data      []byte
}

// Operation resolves the discriminator at the head of Data.
func (in Instruction) Operation() (string, error) {
	if len(in.Data) < model.DiscriminatorSize {
		return "", fmt.Errorf("%w: missing discriminator", ErrInvalidInstructionData)
	}
	switch model.Discriminator(in.Data[:model.DiscriminatorSize]) {
	case initializeDiscriminator:
		return usecase.OperationInitialize, nil
	case transferDiscriminator:
		return usecase.OperationTransferLamports, nil
	default:
		return "", ErrUnknownInstruction
	}
}

func EncodeInitializeData(hello string) []byte {
	out := append([]byte(nil), initializeDiscriminator[:]...)
	return model.AppendString(out, hello)
}

func EncodeTransferData(amount uint64) []byte {
	out := append([]byte(nil), transferDiscriminator[:]...)
	return binary.LittleEndian.AppendUint64(out, amount)
}

func decodeInitializeArgs(args []byte) (string, error) {
	hello, n, err := model.DecodeString(args)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}
	if n != len(args) {
		return "", fmt.Errorf("%w: %d trailing bytes", ErrInvalidInstructionData, len(args)-n)
	}
	return hello, nil
}

func decodeTransferArgs(args []byte) (uint64, error) {
	if len(args) != 8 {
		return 0, fmt.Errorf("%w: amount must be 8 bytes, got %d", ErrInvalidInstructionData, len(args))
	}
	return binary.LittleEndian.Uint64(args), nil
}

// InstructionFromInvocation maps the JSON request shape into an Instruction.
// An empty program id defaults to defaultProgram.
func InstructionFromInvocation(inv models.Invocation, defaultProgram model.Address) (Instruction, error) {
	programID := defaultProgram
	if strings.TrimSpace(inv.ProgramID) != "" {
		parsed, err := model.ParseAddress(inv.ProgramID)
		if err != nil {
			return Instruction{}, fmt.Errorf("program id: %w", err)
		}
		programID = parsed
	}
	if len(inv.Accounts) > maxAccountsPerInstruction {
		return Instruction{}, ErrTooManyAccounts
	}
	accounts := make([]AccountRef, 0, len(inv.Accounts))
	for i, meta := range inv.Accounts {
		addr, err := model.ParseAddress(meta.Address)
		if err != nil {
			return Instruction{}, fmt.Errorf("account %d: %w", i, err)
		}
		accounts = append(accounts, AccountRef{Address: addr, Signer: meta.Signer, Writable: meta.Writable})
	}
	data, err := encodePayload(inv.Operation, inv.Payload)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{ProgramID: programID, Accounts: accounts, Data: data}, nil
}

// Invocation renders the instruction back into its JSON request shape.
func (in Instruction) Invocation() (models.Invocation, error) {
	op, err := in.Operation()
	if err != nil {
		return models.Invocation{}, err
	}
	args := in.Data[model.DiscriminatorSize:]
	var payload any
	switch op {
	case usecase.OperationInitialize:
		hello, err := decodeInitializeArgs(args)
		if err != nil {
			return models.Invocation{}, err
		}
		payload = models.InitializePayload{Hello: hello}
	case usecase.OperationTransferLamports:
		amount, err := decodeTransferArgs(args)
		if err != nil {
			return models.Invocation{}, err
		}
		payload = models.TransferPayload{Amount: amount}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return models.Invocation{}, err
	}
	metas := make([]models.AccountMeta, 0, len(in.Accounts))
	for _, acc := range in.Accounts {
		metas = append(metas, models.AccountMeta{Address: acc.Address.String(), Signer: acc.Signer, Writable: acc.Writable})
	}
	return models.Invocation{
		ProgramID: in.ProgramID.String(),
		Operation: op,
		Accounts:  metas,
		Payload:   raw,
	}, nil
}

func encodePayload(operation string, raw json.RawMessage) ([]byte, error) {
	switch strings.TrimSpace(operation) {
	case usecase.OperationInitialize:
		var p models.InitializePayload
		if err := strictUnmarshal(raw, &p); err != nil {
			return nil, err
		}
		return EncodeInitializeData(p.Hello), nil
	case usecase.OperationTransferLamports:
		var p models.TransferPayload
		if err := strictUnmarshal(raw, &p); err != nil {
			return nil, err
		}
		return EncodeTransferData(p.Amount), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstruction, operation)
	}
}

func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: payload is required", ErrInvalidInstructionData)
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}
	return nil
}
