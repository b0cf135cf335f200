package runtime

import (
	"context"
	"fmt"

	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/domains/program/usecase"
)

// Program is the core the dispatcher hands validated inputs to.
type Program interface {
	ProgramID() model.Address
	Initialize(ctx context.Context, in usecase.InitializeInput) error
	TransferLamports(ctx context.Context, in usecase.TransferInput) error
}

// Call is an instruction whose accounts and arguments have been checked and typed.
type Call interface {
	Operation() string
	Invoke(ctx context.Context, p Program) error
}

type InitializeCall struct {
	Input usecase.InitializeInput
}

func (InitializeCall) Operation() string { return usecase.OperationInitialize }

func (c InitializeCall) Invoke(ctx context.Context, p Program) error {
	return p.Initialize(ctx, c.Input)
}

type TransferCall struct {
	Input usecase.TransferInput
}

func (TransferCall) Operation() string { return usecase.OperationTransferLamports }

func (c TransferCall) Invoke(ctx context.Context, p Program) error {
	return p.TransferLamports(ctx, c.Input)
}

type accountRule struct {
	name     string
	signer   bool
	writable bool
	system   bool
}

var (
	initializeAccounts = []accountRule{
		{name: "signer", signer: true, writable: true},
		{name: "data_account", signer: true, writable: true},
		{name: "system_program", system: true},
	}
	transferAccounts = []accountRule{
		{name: "signer", signer: true, writable: true},
		{name: "recipient", writable: true},
		{name: "system_program", system: true},
	}
)

// Bind checks the instruction's account shape and decodes its arguments.
// Extra trailing accounts are ignored, as the host passes them through.
func Bind(in Instruction, programID model.Address) (Call, error) {
	if in.ProgramID != programID {
		return nil, fmt.Errorf("%w: got %s want %s", ErrIncorrectProgramID, in.ProgramID, programID)
	}
	op, err := in.Operation()
	if err != nil {
		return nil, err
	}
	args := in.Data[model.DiscriminatorSize:]
	switch op {
	case usecase.OperationInitialize:
		if err := checkAccounts(in.Accounts, initializeAccounts); err != nil {
			return nil, err
		}
		hello, err := decodeInitializeArgs(args)
		if err != nil {
			return nil, err
		}
		return InitializeCall{Input: usecase.InitializeInput{
			Payer:  in.Accounts[0].Address,
			Record: in.Accounts[1].Address,
			Hello:  hello,
		}}, nil
	case usecase.OperationTransferLamports:
		if err := checkAccounts(in.Accounts, transferAccounts); err != nil {
			return nil, err
		}
		amount, err := decodeTransferArgs(args)
		if err != nil {
			return nil, err
		}
		return TransferCall{Input: usecase.TransferInput{
			From:   in.Accounts[0].Address,
			To:     in.Accounts[1].Address,
			Amount: amount,
		}}, nil
	default:
		return nil, ErrUnknownInstruction
	}
}

func checkAccounts(accounts []AccountRef, rules []accountRule) error {
	if len(accounts) < len(rules) {
		return fmt.Errorf("%w: got %d want %d", ErrNotEnoughAccounts, len(accounts), len(rules))
	}
	for i, rule := range rules {
		acc := accounts[i]
		if rule.system && acc.Address != model.SystemProgramID {
			return fmt.Errorf("%w: %s must be %s", ErrIncorrectProgramID, rule.name, model.SystemProgramID)
		}
		if (rule.signer || rule.writable) && acc.Address == model.SystemProgramID {
			return fmt.Errorf("%w: %s cannot be the system program", ErrReservedAccount, rule.name)
		}
		if rule.signer && !acc.Signer {
			return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, rule.name)
		}
		if rule.writable && !acc.Writable {
			return fmt.Errorf("%w: %s", ErrAccountNotWritable, rule.name)
		}
	}
	return nil
}
