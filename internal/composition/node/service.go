package node

import (
	"context"
	"errors"
	"log/slog"

	"hello-solana/go-backend/internal/domains/contracts"
	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/domains/program/usecase"
	"hello-solana/go-backend/internal/ledger"
	"hello-solana/go-backend/internal/runtime"
	"hello-solana/go-backend/pkg/models"
)

var _ contracts.NodeService = (*Node)(nil)

type Node struct {
	programID model.Address
	ledger    ledgerBackend
	service   *usecase.Service
	executor  *runtime.Executor
	faucet    *ledger.Faucet
	rent      ledger.RentPolicy
	logger    *slog.Logger
}

func (n *Node) Invoke(ctx context.Context, wire models.Transaction) (models.InvokeResult, error) {
	tx, err := runtime.TransactionFromWire(wire, n.programID)
	if err != nil {
		return models.InvokeResult{}, contracts.WrapCategorizedError(contracts.ErrorCategoryRuntime, err)
	}
	receipt, err := n.executor.Execute(ctx, tx)
	if err != nil {
		return models.InvokeResult{}, contracts.WrapCategorizedError(categorize(err), err)
	}
	return models.InvokeResult{
		Signature: receipt.Signature,
		Operation: receipt.Operation,
		ProgramID: n.programID.String(),
	}, nil
}

func (n *Node) GetRecord(ctx context.Context, addr model.Address) (models.RecordView, error) {
	record, err := n.service.GetRecord(ctx, addr)
	if err != nil {
		return models.RecordView{}, contracts.WrapCategorizedError(contracts.ErrorCategoryProgram, err)
	}
	return models.RecordView{Address: addr.String(), Hello: record.Hello}, nil
}

func (n *Node) ProgramInfo(context.Context) (models.ProgramInfo, error) {
	space := n.service.Space()
	return models.ProgramInfo{
		ProgramID:         n.programID.String(),
		SystemProgramID:   model.SystemProgramID.String(),
		Capacity:          n.service.Capacity(),
		Space:             space,
		RentExemptMinimum: n.rent.MinimumBalance(space),
		FaucetEnabled:     n.faucet.Enabled(),
	}, nil
}

func (n *Node) GetBalance(ctx context.Context, addr model.Address) (models.Balance, error) {
	lamports, err := n.ledger.Balance(ctx, addr)
	if err != nil {
		return models.Balance{}, contracts.WrapCategorizedError(contracts.ErrorCategoryLedger, err)
	}
	return models.Balance{Address: addr.String(), Lamports: lamports}, nil
}

func (n *Node) GetAccount(ctx context.Context, addr model.Address) (models.AccountInfo, error) {
	acc, err := n.ledger.Account(ctx, addr)
	if err != nil {
		return models.AccountInfo{}, contracts.WrapCategorizedError(contracts.ErrorCategoryLedger, err)
	}
	return models.AccountInfo{
		Address:  addr.String(),
		Lamports: acc.Lamports,
		Owner:    acc.Owner.String(),
		Space:    acc.Space,
	}, nil
}

func (n *Node) Airdrop(ctx context.Context, addr model.Address, lamports uint64) (models.AirdropResult, error) {
	balance, err := n.faucet.Airdrop(ctx, addr, lamports)
	if err != nil {
		return models.AirdropResult{}, contracts.WrapCategorizedError(contracts.ErrorCategoryLedger, err)
	}
	n.logger.Info("airdrop", "operation", "airdrop", "to", addr.String(), "amount", lamports)
	return models.AirdropResult{Address: addr.String(), Lamports: lamports, Balance: balance}, nil
}

func (n *Node) Close() error {
	return n.ledger.Close()
}

func categorize(err error) string {
	var programErr *model.ProgramError
	switch {
	case errors.As(err, &programErr):
		return contracts.ErrorCategoryProgram
	case usecase.Outcome(err) == "ledger_error" && !isRuntimeError(err):
		return contracts.ErrorCategoryLedger
	default:
		return contracts.ErrorCategoryRuntime
	}
}

func isRuntimeError(err error) bool {
	for _, target := range []error{
		runtime.ErrUnknownInstruction,
		runtime.ErrInvalidInstructionData,
		runtime.ErrNotEnoughAccounts,
		runtime.ErrTooManyAccounts,
		runtime.ErrMissingRequiredSignature,
		runtime.ErrAccountNotWritable,
		runtime.ErrIncorrectProgramID,
		runtime.ErrInvalidSignature,
		runtime.ErrUnexpectedSignature,
		runtime.ErrAlreadyProcessed,
		runtime.ErrNonceRequired,
		runtime.ErrReservedAccount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
