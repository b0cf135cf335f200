package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"hello-solana/go-backend/internal/domains/program/usecase"
)

// InvocationRecorder counts dispatched transactions by operation and outcome.
type InvocationRecorder interface {
	ObserveInvocation(operation, outcome string)
}

type Receipt struct {
	Signature string
	Operation string
}

type ExecutorOptions struct {
	Registry SignatureRegistry
	Logger   *slog.Logger
	Recorder InvocationRecorder
	Tracer   trace.Tracer
	Now      func() time.Time
}

// Executor is the host side of dispatch: it authenticates a transaction, binds its
// accounts and runs the program. Invocations are serialized, so no two requests
// observe each other's intermediate account state.
type Executor struct {
	mu       sync.Mutex
	program  Program
	registry SignatureRegistry
	logger   *slog.Logger
	recorder InvocationRecorder
	tracer   trace.Tracer
	now      func() time.Time
}

func NewExecutor(program Program, opts ExecutorOptions) (*Executor, error) {
	if program == nil {
		return nil, errors.New("program is required")
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewInMemoryRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("runtime")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Executor{
		program:  program,
		registry: registry,
		logger:   logger.With("component", "runtime"),
		recorder: opts.Recorder,
		tracer:   tracer,
		now:      now,
	}, nil
}

// Execute verifies signatures, rejects replays and dispatches the bound call.
// A transaction id is consumed once its shape and signatures check out, even if
// the program then fails.
func (e *Executor) Execute(ctx context.Context, tx Transaction) (Receipt, error) {
	ctx, span := e.tracer.Start(ctx, "runtime.execute")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	operation, _ := tx.Instruction.Operation()
	receipt := Receipt{Operation: operation}
	call, err := e.admit(ctx, tx)
	if err == nil {
		receipt.Signature = tx.ID()
		span.SetAttributes(attribute.String("signature", receipt.Signature), attribute.String("operation", call.Operation()))
		err = call.Invoke(ctx, e.program)
	}
	e.observe(operation, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Info("transaction failed", "operation", operation, "signature", receipt.Signature, "error", err)
		return receipt, err
	}
	e.logger.Debug("transaction processed", "operation", operation, "signature", receipt.Signature)
	return receipt, nil
}

func (e *Executor) admit(ctx context.Context, tx Transaction) (Call, error) {
	call, err := Bind(tx.Instruction, e.program.ProgramID())
	if err != nil {
		return nil, err
	}
	if err := tx.Verify(); err != nil {
		return nil, err
	}
	fresh, err := e.registry.TryRecordSignature(ctx, tx.ID(), e.now())
	if err != nil {
		return nil, fmt.Errorf("record transaction signature: %w", err)
	}
	if !fresh {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, tx.ID())
	}
	return call, nil
}

func (e *Executor) observe(operation string, err error) {
	if e.recorder == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	e.recorder.ObserveInvocation(operation, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyProcessed):
		return "replayed"
	case errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrMissingRequiredSignature), errors.Is(err, ErrUnexpectedSignature):
		return "unauthorized"
	case errors.Is(err, ErrUnknownInstruction), errors.Is(err, ErrInvalidInstructionData),
		errors.Is(err, ErrNotEnoughAccounts), errors.Is(err, ErrAccountNotWritable),
		errors.Is(err, ErrIncorrectProgramID), errors.Is(err, ErrNonceRequired),
		errors.Is(err, ErrReservedAccount):
		return "rejected"
	default:
		return usecase.Outcome(err)
	}
}
