package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/domains/program/policy"
	"hello-solana/go-backend/internal/domains/program/ports"
)

const (
	OperationInitialize       = "initialize"
	OperationTransferLamports = "transfer_lamports"
)

// Recorder receives operation outcomes; implementations must be safe for concurrent use.
type Recorder interface {
	ObserveOperation(operation, outcome string, elapsed time.Duration)
	AddTransferred(lamports uint64)
}

type InitializeInput struct {
	Payer  model.Address
	Record model.Address
	Hello  string
}

type TransferInput struct {
	From   model.Address
	To     model.Address
	Amount uint64
}

type Options struct {
	ProgramID model.Address
	Capacity  int
	Logger    *slog.Logger
	Recorder  Recorder
	Tracer    trace.Tracer
}

// Service holds the account initializer and the transfer authorizer.
// It keeps no balance state of its own; every check re-reads the ledger.
type Service struct {
	ledger    ports.Ledger
	programID model.Address
	capacity  int
	logger    *slog.Logger
	recorder  Recorder
	tracer    trace.Tracer
}

func NewService(ledger ports.Ledger, opts Options) (*Service, error) {
	if ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if opts.ProgramID.IsZero() {
		return nil, errors.New("program id is required")
	}
	capacity := opts.Capacity
	if capacity == 0 {
		capacity = model.DefaultCapacity
	}
	if err := policy.ValidateCapacity(capacity); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("program")
	}
	return &Service{
		ledger:    ledger,
		programID: opts.ProgramID,
		capacity:  capacity,
		logger:    logger.With("component", "program"),
		recorder:  opts.Recorder,
		tracer:    tracer,
	}, nil
}

func (s *Service) ProgramID() model.Address {
	return s.programID
}

func (s *Service) Capacity() int {
	return s.capacity
}

// Space is the allocation size of every record this service creates.
func (s *Service) Space() int {
	return model.RecordSpace(s.capacity)
}

// Initialize allocates a record at in.Record funded by in.Payer and stores in.Hello.
// Allocation and the payload write are one ledger call; an address that is
// already allocated fails with the ledger's conflict error.
func (s *Service) Initialize(ctx context.Context, in InitializeInput) (err error) {
	ctx, span := s.tracer.Start(ctx, "program.initialize", trace.WithAttributes(
		attribute.String("payer", in.Payer.String()),
		attribute.String("record", in.Record.String()),
	))
	started := time.Now()
	defer func() { s.finish(span, OperationInitialize, started, err) }()

	err = s.ledger.CreateAccount(ctx, ports.CreateAccountParams{
		Payer:   in.Payer,
		Address: in.Record,
		Owner:   s.programID,
		Space:   s.Space(),
		Data:    model.EncodeRecord(model.Record{Hello: in.Hello}),
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, fmt.Sprintf("Greetings from: %s", s.programID),
		"operation", OperationInitialize,
		"program_id", s.programID.String(),
		"record", in.Record.String(),
		"payer", in.Payer.String(),
	)
	return nil
}

// TransferLamports validates the amount, then the sender's balance, then hands the
// move to the ledger. Nothing is mutated before the ledger call.
func (s *Service) TransferLamports(ctx context.Context, in TransferInput) (err error) {
	ctx, span := s.tracer.Start(ctx, "program.transfer_lamports", trace.WithAttributes(
		attribute.String("from", in.From.String()),
		attribute.String("to", in.To.String()),
		attribute.Int64("amount", int64(min(in.Amount, uint64(1<<63-1)))),
	))
	started := time.Now()
	defer func() { s.finish(span, OperationTransferLamports, started, err) }()

	if err = policy.ValidateAmount(in.Amount); err != nil {
		return err
	}
	balance, err := s.ledger.Balance(ctx, in.From)
	if err != nil {
		return err
	}
	if err = policy.ValidateFunds(balance, in.Amount); err != nil {
		return err
	}
	if err = s.ledger.DebitCredit(ctx, in.From, in.To, in.Amount); err != nil {
		return err
	}
	if s.recorder != nil {
		s.recorder.AddTransferred(in.Amount)
	}
	s.logger.InfoContext(ctx, fmt.Sprintf("Transferred %d lamports from %s to %s", in.Amount, in.From, in.To),
		"operation", OperationTransferLamports,
		"amount", in.Amount,
		"from", in.From.String(),
		"to", in.To.String(),
	)
	return nil
}

// GetRecord decodes the record stored at addr.
func (s *Service) GetRecord(ctx context.Context, addr model.Address) (model.Record, error) {
	account, err := s.ledger.Account(ctx, addr)
	if err != nil {
		return model.Record{}, err
	}
	if account.Owner != s.programID {
		return model.Record{}, fmt.Errorf("%w: account %s is owned by %s", ErrNotProgramAccount, addr, account.Owner)
	}
	return model.DecodeRecord(account.Data)
}

var ErrNotProgramAccount = errors.New("account is not owned by this program")

func (s *Service) finish(span trace.Span, operation string, started time.Time, err error) {
	outcome := Outcome(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.logger.Warn("program operation failed", "operation", operation, "outcome", outcome, "error", err)
	}
	span.End()
	if s.recorder != nil {
		s.recorder.ObserveOperation(operation, outcome, time.Since(started))
	}
}

// Outcome labels err for metrics: "ok", a program error name, or "ledger_error".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var programErr *model.ProgramError
	if errors.As(err, &programErr) {
		return programErr.Name
	}
	return "ledger_error"
}
