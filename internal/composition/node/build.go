package node

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"hello-solana/go-backend/internal/config"
	"hello-solana/go-backend/internal/domains/program/ports"
	"hello-solana/go-backend/internal/domains/program/usecase"
	"hello-solana/go-backend/internal/ledger"
	"hello-solana/go-backend/internal/platform/observability"
	"hello-solana/go-backend/internal/runtime"
)

type Options struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Tracer  trace.Tracer
}

type ledgerBackend interface {
	ports.Ledger
	ledger.Funder
	Close() error
}

// Build opens the configured ledger and wires the program service, the
// executor and the faucet on top of it. Close releases the ledger.
func Build(ctx context.Context, cfg config.Config, opts Options) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	programID, err := cfg.ProgramID()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = observability.Tracer("node")
	}

	store, registry, err := openLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svcOpts := usecase.Options{
		ProgramID: programID,
		Capacity:  cfg.Program.Capacity,
		Logger:    logger,
		Tracer:    tracer,
	}
	execOpts := runtime.ExecutorOptions{
		Registry: registry,
		Logger:   logger,
		Tracer:   tracer,
	}
	if opts.Metrics != nil {
		svcOpts.Recorder = opts.Metrics
		execOpts.Recorder = opts.Metrics
	}
	service, err := usecase.NewService(store, svcOpts)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	executor, err := runtime.NewExecutor(service, execOpts)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Info("node ready",
		"component", "node",
		"program_id", programID.String(),
		"capacity", service.Capacity(),
		"ledger_backend", cfg.Ledger.Backend,
		"faucet_enabled", cfg.Faucet.Enabled,
	)
	return &Node{
		programID: programID,
		ledger:    store,
		service:   service,
		executor:  executor,
		faucet:    ledger.NewFaucet(store, cfg.Faucet.Enabled, cfg.Faucet.MaxLamports),
		rent:      cfg.Rent,
		logger:    logger.With("component", "node"),
	}, nil
}

func openLedger(ctx context.Context, cfg config.Config) (ledgerBackend, runtime.SignatureRegistry, error) {
	switch cfg.Ledger.Backend {
	case config.BackendSQLite:
		store, err := ledger.OpenSQLite(ctx, cfg.Ledger.DSN, cfg.Rent)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.BackendPostgres:
		store, err := ledger.OpenPostgres(ctx, cfg.Ledger.DSN, cfg.Rent)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.BackendMemory:
		store, err := ledger.OpenMemoryStore(ledger.MemoryOptions{
			Rent:         cfg.Rent,
			SnapshotPath: cfg.Ledger.SnapshotPath,
			Passphrase:   cfg.Ledger.SnapshotPassphrase,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Ledger.ReplayPath == "" {
			return store, runtime.NewInMemoryRegistry(), nil
		}
		registry := runtime.NewFileRegistry(cfg.Ledger.ReplayPath)
		if err := registry.Bootstrap(); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("load replay registry: %w", err)
		}
		return store, registry, nil
	default:
		return nil, nil, fmt.Errorf("unsupported ledger backend %q", cfg.Ledger.Backend)
	}
}
