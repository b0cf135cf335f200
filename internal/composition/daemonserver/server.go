package daemonserver

import (
	"context"
	"io"
	"log/slog"
	"os"

	"hello-solana/go-backend/internal/adapters/rpc"
	"hello-solana/go-backend/internal/composition/node"
	"hello-solana/go-backend/internal/config"
	"hello-solana/go-backend/internal/platform/observability"
	"hello-solana/go-backend/internal/platform/privacylog"
)

// Daemon is a running node behind its JSON-RPC transport.
type Daemon struct {
	Server *rpc.Server
	Node   *node.Node
	Logger *slog.Logger
}

// NewLogger builds the JSON logger used by the daemon; secrets are redacted
// by the privacy handler.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	base := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(privacylog.WrapHandler(base))
}

// NewRPCServerWithOptions wires the node service and the RPC transport.
func NewRPCServerWithOptions(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		level, err := cfg.LogLevel()
		if err != nil {
			return nil, err
		}
		logger = NewLogger(os.Stderr, level)
	}
	listen, err := cfg.ListenAddr()
	if err != nil {
		return nil, err
	}
	metrics := observability.NewMetrics()
	n, err := node.Build(ctx, cfg, node.Options{Logger: logger, Metrics: metrics})
	if err != nil {
		return nil, err
	}
	srv, err := rpc.NewServer(n, rpc.Options{
		Addr:           listen,
		Token:          cfg.RPC.Token,
		RateLimitRPS:   cfg.RPC.RateLimitRPS,
		RateLimitBurst: cfg.RPC.RateLimitBurst,
		Logger:         logger,
		Metrics:        metrics,
	})
	if err != nil {
		_ = n.Close()
		return nil, err
	}
	return &Daemon{Server: srv, Node: n, Logger: logger}, nil
}

// Run serves until ctx is cancelled and then releases the ledger.
func (d *Daemon) Run(ctx context.Context) error {
	runErr := d.Server.Run(ctx)
	closeErr := d.Node.Close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}
