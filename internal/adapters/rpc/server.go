package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hello-solana/go-backend/internal/domains/contracts"
	"hello-solana/go-backend/internal/platform/observability"
	"hello-solana/go-backend/internal/platform/ratelimiter"
)

const DefaultRPCAddr = "127.0.0.1:8899"

type Options struct {
	Addr           string
	Token          string
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *slog.Logger
	Metrics        *observability.Metrics
}

type Server struct {
	httpServer *http.Server
	service    contracts.NodeService
	rpcToken   string
	limiter    *ratelimiter.MapLimiter
	logger     *slog.Logger
	metrics    *observability.Metrics
	invokes    *invokeCache
	now        func() time.Time
}

func NewServer(svc contracts.NodeService, opts Options) (*Server, error) {
	if svc == nil {
		return nil, errors.New("node service is required")
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		addr = DefaultRPCAddr
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service:  svc,
		rpcToken: strings.TrimSpace(opts.Token),
		limiter:  ratelimiter.New(opts.RateLimitRPS, opts.RateLimitBurst, 10*time.Minute),
		logger:   logger.With("component", "rpc"),
		metrics:  opts.Metrics,
		invokes:  newInvokeCache(invokeCacheTTL, invokeCacheMaxEntries),
		now:      time.Now,
	}
	if s.rpcToken == "" {
		s.logger.Warn("rpc token is not set; RPC auth disabled")
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Routes builds the HTTP surface: JSON-RPC, liveness and metrics.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.withRequestID)
	r.Get("/healthz", s.handleHealth)
	r.Post("/rpc", s.handleRPC)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()
	s.logger.Info("rpc listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
