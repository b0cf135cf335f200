package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"hello-solana/go-backend/internal/composition/daemonserver"
	"hello-solana/go-backend/internal/config"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var envFiles stringList
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	flag.Var(&envFiles, "env-file", "dotenv file with HELLO_* overrides (repeatable)")
	rpcAddr := flag.String("rpc-addr", "", "JSON-RPC listen address override: host:port or multiaddr")
	rpcToken := flag.String("rpc-token", "", "RPC token for Authorization/X-Hello-RPC-Token (optional)")
	backend := flag.String("ledger-backend", "", "Ledger backend override: memory | sqlite | postgres")
	dsn := flag.String("ledger-dsn", "", "Ledger DSN override for sqlite/postgres")
	flag.Parse()
	if *showVersion {
		fmt.Printf("hellod version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	cfg, err := config.Load(*configPath, envFiles...)
	if err != nil {
		log.Fatalf("hellod config: %v", err)
	}
	if *rpcAddr != "" {
		cfg.RPC.Listen = *rpcAddr
	}
	if *rpcToken != "" {
		cfg.RPC.Token = *rpcToken
	}
	if *backend != "" {
		cfg.Ledger.Backend = *backend
	}
	if *dsn != "" {
		cfg.Ledger.DSN = *dsn
	}
	level, err := cfg.LogLevel()
	if err != nil {
		log.Fatalf("hellod config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := daemonserver.NewLogger(nil, level)
	d, err := daemonserver.NewRPCServerWithOptions(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("hellod failed to initialize: %v", err)
	}

	logger.Info("hellod starting", "version", version, "commit", commit)
	if err := d.Run(ctx); err != nil {
		log.Fatalf("hellod failed: %v", err)
	}
	logger.Info("hellod stopped")
}
