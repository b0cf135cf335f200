package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"hello-solana/go-backend/internal/client"
	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/domains/rpckit"
	"hello-solana/go-backend/internal/identity"
)

const (
	exitOK           = 0
	exitInvalidInput = 10
	exitNetwork      = 20
	exitProgram      = 30
	exitRejected     = 40
	exitNotReady     = 50
)

var errUsage = errors.New("usage")

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, env *cliEnv, args []string) error
}

var commands = []command{
	{"keygen", "keygen   --keystore <path> [--passphrase p] [--mnemonic words] [--mnemonic-passphrase p]", runKeygen},
	{"address", "address  --keystore <path> [--passphrase p]", runAddress},
	{"balance", "balance  [--rpc-addr host:port] [--rpc-token t] (<address> | --keystore <path>)", runBalance},
	{"airdrop", "airdrop  --lamports n (<address> | --keystore <path>)", runAirdrop},
	{"initialize", "initialize --keystore <payer> --hello text [--record-keystore <path>]", runInitialize},
	{"transfer", "transfer --keystore <from> --to <address> --amount n", runTransfer},
	{"record", "record   <address>", runRecord},
	{"info", "info     [--rpc-addr host:port]", runInfo},
	{"doctor", "doctor   [--config path] [--env-file path] [--check-listen] [--offline]", runDoctor},
}

type cliEnv struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], &cliEnv{stdout: os.Stdout, stderr: os.Stderr, getenv: os.Getenv})
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, env *cliEnv) int {
	if len(args) < 1 {
		printUsage(env.stdout)
		return exitInvalidInput
	}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		err := c.run(ctx, env, args[1:])
		if err == nil {
			return exitOK
		}
		if err != errUsage {
			_, _ = fmt.Fprintln(env.stderr, err.Error())
		}
		return exitCodeFor(err)
	}
	printUsage(env.stdout)
	return exitInvalidInput
}

// exitCodeFor separates caller mistakes, transport failures and program or
// runtime rejections so scripts can branch on them.
func exitCodeFor(err error) int {
	var programErr *model.ProgramError
	var rpcErr *client.RPCError
	var notReady *notReadyError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &notReady):
		return exitNotReady
	case errors.As(err, &programErr):
		return exitProgram
	case errors.As(err, &rpcErr):
		if rpcErr.Code == rpckit.CodeInvalidParams || rpcErr.Code == rpckit.CodeInvalidRequest {
			return exitInvalidInput
		}
		return exitRejected
	case errors.Is(err, errUsage),
		errors.Is(err, model.ErrInvalidAddress),
		errors.Is(err, identity.ErrPassphraseRequired),
		errors.Is(err, identity.ErrInvalidMnemonic):
		return exitInvalidInput
	default:
		return exitNetwork
	}
}

type notReadyError struct{ failed int }

func (e *notReadyError) Error() string {
	return fmt.Sprintf("node is not ready: %d check(s) failed", e.failed)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "hello-cli <command> [flags]")
	_, _ = fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		_, _ = fmt.Fprintln(w, "  "+c.usage)
	}
}
