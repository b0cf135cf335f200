package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"hello-solana/go-backend/internal/client"
	"hello-solana/go-backend/internal/config"
	"hello-solana/go-backend/internal/doctor"
	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/identity"
	"hello-solana/go-backend/internal/runtime"
	"hello-solana/go-backend/internal/securestore"
)

const (
	envRPCEndpoint = "HELLO_RPC_ENDPOINT"
	envRPCToken    = "HELLO_RPC_TOKEN"
	envPassphrase  = "HELLO_KEYSTORE_PASSPHRASE"
)

var keystoreKDF = securestore.DefaultKDFParams

type rpcFlags struct {
	addr  *string
	token *string
}

func newFlagSet(env *cliEnv, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func addRPCFlags(fs *flag.FlagSet, env *cliEnv) rpcFlags {
	addr := env.getenv(envRPCEndpoint)
	if addr == "" {
		addr = config.DefaultListenAddr
	}
	return rpcFlags{
		addr:  fs.String("rpc-addr", addr, "node rpc endpoint host:port or URL"),
		token: fs.String("rpc-token", env.getenv(envRPCToken), "node rpc token"),
	}
}

func (f rpcFlags) client() *client.Client {
	return client.New(*f.addr, *f.token)
}

func addKeystoreFlags(fs *flag.FlagSet, env *cliEnv) (path, passphrase *string) {
	path = fs.String("keystore", "", "keystore file path")
	passphrase = fs.String("passphrase", env.getenv(envPassphrase), "keystore passphrase")
	return path, passphrase
}

func loadKeypair(path, passphrase string) (identity.Keypair, error) {
	if strings.TrimSpace(path) == "" {
		return identity.Keypair{}, fmt.Errorf("%w: --keystore is required", errUsage)
	}
	return identity.LoadKeystore(path, passphrase)
}

// resolveAddress takes the positional address if present, else the keystore's.
func resolveAddress(fs *flag.FlagSet, keystore, passphrase string) (model.Address, error) {
	if fs.NArg() > 0 {
		return model.ParseAddress(fs.Arg(0))
	}
	kp, err := loadKeypair(keystore, passphrase)
	if err != nil {
		return model.Address{}, err
	}
	return kp.Address(), nil
}

func resolveProgramID(ctx context.Context, c *client.Client, flagValue string) (model.Address, error) {
	if strings.TrimSpace(flagValue) != "" {
		return model.ParseAddress(flagValue)
	}
	info, err := c.ProgramInfo(ctx)
	if err != nil {
		return model.Address{}, err
	}
	return model.ParseAddress(info.ProgramID)
}

func runKeygen(_ context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "keygen")
	path, passphrase := addKeystoreFlags(fs, env)
	mnemonic := fs.String("mnemonic", "", "restore from an existing recovery phrase")
	mnemonicPass := fs.String("mnemonic-passphrase", "", "optional bip39 passphrase")
	if err := parse(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*path) == "" {
		return fmt.Errorf("%w: --keystore is required", errUsage)
	}
	phrase := strings.TrimSpace(*mnemonic)
	generated := phrase == ""
	if generated {
		var err error
		if phrase, err = identity.NewMnemonic(); err != nil {
			return err
		}
	}
	kp, err := identity.KeypairFromMnemonic(phrase, *mnemonicPass)
	if err != nil {
		return err
	}
	if err := identity.SaveKeystore(*path, *passphrase, kp, keystoreKDF); err != nil {
		return err
	}
	out := map[string]any{"address": kp.Address().String(), "keystore": *path}
	if generated {
		out["mnemonic"] = phrase
	}
	return printJSON(env.stdout, out)
}

func runAddress(_ context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "address")
	path, passphrase := addKeystoreFlags(fs, env)
	if err := parse(fs, args); err != nil {
		return err
	}
	kp, err := loadKeypair(*path, *passphrase)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.stdout, kp.Address().String())
	return err
}

func runBalance(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "balance")
	rpc := addRPCFlags(fs, env)
	path, passphrase := addKeystoreFlags(fs, env)
	if err := parse(fs, args); err != nil {
		return err
	}
	addr, err := resolveAddress(fs, *path, *passphrase)
	if err != nil {
		return err
	}
	bal, err := rpc.client().GetBalance(ctx, addr)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, bal)
}

func runAirdrop(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "airdrop")
	rpc := addRPCFlags(fs, env)
	path, passphrase := addKeystoreFlags(fs, env)
	lamports := fs.Uint64("lamports", 0, "lamports to mint")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *lamports == 0 {
		return fmt.Errorf("%w: --lamports must be positive", errUsage)
	}
	addr, err := resolveAddress(fs, *path, *passphrase)
	if err != nil {
		return err
	}
	res, err := rpc.client().Airdrop(ctx, addr, *lamports)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, res)
}

func runInitialize(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "initialize")
	rpc := addRPCFlags(fs, env)
	path, passphrase := addKeystoreFlags(fs, env)
	hello := fs.String("hello", "", "greeting stored in the record")
	recordPath := fs.String("record-keystore", "", "save the generated record key here (optional)")
	programFlag := fs.String("program-id", "", "program id (default: ask the node)")
	if err := parse(fs, args); err != nil {
		return err
	}
	payer, err := loadKeypair(*path, *passphrase)
	if err != nil {
		return err
	}
	record, err := identity.GenerateKeypair()
	if err != nil {
		return err
	}
	if *recordPath != "" {
		if err := identity.SaveKeystore(*recordPath, *passphrase, record, keystoreKDF); err != nil {
			return err
		}
	}
	c := rpc.client()
	programID, err := resolveProgramID(ctx, c, *programFlag)
	if err != nil {
		return err
	}
	tx := runtime.NewInitializeTransaction(programID, payer, record, *hello, uuid.NewString())
	wire, err := tx.Wire()
	if err != nil {
		return err
	}
	res, err := c.Invoke(ctx, wire)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, map[string]any{
		"signature": res.Signature,
		"record":    record.Address().String(),
		"payer":     payer.Address().String(),
	})
}

func runTransfer(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "transfer")
	rpc := addRPCFlags(fs, env)
	path, passphrase := addKeystoreFlags(fs, env)
	toFlag := fs.String("to", "", "recipient address")
	amount := fs.Uint64("amount", 0, "lamports to transfer")
	programFlag := fs.String("program-id", "", "program id (default: ask the node)")
	if err := parse(fs, args); err != nil {
		return err
	}
	from, err := loadKeypair(*path, *passphrase)
	if err != nil {
		return err
	}
	to, err := model.ParseAddress(*toFlag)
	if err != nil {
		return err
	}
	c := rpc.client()
	programID, err := resolveProgramID(ctx, c, *programFlag)
	if err != nil {
		return err
	}
	// A zero amount is sent as-is; the program rejects it.
	tx := runtime.NewTransferTransaction(programID, from, to, *amount, uuid.NewString())
	wire, err := tx.Wire()
	if err != nil {
		return err
	}
	res, err := c.Invoke(ctx, wire)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, map[string]any{
		"signature": res.Signature,
		"from":      from.Address().String(),
		"to":        to.String(),
		"amount":    *amount,
	})
}

func runRecord(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "record")
	rpc := addRPCFlags(fs, env)
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: record takes exactly one address", errUsage)
	}
	addr, err := model.ParseAddress(fs.Arg(0))
	if err != nil {
		return err
	}
	view, err := rpc.client().GetRecord(ctx, addr)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, view)
}

func runInfo(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "info")
	rpc := addRPCFlags(fs, env)
	if err := parse(fs, args); err != nil {
		return err
	}
	info, err := rpc.client().ProgramInfo(ctx)
	if err != nil {
		return err
	}
	return printJSON(env.stdout, info)
}

func runDoctor(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "doctor")
	configPath := fs.String("config", "", "node config.yaml (optional)")
	envFile := fs.String("env-file", "", "dotenv file with HELLO_* overrides (optional)")
	rpcAddr := fs.String("rpc-addr", env.getenv(envRPCEndpoint), "node rpc endpoint (default: configured listen address)")
	rpcToken := fs.String("rpc-token", env.getenv(envRPCToken), "node rpc token (default: configured token)")
	checkListen := fs.Bool("check-listen", false, "check that the listen address can be bound")
	offline := fs.Bool("offline", false, "skip probing the running node")
	if err := parse(fs, args); err != nil {
		return err
	}
	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(*configPath, envFiles...)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	input := doctor.Input{Config: cfg, CheckListen: *checkListen}
	if !*offline {
		endpoint := *rpcAddr
		if endpoint == "" {
			if endpoint, err = cfg.ListenAddr(); err != nil {
				return err
			}
		}
		token := *rpcToken
		if token == "" {
			token = cfg.RPC.Token
		}
		input.Prober = client.New(endpoint, token)
	}
	report := doctor.New().Run(ctx, input)
	if err := printJSON(env.stdout, report); err != nil {
		return err
	}
	if !report.Ready {
		failed := 0
		for _, c := range report.Checks {
			if !c.Pass {
				failed++
			}
		}
		return &notReadyError{failed: failed}
	}
	return nil
}

