package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	ma "github.com/multiformats/go-multiaddr"
	"gopkg.in/yaml.v3"

	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/ledger"
)

const (
	EnvPrefix         = "HELLO_"
	DefaultListenAddr = "127.0.0.1:8899"

	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	RPC     RPCConfig         `yaml:"rpc" envPrefix:"RPC_"`
	Program ProgramConfig     `yaml:"program" envPrefix:"PROGRAM_"`
	Ledger  LedgerConfig      `yaml:"ledger" envPrefix:"LEDGER_"`
	Rent    ledger.RentPolicy `yaml:"rent" envPrefix:"RENT_"`
	Faucet  FaucetConfig      `yaml:"faucet" envPrefix:"FAUCET_"`
	Log     LogConfig         `yaml:"log" envPrefix:"LOG_"`
}

type RPCConfig struct {
	// Listen accepts host:port or a multiaddr such as /ip4/127.0.0.1/tcp/8899.
	Listen         string  `yaml:"listen" env:"LISTEN"`
	Token          string  `yaml:"token" env:"TOKEN"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

type ProgramConfig struct {
	ID       string `yaml:"id" env:"ID"`
	Capacity int    `yaml:"capacity" env:"CAPACITY"`
}

type LedgerConfig struct {
	Backend            string `yaml:"backend" env:"BACKEND"`
	DSN                string `yaml:"dsn" env:"DSN"`
	SnapshotPath       string `yaml:"snapshot_path" env:"SNAPSHOT_PATH"`
	SnapshotPassphrase string `yaml:"snapshot_passphrase" env:"SNAPSHOT_PASSPHRASE"`
	// ReplayPath persists processed transaction signatures for the memory backend.
	ReplayPath string `yaml:"replay_path" env:"REPLAY_PATH"`
}

type FaucetConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	MaxLamports uint64 `yaml:"max_lamports" env:"MAX_LAMPORTS"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

func Default() Config {
	return Config{
		RPC: RPCConfig{
			Listen:         DefaultListenAddr,
			RateLimitRPS:   30,
			RateLimitBurst: 60,
		},
		Program: ProgramConfig{
			ID:       model.DefaultProgramID,
			Capacity: model.DefaultCapacity,
		},
		Ledger: LedgerConfig{Backend: BackendMemory},
		Rent:   ledger.DefaultRentPolicy,
		Faucet: FaucetConfig{MaxLamports: 10_000_000_000},
		Log:    LogConfig{Level: "info"},
	}
}

// Load layers the yaml file at path (optional) over the defaults, then the
// given .env files, then HELLO_* environment variables. Missing .env files
// are skipped. The result is validated.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.ListenAddr(); err != nil {
		errs = append(errs, fmt.Errorf("rpc.listen: %w", err))
	}
	if c.RPC.RateLimitRPS < 0 {
		errs = append(errs, errors.New("rpc.rate_limit_rps must not be negative"))
	}
	if c.RPC.RateLimitRPS > 0 && c.RPC.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("rpc.rate_limit_burst must be positive when rate limiting is enabled"))
	}
	if _, err := c.ProgramID(); err != nil {
		errs = append(errs, fmt.Errorf("program.id: %w", err))
	}
	if c.Program.Capacity <= 0 || c.Program.Capacity > model.MaxPermittedDataLength-model.DiscriminatorSize {
		errs = append(errs, fmt.Errorf("program.capacity must be in 1..%d", model.MaxPermittedDataLength-model.DiscriminatorSize))
	}
	switch c.Ledger.Backend {
	case BackendMemory:
		if c.Ledger.SnapshotPassphrase != "" && c.Ledger.SnapshotPath == "" {
			errs = append(errs, errors.New("ledger.snapshot_passphrase requires ledger.snapshot_path"))
		}
	case BackendSQLite, BackendPostgres:
		if strings.TrimSpace(c.Ledger.DSN) == "" {
			errs = append(errs, fmt.Errorf("ledger.dsn is required for backend %q", c.Ledger.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("ledger.backend %q is not one of memory, sqlite, postgres", c.Ledger.Backend))
	}
	if c.Faucet.Enabled && c.Faucet.MaxLamports == 0 {
		errs = append(errs, errors.New("faucet.max_lamports must be positive when the faucet is enabled"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

func (c Config) ProgramID() (model.Address, error) {
	return model.ParseAddress(c.Program.ID)
}

func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo, err
	}
	return lvl, nil
}

// ListenAddr resolves rpc.listen to a host:port usable by net.Listen.
func (c Config) ListenAddr() (string, error) {
	raw := strings.TrimSpace(c.RPC.Listen)
	if raw == "" {
		return DefaultListenAddr, nil
	}
	if !strings.HasPrefix(raw, "/") {
		if _, _, err := net.SplitHostPort(raw); err != nil {
			return "", err
		}
		return raw, nil
	}
	addr, err := ma.NewMultiaddr(raw)
	if err != nil {
		return "", err
	}
	port, err := addr.ValueForProtocol(ma.P_TCP)
	if err != nil {
		return "", fmt.Errorf("multiaddr %s has no tcp component", raw)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", fmt.Errorf("invalid tcp port %q", port)
	}
	for _, code := range []int{ma.P_IP4, ma.P_IP6, ma.P_DNS, ma.P_DNS4, ma.P_DNS6} {
		if host, err := addr.ValueForProtocol(code); err == nil {
			return net.JoinHostPort(host, port), nil
		}
	}
	return "", fmt.Errorf("multiaddr %s has no host component", raw)
}
