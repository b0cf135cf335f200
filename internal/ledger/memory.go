package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/domains/program/ports"
	"hello-solana/go-backend/internal/securestore"
)

const (
	snapshotVersion = 1
	snapshotLabel   = "ledger-snapshot"
)

type snapshotAccount struct {
	Address  model.Address `json:"address"`
	Lamports uint64        `json:"lamports"`
	Owner    model.Address `json:"owner"`
	Space    int           `json:"space"`
	Data     []byte        `json:"data,omitempty"`
}

type snapshotFile struct {
	Version  int               `json:"version"`
	Accounts []snapshotAccount `json:"accounts"`
}

type MemoryOptions struct {
	Rent RentPolicy
	// SnapshotPath enables persistence; every mutation is written before it becomes visible.
	SnapshotPath string
	// Passphrase seals the snapshot with securestore; empty writes plain JSON.
	Passphrase string
	KDF        securestore.KDFParams
}

// MemoryStore keeps accounts in a copy-on-write map. A mutation builds the next
// map, persists it, and only then swaps it in, so a failed write changes nothing.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[model.Address]ports.Account
	rent     RentPolicy
	path     string
	secret   string
	kdf      securestore.KDFParams
}

func NewMemoryStore(rent RentPolicy) *MemoryStore {
	return &MemoryStore{
		accounts: make(map[model.Address]ports.Account),
		rent:     rent,
	}
}

func OpenMemoryStore(opts MemoryOptions) (*MemoryStore, error) {
	kdf := opts.KDF
	if kdf == (securestore.KDFParams{}) {
		kdf = securestore.DefaultKDFParams
	}
	s := &MemoryStore{
		accounts: make(map[model.Address]ports.Account),
		rent:     opts.Rent,
		path:     strings.TrimSpace(opts.SnapshotPath),
		secret:   strings.TrimSpace(opts.Passphrase),
		kdf:      kdf,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemoryStore) Balance(ctx context.Context, addr model.Address) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[addr].Lamports, nil
}

func (s *MemoryStore) Account(ctx context.Context, addr model.Address) (ports.Account, error) {
	if err := ctx.Err(); err != nil {
		return ports.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[addr]
	if !ok {
		return ports.Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return cloneAccount(acc), nil
}

func (s *MemoryStore) CreateAccount(ctx context.Context, params ports.CreateAccountParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	payer, created, err := planCreate(s.lookupLocked(params.Payer), s.lookupLocked(params.Address), params, s.rent)
	if err != nil {
		return err
	}
	return s.commitLocked(payer, created)
}

func (s *MemoryStore) DebitCredit(ctx context.Context, from, to model.Address, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	debited, credited, err := planTransfer(s.lookupLocked(from), s.lookupLocked(to), amount)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	return s.commitLocked(debited, credited)
}

// Credit mints lamports into addr and returns the new balance.
func (s *MemoryStore) Credit(ctx context.Context, addr model.Address, lamports uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.lookupLocked(addr)
	next, err := addLamports(acc.Lamports, lamports)
	if err != nil {
		return 0, err
	}
	acc.Lamports = next
	if err := s.commitLocked(acc); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) lookupLocked(addr model.Address) ports.Account {
	if acc, ok := s.accounts[addr]; ok {
		return acc
	}
	return emptyAccount(addr)
}

func (s *MemoryStore) commitLocked(updates ...ports.Account) error {
	next := make(map[model.Address]ports.Account, len(s.accounts)+len(updates))
	for k, v := range s.accounts {
		next[k] = v
	}
	for _, acc := range updates {
		next[acc.Address] = acc
	}
	if err := s.persistSnapshotLocked(next); err != nil {
		return fmt.Errorf("persist ledger snapshot: %w", err)
	}
	s.accounts = next
	return nil
}

func (s *MemoryStore) persistSnapshotLocked(accounts map[model.Address]ports.Account) error {
	if s.path == "" {
		return nil
	}
	payload := snapshotFile{Version: snapshotVersion, Accounts: make([]snapshotAccount, 0, len(accounts))}
	for _, acc := range accounts {
		payload.Accounts = append(payload.Accounts, snapshotAccount(acc))
	}
	if s.secret != "" {
		return securestore.WriteSealedJSON(s.path, s.secret, snapshotLabel, payload, s.kdf)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return securestore.WriteFileAtomic(s.path, raw)
}

func (s *MemoryStore) load() error {
	if s.path == "" {
		return nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var payload snapshotFile
	if securestore.IsSealed(raw) {
		if s.secret == "" {
			return errors.New("ledger snapshot is encrypted but no passphrase is configured")
		}
		plain, err := securestore.Open(s.secret, snapshotLabel, raw)
		if err != nil {
			return err
		}
		raw = plain
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode ledger snapshot: %w", err)
	}
	if payload.Version != snapshotVersion {
		return fmt.Errorf("unsupported ledger snapshot version %d", payload.Version)
	}
	for _, acc := range payload.Accounts {
		s.accounts[acc.Address] = ports.Account(acc)
	}
	return nil
}

var (
	_ ports.Ledger = (*MemoryStore)(nil)
	_ Funder       = (*MemoryStore)(nil)
)
