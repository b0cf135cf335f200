package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/domains/program/ports"
	"hello-solana/go-backend/internal/ledger/migrations"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type accountRow struct {
	Address   string `db:"address"`
	Lamports  int64  `db:"lamports"`
	Owner     string `db:"owner"`
	Space     int    `db:"space"`
	Data      []byte `db:"data"`
	UpdatedAt int64  `db:"updated_at"`
}

// SQLStore persists accounts in one table; each mutation runs in a single transaction.
type SQLStore struct {
	db      *sqlx.DB
	dialect Dialect
	rent    RentPolicy
	now     func() time.Time
}

// NewSQLStore wraps an already migrated database.
func NewSQLStore(db *sqlx.DB, dialect Dialect, rent RentPolicy) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, rent: rent, now: time.Now}
}

// OpenSQLite opens (or creates) a SQLite ledger file and applies migrations.
func OpenSQLite(ctx context.Context, path string, rent RentPolicy) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite ledger path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time keeps read-then-write transactions serializable.
	db.SetMaxOpenConns(1)
	return initSQLStore(ctx, db, DialectSQLite, rent)
}

// OpenPostgres connects with a lib/pq DSN and applies migrations.
func OpenPostgres(ctx context.Context, dsn string, rent RentPolicy) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	return initSQLStore(ctx, db, DialectPostgres, rent)
}

func initSQLStore(ctx context.Context, db *sqlx.DB, dialect Dialect, rent RentPolicy) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}
	if err := ApplyMigrations(ctx, db, migrations.FS, string(dialect)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return NewSQLStore(db, dialect, rent), nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) Balance(ctx context.Context, addr model.Address) (uint64, error) {
	acc, _, err := s.load(ctx, s.db, addr, false)
	if err != nil {
		return 0, err
	}
	return acc.Lamports, nil
}

func (s *SQLStore) Account(ctx context.Context, addr model.Address) (ports.Account, error) {
	acc, found, err := s.load(ctx, s.db, addr, false)
	if err != nil {
		return ports.Account{}, err
	}
	if !found {
		return ports.Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return acc, nil
}

func (s *SQLStore) CreateAccount(ctx context.Context, params ports.CreateAccountParams) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		payer, payerFound, err := s.load(ctx, tx, params.Payer, true)
		if err != nil {
			return err
		}
		target, targetFound, err := s.load(ctx, tx, params.Address, true)
		if err != nil {
			return err
		}
		nextPayer, created, err := planCreate(payer, target, params, s.rent)
		if err != nil {
			return err
		}
		if err := s.save(ctx, tx, nextPayer, payerFound); err != nil {
			return err
		}
		return s.save(ctx, tx, created, targetFound)
	})
}

func (s *SQLStore) DebitCredit(ctx context.Context, from, to model.Address, amount uint64) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		debit, fromFound, err := s.load(ctx, tx, from, true)
		if err != nil {
			return err
		}
		credit, toFound := debit, fromFound
		if to != from {
			credit, toFound, err = s.load(ctx, tx, to, true)
			if err != nil {
				return err
			}
		}
		debited, credited, err := planTransfer(debit, credit, amount)
		if err != nil {
			return err
		}
		if from == to {
			return nil
		}
		if err := s.save(ctx, tx, debited, fromFound); err != nil {
			return err
		}
		return s.save(ctx, tx, credited, toFound)
	})
}

// Credit mints lamports into addr and returns the new balance.
func (s *SQLStore) Credit(ctx context.Context, addr model.Address, lamports uint64) (uint64, error) {
	var balance uint64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		acc, found, err := s.load(ctx, tx, addr, true)
		if err != nil {
			return err
		}
		next, err := addLamports(acc.Lamports, lamports)
		if err != nil {
			return err
		}
		acc.Lamports = next
		balance = next
		return s.save(ctx, tx, acc, found)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// TryRecordSignature stores sig once; it reports false when sig was already present.
func (s *SQLStore) TryRecordSignature(ctx context.Context, sig string, at time.Time) (bool, error) {
	if strings.TrimSpace(sig) == "" {
		return false, errors.New("signature is required")
	}
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO processed_signatures (signature, processed_at) VALUES (?, ?) ON CONFLICT (signature) DO NOTHING"),
		sig, at.UTC().UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("record signature: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

func (s *SQLStore) load(ctx context.Context, q sqlx.QueryerContext, addr model.Address, forUpdate bool) (ports.Account, bool, error) {
	query := "SELECT address, lamports, owner, space, data, updated_at FROM accounts WHERE address = ?"
	if forUpdate && s.dialect == DialectPostgres {
		query += " FOR UPDATE"
	}
	var row accountRow
	err := sqlx.GetContext(ctx, q, &row, s.db.Rebind(query), addr.String())
	if errors.Is(err, sql.ErrNoRows) {
		return emptyAccount(addr), false, nil
	}
	if err != nil {
		return ports.Account{}, false, fmt.Errorf("load account %s: %w", addr, err)
	}
	acc, err := row.toAccount()
	if err != nil {
		return ports.Account{}, false, err
	}
	return acc, true, nil
}

func (s *SQLStore) save(ctx context.Context, tx *sqlx.Tx, acc ports.Account, exists bool) error {
	if acc.Lamports > math.MaxInt64 {
		return ErrArithmeticOverflow
	}
	now := s.now().UTC().UnixMilli()
	if exists {
		_, err := tx.ExecContext(ctx,
			s.db.Rebind("UPDATE accounts SET lamports = ?, owner = ?, space = ?, data = ?, updated_at = ? WHERE address = ?"),
			int64(acc.Lamports), acc.Owner.String(), acc.Space, acc.Data, now, acc.Address.String(),
		)
		if err != nil {
			return fmt.Errorf("update account %s: %w", acc.Address, err)
		}
		return nil
	}
	_, err := tx.ExecContext(ctx,
		s.db.Rebind("INSERT INTO accounts (address, lamports, owner, space, data, updated_at) VALUES (?, ?, ?, ?, ?, ?)"),
		acc.Address.String(), int64(acc.Lamports), acc.Owner.String(), acc.Space, acc.Data, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, acc.Address)
		}
		return fmt.Errorf("insert account %s: %w", acc.Address, err)
	}
	return nil
}

func (r accountRow) toAccount() (ports.Account, error) {
	addr, err := model.ParseAddress(r.Address)
	if err != nil {
		return ports.Account{}, fmt.Errorf("stored address: %w", err)
	}
	owner, err := model.ParseAddress(r.Owner)
	if err != nil {
		return ports.Account{}, fmt.Errorf("stored owner: %w", err)
	}
	if r.Lamports < 0 {
		return ports.Account{}, fmt.Errorf("stored lamports for %s are negative", r.Address)
	}
	return ports.Account{
		Address:  addr,
		Lamports: uint64(r.Lamports),
		Owner:    owner,
		Space:    r.Space,
		Data:     r.Data,
	}, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

var (
	_ ports.Ledger = (*SQLStore)(nil)
	_ Funder       = (*SQLStore)(nil)
)
