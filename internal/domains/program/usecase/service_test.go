package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/internal/domains/program/ports"
)

var errRecipientRejected = errors.New("recipient rejected")

type fakeLedger struct {
	mu            sync.Mutex
	balances      map[model.Address]uint64
	accounts      map[model.Address]ports.Account
	balanceReads  int
	debitErr      error
	createdParams []ports.CreateAccountParams
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances: map[model.Address]uint64{},
		accounts: map[model.Address]ports.Account{},
	}
}

func (f *fakeLedger) Balance(_ context.Context, addr model.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceReads++
	return f.balances[addr], nil
}

func (f *fakeLedger) Account(_ context.Context, addr model.Address) (ports.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[addr]
	if !ok {
		return ports.Account{}, errors.New("account not found")
	}
	return acc, nil
}

func (f *fakeLedger) CreateAccount(_ context.Context, p ports.CreateAccountParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[p.Address]; exists {
		return errors.New("account already in use")
	}
	if len(p.Data) > p.Space {
		return errors.New("account data too small")
	}
	f.createdParams = append(f.createdParams, p)
	f.accounts[p.Address] = ports.Account{Address: p.Address, Owner: p.Owner, Space: p.Space, Data: p.Data}
	return nil
}

func (f *fakeLedger) DebitCredit(_ context.Context, from, to model.Address, amount uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.debitErr != nil {
		return f.debitErr
	}
	f.balances[from] -= amount
	f.balances[to] += amount
	return nil
}

type recordedOp struct {
	operation string
	outcome   string
}

type fakeRecorder struct {
	mu          sync.Mutex
	ops         []recordedOp
	transferred uint64
}

func (r *fakeRecorder) ObserveOperation(operation, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedOp{operation: operation, outcome: outcome})
}

func (r *fakeRecorder) AddTransferred(lamports uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transferred += lamports
}

func addr(b byte) model.Address {
	var a model.Address
	a[0] = b
	a[31] = b
	return a
}

var testProgramID = model.MustParseAddress(model.DefaultProgramID)

func newTestService(t *testing.T, ledger ports.Ledger) (*Service, *bytes.Buffer, *fakeRecorder) {
	t.Helper()
	buf := &bytes.Buffer{}
	rec := &fakeRecorder{}
	svc, err := NewService(ledger, Options{
		ProgramID: testProgramID,
		Logger:    slog.New(slog.NewTextHandler(buf, nil)),
		Recorder:  rec,
	})
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}
	return svc, buf, rec
}

func TestTransferLamportsMovesExactAmount(t *testing.T) {
	ledger := newFakeLedger()
	from, to := addr(1), addr(2)
	ledger.balances[from] = 1000
	ledger.balances[to] = 50
	svc, logs, rec := newTestService(t, ledger)

	if err := svc.TransferLamports(context.Background(), TransferInput{From: from, To: to, Amount: 400}); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if got := ledger.balances[from]; got != 600 {
		t.Fatalf("unexpected sender balance: got=%d want=600", got)
	}
	if got := ledger.balances[to]; got != 450 {
		t.Fatalf("unexpected recipient balance: got=%d want=450", got)
	}
	wantLog := "Transferred 400 lamports from " + from.String() + " to " + to.String()
	if !strings.Contains(logs.String(), wantLog) {
		t.Fatalf("missing audit trace %q in %q", wantLog, logs.String())
	}
	if rec.transferred != 400 {
		t.Fatalf("unexpected transferred total: got=%d want=400", rec.transferred)
	}
	if len(rec.ops) != 1 || rec.ops[0].outcome != "ok" {
		t.Fatalf("unexpected recorded ops: %+v", rec.ops)
	}
}

func TestTransferLamportsRejectsZeroBeforeReadingBalance(t *testing.T) {
	ledger := newFakeLedger()
	from, to := addr(1), addr(2)
	ledger.balances[from] = 1000
	svc, logs, rec := newTestService(t, ledger)

	err := svc.TransferLamports(context.Background(), TransferInput{From: from, To: to, Amount: 0})
	if !errors.Is(err, model.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if ledger.balanceReads != 0 {
		t.Fatalf("balance must not be read for zero amount, reads=%d", ledger.balanceReads)
	}
	if strings.Contains(logs.String(), "Transferred") {
		t.Fatalf("unexpected audit trace on failure: %q", logs.String())
	}
	if len(rec.ops) != 1 || rec.ops[0].outcome != "InvalidAmount" {
		t.Fatalf("unexpected recorded ops: %+v", rec.ops)
	}
}

func TestTransferLamportsInsufficientFundsLeavesBalances(t *testing.T) {
	ledger := newFakeLedger()
	from, to := addr(1), addr(2)
	ledger.balances[from] = 100
	ledger.balances[to] = 7
	svc, _, _ := newTestService(t, ledger)

	err := svc.TransferLamports(context.Background(), TransferInput{From: from, To: to, Amount: 150})
	if !errors.Is(err, model.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err.Error() != "Insufficient funds for the transfer" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if ledger.balances[from] != 100 || ledger.balances[to] != 7 {
		t.Fatalf("balances changed: from=%d to=%d", ledger.balances[from], ledger.balances[to])
	}
}

func TestTransferLamportsPropagatesLedgerError(t *testing.T) {
	ledger := newFakeLedger()
	from, to := addr(1), addr(2)
	ledger.balances[from] = 100
	ledger.debitErr = errRecipientRejected
	svc, _, rec := newTestService(t, ledger)

	err := svc.TransferLamports(context.Background(), TransferInput{From: from, To: to, Amount: 10})
	if !errors.Is(err, errRecipientRejected) {
		t.Fatalf("expected ledger error to propagate unchanged, got %v", err)
	}
	if len(rec.ops) != 1 || rec.ops[0].outcome != "ledger_error" {
		t.Fatalf("unexpected recorded ops: %+v", rec.ops)
	}
	if rec.transferred != 0 {
		t.Fatalf("nothing should be counted as transferred, got %d", rec.transferred)
	}
}

func TestInitializeWritesRecordAndLogsProgramID(t *testing.T) {
	ledger := newFakeLedger()
	payer, record := addr(1), addr(9)
	svc, logs, _ := newTestService(t, ledger)

	if err := svc.Initialize(context.Background(), InitializeInput{Payer: payer, Record: record, Hello: "hi"}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if len(ledger.createdParams) != 1 {
		t.Fatalf("expected one allocation, got %d", len(ledger.createdParams))
	}
	params := ledger.createdParams[0]
	if params.Space != model.DiscriminatorSize+model.DefaultCapacity {
		t.Fatalf("unexpected space: got=%d want=%d", params.Space, model.DiscriminatorSize+model.DefaultCapacity)
	}
	if params.Owner != testProgramID || params.Payer != payer {
		t.Fatalf("unexpected owner/payer: %+v", params)
	}
	got, err := svc.GetRecord(context.Background(), record)
	if err != nil {
		t.Fatalf("get record failed: %v", err)
	}
	if got.Hello != "hi" {
		t.Fatalf("unexpected hello: got=%q want=%q", got.Hello, "hi")
	}
	if !strings.Contains(logs.String(), "Greetings from: "+model.DefaultProgramID) {
		t.Fatalf("missing greeting trace in %q", logs.String())
	}

	err = svc.Initialize(context.Background(), InitializeInput{Payer: payer, Record: record, Hello: "again"})
	if err == nil {
		t.Fatal("expected second initialize on the same address to fail")
	}
	got, err = svc.GetRecord(context.Background(), record)
	if err != nil || got.Hello != "hi" {
		t.Fatalf("first payload must survive: got=%q err=%v", got.Hello, err)
	}
}

func TestInitializeUsesConfiguredCapacity(t *testing.T) {
	ledger := newFakeLedger()
	svc, err := NewService(ledger, Options{ProgramID: testProgramID, Capacity: 16})
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}
	err = svc.Initialize(context.Background(), InitializeInput{Payer: addr(1), Record: addr(2), Hello: strings.Repeat("a", 13)})
	if err == nil {
		t.Fatal("expected payload larger than capacity to be rejected by allocation")
	}
	if len(ledger.accounts) != 0 {
		t.Fatalf("rejected allocation must not create an account, got %d", len(ledger.accounts))
	}
	if err := svc.Initialize(context.Background(), InitializeInput{Payer: addr(1), Record: addr(2), Hello: strings.Repeat("a", 12)}); err != nil {
		t.Fatalf("payload filling capacity exactly should fit: %v", err)
	}
}

func TestGetRecordRejectsForeignOwner(t *testing.T) {
	ledger := newFakeLedger()
	ledger.accounts[addr(3)] = ports.Account{Address: addr(3), Owner: model.SystemProgramID}
	svc, _, _ := newTestService(t, ledger)
	if _, err := svc.GetRecord(context.Background(), addr(3)); !errors.Is(err, ErrNotProgramAccount) {
		t.Fatalf("expected ErrNotProgramAccount, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, Options{ProgramID: testProgramID}); err == nil {
		t.Fatal("expected error without ledger")
	}
	if _, err := NewService(newFakeLedger(), Options{}); err == nil {
		t.Fatal("expected error without program id")
	}
	if _, err := NewService(newFakeLedger(), Options{ProgramID: testProgramID, Capacity: -1}); err == nil {
		t.Fatal("expected error for negative capacity")
	}
}
