package securestore

import (
	"errors"
	"path/filepath"
	"testing"

	"hello-solana/go-backend/internal/testutil/fsperm"
)

func TestSealOpenRoundtrip(t *testing.T) {
	data, err := Seal("pass", "keystore", []byte("secret"), FastKDFParams)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	plain, err := Open("pass", "keystore", data)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if string(plain) != "secret" {
		t.Fatalf("unexpected plaintext: %q", string(plain))
	}
}

func TestOpenTamperedFailsDeterministically(t *testing.T) {
	data, err := Seal("pass", "keystore", []byte("secret"), FastKDFParams)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	data[len(data)-2] ^= 0xFF
	_, err = Open("pass", "keystore", data)
	if !errors.Is(err, ErrAuthFailed) && !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestOpenRejectsWrongPassphraseAndLabel(t *testing.T) {
	data, err := Seal("pass", "ledger-snapshot", []byte("{}"), FastKDFParams)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if _, err := Open("other", "ledger-snapshot", data); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed for wrong passphrase, got %v", err)
	}
	if _, err := Open("pass", "keystore", data); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed for wrong label, got %v", err)
	}
	if _, err := Open("pass", "keystore", []byte(`{"plain":true}`)); !errors.Is(err, ErrNotEncrypted) {
		t.Fatalf("expected ErrNotEncrypted, got %v", err)
	}
}

func TestSealRejectsEmptyPassphraseAndWeakParams(t *testing.T) {
	if _, err := Seal("  ", "x", []byte("a"), FastKDFParams); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
	if _, err := Seal("pass", "x", []byte("a"), KDFParams{Time: 1, MemoryKB: 1024, Threads: 1}); !errors.Is(err, ErrWeakKDFParams) {
		t.Fatalf("expected ErrWeakKDFParams, got %v", err)
	}
}

func TestWriteSealedJSONCreatesPrivateFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	path := filepath.Join(dir, "snapshot.enc")
	in := map[string]uint64{"a": 1}
	if err := WriteSealedJSON(path, "pass", "snap", in, FastKDFParams); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	fsperm.AssertPrivateDirPerm(t, dir)
	fsperm.AssertPrivateFilePerm(t, path)
	var out map[string]uint64
	if err := ReadSealedJSON(path, "pass", "snap", &out); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if out["a"] != 1 {
		t.Fatalf("unexpected payload: %+v", out)
	}
}
