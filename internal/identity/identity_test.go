package identity

import (
	"crypto/ed25519"
	"errors"
	"path/filepath"
	"testing"

	"hello-solana/go-backend/internal/securestore"
	"hello-solana/go-backend/internal/testutil/fsperm"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestKeypairFromMnemonicIsDeterministic(t *testing.T) {
	a, err := KeypairFromMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	b, err := KeypairFromMnemonic("  ABANDON abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about ", "")
	if err != nil {
		t.Fatalf("derive with messy spacing failed: %v", err)
	}
	if a.Address() != b.Address() {
		t.Fatalf("addresses differ: got=%s want=%s", b.Address(), a.Address())
	}
	c, err := KeypairFromMnemonic(testMnemonic, "extra")
	if err != nil {
		t.Fatalf("derive with passphrase failed: %v", err)
	}
	if c.Address() == a.Address() {
		t.Fatal("bip39 passphrase must change the derived key")
	}
	msg := []byte("message")
	if !ed25519.Verify(a.PublicKey, msg, a.Sign(msg)) {
		t.Fatal("signature does not verify")
	}
}

func TestKeypairFromMnemonicRejectsBadInput(t *testing.T) {
	if _, err := KeypairFromMnemonic("   ", ""); !errors.Is(err, ErrMnemonicRequired) {
		t.Fatalf("expected ErrMnemonicRequired, got %v", err)
	}
	if _, err := KeypairFromMnemonic("abandon abandon abandon", ""); !errors.Is(err, ErrInvalidMnemonic) {
		t.Fatalf("expected ErrInvalidMnemonic, got %v", err)
	}
}

func TestNewMnemonicValidates(t *testing.T) {
	m, err := NewMnemonic()
	if err != nil {
		t.Fatalf("new mnemonic failed: %v", err)
	}
	if !ValidateMnemonic(m) {
		t.Fatalf("generated mnemonic is invalid: %q", m)
	}
}

func TestKeystoreRoundtrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")
	path := filepath.Join(dir, "payer.json")
	kp, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := SaveKeystore(path, "pw", kp, securestore.FastKDFParams); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	fsperm.AssertPrivateDirPerm(t, dir)
	fsperm.AssertPrivateFilePerm(t, path)

	loaded, err := LoadKeystore(path, "pw")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Address() != kp.Address() {
		t.Fatalf("unexpected address: got=%s want=%s", loaded.Address(), kp.Address())
	}
	if _, err := LoadKeystore(path, "wrong"); !errors.Is(err, securestore.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if err := SaveKeystore(path, "", kp, securestore.FastKDFParams); !errors.Is(err, ErrPassphraseRequired) {
		t.Fatalf("expected ErrPassphraseRequired, got %v", err)
	}
}
