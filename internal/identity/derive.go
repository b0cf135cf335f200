package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"

	"hello-solana/go-backend/internal/domains/program/model"
)

const hkdfInfoSigning = "hello-solana/account/signing/v1"

var (
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
	ErrMnemonicRequired = errors.New("mnemonic is required")
)

// Keypair is an ed25519 signing key and the account address it controls.
type Keypair struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

func (k Keypair) Address() model.Address {
	var out model.Address
	copy(out[:], k.PublicKey)
	return out
}

func (k Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.PrivateKey, message)
}

// NewMnemonic returns a fresh 24-word recovery phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalizeMnemonic(mnemonic))
}

// KeypairFromMnemonic derives the signing key deterministically from the phrase and
// optional bip39 passphrase.
func KeypairFromMnemonic(mnemonic, passphrase string) (Keypair, error) {
	mnemonic = normalizeMnemonic(mnemonic)
	if mnemonic == "" {
		return Keypair{}, ErrMnemonicRequired
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return Keypair{}, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	defer zeroBytes(seed)
	signingSeed, err := hkdfExpand(seed, hkdfInfoSigning, ed25519.SeedSize)
	if err != nil {
		return Keypair{}, err
	}
	defer zeroBytes(signingSeed)
	return KeypairFromSeed(signingSeed)
}

func KeypairFromSeed(seed []byte) (Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return Keypair{}, fmt.Errorf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return Keypair{PrivateKey: priv, PublicKey: priv.Public().(ed25519.PublicKey)}, nil
}

// GenerateKeypair returns a random keypair, used for throwaway record accounts.
func GenerateKeypair() (Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{PrivateKey: priv, PublicKey: pub}, nil
}

func hkdfExpand(seed []byte, info string, outLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, seed, nil, []byte(info))
	out := make([]byte, outLen)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
