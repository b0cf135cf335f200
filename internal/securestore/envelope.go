package securestore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	envelopeVersion = 2
	saltSize        = 16
	filePrefix      = "HELLOENC2\n"
	kdfName         = "argon2id"
)

var (
	ErrAuthFailed    = errors.New("securestore authentication failed")
	ErrInvalid       = errors.New("securestore envelope is invalid")
	ErrNotEncrypted  = errors.New("securestore data is not an encrypted envelope")
	ErrEmptySecret   = errors.New("securestore passphrase is empty")
	ErrWeakKDFParams = errors.New("securestore kdf params are below the minimum")
)

// KDFParams tunes argon2id. Decryption always uses the params stored in the envelope.
type KDFParams struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
}

var DefaultKDFParams = KDFParams{Time: 2, MemoryKB: 64 * 1024, Threads: 1}

// FastKDFParams keeps unit tests quick; do not use for persisted secrets.
var FastKDFParams = KDFParams{Time: 1, MemoryKB: 8 * 1024, Threads: 1}

func (p KDFParams) validate() error {
	if p.Time == 0 || p.MemoryKB < 8*1024 || p.Threads == 0 {
		return ErrWeakKDFParams
	}
	return nil
}

type Envelope struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

func (e *Envelope) params() KDFParams {
	return KDFParams{Time: e.KDFTime, MemoryKB: e.KDFMemoryKB, Threads: e.KDFThreads}
}

// Seal encrypts plaintext and binds label as associated data, so an envelope
// written for one purpose cannot be opened as another.
func Seal(passphrase, label string, plaintext []byte, params KDFParams) ([]byte, error) {
	if strings.TrimSpace(passphrase) == "" {
		return nil, ErrEmptySecret
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	key := deriveKey(passphrase, salt, params)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	env := Envelope{
		Version:     envelopeVersion,
		KDF:         kdfName,
		KDFTime:     params.Time,
		KDFMemoryKB: params.MemoryKB,
		KDFThreads:  params.Threads,
		Salt:        salt,
		Nonce:       nonce,
		Ciphertext:  aead.Seal(nil, nonce, plaintext, []byte(label)),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(filePrefix), raw...), nil
}

// Open reverses Seal. A wrong passphrase, label or tampered payload yields ErrAuthFailed.
func Open(passphrase, label string, data []byte) ([]byte, error) {
	if strings.TrimSpace(passphrase) == "" {
		return nil, ErrEmptySecret
	}
	if !IsSealed(data) {
		return nil, ErrNotEncrypted
	}
	var env Envelope
	if err := json.Unmarshal(data[len(filePrefix):], &env); err != nil {
		return nil, ErrInvalid
	}
	if env.Version != envelopeVersion || env.KDF != kdfName || len(env.Salt) != saltSize {
		return nil, ErrInvalid
	}
	if err := env.params().validate(); err != nil {
		return nil, ErrInvalid
	}
	key := deriveKey(passphrase, env.Salt, env.params())
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, ErrInvalid
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, []byte(label))
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func IsSealed(data []byte) bool {
	return strings.HasPrefix(string(data), filePrefix)
}

func deriveKey(passphrase string, salt []byte, p KDFParams) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.MemoryKB, p.Threads, chacha20poly1305.KeySize)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
