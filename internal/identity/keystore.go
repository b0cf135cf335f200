package identity

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"hello-solana/go-backend/internal/securestore"
)

const (
	keystoreVersion = 1
	keystoreLabel   = "keystore"
)

var (
	ErrPassphraseRequired = errors.New("keystore passphrase is required")
	ErrKeystoreCorrupt    = errors.New("keystore content is invalid")
)

type keystoreFile struct {
	Version int    `json:"version"`
	Address string `json:"address"`
	Seed    string `json:"seed"`
}

// SaveKeystore seals the keypair's seed under passphrase at path.
func SaveKeystore(path, passphrase string, kp Keypair, kdf securestore.KDFParams) error {
	if strings.TrimSpace(passphrase) == "" {
		return ErrPassphraseRequired
	}
	if len(kp.PrivateKey) != ed25519.PrivateKeySize {
		return fmt.Errorf("%w: private key length %d", ErrKeystoreCorrupt, len(kp.PrivateKey))
	}
	payload := keystoreFile{
		Version: keystoreVersion,
		Address: kp.Address().String(),
		Seed:    base58.Encode(kp.PrivateKey.Seed()),
	}
	return securestore.WriteSealedJSON(path, passphrase, keystoreLabel, payload, kdf)
}

// LoadKeystore opens path and checks that the stored address matches the derived key.
func LoadKeystore(path, passphrase string) (Keypair, error) {
	if strings.TrimSpace(passphrase) == "" {
		return Keypair{}, ErrPassphraseRequired
	}
	var payload keystoreFile
	if err := securestore.ReadSealedJSON(path, passphrase, keystoreLabel, &payload); err != nil {
		return Keypair{}, err
	}
	if payload.Version != keystoreVersion {
		return Keypair{}, fmt.Errorf("%w: version %d", ErrKeystoreCorrupt, payload.Version)
	}
	seed, err := base58.Decode(payload.Seed)
	if err != nil {
		return Keypair{}, fmt.Errorf("%w: %v", ErrKeystoreCorrupt, err)
	}
	defer zeroBytes(seed)
	kp, err := KeypairFromSeed(seed)
	if err != nil {
		return Keypair{}, fmt.Errorf("%w: %v", ErrKeystoreCorrupt, err)
	}
	if kp.Address().String() != payload.Address {
		return Keypair{}, fmt.Errorf("%w: address mismatch", ErrKeystoreCorrupt)
	}
	return kp, nil
}
