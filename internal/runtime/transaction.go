package runtime

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"hello-solana/go-backend/internal/domains/program/model"
	"hello-solana/go-backend/pkg/models"
)

const messageDomain = "hello-solana:tx:v1\x00"

const (
	flagSigner   byte = 1 << 0
	flagWritable byte = 1 << 1
)

// Signer produces ed25519 signatures for one address.
type Signer interface {
	Address() model.Address
	Sign(message []byte) []byte
}

// Transaction binds one instruction to a caller nonce and the signatures of
// every account flagged as signer.
type Transaction struct {
	Instruction Instruction
	Nonce       string
	Signatures  map[model.Address][]byte
}

// Message is the canonical byte string that signers sign.
func (tx Transaction) Message() []byte {
	var buf bytes.Buffer
	buf.WriteString(messageDomain)
	buf.Write(tx.Instruction.ProgramID[:])
	buf.WriteByte(byte(len(tx.Instruction.Accounts)))
	for _, acc := range tx.Instruction.Accounts {
		buf.Write(acc.Address[:])
		var flags byte
		if acc.Signer {
			flags |= flagSigner
		}
		if acc.Writable {
			flags |= flagWritable
		}
		buf.WriteByte(flags)
	}
	buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(tx.Instruction.Data))))
	buf.Write(tx.Instruction.Data)
	buf.Write(model.AppendString(nil, tx.Nonce))
	return buf.Bytes()
}

// Sign adds a signature from each signer over the current message.
func (tx *Transaction) Sign(signers ...Signer) {
	if tx.Signatures == nil {
		tx.Signatures = make(map[model.Address][]byte, len(signers))
	}
	msg := tx.Message()
	for _, s := range signers {
		tx.Signatures[s.Address()] = s.Sign(msg)
	}
}

// RequiredSigners lists signer accounts in order, without duplicates.
func (tx Transaction) RequiredSigners() []model.Address {
	seen := make(map[model.Address]struct{}, len(tx.Instruction.Accounts))
	var out []model.Address
	for _, acc := range tx.Instruction.Accounts {
		if !acc.Signer {
			continue
		}
		if _, ok := seen[acc.Address]; ok {
			continue
		}
		seen[acc.Address] = struct{}{}
		out = append(out, acc.Address)
	}
	return out
}

// Verify checks that every signer account signed the message and nothing else did.
func (tx Transaction) Verify() error {
	if strings.TrimSpace(tx.Nonce) == "" {
		return ErrNonceRequired
	}
	required := tx.RequiredSigners()
	if len(required) == 0 {
		return fmt.Errorf("%w: no signer accounts", ErrMissingRequiredSignature)
	}
	msg := tx.Message()
	for _, addr := range required {
		sig, ok := tx.Signatures[addr]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, addr)
		}
		if weakKey(addr) {
			return fmt.Errorf("%w: %s is not a usable signer key", ErrInvalidSignature, addr)
		}
		if len(sig) != ed25519.SignatureSize || !ed25519.Verify(addr.PublicKey(), msg, sig) {
			return fmt.Errorf("%w: %s", ErrInvalidSignature, addr)
		}
	}
	if len(tx.Signatures) != len(required) {
		return ErrUnexpectedSignature
	}
	return nil
}

// weakKey reports whether addr does not decode to a curve point or lies in the
// small-order subgroup. ed25519.Verify accepts forgeries for such keys.
func weakKey(addr model.Address) bool {
	p, err := new(edwards25519.Point).SetBytes(addr[:])
	if err != nil {
		return true
	}
	return new(edwards25519.Point).MultByCofactor(p).Equal(edwards25519.NewIdentityPoint()) == 1
}

// ID is the first signer's signature in base58, the handle used for replay checks.
func (tx Transaction) ID() string {
	required := tx.RequiredSigners()
	if len(required) == 0 {
		return ""
	}
	return base58.Encode(tx.Signatures[required[0]])
}

// TransactionFromWire decodes the JSON form; defaultProgram fills an empty program id.
func TransactionFromWire(wire models.Transaction, defaultProgram model.Address) (Transaction, error) {
	in, err := InstructionFromInvocation(wire.Invocation, defaultProgram)
	if err != nil {
		return Transaction{}, err
	}
	sigs := make(map[model.Address][]byte, len(wire.Signatures))
	for _, entry := range wire.Signatures {
		addr, err := model.ParseAddress(entry.Address)
		if err != nil {
			return Transaction{}, fmt.Errorf("signature address: %w", err)
		}
		raw, err := base58.Decode(strings.TrimSpace(entry.Signature))
		if err != nil {
			return Transaction{}, fmt.Errorf("%w: %s: %v", ErrInvalidSignature, addr, err)
		}
		if _, dup := sigs[addr]; dup {
			return Transaction{}, fmt.Errorf("%w: duplicate signature for %s", ErrInvalidSignature, addr)
		}
		sigs[addr] = raw
	}
	return Transaction{Instruction: in, Nonce: wire.Nonce, Signatures: sigs}, nil
}

// Wire renders tx into its JSON form with signatures in signer order.
func (tx Transaction) Wire() (models.Transaction, error) {
	inv, err := tx.Instruction.Invocation()
	if err != nil {
		return models.Transaction{}, err
	}
	out := models.Transaction{Invocation: inv, Nonce: tx.Nonce}
	for _, addr := range tx.RequiredSigners() {
		sig, ok := tx.Signatures[addr]
		if !ok {
			continue
		}
		out.Signatures = append(out.Signatures, models.SignatureEntry{Address: addr.String(), Signature: base58.Encode(sig)})
	}
	return out, nil
}
