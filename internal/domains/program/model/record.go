package model

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	DiscriminatorSize = 8
	// DefaultCapacity is the payload space reserved behind the discriminator.
	DefaultCapacity = 200
	// MaxPermittedDataLength mirrors the host limit on a single account's data.
	MaxPermittedDataLength = 10 * 1024 * 1024

	RecordAccountName = "DataAccount"
	stringLengthSize  = 4
)

var (
	ErrDiscriminatorMismatch = errors.New("account discriminator did not match")
	ErrRecordTruncated       = errors.New("record data is truncated")
	ErrRecordNotUTF8         = errors.New("record payload is not valid utf-8")
)

type Record struct {
	Hello string `json:"hello"`
}

// Discriminator is the 8-byte type tag that prefixes accounts and instruction data.
type Discriminator [DiscriminatorSize]byte

func AccountDiscriminator(name string) Discriminator {
	return hashDiscriminator("account:" + name)
}

func InstructionDiscriminator(name string) Discriminator {
	return hashDiscriminator("global:" + name)
}

func hashDiscriminator(preimage string) Discriminator {
	sum := sha256.Sum256([]byte(preimage))
	var out Discriminator
	copy(out[:], sum[:DiscriminatorSize])
	return out
}

var recordDiscriminator = AccountDiscriminator(RecordAccountName)

// RecordSpace is the account size reserved for a record with the given payload capacity.
func RecordSpace(capacity int) int {
	return DiscriminatorSize + capacity
}

// EncodedPayloadLen is how many bytes hello occupies in the payload area.
func EncodedPayloadLen(hello string) int {
	return stringLengthSize + len(hello)
}

// EncodeRecord lays out discriminator, little-endian u32 length and the payload bytes.
// The result is never truncated; the ledger rejects data larger than the allocation.
func EncodeRecord(r Record) []byte {
	out := make([]byte, 0, DiscriminatorSize+EncodedPayloadLen(r.Hello))
	out = append(out, recordDiscriminator[:]...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(r.Hello)))
	return append(out, r.Hello...)
}

// DecodeRecord reads a record from account data; trailing zero padding is ignored.
func DecodeRecord(data []byte) (Record, error) {
	if len(data) < DiscriminatorSize {
		return Record{}, ErrRecordTruncated
	}
	if Discriminator(data[:DiscriminatorSize]) != recordDiscriminator {
		return Record{}, ErrDiscriminatorMismatch
	}
	hello, _, err := DecodeString(data[DiscriminatorSize:])
	if err != nil {
		return Record{}, err
	}
	return Record{Hello: hello}, nil
}

// DecodeString reads a u32-length-prefixed string and returns the bytes consumed.
func DecodeString(data []byte) (string, int, error) {
	if len(data) < stringLengthSize {
		return "", 0, ErrRecordTruncated
	}
	n := binary.LittleEndian.Uint32(data[:stringLengthSize])
	if uint64(n) > uint64(len(data)-stringLengthSize) {
		return "", 0, fmt.Errorf("%w: want %d payload bytes, have %d", ErrRecordTruncated, n, len(data)-stringLengthSize)
	}
	raw := data[stringLengthSize : stringLengthSize+int(n)]
	if !utf8.Valid(raw) {
		return "", 0, ErrRecordNotUTF8
	}
	return string(raw), stringLengthSize + int(n), nil
}

// AppendString appends s in the same u32-length-prefixed form DecodeString reads.
func AppendString(dst []byte, s string) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(s)))
	return append(dst, s...)
}
