package model

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestEncodeDecodeRecordKeepsPayload(t *testing.T) {
	data := EncodeRecord(Record{Hello: "hi"})
	if got, want := len(data), DiscriminatorSize+4+2; got != want {
		t.Fatalf("unexpected encoded length: got=%d want=%d", got, want)
	}
	padded := append(append([]byte(nil), data...), make([]byte, 32)...)
	rec, err := DecodeRecord(padded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if rec.Hello != "hi" {
		t.Fatalf("unexpected hello: got=%q want=%q", rec.Hello, "hi")
	}
}

func TestEncodeRecordNeverTruncates(t *testing.T) {
	hello := strings.Repeat("x", DefaultCapacity+50)
	data := EncodeRecord(Record{Hello: hello})
	if len(data) <= RecordSpace(DefaultCapacity) {
		t.Fatalf("expected oversized payload to exceed record space, got %d bytes", len(data))
	}
}

func TestDecodeRecordRejectsForeignDiscriminator(t *testing.T) {
	data := EncodeRecord(Record{Hello: "hi"})
	data[0] ^= 0xFF
	if _, err := DecodeRecord(data); !errors.Is(err, ErrDiscriminatorMismatch) {
		t.Fatalf("expected ErrDiscriminatorMismatch, got %v", err)
	}
}

func TestDecodeRecordRejectsTruncatedPayload(t *testing.T) {
	data := EncodeRecord(Record{Hello: "hello"})
	if _, err := DecodeRecord(data[:len(data)-2]); !errors.Is(err, ErrRecordTruncated) {
		t.Fatalf("expected ErrRecordTruncated, got %v", err)
	}
	if _, err := DecodeRecord(data[:3]); !errors.Is(err, ErrRecordTruncated) {
		t.Fatalf("expected ErrRecordTruncated for short header, got %v", err)
	}
}

func TestDiscriminatorsAreStable(t *testing.T) {
	a := InstructionDiscriminator("initialize")
	b := InstructionDiscriminator("initialize")
	if !bytes.Equal(a[:], b[:]) {
		t.Fatal("instruction discriminator is not deterministic")
	}
	if InstructionDiscriminator("transfer_lamports") == a {
		t.Fatal("distinct instructions share a discriminator")
	}
	if AccountDiscriminator(RecordAccountName) == a {
		t.Fatal("account and instruction namespaces collide")
	}
}

func TestProgramErrorsMatchByCode(t *testing.T) {
	wrapped := fmt.Errorf("transfer: %w", ErrInsufficientFunds)
	if !errors.Is(wrapped, ErrInsufficientFunds) {
		t.Fatal("expected wrapped error to match ErrInsufficientFunds")
	}
	if errors.Is(wrapped, ErrInvalidAmount) {
		t.Fatal("InsufficientFunds must not match InvalidAmount")
	}
	if got, want := ErrInvalidAmount.Error(), "The transfer amount must be greater than 0"; got != want {
		t.Fatalf("unexpected message: got=%q want=%q", got, want)
	}
	found, ok := LookupProgramError(6001)
	if !ok || found.Name != "InsufficientFunds" {
		t.Fatalf("unexpected lookup result: %+v ok=%v", found, ok)
	}
}

func TestParseAddressRoundTrip(t *testing.T) {
	addr, err := ParseAddress(DefaultProgramID)
	if err != nil {
		t.Fatalf("parse program id failed: %v", err)
	}
	if addr.String() != DefaultProgramID {
		t.Fatalf("unexpected address: got=%q want=%q", addr.String(), DefaultProgramID)
	}
	if got, want := SystemProgramID.String(), "11111111111111111111111111111111"; got != want {
		t.Fatalf("unexpected system program id: got=%q want=%q", got, want)
	}
	if _, err := ParseAddress("not-base58-0OIl"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
	if _, err := ParseAddress("3mJr7AoUXx2Wqd"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress for short key, got %v", err)
	}
}
