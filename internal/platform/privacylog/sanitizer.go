package privacylog

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

const redactedValue = "[REDACTED]"

// Policy decides which attribute keys are dropped and which are fingerprinted.
// Key matching is case-insensitive; RedactKeyParts match as substrings.
type Policy struct {
	RedactKeyParts  []string
	FingerprintKeys []string
}

// DefaultPolicy hides key material and connection secrets. Client network
// identifiers and nonces are fingerprinted so requests can still be correlated.
var DefaultPolicy = Policy{
	RedactKeyParts:  []string{"token", "secret", "password", "passphrase", "authorization", "mnemonic", "private_key", "seed", "dsn"},
	FingerprintKeys: []string{"remote_addr", "client_ip", "nonce", "keystore"},
}

var bootNonce = randomNonce()

type SanitizingHandler struct {
	next        slog.Handler
	redact      []string
	fingerprint map[string]struct{}
}

func WrapHandler(next slog.Handler) slog.Handler {
	return WrapHandlerWithPolicy(next, DefaultPolicy)
}

func WrapHandlerWithPolicy(next slog.Handler, policy Policy) slog.Handler {
	if next == nil {
		return nil
	}
	fp := make(map[string]struct{}, len(policy.FingerprintKeys))
	for _, k := range policy.FingerprintKeys {
		fp[strings.ToLower(strings.TrimSpace(k))] = struct{}{}
	}
	redact := make([]string, 0, len(policy.RedactKeyParts))
	for _, p := range policy.RedactKeyParts {
		redact = append(redact, strings.ToLower(strings.TrimSpace(p)))
	}
	return &SanitizingHandler{next: next, redact: redact, fingerprint: fp}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(h.sanitizeAttr(attr))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		clean = append(clean, h.sanitizeAttr(attr))
	}
	return &SanitizingHandler{next: h.next.WithAttrs(clean), redact: h.redact, fingerprint: h.fingerprint}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name), redact: h.redact, fingerprint: h.fingerprint}
}

func (h *SanitizingHandler) sanitizeAttr(attr slog.Attr) slog.Attr {
	key := strings.TrimSpace(attr.Key)
	lowerKey := strings.ToLower(key)
	if h.isSensitiveKey(lowerKey) {
		return slog.String(key, redactedValue)
	}
	if _, ok := h.fingerprint[lowerKey]; ok {
		return slog.String(fingerprintKeyName(key), FingerprintID(attr.Value.Resolve().String()))
	}
	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		clean := make([]any, 0, len(group))
		for _, a := range group {
			clean = append(clean, h.sanitizeAttr(a))
		}
		return slog.Group(key, clean...)
	}
	return attr
}

func (h *SanitizingHandler) isSensitiveKey(key string) bool {
	for _, part := range h.redact {
		if part != "" && strings.Contains(key, part) {
			return true
		}
	}
	return false
}

// SanitizeArgs applies DefaultPolicy to loose key/value pairs, for callers that
// format log lines outside slog.
func SanitizeArgs(args ...any) []any {
	h := WrapHandler(slog.DiscardHandler).(*SanitizingHandler)
	out := make([]any, 0, len(args))
	for i := 0; i < len(args); i++ {
		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			out = append(out, args[i])
			continue
		}
		attr := h.sanitizeAttr(slog.Any(key, args[i+1]))
		out = append(out, attr.Key, attr.Value.Any())
		i++
	}
	return out
}

// FingerprintID maps a value to a stable per-process token.
func FingerprintID(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(trimmed + "|" + bootNonce))
	return "fp_" + hex.EncodeToString(sum[:8])
}

func fingerprintKeyName(key string) string {
	if strings.HasSuffix(strings.ToLower(key), "_fp") {
		return key
	}
	return key + "_fp"
}

func randomNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("fallback_%p", &buf)
	}
	return hex.EncodeToString(buf)
}
