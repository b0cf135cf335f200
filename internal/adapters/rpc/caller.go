package rpc

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// callerScope names the caller for rate limiting and idempotency keys: a hash
// prefix of the RPC token, or the client host for anonymous calls.
func callerScope(r *http.Request, token string) string {
	if token = strings.TrimSpace(token); token != "" {
		sum := sha256.Sum256([]byte(token))
		return "token:" + hex.EncodeToString(sum[:8])
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return "ip:" + ap.Addr().Unmap().String()
	}
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		return "ip:" + host
	}
	if remote == "" {
		return "ip:unknown"
	}
	return "ip:" + remote
}
