package rpc

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"sync"
	"time"
)

const (
	idempotencyHeader     = "X-Hello-Idempotency-Key"
	invokeCacheTTL        = 10 * time.Minute
	invokeCacheMaxEntries = 1024
)

type cacheOutcome int

const (
	cacheMiss cacheOutcome = iota
	cacheHit
	cacheConflict
)

type cachedInvoke struct {
	key         string
	fingerprint [sha256.Size]byte
	result      json.RawMessage
	storedAt    time.Time
}

// invokeCache remembers successful program.invoke results per caller-scoped
// idempotency key. Entries are kept in insertion order so expiry and the size
// cap both evict from the front.
type invokeCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]*cachedInvoke
	order      []*cachedInvoke
}

func newInvokeCache(ttl time.Duration, maxEntries int) *invokeCache {
	return &invokeCache{ttl: ttl, maxEntries: maxEntries, entries: make(map[string]*cachedInvoke)}
}

// do runs exec at most once per key and fingerprint while the entry is live.
// The lock is held across exec so concurrent retries of one key never execute
// twice. Failed responses are returned but not stored.
func (c *invokeCache) do(key string, fp [sha256.Size]byte, now time.Time, exec func() rpcResponse) (rpcResponse, cacheOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expire(now)

	if entry, ok := c.entries[key]; ok {
		if entry.fingerprint != fp {
			return rpcResponse{}, cacheConflict
		}
		return rpcResponse{JSONRPC: "2.0", Result: entry.result}, cacheHit
	}
	resp := exec()
	if resp.Error != nil {
		return resp, cacheMiss
	}
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		return resp, cacheMiss
	}
	entry := &cachedInvoke{key: key, fingerprint: fp, result: raw, storedAt: now}
	c.entries[key] = entry
	c.order = append(c.order, entry)
	for len(c.order) > c.maxEntries {
		c.evictFront()
	}
	return resp, cacheMiss
}

func (c *invokeCache) expire(now time.Time) {
	for len(c.order) > 0 && now.Sub(c.order[0].storedAt) > c.ttl {
		c.evictFront()
	}
}

func (c *invokeCache) evictFront() {
	front := c.order[0]
	c.order[0] = nil
	c.order = c.order[1:]
	if c.entries[front.key] == front {
		delete(c.entries, front.key)
	}
}

// invokeFingerprint ignores insignificant whitespace in params, so a client
// retry that re-encodes the same transaction still matches.
func invokeFingerprint(method string, params json.RawMessage) [sha256.Size]byte {
	var buf bytes.Buffer
	buf.WriteString(method)
	buf.WriteByte(0)
	if err := json.Compact(&buf, params); err != nil {
		buf.Write(params)
	}
	return sha256.Sum256(buf.Bytes())
}
