package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"hello-solana/go-backend/internal/securestore"
)

// SignatureRegistry remembers processed transaction ids.
// TryRecordSignature reports false when sig was seen before.
type SignatureRegistry interface {
	TryRecordSignature(ctx context.Context, sig string, at time.Time) (bool, error)
}

type InMemoryRegistry struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{seen: map[string]time.Time{}}
}

func (r *InMemoryRegistry) TryRecordSignature(_ context.Context, sig string, at time.Time) (bool, error) {
	if sig == "" {
		return false, errors.New("signature is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.seen[sig]; exists {
		return false, nil
	}
	r.seen[sig] = at.UTC()
	return true, nil
}

// FileRegistry keeps processed ids in a JSON file next to a memory ledger snapshot.
type FileRegistry struct {
	mu   sync.Mutex
	path string
	seen map[string]time.Time
}

type registryFile struct {
	Seen map[string]time.Time `json:"seen"`
}

func NewFileRegistry(path string) *FileRegistry {
	return &FileRegistry{path: path, seen: map[string]time.Time{}}
}

func (r *FileRegistry) Bootstrap() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if strings.TrimSpace(r.path) == "" {
		return errors.New("registry path is required")
	}
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.seen = map[string]time.Time{}
			return nil
		}
		return err
	}
	var payload registryFile
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if payload.Seen == nil {
		payload.Seen = map[string]time.Time{}
	}
	r.seen = payload.Seen
	return nil
}

func (r *FileRegistry) TryRecordSignature(_ context.Context, sig string, at time.Time) (bool, error) {
	if sig == "" {
		return false, errors.New("signature is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.seen[sig]; exists {
		return false, nil
	}
	next := make(map[string]time.Time, len(r.seen)+1)
	for k, v := range r.seen {
		next[k] = v
	}
	next[sig] = at.UTC()
	raw, err := json.Marshal(registryFile{Seen: next})
	if err != nil {
		return false, err
	}
	if err := securestore.WriteFileAtomic(r.path, raw); err != nil {
		return false, err
	}
	r.seen = next
	return true, nil
}
