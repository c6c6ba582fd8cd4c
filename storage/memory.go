package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// MemoryBackend keeps state in process memory. State is lost on restart.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[interfaces.StateKey][]byte
	log    *slog.Logger
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(log *slog.Logger) *MemoryBackend {
	return &MemoryBackend{
		values: make(map[interfaces.StateKey][]byte),
		log:    log,
	}
}

// Fetch returns a copy of the value stored under key.
func (b *MemoryBackend) Fetch(ctx context.Context, key interfaces.StateKey) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.values[key]
	if !ok {
		return nil, interfaces.ErrContentNotFound
	}
	return append([]byte(nil), data...), nil
}

// Store saves a copy of data under key.
func (b *MemoryBackend) Store(ctx context.Context, key interfaces.StateKey, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.values[key] = append([]byte(nil), data...)
	b.log.Debug("Stored state in memory", slog.String("key", key.String()), slog.Int("size", len(data)))
	return nil
}

// Delete removes key.
func (b *MemoryBackend) Delete(ctx context.Context, key interfaces.StateKey) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.values, key)
	return nil
}

// Available always returns true.
func (b *MemoryBackend) Available(ctx context.Context) bool {
	return true
}

// Name returns a unique identifier for this state backend.
func (b *MemoryBackend) Name() string {
	return "memory"
}

// LocationURI returns the URI that identifies this state backend.
func (b *MemoryBackend) LocationURI() string {
	return "memory://"
}
