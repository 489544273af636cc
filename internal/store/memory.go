package store

import (
	"context"
	"sync"
)

// MemoryBackend holds the document in process memory. Read and write
// failures can be injected for tests.
type MemoryBackend struct {
	mu       sync.RWMutex
	data     []byte
	readErr  error
	writeErr error
	writes   int
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Read(_ context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.readErr != nil {
		return nil, b.readErr
	}
	if b.data == nil {
		return nil, ErrNoDocument
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

func (b *MemoryBackend) Write(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.data = make([]byte, len(data))
	copy(b.data, data)
	b.writes++
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

// SetReadError makes subsequent reads fail with err. nil clears it.
func (b *MemoryBackend) SetReadError(err error) {
	b.mu.Lock()
	b.readErr = err
	b.mu.Unlock()
}

// SetWriteError makes subsequent writes fail with err. nil clears it.
func (b *MemoryBackend) SetWriteError(err error) {
	b.mu.Lock()
	b.writeErr = err
	b.mu.Unlock()
}

// Writes reports how many writes succeeded.
func (b *MemoryBackend) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}

// Raw returns the stored document, or nil when nothing was written.
func (b *MemoryBackend) Raw() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data
}
