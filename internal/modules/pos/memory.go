package pos

import (
	"context"
	"sync"
)

type memoryRepo struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryRepository keeps blobs in process. Used when no database is configured.
func NewMemoryRepository() Repository { return &memoryRepo{blobs: map[string][]byte{}} }

func (r *memoryRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (r *memoryRepo) Put(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[key] = append([]byte(nil), value...)
	return nil
}
