package pos

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Repository.Get for keys never written.
var ErrNotFound = errors.New("blob not found")

// Repository is the key-value blob store drafts are persisted to.
// Writes are last-writer-wins.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
