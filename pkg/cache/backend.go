package cache

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrClosed is returned by backends after Close.
var ErrClosed = errors.New("cache closed")

// Entry is a stored HTTP response.
type Entry struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// Backend persists entries for a fixed time to live. Implementations must be
// safe for concurrent use; concurrent Sets of one key resolve as last write
// wins.
type Backend interface {
	// Get returns the entry for key. A missing or expired key returns
	// ok == false and a nil error.
	Get(ctx context.Context, key string) (e *Entry, ok bool, err error)

	// Set stores e under key, expiring after ttl.
	Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error

	// Len returns the number of live entries, or -1 when unknown.
	Len(ctx context.Context) int

	Close() error
}
