package cache

import (
	"context"
	"hash/maphash"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	shardCount             = 16
	defaultCleanerInterval = time.Minute
	// DefaultMaxEntries bounds the memory backend when no size is configured.
	DefaultMaxEntries = 1024
)

type memElem struct {
	data   []byte
	expire int64 // unix nano
}

// MemoryBackend keeps compressed entries in process memory. Keys are spread
// over sharded LRUs, so once full the least recently used entry of a shard
// is evicted. Expired entries are dropped on read and by a periodic cleaner.
type MemoryBackend struct {
	seed      maphash.Seed
	shards    [shardCount]*lru.Cache[string, memElem]
	closed    atomic.Bool
	closeChan chan struct{}
	now       func() time.Time
}

// NewMemoryBackend creates a memory backend holding at most maxEntries
// entries. maxEntries <= 0 uses DefaultMaxEntries and a cleanerInterval <= 0
// uses one minute.
func NewMemoryBackend(maxEntries int, cleanerInterval time.Duration) *MemoryBackend {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	perShard := (maxEntries + shardCount - 1) / shardCount

	b := &MemoryBackend{
		seed:      maphash.MakeSeed(),
		closeChan: make(chan struct{}),
		now:       time.Now,
	}
	for i := range b.shards {
		// lru.New only fails for a non-positive size.
		s, _ := lru.New[string, memElem](perShard)
		b.shards[i] = s
	}
	if cleanerInterval <= 0 {
		cleanerInterval = defaultCleanerInterval
	}
	go b.startCleaner(cleanerInterval)
	return b
}

func (b *MemoryBackend) shard(key string) *lru.Cache[string, memElem] {
	return b.shards[maphash.String(b.seed, key)%shardCount]
}

func (b *MemoryBackend) Get(_ context.Context, key string) (*Entry, bool, error) {
	if b.closed.Load() {
		return nil, false, ErrClosed
	}
	s := b.shard(key)
	el, found := s.Get(key)
	if !found {
		return nil, false, nil
	}
	if b.now().UnixNano() >= el.expire {
		s.Remove(key)
		return nil, false, nil
	}
	e, err := decodeEntry(el.data)
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, e *Entry, ttl time.Duration) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if ttl <= 0 {
		return nil
	}
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}
	if evicted := b.shard(key).Add(key, memElem{data: data, expire: b.now().Add(ttl).UnixNano()}); evicted {
		logger.Debugf("evicted an entry to store %q", key)
	}
	return nil
}

func (b *MemoryBackend) Len(_ context.Context) int {
	n := 0
	for _, s := range b.shards {
		n += s.Len()
	}
	return n
}

// Clean removes expired entries and returns how many were dropped.
func (b *MemoryBackend) Clean() int {
	now := b.now().UnixNano()
	removed := 0
	for _, s := range b.shards {
		for _, k := range s.Keys() {
			if el, ok := s.Peek(k); ok && now >= el.expire {
				if s.Remove(k) {
					removed++
				}
			}
		}
	}
	return removed
}

func (b *MemoryBackend) startCleaner(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.closeChan:
			return
		case <-ticker.C:
			if n := b.Clean(); n > 0 {
				logger.Debugf("cleaned %d expired entries", n)
			}
		}
	}
}

func (b *MemoryBackend) Close() error {
	if b.closed.CompareAndSwap(false, true) {
		close(b.closeChan)
	}
	return nil
}
