package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rubiojr/yomiaudio/pkg/core"
	"github.com/rubiojr/yomiaudio/pkg/log"
)

var logger = log.ForService("storage")

// retireDelay is how long a replaced handle stays open so lookups that
// loaded it before a reload can still run their query.
const retireDelay = 10 * time.Second

// Options controls how the index is opened.
type Options struct {
	// ReadOnly opens the database with mode=ro. The server never writes.
	ReadOnly bool
}

// EntryStore answers lookups against an SQLite entries index. The underlying
// handle can be swapped with Reload while queries are in flight.
type EntryStore struct {
	path string
	opts Options
	db   atomic.Pointer[sql.DB]

	mu          sync.Mutex
	retiring    map[*sql.DB]*time.Timer
	retireDelay time.Duration
}

// Open opens the index at path and verifies it has an entries table.
func Open(path string, opts Options) (*EntryStore, error) {
	s := &EntryStore{path: path, opts: opts, retiring: map[*sql.DB]*time.Timer{}, retireDelay: retireDelay}
	db, err := s.open(context.Background())
	if err != nil {
		return nil, err
	}
	s.db.Store(db)
	return s, nil
}

// pragmas are applied by the driver to every pooled connection.
var pragmas = []string{
	"busy_timeout(30000)",
	"cache_size(-64000)", // 64MB cache
	"temp_store(memory)",
	"mmap_size(268435456)", // 256MB mmap
}

func (s *EntryStore) dsn() string {
	q := url.Values{"_pragma": slices.Clone(pragmas)}
	if s.opts.ReadOnly {
		q.Set("mode", "ro")
		q.Add("_pragma", "query_only(1)")
	}
	u := url.URL{Scheme: "file", OmitHost: true, Path: s.path, RawQuery: q.Encode()}
	return u.String()
}

func (s *EntryStore) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", s.dsn())
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", core.ErrStore, err)
	}

	var n int
	err = db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'entries'").Scan(&n)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: checking schema: %w", core.ErrStore, err)
	}
	if n == 0 {
		db.Close()
		return nil, fmt.Errorf("%w: %s has no entries table", core.ErrStore, s.path)
	}

	return db, nil
}

// Path returns the database file the store was opened from.
func (s *EntryStore) Path() string {
	return s.path
}

// Reload reopens the database file and swaps it in. On failure the current
// handle stays in use.
func (s *EntryStore) Reload(ctx context.Context) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	if old := s.db.Swap(db); old != nil {
		s.retire(old)
	}
	logger.Infof("reloaded %s", s.path)
	return nil
}

// retire closes a replaced handle once retireDelay has passed.
func (s *EntryStore) retire(db *sql.DB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retiring[db] = time.AfterFunc(s.retireDelay, func() {
		s.mu.Lock()
		_, pending := s.retiring[db]
		delete(s.retiring, db)
		s.mu.Unlock()
		if !pending {
			return
		}
		if err := db.Close(); err != nil {
			logger.Warnf("failed to close previous handle: %v", err)
		}
	})
}

// Close releases the current handle and any replaced ones still open.
func (s *EntryStore) Close() error {
	s.mu.Lock()
	retiring := s.retiring
	s.retiring = map[*sql.DB]*time.Timer{}
	s.mu.Unlock()
	for db, t := range retiring {
		t.Stop()
		if err := db.Close(); err != nil {
			logger.Warnf("failed to close previous handle: %v", err)
		}
	}

	if db := s.db.Swap(nil); db != nil {
		return db.Close()
	}
	return nil
}

// Lookup returns the entries matching q in ranked order. No rows is not an
// error; an empty slice is returned.
func (s *EntryStore) Lookup(ctx context.Context, q LookupQuery) ([]core.AudioEntry, error) {
	db := s.db.Load()
	if db == nil {
		return nil, fmt.Errorf("%w: store is closed", core.ErrStore)
	}

	query, args := BuildLookup(q)
	logger.Debugf("query: %s args: %v", query, args)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying entries: %w", core.ErrStore, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warnf("failed to close rows: %v", err)
		}
	}()

	entries := []core.AudioEntry{}
	for rows.Next() {
		var e core.AudioEntry
		var reading, speaker, display sql.NullString
		if err := rows.Scan(&e.Source, &speaker, &display, &e.File, &e.Expression, &reading); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %w", core.ErrStore, err)
		}
		e.Reading = nullable(reading)
		e.Speaker = nullable(speaker)
		e.Display = nullable(display)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating rows: %w", core.ErrStore, err)
	}

	return entries, nil
}

// CountBySource returns the number of entries stored for each source.
func (s *EntryStore) CountBySource(ctx context.Context) (map[string]int, error) {
	db := s.db.Load()
	if db == nil {
		return nil, fmt.Errorf("%w: store is closed", core.ErrStore)
	}

	rows, err := db.QueryContext(ctx, "SELECT source, count(*) FROM entries GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("%w: counting entries: %w", core.ErrStore, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warnf("failed to close rows: %v", err)
		}
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("%w: scanning count: %w", core.ErrStore, err)
		}
		counts[source] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating counts: %w", core.ErrStore, err)
	}
	return counts, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
