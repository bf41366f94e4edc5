package integration_tests

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rubiojr/yomiaudio/pkg/api"
	"github.com/rubiojr/yomiaudio/pkg/cache"
	"github.com/rubiojr/yomiaudio/pkg/config"
	"github.com/rubiojr/yomiaudio/pkg/core"
	"github.com/rubiojr/yomiaudio/pkg/origin"
	"github.com/rubiojr/yomiaudio/pkg/resolve"
	"github.com/rubiojr/yomiaudio/pkg/storage"
)

// Row is one entries table row. Nil pointers are stored as NULL.
type Row struct {
	Expression string
	Reading    *string
	Source     string
	Speaker    *string
	Display    *string
	File       string
}

func ptr(s string) *string { return &s }

// CreateIndex writes a fresh entries index with rows and returns its path.
func CreateIndex(t *testing.T, dir string, rows []Row) string {
	t.Helper()
	path := filepath.Join(dir, "entries.db")
	if err := storage.CreateDatabase(context.Background(), path); err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer db.Close()

	for _, r := range rows {
		_, err := db.Exec(
			"INSERT INTO entries (expression, reading, source, speaker, display, file) VALUES (?, ?, ?, ?, ?, ?)",
			r.Expression, r.Reading, r.Source, r.Speaker, r.Display, r.File,
		)
		if err != nil {
			t.Fatalf("inserting row: %v", err)
		}
	}
	return path
}

// CountingStore counts lookups that reach the index.
type CountingStore struct {
	*storage.EntryStore
	calls atomic.Int32
}

func (s *CountingStore) Lookup(ctx context.Context, q storage.LookupQuery) ([]core.AudioEntry, error) {
	s.calls.Add(1)
	return s.EntryStore.Lookup(ctx, q)
}

func (s *CountingStore) Calls() int {
	return int(s.calls.Load())
}

// TestServer is the full HTTP stack over a real index and a fake origin.
type TestServer struct {
	URL      string
	Store    *CountingStore
	Cache    *cache.Cache
	Registry *core.Registry
	Origin   *httptest.Server
}

// StartTestServer starts the stack with providers nhk16, shinmeikai8, forvo,
// forvo22 and taas, all served by one fake origin that answers every file
// with its own path.
func StartTestServer(t *testing.T, indexPath string, mutate func(cfg *config.Config)) *TestServer {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	originSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		io.WriteString(w, r.URL.Path)
	}))
	t.Cleanup(originSrv.Close)

	cfg, err := config.GetDefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Storage.Path = indexPath
	cfg.Providers = []config.ProviderConfig{
		{Key: "nhk16", Name: "NHK16", URL: originSrv.URL + "/nhk16"},
		{Key: "shinmeikai8", Name: "SMK8", URL: originSrv.URL + "/smk8"},
		{Key: "forvo", Name: "Forvo", URL: originSrv.URL + "/forvo"},
		{Key: "forvo22", Name: "Forvo22", URL: originSrv.URL + "/forvo22"},
		{Key: "taas", Name: "TAAS", URL: originSrv.URL + "/taas"},
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	registry, err := cfg.Registry()
	if err != nil {
		t.Fatal(err)
	}
	entryStore, err := storage.Open(cfg.Storage.Path, storage.Options{ReadOnly: true})
	if err != nil {
		t.Fatalf("opening index: %v", err)
	}
	t.Cleanup(func() { entryStore.Close() })
	store := &CountingStore{EntryStore: entryStore}

	svc := resolve.NewService(registry, store, resolve.Options{
		ProxyAudio:   cfg.Resolver.ProxyAudio,
		DedupFamily:  cfg.Resolver.DedupForvo,
		FamilyPrefix: cfg.Resolver.FamilyPrefix,
	})

	var respCache *cache.Cache
	if cfg.Cache.Enabled {
		backend := cache.NewMemoryBackend(cfg.Cache.MaxEntries, time.Minute)
		t.Cleanup(func() { backend.Close() })
		respCache = cache.New(backend, cache.Options{
			Enabled:       true,
			MaxAge:        cfg.Cache.MaxAge.Duration,
			MaxEntryBytes: cfg.Cache.MaxEntryBytes,
		}, nil)
	}

	server := api.NewServer(svc, origin.NewClient(registry, cfg.Origin.Timeout.Duration))
	srv := httptest.NewServer(server.Handler(respCache))
	t.Cleanup(srv.Close)

	return &TestServer{
		URL:      srv.URL,
		Store:    store,
		Cache:    respCache,
		Registry: registry,
		Origin:   originSrv,
	}
}

// Get issues a GET and returns the status, headers and body.
func (s *TestServer) Get(t *testing.T, pathAndQuery string) (int, http.Header, string) {
	t.Helper()
	resp, err := http.Get(s.URL + pathAndQuery)
	if err != nil {
		t.Fatalf("GET %s: %v", pathAndQuery, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp.StatusCode, resp.Header, string(body)
}
