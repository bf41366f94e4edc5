package cmd

import (
	"context"
	"fmt"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rubiojr/yomiaudio/pkg/cache"
	"github.com/rubiojr/yomiaudio/pkg/config"
	"github.com/rubiojr/yomiaudio/pkg/core"
	"github.com/rubiojr/yomiaudio/pkg/resolve"
	"github.com/rubiojr/yomiaudio/pkg/storage"
)

// openResolver loads the provider registry and opens the entries index
// read-only. The caller must close the returned store.
func openResolver(cfg *config.Config) (*resolve.Service, *storage.EntryStore, *core.Registry, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := storage.Open(cfg.Storage.Path, storage.Options{ReadOnly: true})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening index: %w", err)
	}

	svc := resolve.NewService(registry, store, resolve.Options{
		ProxyAudio:   cfg.Resolver.ProxyAudio,
		DedupFamily:  cfg.Resolver.DedupForvo,
		FamilyPrefix: cfg.Resolver.FamilyPrefix,
	})
	return svc, store, registry, nil
}

// newResponseCache builds the response cache for the configured backend.
// It returns a nil cache when caching is disabled. The close function is
// always safe to call.
func newResponseCache(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*cache.Cache, func(), error) {
	if !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}

	var backend cache.Backend
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		rb, err := cache.NewRedisBackend(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("creating redis cache: %w", err)
		}
		backend = rb
	default:
		backend = cache.NewMemoryBackend(cfg.Cache.MaxEntries, 0)
	}

	c := cache.New(backend, cache.Options{
		Enabled:       true,
		MaxAge:        cfg.Cache.MaxAge.Duration,
		MaxEntryBytes: cfg.Cache.MaxEntryBytes,
	}, cache.NewMetrics(reg))

	closeFn := func() {
		c.Wait()
		if err := backend.Close(); err != nil {
			logger.Warnf("closing cache backend: %v", err)
		}
	}
	return c, closeFn, nil
}

// listenAddr applies the --host and --port overrides to the configured
// listen address.
func listenAddr(configured, host, port string) (string, error) {
	h, p, err := net.SplitHostPort(configured)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", configured, err)
	}
	if host != "" {
		h = host
	}
	if port != "" {
		p = port
	}
	return net.JoinHostPort(h, p), nil
}
