package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rubiojr/yomiaudio/pkg/api"
	"github.com/rubiojr/yomiaudio/pkg/config"
	"github.com/rubiojr/yomiaudio/pkg/log"
	"github.com/rubiojr/yomiaudio/pkg/origin"
	"github.com/rubiojr/yomiaudio/pkg/storage"
	"github.com/rubiojr/yomiaudio/pkg/version"
	"github.com/urfave/cli/v3"
)

var logger = log.ForService("yomiaudio")

const shutdownTimeout = 30 * time.Second

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the audio source HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (overrides listen)",
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides listen)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("host"), c.String("port"))
		},
	}
}

func serve(ctx context.Context, configPath, host, port string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	addr, err := listenAddr(cfg.Listen, host, port)
	if err != nil {
		return err
	}

	svc, store, registry, err := openResolver(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warnf("closing index: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Storage.Watch {
		go func() {
			if err := storage.Watch(ctx, store); err != nil {
				logger.Warnf("index watcher stopped: %v", err)
			}
		}()
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	respCache, closeCache, err := newResponseCache(ctx, cfg, promReg)
	if err != nil {
		return err
	}
	defer closeCache()

	apiServer := api.NewServer(svc, origin.NewClient(registry, cfg.Origin.Timeout.Duration))
	servers := []*http.Server{{
		Addr:              addr,
		Handler:           apiServer.Handler(respCache),
		ReadHeaderTimeout: 10 * time.Second,
	}}

	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		servers = append(servers, &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listening on %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	logger.Infof("%s listening on http://%s (%d providers, index %s)", version.BuildVersion(), addr, registry.Len(), store.Path())
	logger.Infof("  GET /?term=...&reading=...&sources=...&excludeDisplayTextRegex=...")
	logger.Infof("  GET / - query builder")
	logger.Infof("  GET /{provider}/{path...} - audio file")
	if cfg.Metrics.Listen != "" {
		logger.Infof("metrics on http://%s/metrics", cfg.Metrics.Listen)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Infof("shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutting down %s: %v", srv.Addr, err)
		}
	}
	return serveErr
}
