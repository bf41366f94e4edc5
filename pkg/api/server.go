package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rubiojr/yomiaudio/pkg/cache"
	"github.com/rubiojr/yomiaudio/pkg/core"
	"github.com/rubiojr/yomiaudio/pkg/log"
	"github.com/rubiojr/yomiaudio/pkg/origin"
	"github.com/rubiojr/yomiaudio/pkg/resolve"
)

var logger = log.ForService("http")

// Resolver turns a lookup request into ranked audio sources.
type Resolver interface {
	Resolve(ctx context.Context, req resolve.Request) ([]core.AudioSource, error)
	Registry() *core.Registry
}

// Fetcher streams a file from a provider origin.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (*origin.File, error)
}

type Server struct {
	resolver Resolver
	origin   Fetcher
}

func NewServer(resolver Resolver, fetcher Fetcher) *Server {
	return &Server{
		resolver: resolver,
		origin:   fetcher,
	}
}

// Handler returns the complete request chain: CORS, request middleware, the
// response cache (when c is non-nil) and the routes.
func (s *Server) Handler(c *cache.Cache) http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	var h http.Handler = mux
	if c != nil {
		h = c.Middleware(h)
	}
	h = RecoveryMiddleware(h)
	h = AccessLogMiddleware(h)
	h = RequestIDMiddleware(h)
	return CorsMiddleware(h)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, msg); err != nil {
		logger.Debugf("writing response: %v", err)
	}
}

// writeError maps an error to its status code and plain-text body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		s.writeText(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		logger.Debugf("%s %s: %v", r.Method, r.URL.Path, err)
		s.writeText(w, http.StatusNotFound, "File not found")
	default:
		logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		s.writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
	}
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
