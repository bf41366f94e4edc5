package cache

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rubiojr/yomiaudio/pkg/log"
)

var logger = log.ForService("cache")

const (
	// DefaultMaxEntryBytes bounds the body size of a stored response.
	DefaultMaxEntryBytes = 8 << 20
	defaultWriteTimeout  = 5 * time.Second
)

// Options configures the response cache.
type Options struct {
	// Enabled turns the cache on. When false every request recomputes.
	Enabled bool
	// MaxAge is the freshness window, advertised as Cache-Control max-age.
	MaxAge time.Duration
	// MaxEntryBytes skips storing larger bodies. Zero uses DefaultMaxEntryBytes.
	MaxEntryBytes int
	// WriteTimeout bounds each background write. Zero uses five seconds.
	WriteTimeout time.Duration
}

// Cache memoizes full GET responses keyed by method and request URL.
type Cache struct {
	backend Backend
	opts    Options
	metrics *Metrics
	pending sync.WaitGroup
}

// New creates a response cache over backend. metrics may be nil.
func New(backend Backend, opts Options, metrics *Metrics) *Cache {
	if opts.MaxEntryBytes <= 0 {
		opts.MaxEntryBytes = DefaultMaxEntryBytes
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Cache{backend: backend, opts: opts, metrics: metrics}
}

// Key identifies a request: the method plus the absolute URL exactly as
// requested. Query parameters are not reordered, so "?a=1&b=2" and
// "?b=2&a=1" are distinct entries.
func Key(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return r.Method + " " + scheme + "://" + r.Host + r.URL.RequestURI()
}

func (c *Cache) cacheControl() string {
	return "max-age=" + strconv.Itoa(int(c.opts.MaxAge/time.Second))
}

// Middleware serves GET requests from the cache when possible. On a miss the
// response is captured and written to the backend in the background after
// it has been sent; the caller never waits for the write.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	if !c.opts.Enabled || c.backend == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := Key(r)
		entry, ok, err := c.backend.Get(r.Context(), key)
		switch {
		case err != nil:
			c.metrics.Lookups.WithLabelValues("error").Inc()
			logger.Warnf("lookup %q failed: %v", key, err)
		case ok:
			c.metrics.Lookups.WithLabelValues("hit").Inc()
			logger.Debugf("hit %s", key)
			replay(w, entry)
			return
		default:
			c.metrics.Lookups.WithLabelValues("miss").Inc()
			logger.Debugf("miss %s", key)
		}

		rec := newRecorder(w, c.opts.MaxEntryBytes, c.cacheControl())
		next.ServeHTTP(rec, r)
		rec.finish()

		if !rec.cacheable() {
			c.metrics.Writes.WithLabelValues("skipped").Inc()
			return
		}
		c.storeAsync(key, rec.entry())
	})
}

func (c *Cache) storeAsync(key string, e *Entry) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.WriteTimeout)
		defer cancel()
		if err := c.backend.Set(ctx, key, e, c.opts.MaxAge); err != nil {
			c.metrics.Writes.WithLabelValues("error").Inc()
			logger.Warnf("storing %q failed: %v", key, err)
			return
		}
		c.metrics.Writes.WithLabelValues("ok").Inc()
	}()
}

// Wait blocks until every background write started so far has finished.
func (c *Cache) Wait() {
	c.pending.Wait()
}

func replay(w http.ResponseWriter, e *Entry) {
	h := w.Header()
	for k, v := range e.Header {
		h[k] = append([]string(nil), v...)
	}
	w.WriteHeader(e.Status)
	if _, err := w.Write(e.Body); err != nil {
		logger.Debugf("writing cached body: %v", err)
	}
}

// recorder hands the wrapped handler its own header map so only the headers
// the handler set end up in the stored entry.
type recorder struct {
	w             http.ResponseWriter
	header        http.Header
	status        int
	wroteHeader   bool
	body          bytes.Buffer
	maxBytes      int
	overflow      bool
	declared      int64 // Content-Length set by the handler, -1 if none
	written       int64
	cacheControl  string
	storedHeaders http.Header
}

func newRecorder(w http.ResponseWriter, maxBytes int, cacheControl string) *recorder {
	return &recorder{
		w:            w,
		header:       make(http.Header),
		status:       http.StatusOK,
		maxBytes:     maxBytes,
		declared:     -1,
		cacheControl: cacheControl,
	}
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.status = status
	if successful(status) {
		r.header.Set("Cache-Control", r.cacheControl)
	}
	r.storedHeaders = r.header.Clone()
	if cl := r.header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			r.declared = n
		}
	}

	dst := r.w.Header()
	for k, v := range r.header {
		dst[k] = v
	}
	r.w.WriteHeader(status)
}

func (r *recorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	if !r.overflow {
		if r.body.Len()+len(p) > r.maxBytes {
			r.overflow = true
			r.body = bytes.Buffer{}
		} else {
			r.body.Write(p)
		}
	}
	n, err := r.w.Write(p)
	r.written += int64(len(p))
	return n, err
}

func (r *recorder) Flush() {
	if f, ok := r.w.(http.Flusher); ok {
		f.Flush()
	}
}

// finish sends the header when the handler returned without writing.
func (r *recorder) finish() {
	if !r.wroteHeader {
		r.WriteHeader(r.status)
	}
}

// cacheable reports whether the captured response is complete. A body
// shorter or longer than its declared Content-Length is never stored.
func (r *recorder) cacheable() bool {
	if r.declared >= 0 && r.written != r.declared {
		return false
	}
	return successful(r.status) && !r.overflow
}

func (r *recorder) entry() *Entry {
	return &Entry{
		Status:   r.status,
		Header:   r.storedHeaders,
		Body:     bytes.Clone(r.body.Bytes()),
		StoredAt: time.Now().UTC(),
	}
}

func successful(status int) bool {
	return status >= 200 && status < 300
}
