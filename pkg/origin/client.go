// Package origin fetches audio files from provider origins.
package origin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rubiojr/yomiaudio/pkg/core"
	"github.com/rubiojr/yomiaudio/pkg/log"
)

// DefaultTimeout bounds a whole upstream exchange, body included.
const DefaultTimeout = 30 * time.Second

var logger = log.ForService("origin")

// File is an upstream audio file ready to be streamed. The caller must close
// Body.
type File struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Name          string
}

// Client resolves "{provider}/{path}" against the registry and fetches it.
type Client struct {
	registry *core.Registry
	client   *http.Client
}

// NewClient creates an origin client. A timeout <= 0 uses DefaultTimeout.
func NewClient(registry *core.Registry, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		registry: registry,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTP is NewClient with a caller supplied http.Client.
func NewClientWithHTTP(registry *core.Registry, client *http.Client) *Client {
	return &Client{registry: registry, client: client}
}

// Fetch requests path, which starts with a provider key followed by the file
// path at that provider ("nhk16/audio/a.mp3"). An unknown provider is an
// input error and a non-2xx upstream answer is ErrNotFound.
func (c *Client) Fetch(ctx context.Context, path string) (*File, error) {
	source, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	p, ok := c.registry.Get(source)
	if !ok {
		return nil, core.NewInputError("Invalid source")
	}

	fileURL := p.FileURL(rest)
	logger.Debugf("fetching %s", fileURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", fileURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		logger.Debugf("%s answered %d", fileURL, resp.StatusCode)
		return nil, fmt.Errorf("%w: %s answered %d", core.ErrNotFound, fileURL, resp.StatusCode)
	}

	return &File{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Name:          lastSegment(rest),
	}, nil
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
