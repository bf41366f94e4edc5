package origin

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rubiojr/yomiaudio/pkg/core"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	registry, err := core.NewRegistry(
		core.Provider{Key: "nhk16", Name: "NHK16", BaseURL: srv.URL + "/nhk"},
	)
	if err != nil {
		t.Fatal(err)
	}
	return NewClient(registry, 5*time.Second), srv
}

func TestFetch(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "audio/mpeg")
		io.WriteString(w, "ID3 audio")
	}))

	f, err := c.Fetch(context.Background(), "nhk16/audio/neko.mp3")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer f.Body.Close()

	body, _ := io.ReadAll(f.Body)
	if string(body) != "ID3 audio" {
		t.Errorf("body = %q", body)
	}
	if gotPath != "/nhk/audio/neko.mp3" {
		t.Errorf("upstream path = %q", gotPath)
	}
	if f.Name != "neko.mp3" {
		t.Errorf("Name = %q", f.Name)
	}
	if f.ContentType != "audio/mpeg" {
		t.Errorf("ContentType = %q", f.ContentType)
	}
	if f.ContentLength != int64(len("ID3 audio")) {
		t.Errorf("ContentLength = %d", f.ContentLength)
	}
}

func TestFetchErrors(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/nhk/missing.mp3":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"unknown provider", "unknownprovider/foo.mp3", core.ErrInvalidInput},
		{"provider key is case sensitive", "NHK16/foo.mp3", core.ErrInvalidInput},
		{"upstream 404", "nhk16/missing.mp3", core.ErrNotFound},
		{"upstream 500", "nhk16/broken.mp3", core.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Fetch(context.Background(), tt.path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Fetch(%q) error = %v, want %v", tt.path, err, tt.want)
			}
		})
	}
}

func TestFetchInvalidSourceReason(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())

	_, err := c.Fetch(context.Background(), "/unknownprovider/foo.mp3")
	var inputErr *core.InputError
	if !errors.As(err, &inputErr) || inputErr.Reason != "Invalid source" {
		t.Fatalf("expected Invalid source input error, got %v", err)
	}
}

func TestFetchTransportFailure(t *testing.T) {
	c, srv := newTestClient(t, http.NotFoundHandler())
	srv.Close()

	_, err := c.Fetch(context.Background(), "nhk16/a.mp3")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("transport failure classified as %v", err)
	}
}

func TestLastSegment(t *testing.T) {
	for in, want := range map[string]string{
		"a/b/c.mp3": "c.mp3",
		"c.mp3":     "c.mp3",
		"":          "",
		"dir/":      "",
	} {
		if got := lastSegment(in); got != want {
			t.Errorf("lastSegment(%q) = %q, want %q", in, got, want)
		}
	}
}
