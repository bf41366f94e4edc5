package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rubiojr/yomiaudio/pkg/core"
	"github.com/rubiojr/yomiaudio/pkg/resolve"
)

// HandleRoot answers audio source lookups. A request without a query string
// gets the query builder page instead.
func (s *Server) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.RawQuery == "" {
		s.HandleBuilder(w, r)
		return
	}

	q := r.URL.Query()
	sources, err := s.resolver.Resolve(r.Context(), resolve.Request{
		Term:                q.Get("term"),
		Reading:             q.Get("reading"),
		Sources:             q.Get("sources"),
		ExcludeDisplayRegex: q.Get("excludeDisplayTextRegex"),
		Host:                r.Host,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sources == nil {
		sources = []core.AudioSource{}
	}

	s.writeJSON(w, http.StatusOK, AudioSourceListResponse{
		Type:         audioSourceListType,
		AudioSources: sources,
	})
}

// HandleFile streams "/{provider}/{path...}" from the provider origin.
func (s *Server) HandleFile(w http.ResponseWriter, r *http.Request) {
	// The escaped form is forwarded so percent-encoded file names reach the
	// origin unchanged.
	path := strings.TrimPrefix(r.URL.EscapedPath(), "/")

	f, err := s.origin.Fetch(r.Context(), path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Body.Close()

	h := w.Header()
	if f.ContentType != "" {
		h.Set("Content-Type", f.ContentType)
	}
	if f.ContentLength >= 0 {
		h.Set("Content-Length", strconv.FormatInt(f.ContentLength, 10))
	}
	h.Set("Content-Disposition", contentDisposition(f.Name))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f.Body); err != nil {
		// The status is already sent; abort so the partial body is neither
		// cached nor taken for a complete file.
		logger.Warnf("streaming %s: %v", path, err)
		panic(http.ErrAbortHandler)
	}
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func contentDisposition(name string) string {
	return `attachment; filename="` + quoteEscaper.Replace(name) + `"`
}
