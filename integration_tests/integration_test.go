package integration_tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/rubiojr/yomiaudio/pkg/api"
	"github.com/rubiojr/yomiaudio/pkg/config"
	"github.com/rubiojr/yomiaudio/pkg/core"
)

var catRows = []Row{
	{Expression: "猫", Reading: ptr("ねこ"), Source: "taas", Display: ptr("TTS voice"), File: "tts/neko.mp3"},
	{Expression: "猫", Reading: ptr("ねこ"), Source: "forvo22", Speaker: ptr("akitomo"), File: "akitomo/neko.mp3"},
	{Expression: "猫", Reading: ptr("ねこ"), Source: "forvo", Speaker: ptr("akitomo"), File: "akitomo/neko.mp3"},
	{Expression: "猫", Reading: ptr("ねこ"), Source: "shinmeikai8", File: "neko.mp3"},
	{Expression: "猫", Reading: ptr("ねこ"), Source: "nhk16", File: "audio/neko.mp3"},
	{Expression: "猫", Reading: nil, Source: "nhk16", File: "audio/neko_any.mp3"},
	{Expression: "猫", Reading: ptr("びょう"), Source: "nhk16", File: "audio/byou.mp3"},
	{Expression: "犬", Reading: ptr("いぬ"), Source: "nhk16", File: "audio/inu.mp3"},
}

func lookup(t *testing.T, s *TestServer, params url.Values) []core.AudioSource {
	t.Helper()
	status, _, body := s.Get(t, "/?"+params.Encode())
	if status != http.StatusOK {
		t.Fatalf("status = %d body = %q", status, body)
	}
	var resp api.AudioSourceListResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decoding %q: %v", body, err)
	}
	if resp.Type != "audioSourceList" || resp.AudioSources == nil {
		t.Fatalf("unexpected response %q", body)
	}
	return resp.AudioSources
}

func sourceNames(sources []core.AudioSource) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}

func TestRankingDedupAndFiltering(t *testing.T) {
	s := StartTestServer(t, CreateIndex(t, t.TempDir(), catRows), nil)

	tests := []struct {
		name   string
		params url.Values
		want   string
	}{
		{
			name:   "default ranking with forvo family dedup",
			params: url.Values{"term": {"猫"}, "reading": {"ねこ"}},
			want:   "NHK16, NHK16, SMK8, Forvo (akitomo), TAAS TTS voice",
		},
		{
			name:   "requested sources rank first",
			params: url.Values{"term": {"猫"}, "reading": {"ねこ"}, "sources": {"taas,forvo22,nhk16"}},
			want:   "TAAS TTS voice, Forvo22 (akitomo), NHK16, NHK16",
		},
		{
			name:   "exclusion keeps the rest of the family",
			params: url.Values{"term": {"猫"}, "reading": {"ねこ"}, "sources": {"-forvo"}},
			want:   "NHK16, NHK16, SMK8, Forvo22 (akitomo), TAAS TTS voice",
		},
		{
			name:   "inclusion wins over exclusion",
			params: url.Values{"term": {"猫"}, "reading": {"ねこ"}, "sources": {"SMK8,shinmeikai8,-shinmeikai8"}},
			want:   "SMK8",
		},
		{
			name:   "display filter",
			params: url.Values{"term": {"猫"}, "reading": {"ねこ"}, "excludeDisplayTextRegex": {"voice$"}},
			want:   "NHK16, NHK16, SMK8, Forvo (akitomo)",
		},
		{
			name:   "no reading returns every reading",
			params: url.Values{"term": {"猫"}, "sources": {"nhk16"}},
			want:   "NHK16, NHK16, NHK16",
		},
		{
			name:   "unknown term",
			params: url.Values{"term": {"鳥"}},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sourceNames(lookup(t, s, tt.params)); got != tt.want {
				t.Fatalf("got [%s], want [%s]", got, tt.want)
			}
		})
	}
}

func TestNullReadingIsWildcard(t *testing.T) {
	s := StartTestServer(t, CreateIndex(t, t.TempDir(), catRows), nil)

	sources := lookup(t, s, url.Values{"term": {"猫"}, "reading": {"ねこ"}, "sources": {"nhk16"}})
	var urls []string
	for _, src := range sources {
		urls = append(urls, src.URL)
	}
	got := strings.Join(urls, " ")
	for _, file := range []string{"/nhk16/audio/neko.mp3", "/nhk16/audio/neko_any.mp3"} {
		if !strings.Contains(got, s.Origin.URL+file) {
			t.Errorf("missing %s in %s", file, got)
		}
	}
	if strings.Contains(got, "byou") {
		t.Errorf("entry with another reading returned: %s", got)
	}
}

func TestProxiedURLsRoundTrip(t *testing.T) {
	s := StartTestServer(t, CreateIndex(t, t.TempDir(), catRows), func(cfg *config.Config) {
		cfg.Resolver.ProxyAudio = true
	})

	sources := lookup(t, s, url.Values{"term": {"犬"}})
	if len(sources) != 1 {
		t.Fatalf("got %d sources", len(sources))
	}
	u, err := url.Parse(sources[0].URL)
	if err != nil {
		t.Fatal(err)
	}
	if u.Scheme != "https" || u.Host != "127.0.0.1" || u.Path != "/nhk16/audio/inu.mp3" {
		t.Fatalf("proxied URL = %s", sources[0].URL)
	}

	// The proxied path is served by this server's file endpoint.
	status, header, body := s.Get(t, u.Path)
	if status != http.StatusOK || body != "/nhk16/audio/inu.mp3" {
		t.Fatalf("file endpoint = %d %q", status, body)
	}
	if got := header.Get("Content-Disposition"); got != `attachment; filename="inu.mp3"` {
		t.Fatalf("Content-Disposition = %q", got)
	}
}

func TestCacheServesRepeatLookups(t *testing.T) {
	s := StartTestServer(t, CreateIndex(t, t.TempDir(), catRows), nil)
	params := url.Values{"term": {"猫"}, "reading": {"ねこ"}}

	first := lookup(t, s, params)
	s.Cache.Wait()
	second := lookup(t, s, params)

	if s.Store.Calls() != 1 {
		t.Fatalf("store queried %d times, want 1", s.Store.Calls())
	}
	if sourceNames(first) != sourceNames(second) {
		t.Fatalf("cached response differs: [%s] vs [%s]", sourceNames(first), sourceNames(second))
	}

	_, header, _ := s.Get(t, "/?"+params.Encode())
	if got := header.Get("Cache-Control"); got != "max-age=86400" {
		t.Fatalf("Cache-Control = %q", got)
	}
}

func TestCacheDisabled(t *testing.T) {
	s := StartTestServer(t, CreateIndex(t, t.TempDir(), catRows), func(cfg *config.Config) {
		cfg.Cache.Enabled = false
	})
	params := url.Values{"term": {"猫"}}

	lookup(t, s, params)
	lookup(t, s, params)

	if s.Store.Calls() != 2 {
		t.Fatalf("store queried %d times, want 2", s.Store.Calls())
	}
}

func TestErrorResponses(t *testing.T) {
	s := StartTestServer(t, CreateIndex(t, t.TempDir(), catRows), nil)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/unknownprovider/foo.mp3", http.StatusBadRequest, "Invalid source"},
		{"/?reading=ねこ", http.StatusBadRequest, "Missing term parameter"},
		{"/?term=" + strings.Repeat("猫", 101), http.StatusBadRequest, "Term parameter too long"},
		{"/?term=猫&excludeDisplayTextRegex=" + url.QueryEscape("[a-"), http.StatusBadRequest, "Invalid excludeDisplayTextRegex: "},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, header, body := s.Get(t, tt.path)
			if status != tt.status || !strings.HasPrefix(body, tt.body) {
				t.Fatalf("GET %s = %d %q, want %d %q", tt.path, status, body, tt.status, tt.body)
			}
			if header.Get("Access-Control-Allow-Origin") != "*" {
				t.Fatalf("missing CORS header on error response")
			}
		})
	}
}

func TestStoreFailureIsServerError(t *testing.T) {
	s := StartTestServer(t, CreateIndex(t, t.TempDir(), catRows), nil)
	if err := s.Store.Close(); err != nil {
		t.Fatal(err)
	}

	status, _, body := s.Get(t, "/?term=猫")
	if status != http.StatusInternalServerError || !strings.HasPrefix(body, "Error: ") {
		t.Fatalf("closed store answered %d %q", status, body)
	}
}
