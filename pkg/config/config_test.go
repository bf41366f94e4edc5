package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Listen != "localhost:8080" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if want := filepath.Join(dataHome, "yomiaudio", "entries.db"); cfg.Storage.Path != want {
		t.Errorf("Storage.Path = %q, want %q", cfg.Storage.Path, want)
	}
	if !cfg.Cache.Enabled || cfg.Cache.MaxAge.Duration != 24*time.Hour || cfg.Cache.Backend != BackendMemory {
		t.Errorf("unexpected cache defaults %+v", cfg.Cache)
	}
	if cfg.Resolver.ProxyAudio || !cfg.Resolver.DedupForvo || cfg.Resolver.FamilyPrefix != "forvo" {
		t.Errorf("unexpected resolver defaults %+v", cfg.Resolver)
	}
	if cfg.Origin.Timeout.Duration != 30*time.Second {
		t.Errorf("Origin.Timeout = %v", cfg.Origin.Timeout)
	}

	registry, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	want := "nhk16,shinmeikai8,jpod,forvo,forvo22,forvo25,daijisen,oubunsha_kogo,taas"
	if got := strings.Join(registry.Keys(), ","); got != want {
		t.Errorf("provider order = %s", got)
	}
	if p, _ := registry.Get("shinmeikai8"); p.Name != "SMK8" {
		t.Errorf("shinmeikai8 name = %q", p.Name)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	path := writeConfig(t, `
listen = "0.0.0.0:9000"

[storage]
path = "/srv/entries.db"
watch = false

[cache]
enabled = false
max_age = "1h"

[resolver]
proxy_audio = true

[origin]
timeout = "5s"

[[providers]]
key = "NHK16"
name = "NHK"
url = "https://example.com/nhk"

[[providers]]
key = "taas"
url = "https://example.com/taas"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Listen != "0.0.0.0:9000" || cfg.Storage.Path != "/srv/entries.db" || cfg.Storage.Watch {
		t.Errorf("unexpected top level settings: %+v", cfg)
	}
	if cfg.Cache.Enabled || cfg.Cache.MaxAge.Duration != time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	// Keys not present in the file keep their defaults.
	if cfg.Cache.MaxEntryBytes != 8<<20 || cfg.Cache.MaxEntries != 1024 || !cfg.Resolver.DedupForvo {
		t.Errorf("defaults lost: %+v %+v", cfg.Cache, cfg.Resolver)
	}
	if !cfg.Resolver.ProxyAudio || cfg.Origin.Timeout.Duration != 5*time.Second {
		t.Errorf("resolver = %+v origin = %+v", cfg.Resolver, cfg.Origin)
	}

	registry, err := cfg.Registry()
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(registry.Keys(), ","); got != "nhk16,taas" {
		t.Errorf("providers = %s", got)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown backend",
			content: "[cache]\nbackend = \"memcached\"\n",
			wantErr: "unknown cache.backend",
		},
		{
			name:    "redis without url",
			content: "[cache]\nbackend = \"redis\"\n",
			wantErr: "redis_url",
		},
		{
			name:    "negative max entries",
			content: "[cache]\nmax_entries = -1\n",
			wantErr: "cache.max_entries",
		},
		{
			name:    "bad duration",
			content: "[cache]\nmax_age = \"soon\"\n",
			wantErr: "unmarshaling config",
		},
		{
			name:    "duplicate providers after lowercasing",
			content: "[[providers]]\nkey = \"nhk16\"\nurl = \"https://a.example.com\"\n[[providers]]\nkey = \"NHK16\"\nurl = \"https://b.example.com\"\n",
			wantErr: "already registered",
		},
		{
			name:    "relative provider url",
			content: "[[providers]]\nkey = \"nhk16\"\nurl = \"files/nhk16\"\n",
			wantErr: "must be absolute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("LoadConfig error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveTemplateConfig(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := GetDefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Storage.Path = "/data/yomi/entries.db"

	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := cfg.SaveTemplateConfig(path); err != nil {
		t.Fatalf("SaveTemplateConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `path = "/data/yomi/entries.db"`) {
		t.Errorf("template does not carry the storage path:\n%s", data)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("loading the written template: %v", err)
	}
	if loaded.Storage.Path != "/data/yomi/entries.db" || len(loaded.Providers) != len(DefaultProviders()) {
		t.Errorf("template round trip lost settings: %+v", loaded)
	}
	if loaded.Cache.MaxAge.Duration != 24*time.Hour {
		t.Errorf("max_age = %v", loaded.Cache.MaxAge)
	}
}

func TestConfigDirs(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	path, err := GetDefaultConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(configHome, "yomiaudio", "config.toml"); path != want {
		t.Errorf("GetDefaultConfigPath = %q, want %q", path, want)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("config dir not created: %v", err)
	}
}
