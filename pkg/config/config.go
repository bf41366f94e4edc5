package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rubiojr/yomiaudio/pkg/core"
)

//go:embed config.toml.sample
var configTemplate string

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	defaultListen        = "localhost:8080"
	defaultMaxAge        = 24 * time.Hour
	defaultMaxEntryBytes = 8 << 20
	defaultMaxEntries    = 1024
	defaultOriginTimeout = 30 * time.Second
	defaultFamilyPrefix  = "forvo"
	templateStoragePath  = "/home/user/.local/share/yomiaudio/entries.db"
)

type Config struct {
	Listen    string           `toml:"listen"`
	Storage   StorageConfig    `toml:"storage"`
	Cache     CacheConfig      `toml:"cache"`
	Resolver  ResolverConfig   `toml:"resolver"`
	Origin    OriginConfig     `toml:"origin"`
	Metrics   MetricsConfig    `toml:"metrics"`
	Providers []ProviderConfig `toml:"providers"`
}

type StorageConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

type CacheConfig struct {
	Enabled       bool     `toml:"enabled"`
	MaxAge        Duration `toml:"max_age"`
	Backend       string   `toml:"backend"`
	RedisURL      string   `toml:"redis_url,omitempty"`
	MaxEntryBytes int      `toml:"max_entry_bytes"`
	MaxEntries    int      `toml:"max_entries"`
}

type ResolverConfig struct {
	ProxyAudio   bool   `toml:"proxy_audio"`
	DedupForvo   bool   `toml:"dedup_forvo"`
	FamilyPrefix string `toml:"family_prefix"`
}

type OriginConfig struct {
	Timeout Duration `toml:"timeout"`
}

type MetricsConfig struct {
	// Listen is the address of the Prometheus endpoint. Empty disables it.
	Listen string `toml:"listen"`
}

type ProviderConfig struct {
	Key  string `toml:"key"`
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// DefaultProviders is the built-in provider table in default ranking order.
func DefaultProviders() []ProviderConfig {
	const base = "https://raw.githubusercontent.com/wapanese/"
	return []ProviderConfig{
		{Key: "nhk16", Name: "NHK16", URL: base + "jp_nhk16_pronunciations_tmw/main"},
		{Key: "shinmeikai8", Name: "SMK8", URL: base + "jp_shinmeikai8_pronunciations_tmw/main"},
		{Key: "jpod", Name: "JPod101", URL: base + "jp_jpod_pronunciations_tmw/main"},
		{Key: "forvo", Name: "Forvo", URL: base + "jp_forvo_pronunciations_tmw/main"},
		{Key: "forvo22", Name: "Forvo22", URL: base + "jp_forvo_pronunciations_2022/main"},
		{Key: "forvo25", Name: "Forvo25", URL: base + "jp_forvo_pronunciations_2025/main"},
		{Key: "daijisen", Name: "Daijisen", URL: base + "daijisen_pronunciations_index/main"},
		{Key: "oubunsha_kogo", Name: "Oubunsha-Kogo", URL: base + "oubunsha_kogo_pronunciations_index/main"},
		{Key: "taas", Name: "TAAS", URL: base + "taas_pronunciations_index/main"},
	}
}

func GetDefaultConfig() (*Config, error) {
	dbPath, err := GetDefaultDBPath()
	if err != nil {
		return nil, fmt.Errorf("getting default database path: %w", err)
	}
	return &Config{
		Listen: defaultListen,
		Storage: StorageConfig{
			Path:  dbPath,
			Watch: true,
		},
		Cache: CacheConfig{
			Enabled:       true,
			MaxAge:        Duration{defaultMaxAge},
			Backend:       BackendMemory,
			MaxEntryBytes: defaultMaxEntryBytes,
			MaxEntries:    defaultMaxEntries,
		},
		Resolver: ResolverConfig{
			DedupForvo:   true,
			FamilyPrefix: defaultFamilyPrefix,
		},
		Origin:    OriginConfig{Timeout: Duration{defaultOriginTimeout}},
		Providers: DefaultProviders(),
	}, nil
}

// LoadConfig reads configPath over the defaults. A missing file yields the
// defaults. A file with at least one [[providers]] table replaces the
// built-in provider list entirely.
func LoadConfig(configPath string) (*Config, error) {
	config, err := GetDefaultConfig()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config.Providers = nil
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if len(config.Providers) == 0 {
		config.Providers = DefaultProviders()
	}
	if config.Cache.Backend == "" {
		config.Cache.Backend = BackendMemory
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return config, nil
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q (want %s or %s)", c.Cache.Backend, BackendMemory, BackendRedis)
	}
	if c.Cache.MaxAge.Duration < 0 {
		return fmt.Errorf("cache.max_age must not be negative")
	}
	if c.Cache.MaxEntryBytes < 0 {
		return fmt.Errorf("cache.max_entry_bytes must not be negative")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative")
	}
	if c.Origin.Timeout.Duration < 0 {
		return fmt.Errorf("origin.timeout must not be negative")
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	return nil
}

// Registry builds the provider registry. Keys are lowercased, so "NHK16" and
// "nhk16" collide.
func (c *Config) Registry() (*core.Registry, error) {
	providers := make([]core.Provider, 0, len(c.Providers))
	for _, p := range c.Providers {
		providers = append(providers, core.Provider{
			Key:     strings.ToLower(strings.TrimSpace(p.Key)),
			Name:    p.Name,
			BaseURL: p.URL,
		})
	}
	registry, err := core.NewRegistry(providers...)
	if err != nil {
		return nil, fmt.Errorf("providers: %w", err)
	}
	return registry, nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	dbPath := c.Storage.Path
	if dbPath == "" {
		var err error
		dbPath, err = GetDefaultDBPath()
		if err != nil {
			return "", fmt.Errorf("getting default database path: %w", err)
		}
	}

	// Replace the placeholder storage path with the actual one
	template := strings.Replace(configTemplate, templateStoragePath, dbPath, 1)
	return template, nil
}

// GetDefaultStorageDir returns the default directory for the entries index
func GetDefaultStorageDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	storageDir := filepath.Join(dataDir, "yomiaudio")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", storageDir, err)
	}

	return storageDir, nil
}

// GetDefaultDBPath returns the default entries index path in the user's data directory
func GetDefaultDBPath() (string, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(storageDir, "entries.db"), nil
}

// GetConfigDir returns the configuration directory for yomiaudio
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	appConfigDir := filepath.Join(configDir, "yomiaudio")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(appConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", appConfigDir, err)
	}

	return appConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
