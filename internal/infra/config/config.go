package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Static file backends.
const (
	StaticBackendLocal = "local"
	StaticBackendS3    = "s3"
)

// Cache backends for static file modification times.
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendValkey = "valkey"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	App         AppConfig         `yaml:"app"`
	CDN         CDNConfig         `yaml:"cdn"`
	Static      StaticConfig      `yaml:"static"`
	Cache       CacheConfig       `yaml:"cache"`
	ObjectStore ObjectStoreConfig `yaml:"objectStore"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string        `yaml:"address"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

// AppConfig describes the host application.
type AppConfig struct {
	Name            string `yaml:"name"`
	Debug           bool   `yaml:"debug"`
	ServerName      string `yaml:"serverName"`
	PreferredScheme string `yaml:"preferredScheme"`
	ScriptName      string `yaml:"scriptName"`
}

// CDNConfig mirrors the CDN_* settings. Nil fields were never set, so the
// extension's own defaults apply to them.
type CDNConfig struct {
	Debug     *bool    `yaml:"debug"`
	Domain    *string  `yaml:"domain"`
	HTTPS     *bool    `yaml:"https"`
	Timestamp *bool    `yaml:"timestamp"`
	Version   *string  `yaml:"version"`
	Endpoints []string `yaml:"endpoints"`
}

// StaticConfig locates static files for serving and timestamping.
type StaticConfig struct {
	Backend    string            `yaml:"backend"`
	Folder     string            `yaml:"folder"`
	URLPath    string            `yaml:"urlPath"`
	Watch      bool              `yaml:"watch"`
	Blueprints []BlueprintConfig `yaml:"blueprints"`
}

// BlueprintConfig declares a blueprint with its own static folder.
type BlueprintConfig struct {
	Name         string `yaml:"name"`
	URLPrefix    string `yaml:"urlPrefix"`
	StaticFolder string `yaml:"staticFolder"`
}

// CacheConfig controls the modification time cache.
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	Valkey  ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the shared cache.
type ValkeyConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

// ObjectStoreConfig points at an S3-compatible bucket holding static files.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Settings returns the CDN_* keys that were explicitly configured.
func (c CDNConfig) Settings() map[string]any {
	out := make(map[string]any)
	if c.Debug != nil {
		out["CDN_DEBUG"] = *c.Debug
	}
	if c.Domain != nil {
		out["CDN_DOMAIN"] = *c.Domain
	}
	if c.HTTPS != nil {
		out["CDN_HTTPS"] = *c.HTTPS
	}
	if c.Timestamp != nil {
		out["CDN_TIMESTAMP"] = *c.Timestamp
	}
	if c.Version != nil {
		out["CDN_VERSION"] = *c.Version
	}
	if c.Endpoints != nil {
		out["CDN_ENDPOINTS"] = append([]string(nil), c.Endpoints...)
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		App: AppConfig{
			Name:            "cdnurl",
			PreferredScheme: "http",
		},
		Static: StaticConfig{
			Backend: StaticBackendLocal,
			Folder:  "web/static",
			URLPath: "/static",
		},
		Cache: CacheConfig{
			Backend: CacheBackendMemory,
			TTL:     10 * time.Minute,
			Valkey: ValkeyConfig{
				Prefix: "cdnurl:mtime",
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	switch c.App.PreferredScheme {
	case "http", "https":
	default:
		return fmt.Errorf("app.preferredScheme must be http or https, got %q", c.App.PreferredScheme)
	}
	if c.CDN.Domain != nil {
		domain := strings.TrimSpace(*c.CDN.Domain)
		if strings.Contains(domain, "://") || strings.ContainsAny(domain, "/?#") {
			return fmt.Errorf("cdn.domain must be a bare host, got %q", domain)
		}
	}
	switch c.Static.Backend {
	case StaticBackendLocal:
		if strings.TrimSpace(c.Static.Folder) == "" {
			return errors.New("static.folder cannot be empty for the local backend")
		}
	case StaticBackendS3:
		if strings.TrimSpace(c.ObjectStore.Endpoint) == "" || strings.TrimSpace(c.ObjectStore.Bucket) == "" {
			return errors.New("objectStore.endpoint and objectStore.bucket are required for the s3 backend")
		}
		if c.Static.Watch {
			return errors.New("static.watch is only supported by the local backend")
		}
	default:
		return fmt.Errorf("static.backend must be %q or %q, got %q", StaticBackendLocal, StaticBackendS3, c.Static.Backend)
	}
	if !strings.HasPrefix(c.Static.URLPath, "/") {
		return errors.New("static.urlPath must start with a slash")
	}
	seen := make(map[string]bool)
	for _, bp := range c.Static.Blueprints {
		name := strings.TrimSpace(bp.Name)
		if name == "" {
			return errors.New("static.blueprints[].name cannot be empty")
		}
		if seen[name] {
			return fmt.Errorf("static.blueprints: duplicate name %q", name)
		}
		seen[name] = true
	}
	switch c.Cache.Backend {
	case CacheBackendNone, CacheBackendMemory:
	case CacheBackendValkey:
		if strings.TrimSpace(c.Cache.Valkey.Addr) == "" {
			return errors.New("cache.valkey.addr cannot be empty when the valkey cache is enabled")
		}
	default:
		return fmt.Errorf("cache.backend must be none, memory or valkey, got %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl cannot be negative")
	}
	return nil
}
