package config

import (
	"os"
	"strings"
	"time"
)

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("APP_NAME"); v != "" {
		cfg.App.Name = v
	}
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.App.Debug = parseBool(v)
	}
	if v := os.Getenv("APP_SERVER_NAME"); v != "" {
		cfg.App.ServerName = v
	}
	if v := os.Getenv("APP_PREFERRED_SCHEME"); v != "" {
		cfg.App.PreferredScheme = strings.ToLower(v)
	}
	if v := os.Getenv("APP_SCRIPT_NAME"); v != "" {
		cfg.App.ScriptName = v
	}

	if v, ok := os.LookupEnv("CDN_DEBUG"); ok {
		b := parseBool(v)
		cfg.CDN.Debug = &b
	}
	if v, ok := os.LookupEnv("CDN_DOMAIN"); ok {
		v = strings.TrimSpace(v)
		cfg.CDN.Domain = &v
	}
	if v, ok := os.LookupEnv("CDN_HTTPS"); ok {
		b := parseBool(v)
		cfg.CDN.HTTPS = &b
	}
	if v, ok := os.LookupEnv("CDN_TIMESTAMP"); ok {
		b := parseBool(v)
		cfg.CDN.Timestamp = &b
	}
	if v, ok := os.LookupEnv("CDN_VERSION"); ok {
		cfg.CDN.Version = &v
	}
	if v, ok := os.LookupEnv("CDN_ENDPOINTS"); ok {
		cfg.CDN.Endpoints = splitList(v)
	}

	if v := os.Getenv("STATIC_BACKEND"); v != "" {
		cfg.Static.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("STATIC_FOLDER"); v != "" {
		cfg.Static.Folder = v
	}
	if v := os.Getenv("STATIC_URL_PATH"); v != "" {
		cfg.Static.URLPath = v
	}
	if v := os.Getenv("STATIC_WATCH"); v != "" {
		cfg.Static.Watch = parseBool(v)
	}

	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = parsed
		}
	}
	if v := os.Getenv("CACHE_VALKEY_ADDR"); v != "" {
		cfg.Cache.Valkey.Addr = v
	}
	if v := os.Getenv("CACHE_VALKEY_PREFIX"); v != "" {
		cfg.Cache.Valkey.Prefix = v
	}

	if v := os.Getenv("OBJECT_STORE_ENDPOINT"); v != "" {
		cfg.ObjectStore.Endpoint = v
	}
	if v := os.Getenv("OBJECT_STORE_ACCESS_KEY"); v != "" {
		cfg.ObjectStore.AccessKey = v
	}
	if v := os.Getenv("OBJECT_STORE_SECRET_KEY"); v != "" {
		cfg.ObjectStore.SecretKey = v
	}
	if v := os.Getenv("OBJECT_STORE_BUCKET"); v != "" {
		cfg.ObjectStore.Bucket = v
	}
	if v := os.Getenv("OBJECT_STORE_REGION"); v != "" {
		cfg.ObjectStore.Region = v
	}
}

func parseBool(v string) bool {
	v = strings.TrimSpace(v)
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
