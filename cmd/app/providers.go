package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/cdnurl/internal/domain/cdn"
	"github.com/yanqian/cdnurl/internal/domain/webapp"
	"github.com/yanqian/cdnurl/internal/infra/assetstore"
	"github.com/yanqian/cdnurl/internal/infra/config"
	"github.com/yanqian/cdnurl/internal/infra/mtimecache"
	httpiface "github.com/yanqian/cdnurl/internal/interface/http"
)

// cdnExtension marks the CDN as installed on the web app before the router reads its globals.
type cdnExtension struct {
	*cdn.CDN
}

func provideWebApp(cfg *config.Config, logger *slog.Logger) (*webapp.App, error) {
	app, err := webapp.NewApp(webapp.AppConfig{
		Name:            cfg.App.Name,
		Debug:           cfg.App.Debug,
		StaticFolder:    cfg.Static.Folder,
		StaticURLPath:   cfg.Static.URLPath,
		ServerName:      cfg.App.ServerName,
		PreferredScheme: cfg.App.PreferredScheme,
		ScriptName:      cfg.App.ScriptName,
	}, logger)
	if err != nil {
		return nil, err
	}
	for _, bp := range cfg.Static.Blueprints {
		if err := app.RegisterBlueprint(&webapp.Blueprint{
			Name:         strings.TrimSpace(bp.Name),
			URLPrefix:    bp.URLPrefix,
			StaticFolder: bp.StaticFolder,
		}); err != nil {
			return nil, err
		}
	}
	for key, value := range cfg.CDN.Settings() {
		app.Config[key] = value
	}
	return app, nil
}

func provideModTimeSource(cfg *config.Config, logger *slog.Logger) (cdn.ModTimeSource, error) {
	if cfg.Static.Backend == config.StaticBackendS3 {
		store := cfg.ObjectStore
		logger.Info("static mtimes read from object storage", "endpoint", store.Endpoint, "bucket", store.Bucket)
		source, err := assetstore.NewS3Source(store.Endpoint, store.AccessKey, store.SecretKey, store.Bucket, store.Region, logger)
		if err != nil {
			return nil, err
		}
		return source, nil
	}
	return assetstore.NewLocalSource(), nil
}

func provideModTimeCache(cfg *config.Config, logger *slog.Logger) cdn.ModTimeCache {
	switch cfg.Cache.Backend {
	case config.CacheBackendNone:
		return mtimecache.NopStore{}
	case config.CacheBackendValkey:
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return mtimecache.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return mtimecache.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
			return mtimecache.NewMemoryStore()
		}
		logger.Info("mtime valkey cache enabled", "addr", cfg.Cache.Valkey.Addr)
		return mtimecache.NewValkeyStore(client, cfg.Cache.Valkey.Prefix)
	default:
		return mtimecache.NewMemoryStore()
	}
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Cache.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Cache.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Cache.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideCachedSource(cfg *config.Config, source cdn.ModTimeSource, cache cdn.ModTimeCache, logger *slog.Logger) *cdn.CachedSource {
	return cdn.NewCachedSource(source, cache, cfg.Cache.TTL, logger)
}

func provideCDN(app *webapp.App, source *cdn.CachedSource, logger *slog.Logger) cdnExtension {
	ext := cdn.New(source, logger)
	ext.Init(app)
	return cdnExtension{CDN: ext}
}

func provideHandler(app *webapp.App, _ cdnExtension, logger *slog.Logger) (*httpiface.Handler, error) {
	return httpiface.NewHandler(app, logger)
}

func provideWatcher(cfg *config.Config, app *webapp.App, source *cdn.CachedSource, logger *slog.Logger) (*assetstore.Watcher, error) {
	if !cfg.Static.Watch || cfg.Static.Backend != config.StaticBackendLocal {
		return nil, nil
	}
	folders := []string{app.StaticFolder}
	for _, bp := range app.Blueprints() {
		if bp.HasStaticFolder() {
			folders = append(folders, bp.StaticFolder)
		}
	}
	return assetstore.NewWatcher(source, folders, logger)
}
