package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/cdnurl/internal/infra/assetstore"
	"github.com/yanqian/cdnurl/internal/infra/config"
)

// App encapsulates the HTTP server lifecycle and the static folder watcher.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	watcher *assetstore.Watcher
}

// NewApp is used by Wire to build the runnable app. watcher may be nil.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, watcher *assetstore.Watcher) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, watcher: watcher}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if a.watcher != nil {
		go a.watcher.Run(watchCtx)
	}

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
