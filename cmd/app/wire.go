//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/cdnurl/internal/bootstrap"
	"github.com/yanqian/cdnurl/internal/infra/config"
	httpiface "github.com/yanqian/cdnurl/internal/interface/http"
	"github.com/yanqian/cdnurl/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideWebApp,
		provideModTimeSource,
		provideModTimeCache,
		provideCachedSource,
		provideCDN,
		provideWatcher,
		provideHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
