package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanqian/cdnurl/internal/domain/webapp"
	"github.com/yanqian/cdnurl/internal/infra/config"
)

// apiBlueprint groups the JSON endpoints.
const apiBlueprint = "api"

// adminStaticEndpoint serves the admin blueprint's assets when it is configured.
const adminStaticEndpoint = "admin.static"

// RegisterRoutes adds the application's own endpoints to its URL map.
func RegisterRoutes(app *webapp.App) error {
	if _, err := app.Route("index", "/", "GET"); err != nil {
		return err
	}
	if _, err := app.Route("health", "/healthz", "GET"); err != nil {
		return err
	}
	if _, err := app.Route("metrics", "/metrics", "GET"); err != nil {
		return err
	}
	api := &webapp.Blueprint{Name: apiBlueprint, URLPrefix: "/api/v1"}
	if err := app.RegisterBlueprint(api); err != nil {
		return err
	}
	_, err := api.Route("urls", "/urls", "GET")
	return err
}

// NewRouter adds the application's endpoints, registers a gin route for every
// rule in the URL map and returns a configured server.
func NewRouter(cfg *config.Config, app *webapp.App, handler *Handler) (*http.Server, error) {
	if err := RegisterRoutes(app); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	views := handler.views()
	for _, rule := range app.Map.Rules() {
		view, ok := views[rule.Endpoint]
		if !ok {
			handler.logger.Warn("no view for endpoint, route not served", "endpoint", rule.Endpoint, "pattern", rule.Pattern)
			continue
		}
		router.GET(rule.GinPath(), withRequestContext(app, rule.Endpoint), view)
		router.HEAD(rule.GinPath(), withRequestContext(app, rule.Endpoint), view)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}, nil
}

// views maps endpoints to their gin handlers.
func (h *Handler) views() map[string]gin.HandlerFunc {
	views := map[string]gin.HandlerFunc{
		"index":                h.Index,
		"health":               h.Health,
		"metrics":              gin.WrapH(promhttp.Handler()),
		apiBlueprint + ".urls": h.BuildURL,
	}
	if h.app.StaticFolder != "" {
		views["static"] = h.Static(h.app.StaticFolder)
	}
	for _, bp := range h.app.Blueprints() {
		if bp.HasStaticFolder() {
			views[bp.Name+".static"] = h.Static(bp.StaticFolder)
		}
	}
	return views
}
