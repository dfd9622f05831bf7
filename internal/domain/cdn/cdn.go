package cdn

import (
	"log/slog"

	"github.com/yanqian/cdnurl/internal/domain/webapp"
)

// Settings read from the application's configuration mapping.
const (
	KeyDebug     = "CDN_DEBUG"
	KeyDomain    = "CDN_DOMAIN"
	KeyHTTPS     = "CDN_HTTPS"
	KeyTimestamp = "CDN_TIMESTAMP"
	KeyVersion   = "CDN_VERSION"
	// KeyEndpoints is stored for callers that want it but does not limit rewriting.
	KeyEndpoints = "CDN_ENDPOINTS"
)

// CDN rewrites generated URLs to a content-delivery domain.
type CDN struct {
	source ModTimeSource
	logger *slog.Logger
}

// New constructs the extension. source resolves static file modification times.
func New(source ModTimeSource, logger *slog.Logger) *CDN {
	if logger == nil {
		logger = slog.Default()
	}
	return &CDN{source: source, logger: logger.With("component", "cdn")}
}

// Init seeds the CDN defaults on app and, when a CDN domain is configured,
// replaces the url_for template global with the CDN builder.
func (c *CDN) Init(app *webapp.App) {
	defaults := []struct {
		key   string
		value any
	}{
		{KeyDebug, app.Debug},
		{KeyDomain, ""},
		{KeyHTTPS, false},
		{KeyTimestamp, true},
		{KeyVersion, ""},
		{KeyEndpoints, []string{"static"}},
	}
	for _, d := range defaults {
		app.Config.SetDefault(d.key, d.value)
	}

	domain := app.Config.String(KeyDomain)
	if domain == "" {
		c.logger.Info("cdn domain not set, url_for left unchanged", "app", app.Name)
		return
	}
	app.SetGlobal("url_for", c.URLFor)
	c.logger.Info("cdn url_for installed",
		"app", app.Name,
		"domain", domain,
		"https", app.Config.Bool(KeyHTTPS),
		"timestamp", app.Config.Bool(KeyTimestamp),
		"debug", app.Config.Bool(KeyDebug),
	)
}
