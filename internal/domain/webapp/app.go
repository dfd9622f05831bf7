package webapp

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"

	"github.com/yanqian/cdnurl/internal/domain/routing"
)

// AppConfig carries the static settings of the host application.
type AppConfig struct {
	Name            string
	Debug           bool
	StaticFolder    string
	StaticURLPath   string
	ServerName      string
	PreferredScheme string
	ScriptName      string
}

// URLDefaultsFunc may add values before a URL is built for endpoint.
type URLDefaultsFunc func(endpoint string, values routing.Values)

// BuildErrorHandler gets a chance to produce a URL when the map cannot.
// Returning handled=false passes the error on to the next handler.
type BuildErrorHandler func(err *routing.BuildError, endpoint string, values routing.Values, opts URLOptions) (url string, handled bool)

// URLForFunc is the signature of a template-visible URL builder.
type URLForFunc func(ctx context.Context, endpoint string, values routing.Values, opts URLOptions) (string, error)

// App is the host application: its URL map, settings mapping, blueprints and
// template globals.
type App struct {
	Name            string
	Debug           bool
	StaticFolder    string
	StaticURLPath   string
	ServerName      string
	PreferredScheme string
	ScriptName      string
	Config          Config
	Map             *routing.Map

	logger             *slog.Logger
	mu                 sync.RWMutex
	blueprints         map[string]*Blueprint
	urlDefaults        []URLDefaultsFunc
	buildErrorHandlers []BuildErrorHandler
	globals            map[string]URLForFunc
}

// NewApp builds the application and registers its static rule.
func NewApp(cfg AppConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "app"
	}
	scheme := cfg.PreferredScheme
	if scheme == "" {
		scheme = "http"
	}
	staticURLPath := strings.TrimRight(cfg.StaticURLPath, "/")
	if staticURLPath == "" {
		staticURLPath = "/static"
	}
	app := &App{
		Name:            name,
		Debug:           cfg.Debug,
		StaticFolder:    cfg.StaticFolder,
		StaticURLPath:   staticURLPath,
		ServerName:      cfg.ServerName,
		PreferredScheme: scheme,
		ScriptName:      cfg.ScriptName,
		Config:          Config{},
		Map:             routing.NewMap(),
		logger:          logger.With("component", "webapp"),
		blueprints:      make(map[string]*Blueprint),
		globals:         make(map[string]URLForFunc),
	}
	app.globals["url_for"] = URLFor
	if app.StaticFolder != "" {
		if _, err := app.Route("static", staticURLPath+"/<path:filename>", "GET"); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Route registers an endpoint on the application's URL map.
func (a *App) Route(endpoint, pattern string, methods ...string) (*routing.Rule, error) {
	rule, err := routing.NewRule(endpoint, pattern, methods...)
	if err != nil {
		return nil, err
	}
	if err := a.Map.Add(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// Adapter returns the request-independent adapter, or nil when no server name is configured.
func (a *App) Adapter() *routing.Adapter {
	if strings.TrimSpace(a.ServerName) == "" {
		return nil
	}
	return a.Map.Bind(a.ServerName, a.PreferredScheme, "", a.ScriptName)
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// URLDefaults registers an application-wide defaults hook.
func (a *App) URLDefaults(fn URLDefaultsFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.urlDefaults = append(a.urlDefaults, fn)
}

// InjectURLDefaults runs the application hooks, then those of the endpoint's blueprint.
func (a *App) InjectURLDefaults(endpoint string, values routing.Values) {
	a.mu.RLock()
	funcs := append([]URLDefaultsFunc(nil), a.urlDefaults...)
	if idx := strings.LastIndexByte(endpoint, '.'); idx > 0 {
		if bp, ok := a.blueprints[endpoint[:idx]]; ok {
			funcs = append(funcs, bp.urlDefaults...)
		}
	}
	a.mu.RUnlock()
	for _, fn := range funcs {
		fn(endpoint, values)
	}
}

// OnURLBuildError appends a build error handler.
func (a *App) OnURLBuildError(fn BuildErrorHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buildErrorHandlers = append(a.buildErrorHandlers, fn)
}

// HandleURLBuildError offers err to each registered handler in order.
// When nobody handles it the error is returned unchanged.
func (a *App) HandleURLBuildError(err *routing.BuildError, endpoint string, values routing.Values, opts URLOptions) (string, error) {
	a.mu.RLock()
	handlers := append([]BuildErrorHandler(nil), a.buildErrorHandlers...)
	a.mu.RUnlock()
	for _, handler := range handlers {
		if rv, handled := handler(err, endpoint, values, opts); handled {
			return rv, nil
		}
	}
	a.logger.Debug("url build failed", "endpoint", endpoint, "error", err)
	return "", err
}

// SetGlobal replaces or adds a template-visible URL builder.
func (a *App) SetGlobal(name string, fn URLForFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.globals[name] = fn
}

// Global returns a template-visible URL builder by name.
func (a *App) Global(name string) (URLForFunc, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	fn, ok := a.globals[name]
	return fn, ok
}

// TemplateFuncs binds the URL globals to ctx so templates can call them as
// {{ url_for "static" "filename" "css/site.css" }}.
func (a *App) TemplateFuncs(ctx context.Context) template.FuncMap {
	if _, ok := AppFromContext(ctx); !ok {
		ctx = WithAppContext(ctx, a)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	funcs := make(template.FuncMap, len(a.globals))
	for name, fn := range a.globals {
		fn := fn
		funcs[name] = func(endpoint string, args ...any) (string, error) {
			values, opts, err := ParseURLArgs(args...)
			if err != nil {
				return "", err
			}
			return fn(ctx, endpoint, values, opts)
		}
	}
	return funcs
}

func (a *App) String() string {
	return fmt.Sprintf("<App %s>", a.Name)
}
