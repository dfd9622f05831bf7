package webapp

import (
	"context"
	"net/http"
	"strings"

	"github.com/yanqian/cdnurl/internal/domain/routing"
)

type appContextKey struct{}

type requestContextKey struct{}

// WithAppContext returns a context carrying app.
func WithAppContext(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appContextKey{}, app)
}

// AppFromContext returns the application pushed with WithAppContext.
func AppFromContext(ctx context.Context) (*App, bool) {
	app, ok := ctx.Value(appContextKey{}).(*App)
	return app, ok && app != nil
}

// RequestContext is the per-request state URL builders read.
type RequestContext struct {
	Request  *http.Request
	Endpoint string
	Adapter  *routing.Adapter
}

// Blueprint returns the name of the blueprint that owns the matched endpoint, or "".
func (r *RequestContext) Blueprint() string {
	if r == nil {
		return ""
	}
	idx := strings.LastIndexByte(r.Endpoint, '.')
	if idx <= 0 {
		return ""
	}
	return r.Endpoint[:idx]
}

// WithRequestContext returns a context carrying reqctx.
func WithRequestContext(ctx context.Context, reqctx *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, reqctx)
}

// RequestFromContext returns the request context, if one was pushed.
func RequestFromContext(ctx context.Context) (*RequestContext, bool) {
	reqctx, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return reqctx, ok && reqctx != nil
}

// NewRequestContext binds the app's URL map to the host and scheme the request arrived on.
func (a *App) NewRequestContext(r *http.Request, endpoint string) *RequestContext {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); forwarded != "" {
		scheme = strings.ToLower(strings.Split(forwarded, ",")[0])
	}
	host := strings.ToLower(r.Host)
	subdomain := ""
	if a.ServerName != "" {
		server := strings.ToLower(a.ServerName)
		if strings.HasSuffix(host, "."+server) {
			subdomain = strings.TrimSuffix(host, "."+server)
			host = server
		}
	}
	return &RequestContext{
		Request:  r,
		Endpoint: endpoint,
		Adapter:  a.Map.Bind(host, scheme, subdomain, a.ScriptName),
	}
}
