package cdn

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/yanqian/cdnurl/internal/domain/routing"
	"github.com/yanqian/cdnurl/internal/domain/webapp"
	apperrors "github.com/yanqian/cdnurl/pkg/errors"
	"github.com/yanqian/cdnurl/pkg/metrics"
)

// URLFor builds an absolute URL on the CDN domain. In CDN debug mode, with no
// domain configured, or when opts.ForceNoCDN is set, it falls back to the
// application's own builder.
func (c *CDN) URLFor(ctx context.Context, endpoint string, values routing.Values, opts webapp.URLOptions) (string, error) {
	app, ok := webapp.AppFromContext(ctx)
	if !ok {
		err := apperrors.Wrap(apperrors.CodeNoAppContext, "attempted to generate a URL without the application context", nil)
		metrics.RecordURLBuild("cdn", err)
		return "", err
	}
	domain := app.Config.String(KeyDomain)
	if app.Config.Bool(KeyDebug) || opts.ForceNoCDN || domain == "" {
		return webapp.URLFor(ctx, endpoint, values, opts)
	}
	rv, err := c.urlFor(ctx, app, domain, endpoint, values, opts)
	metrics.RecordURLBuild("cdn", err)
	return rv, err
}

func (c *CDN) urlFor(ctx context.Context, app *webapp.App, domain, endpoint string, values routing.Values, opts webapp.URLOptions) (string, error) {
	target, err := webapp.ResolveTarget(ctx, endpoint, opts)
	if err != nil {
		return "", err
	}
	target.External = true

	values = values.Clone()
	app.InjectURLDefaults(target.Endpoint, values)

	scheme := opts.Scheme
	if scheme == "" {
		scheme = target.Adapter.Scheme
		if app.Config.Bool(KeyHTTPS) {
			scheme = "https"
		}
	}

	if filename := values.String("filename"); filename != "" && app.Config.Bool(KeyTimestamp) {
		mtime, err := c.staticModTime(ctx, app, target, filename)
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeStaticLookupFailed, "resolve static file "+filename, err)
		}
		values["t"] = mtime.Unix()
	}
	if version := app.Config.String(KeyVersion); version != "" {
		values["v"] = version
	}

	// CDN URLs sit at the root of the CDN host, without the origin's mount point.
	adapter := target.Adapter.Map.Bind(domain, scheme, "", "")
	return webapp.Build(target, adapter, values, opts)
}

// staticModTime looks in the static folder of the blueprint that owns the
// endpoint, then the current request's blueprint, and falls back to the
// application's folder when the file is in neither.
func (c *CDN) staticModTime(ctx context.Context, app *webapp.App, target webapp.Target, filename string) (time.Time, error) {
	var candidates []string
	if idx := strings.LastIndexByte(target.Endpoint, '.'); idx > 0 {
		candidates = append(candidates, target.Endpoint[:idx])
	}
	if target.Request != nil {
		if bp := target.Request.Blueprint(); bp != "" && (len(candidates) == 0 || candidates[0] != bp) {
			candidates = append(candidates, bp)
		}
	}
	for _, name := range candidates {
		bp, ok := app.Blueprint(name)
		if !ok || !bp.HasStaticFolder() {
			continue
		}
		mtime, err := c.source.ModTime(ctx, bp.StaticFolder, filename)
		if err == nil {
			return mtime, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, err
		}
	}
	return c.source.ModTime(ctx, app.StaticFolder, filename)
}
