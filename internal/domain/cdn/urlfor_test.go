package cdn

import (
	"context"
	"errors"
	"io/fs"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/cdnurl/internal/domain/routing"
	"github.com/yanqian/cdnurl/internal/domain/webapp"
	apperrors "github.com/yanqian/cdnurl/pkg/errors"
	"github.com/yanqian/cdnurl/pkg/metrics"
)

var (
	appModTime = time.Unix(1700000000, 0)
	bpModTime  = time.Unix(1710000000, 0)
)

type fixture struct {
	app    *webapp.App
	cdn    *CDN
	source *fakeSource
}

func newFixture(t *testing.T, settings webapp.Config) fixture {
	t.Helper()
	app, err := webapp.NewApp(webapp.AppConfig{Name: "site", StaticFolder: "/srv/static"}, newTestLogger())
	require.NoError(t, err)
	_, err = app.Route("index", "/")
	require.NoError(t, err)
	require.NoError(t, app.RegisterBlueprint(&webapp.Blueprint{Name: "admin", URLPrefix: "/admin", StaticFolder: "/srv/admin"}))
	bp, _ := app.Blueprint("admin")
	_, err = bp.Route("dashboard", "/")
	require.NoError(t, err)

	for k, v := range settings {
		app.Config[k] = v
	}

	source := newFakeSource()
	source.put("/srv/static", "css/site.css", appModTime)
	source.put("/srv/static", "js/app.js", appModTime)
	source.put("/srv/admin", "js/app.js", bpModTime)

	ext := New(source, newTestLogger())
	ext.Init(app)
	return fixture{app: app, cdn: ext, source: source}
}

func (f fixture) requestCtx(endpoint string) context.Context {
	req := httptest.NewRequest("GET", "http://origin.test/", nil)
	ctx := webapp.WithAppContext(context.Background(), f.app)
	return webapp.WithRequestContext(ctx, f.app.NewRequestContext(req, endpoint))
}

func TestInitSeedsDefaults(t *testing.T) {
	app, err := webapp.NewApp(webapp.AppConfig{Debug: true}, newTestLogger())
	require.NoError(t, err)
	app.Config[KeyTimestamp] = false

	New(newFakeSource(), newTestLogger()).Init(app)

	require.True(t, app.Config.Bool(KeyDebug))
	require.Equal(t, "", app.Config.String(KeyDomain))
	require.False(t, app.Config.Bool(KeyHTTPS))
	require.False(t, app.Config.Bool(KeyTimestamp))
	require.Equal(t, "", app.Config.String(KeyVersion))
	require.Equal(t, []string{"static"}, app.Config.Strings(KeyEndpoints))
}

func TestInitInstallsGlobalOnlyWithDomain(t *testing.T) {
	plain := newFixture(t, nil)
	fn, ok := plain.app.Global("url_for")
	require.True(t, ok)
	got, err := fn(plain.requestCtx("index"), "static", routing.Values{"filename": "css/site.css"}, webapp.URLOptions{})
	require.NoError(t, err)
	require.Equal(t, "/static/css/site.css", got)

	withDomain := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com"})
	fn, ok = withDomain.app.Global("url_for")
	require.True(t, ok)
	got, err = fn(withDomain.requestCtx("index"), "static", routing.Values{"filename": "css/site.css"}, webapp.URLOptions{})
	require.NoError(t, err)
	require.Equal(t, "http://cdn.example.com/static/css/site.css?t=1700000000", got)
}

func TestURLForRewritesToDomain(t *testing.T) {
	f := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com", KeyHTTPS: true, KeyVersion: "42"})

	got, err := f.cdn.URLFor(f.requestCtx("index"), "static", routing.Values{"filename": "css/site.css"}, webapp.URLOptions{Anchor: "x"})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/static/css/site.css?t=1700000000&v=42#x", got)

	got, err = f.cdn.URLFor(f.requestCtx("index"), "index", routing.Values{"page": 2}, webapp.URLOptions{External: webapp.Bool(false)})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/?page=2&v=42", got)
}

func TestURLForExplicitSchemeWins(t *testing.T) {
	f := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com", KeyHTTPS: true, KeyTimestamp: false})

	got, err := f.cdn.URLFor(f.requestCtx("index"), "static", routing.Values{"filename": "css/site.css"}, webapp.URLOptions{Scheme: "ftp"})
	require.NoError(t, err)
	require.Equal(t, "ftp://cdn.example.com/static/css/site.css", got)
}

func TestURLForBypass(t *testing.T) {
	debug := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com", KeyDebug: true})
	got, err := debug.cdn.URLFor(debug.requestCtx("index"), "static", routing.Values{"filename": "css/site.css"}, webapp.URLOptions{})
	require.NoError(t, err)
	require.Equal(t, "/static/css/site.css", got)

	forced := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com"})
	got, err = forced.cdn.URLFor(forced.requestCtx("index"), "static", routing.Values{"filename": "css/site.css"}, webapp.URLOptions{ForceNoCDN: true})
	require.NoError(t, err)
	require.Equal(t, "/static/css/site.css", got)
	require.Zero(t, forced.source.calls)
}

func TestURLForBypassCountsOriginBuildOnly(t *testing.T) {
	f := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com"})
	cdnOK := metrics.URLBuildTotal.WithLabelValues("cdn", "ok")
	originOK := metrics.URLBuildTotal.WithLabelValues("origin", "ok")
	cdnBefore, originBefore := testutil.ToFloat64(cdnOK), testutil.ToFloat64(originOK)

	_, err := f.cdn.URLFor(f.requestCtx("index"), "index", nil, webapp.URLOptions{ForceNoCDN: true})
	require.NoError(t, err)
	require.Equal(t, cdnBefore, testutil.ToFloat64(cdnOK))
	require.Equal(t, originBefore+1, testutil.ToFloat64(originOK))

	_, err = f.cdn.URLFor(f.requestCtx("index"), "index", nil, webapp.URLOptions{})
	require.NoError(t, err)
	require.Equal(t, cdnBefore+1, testutil.ToFloat64(cdnOK))
	require.Equal(t, originBefore+1, testutil.ToFloat64(originOK))
}

func TestURLForDropsOriginScriptName(t *testing.T) {
	app, err := webapp.NewApp(webapp.AppConfig{StaticFolder: "/srv/static", ScriptName: "/app"}, newTestLogger())
	require.NoError(t, err)
	app.Config[KeyDomain] = "cdn.example.com"
	source := newFakeSource()
	source.put("/srv/static", "css/site.css", appModTime)
	New(source, newTestLogger()).Init(app)

	req := httptest.NewRequest("GET", "http://origin.test/app/", nil)
	ctx := webapp.WithRequestContext(webapp.WithAppContext(context.Background(), app), app.NewRequestContext(req, "static"))

	fn, ok := app.Global("url_for")
	require.True(t, ok)
	got, err := fn(ctx, "static", routing.Values{"filename": "css/site.css"}, webapp.URLOptions{})
	require.NoError(t, err)
	require.Equal(t, "http://cdn.example.com/static/css/site.css?t=1700000000", got)

	got, err = fn(ctx, "static", routing.Values{"filename": "css/site.css"}, webapp.URLOptions{ForceNoCDN: true})
	require.NoError(t, err)
	require.Equal(t, "/app/static/css/site.css", got)
}

func TestURLForPrefersBlueprintStaticFolder(t *testing.T) {
	f := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com"})
	ctx := f.requestCtx("admin.dashboard")

	got, err := f.cdn.URLFor(ctx, ".static", routing.Values{"filename": "js/app.js"}, webapp.URLOptions{})
	require.NoError(t, err)
	require.Equal(t, "http://cdn.example.com/admin/static/js/app.js?t=1710000000", got)

	got, err = f.cdn.URLFor(ctx, "static", routing.Values{"filename": "css/site.css"}, webapp.URLOptions{})
	require.NoError(t, err)
	require.Equal(t, "http://cdn.example.com/static/css/site.css?t=1700000000", got)

	got, err = f.cdn.URLFor(f.requestCtx("index"), "admin.static", routing.Values{"filename": "js/app.js"}, webapp.URLOptions{})
	require.NoError(t, err)
	require.Equal(t, "http://cdn.example.com/admin/static/js/app.js?t=1710000000", got)
}

func TestURLForMissingStaticFile(t *testing.T) {
	f := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com"})

	_, err := f.cdn.URLFor(f.requestCtx("index"), "static", routing.Values{"filename": "missing.css"}, webapp.URLOptions{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeStaticLookupFailed))
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestURLForSourceFailureInBlueprintIsNotMasked(t *testing.T) {
	f := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com"})
	f.source.err = errors.New("permission denied")

	_, err := f.cdn.URLFor(f.requestCtx("admin.dashboard"), "static", routing.Values{"filename": "js/app.js"}, webapp.URLOptions{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeStaticLookupFailed))
	require.Equal(t, 1, f.source.calls)
}

func TestURLForOutsideRequest(t *testing.T) {
	f := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com", KeyTimestamp: false})
	ctx := webapp.WithAppContext(context.Background(), f.app)

	_, err := f.cdn.URLFor(ctx, "index", nil, webapp.URLOptions{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoURLAdapter))

	f.app.ServerName = "origin.test"
	f.app.PreferredScheme = "https"
	got, err := f.cdn.URLFor(ctx, "index", nil, webapp.URLOptions{})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/", got)
}

func TestURLForRequiresAppContext(t *testing.T) {
	f := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com"})
	_, err := f.cdn.URLFor(context.Background(), "index", nil, webapp.URLOptions{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoAppContext))
}

func TestURLForBuildErrorGoesToApp(t *testing.T) {
	f := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com", KeyVersion: "7"})
	var seen routing.Values
	f.app.OnURLBuildError(func(_ *routing.BuildError, endpoint string, values routing.Values, opts webapp.URLOptions) (string, bool) {
		seen = values
		require.True(t, *opts.External)
		return "https://fallback.test/" + endpoint, true
	})

	got, err := f.cdn.URLFor(f.requestCtx("index"), "unknown", nil, webapp.URLOptions{})
	require.NoError(t, err)
	require.Equal(t, "https://fallback.test/unknown", got)
	require.Equal(t, "7", seen["v"])
}

func TestURLForAppliesURLDefaultsBeforeTimestamp(t *testing.T) {
	f := newFixture(t, webapp.Config{KeyDomain: "cdn.example.com"})
	f.app.URLDefaults(func(endpoint string, values routing.Values) {
		if endpoint == "static" {
			if _, ok := values["filename"]; !ok {
				values["filename"] = "css/site.css"
			}
		}
	})

	got, err := f.cdn.URLFor(f.requestCtx("index"), "static", nil, webapp.URLOptions{})
	require.NoError(t, err)
	require.Equal(t, "http://cdn.example.com/static/css/site.css?t=1700000000", got)
}
