package webapp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yanqian/cdnurl/internal/domain/routing"
	apperrors "github.com/yanqian/cdnurl/pkg/errors"
	"github.com/yanqian/cdnurl/pkg/metrics"
)

// Reserved template argument keys.
const (
	ArgExternal   = "_external"
	ArgAnchor     = "_anchor"
	ArgMethod     = "_method"
	ArgScheme     = "_scheme"
	ArgForceNoCDN = "_force_no_cdn"
)

// URLOptions are the per-call build switches.
type URLOptions struct {
	// External forces an absolute URL. Nil means "default for the context".
	External   *bool
	Anchor     string
	Method     string
	Scheme     string
	ForceNoCDN bool
}

// Bool is a helper for URLOptions.External.
func Bool(b bool) *bool { return &b }

// Target is the adapter and endpoint a build resolves to.
type Target struct {
	App      *App
	Request  *RequestContext
	Adapter  *routing.Adapter
	Endpoint string
	External bool
}

// ResolveTarget applies the request-relative rules: inside a request a leading
// "." refers to the current blueprint and URLs default to paths; outside a
// request the application adapter is used and URLs default to absolute.
func ResolveTarget(ctx context.Context, endpoint string, opts URLOptions) (Target, error) {
	app, ok := AppFromContext(ctx)
	if !ok {
		return Target{}, apperrors.Wrap(apperrors.CodeNoAppContext, "attempted to generate a URL without the application context", nil)
	}
	target := Target{App: app, Endpoint: endpoint}
	if reqctx, ok := RequestFromContext(ctx); ok {
		target.Request = reqctx
		target.Adapter = reqctx.Adapter
		if strings.HasPrefix(endpoint, ".") {
			if bp := reqctx.Blueprint(); bp != "" {
				target.Endpoint = bp + endpoint
			} else {
				target.Endpoint = endpoint[1:]
			}
		}
		target.External = opts.External != nil && *opts.External
	} else {
		target.Adapter = app.Adapter()
		if target.Adapter == nil {
			return Target{}, apperrors.Wrap(apperrors.CodeNoURLAdapter, "application was not able to create a URL adapter for request independent URL generation; set the server name", nil)
		}
		target.External = opts.External == nil || *opts.External
	}
	return target, nil
}

// URLFor builds a URL for endpoint using the application in ctx.
func URLFor(ctx context.Context, endpoint string, values routing.Values, opts URLOptions) (string, error) {
	rv, err := urlFor(ctx, endpoint, values, opts)
	metrics.RecordURLBuild("origin", err)
	return rv, err
}

func urlFor(ctx context.Context, endpoint string, values routing.Values, opts URLOptions) (string, error) {
	target, err := ResolveTarget(ctx, endpoint, opts)
	if err != nil {
		return "", err
	}
	values = values.Clone()
	target.App.InjectURLDefaults(target.Endpoint, values)

	adapter := target.Adapter
	if opts.Scheme != "" {
		if !target.External {
			return "", apperrors.Wrap(apperrors.CodeInvalidOptions, "when specifying a scheme, external must be true", nil)
		}
		scoped := *adapter
		scoped.Scheme = opts.Scheme
		adapter = &scoped
	}
	return Build(target, adapter, values, opts)
}

// Build runs the adapter and routes build errors through the application's handlers.
func Build(target Target, adapter *routing.Adapter, values routing.Values, opts URLOptions) (string, error) {
	rv, err := adapter.Build(target.Endpoint, values, opts.Method, target.External)
	if err != nil {
		var buildErr *routing.BuildError
		if !errors.As(err, &buildErr) {
			return "", err
		}
		opts.External = Bool(target.External)
		handled, handleErr := target.App.HandleURLBuildError(buildErr, target.Endpoint, values, opts)
		if handleErr != nil {
			return "", apperrors.Wrap(apperrors.CodeBuildFailed, "url build failed", handleErr)
		}
		return handled, nil
	}
	return AppendAnchor(rv, opts.Anchor), nil
}

// AppendAnchor adds an escaped fragment when anchor is set.
func AppendAnchor(rv, anchor string) string {
	if anchor == "" {
		return rv
	}
	return rv + "#" + (&url.URL{Fragment: anchor}).EscapedFragment()
}

// ParseURLArgs turns template key/value pairs into build values and options.
func ParseURLArgs(args ...any) (routing.Values, URLOptions, error) {
	var opts URLOptions
	if len(args)%2 != 0 {
		return nil, opts, apperrors.Wrap(apperrors.CodeInvalidOptions, "url arguments must be key/value pairs", nil)
	}
	values := make(routing.Values, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return nil, opts, apperrors.Wrap(apperrors.CodeInvalidOptions, fmt.Sprintf("url argument key %v is not a string", args[i]), nil)
		}
		raw := args[i+1]
		switch key {
		case ArgExternal:
			opts.External = Bool(truthy(raw))
		case ArgAnchor:
			opts.Anchor = routing.FormatValue(raw)
		case ArgMethod:
			opts.Method = routing.FormatValue(raw)
		case ArgScheme:
			opts.Scheme = routing.FormatValue(raw)
		case ArgForceNoCDN:
			opts.ForceNoCDN = truthy(raw)
		default:
			values[key] = raw
		}
	}
	return values, opts, nil
}

func truthy(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(v)
		return err == nil && parsed
	case int:
		return v != 0
	default:
		return raw != nil
	}
}
