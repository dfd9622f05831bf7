package webapp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yanqian/cdnurl/internal/domain/routing"
)

// Blueprint groups endpoints under a name and URL prefix. A blueprint may own
// a static folder that shadows the application's for its own requests.
type Blueprint struct {
	Name          string
	URLPrefix     string
	StaticFolder  string
	StaticURLPath string

	app         *App
	urlDefaults []URLDefaultsFunc
}

// HasStaticFolder reports whether the blueprint serves its own static files.
func (b *Blueprint) HasStaticFolder() bool {
	return b != nil && b.StaticFolder != ""
}

// StaticRule returns the blueprint's static rule, or nil when it has no static folder.
func (b *Blueprint) StaticRule() *routing.Rule {
	if !b.HasStaticFolder() || b.app == nil {
		return nil
	}
	for _, rule := range b.app.Map.Rules() {
		if rule.Endpoint == b.Name+".static" {
			return rule
		}
	}
	return nil
}

// Route registers a blueprint-local endpoint, prefixed with the blueprint name and URL prefix.
func (b *Blueprint) Route(endpoint, pattern string, methods ...string) (*routing.Rule, error) {
	if b.app == nil {
		return nil, fmt.Errorf("blueprint %q is not registered", b.Name)
	}
	return b.app.Route(b.Name+"."+endpoint, b.URLPrefix+pattern, methods...)
}

// URLDefaults registers a hook that runs for this blueprint's endpoints only.
func (b *Blueprint) URLDefaults(fn URLDefaultsFunc) {
	if b.app != nil {
		b.app.mu.Lock()
		defer b.app.mu.Unlock()
	}
	b.urlDefaults = append(b.urlDefaults, fn)
}

// RegisterBlueprint attaches bp to the application and adds its static rule.
func (a *App) RegisterBlueprint(bp *Blueprint) error {
	if bp == nil || strings.TrimSpace(bp.Name) == "" {
		return fmt.Errorf("blueprint name cannot be empty")
	}
	if strings.Contains(bp.Name, ".") {
		return fmt.Errorf("blueprint name %q cannot contain a dot", bp.Name)
	}
	a.mu.Lock()
	if _, exists := a.blueprints[bp.Name]; exists {
		a.mu.Unlock()
		return fmt.Errorf("blueprint %q already registered", bp.Name)
	}
	bp.URLPrefix = strings.TrimRight(bp.URLPrefix, "/")
	bp.app = a
	a.blueprints[bp.Name] = bp
	a.mu.Unlock()

	if bp.HasStaticFolder() {
		urlPath := bp.StaticURLPath
		if urlPath == "" {
			urlPath = "/static"
		}
		if _, err := a.Route(bp.Name+".static", bp.URLPrefix+urlPath+"/<path:filename>", "GET"); err != nil {
			return err
		}
	}
	return nil
}

// Blueprint looks up a registered blueprint by name.
func (a *App) Blueprint(name string) (*Blueprint, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	bp, ok := a.blueprints[name]
	return bp, ok
}

// Blueprints returns all registered blueprints ordered by name.
func (a *App) Blueprints() []*Blueprint {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*Blueprint, 0, len(a.blueprints))
	for _, bp := range a.blueprints {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
