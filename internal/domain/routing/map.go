package routing

import (
	"fmt"
	"strings"
	"sync"
)

// Map is the registry of URL rules, indexed by endpoint.
type Map struct {
	mu         sync.RWMutex
	rules      []*Rule
	byEndpoint map[string][]*Rule
}

// NewMap constructs an empty rule map.
func NewMap() *Map {
	return &Map{byEndpoint: make(map[string][]*Rule)}
}

// Add registers a rule. Rules for the same endpoint are tried in insertion order.
func (m *Map) Add(rule *Rule) error {
	if rule == nil {
		return fmt.Errorf("nil rule")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byEndpoint[rule.Endpoint] {
		if existing.Pattern == rule.Pattern && existing.Subdomain == rule.Subdomain {
			return fmt.Errorf("rule %q already registered for endpoint %q", rule.Pattern, rule.Endpoint)
		}
	}
	m.rules = append(m.rules, rule)
	m.byEndpoint[rule.Endpoint] = append(m.byEndpoint[rule.Endpoint], rule)
	return nil
}

// Rules returns the registered rules in insertion order.
func (m *Map) Rules() []*Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

// Has reports whether any rule serves endpoint.
func (m *Map) Has(endpoint string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byEndpoint[endpoint]) > 0
}

func (m *Map) rulesFor(endpoint string) []*Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byEndpoint[endpoint]
}

// Bind creates an adapter that builds URLs for a concrete host.
func (m *Map) Bind(serverName, scheme, subdomain, scriptName string) *Adapter {
	if scheme == "" {
		scheme = "http"
	}
	return &Adapter{
		Map:        m,
		ServerName: strings.ToLower(serverName),
		Scheme:     scheme,
		Subdomain:  subdomain,
		ScriptName: strings.TrimRight(scriptName, "/"),
	}
}
