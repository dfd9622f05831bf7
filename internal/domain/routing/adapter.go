package routing

import "strings"

// Adapter builds URLs against a Map for one host binding.
type Adapter struct {
	Map        *Map
	ServerName string
	Scheme     string
	Subdomain  string
	ScriptName string
}

// Build renders the URL for endpoint. Values that are not rule arguments are
// appended as a sorted query string. When forceExternal is false the result is
// a path unless the rule lives on a different subdomain.
func (a *Adapter) Build(endpoint string, values Values, method string, forceExternal bool) (string, error) {
	for _, rule := range a.Map.rulesFor(endpoint) {
		if !rule.allowsMethod(method) {
			continue
		}
		path, consumed, ok := rule.build(values)
		if !ok {
			continue
		}
		rv := a.ScriptName + path
		if query := encodeQuery(values, consumed); query != "" {
			rv += "?" + query
		}
		if !forceExternal && rule.Subdomain == a.Subdomain {
			return rv, nil
		}
		return a.Scheme + "://" + a.host(rule.Subdomain) + rv, nil
	}
	return "", &BuildError{Endpoint: endpoint, Values: values, Method: method}
}

func (a *Adapter) host(subdomain string) string {
	if subdomain == "" {
		return a.ServerName
	}
	return strings.Trim(subdomain+"."+a.ServerName, ".")
}
