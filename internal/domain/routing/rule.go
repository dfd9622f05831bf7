package routing

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Converter names understood in rule patterns.
const (
	ConverterDefault = "default"
	ConverterPath    = "path"
	ConverterInt     = "int"
)

// Rule maps an endpoint name to a URL pattern such as /static/<path:filename>.
type Rule struct {
	Endpoint  string
	Pattern   string
	Methods   []string
	Subdomain string

	parts []part
}

type part struct {
	literal   string
	name      string
	converter string
}

func (p part) isArg() bool { return p.name != "" }

// NewRule parses pattern and returns a rule ready to be added to a Map.
func NewRule(endpoint, pattern string, methods ...string) (*Rule, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("rule endpoint cannot be empty")
	}
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("rule pattern %q must start with a slash", pattern)
	}
	parts, err := parsePattern(pattern)
	if err != nil {
		return nil, err
	}
	upper := make([]string, 0, len(methods))
	for _, m := range methods {
		upper = append(upper, strings.ToUpper(m))
	}
	return &Rule{Endpoint: endpoint, Pattern: pattern, Methods: upper, parts: parts}, nil
}

// MustRule is NewRule for static route tables.
func MustRule(endpoint, pattern string, methods ...string) *Rule {
	r, err := NewRule(endpoint, pattern, methods...)
	if err != nil {
		panic(err)
	}
	return r
}

func parsePattern(pattern string) ([]part, error) {
	var (
		parts []part
		rest  = pattern
		seen  = map[string]bool{}
	)
	for rest != "" {
		open := strings.IndexByte(rest, '<')
		if open < 0 {
			parts = append(parts, part{literal: rest})
			break
		}
		if open > 0 {
			parts = append(parts, part{literal: rest[:open]})
		}
		end := strings.IndexByte(rest[open:], '>')
		if end < 0 {
			return nil, fmt.Errorf("pattern %q: unclosed argument", pattern)
		}
		spec := rest[open+1 : open+end]
		converter, name := ConverterDefault, spec
		if idx := strings.IndexByte(spec, ':'); idx >= 0 {
			converter, name = spec[:idx], spec[idx+1:]
		}
		switch converter {
		case ConverterDefault, ConverterPath, ConverterInt:
		default:
			return nil, fmt.Errorf("pattern %q: unknown converter %q", pattern, converter)
		}
		if name == "" {
			return nil, fmt.Errorf("pattern %q: empty argument name", pattern)
		}
		if seen[name] {
			return nil, fmt.Errorf("pattern %q: duplicate argument %q", pattern, name)
		}
		seen[name] = true
		parts = append(parts, part{name: name, converter: converter})
		rest = rest[open+end+1:]
	}
	return parts, nil
}

// Arguments lists the argument names the rule needs to build.
func (r *Rule) Arguments() []string {
	var out []string
	for _, p := range r.parts {
		if p.isArg() {
			out = append(out, p.name)
		}
	}
	return out
}

func (r *Rule) allowsMethod(method string) bool {
	if method == "" || len(r.Methods) == 0 {
		return true
	}
	method = strings.ToUpper(method)
	for _, m := range r.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// build renders the path and reports which values were consumed.
// ok is false when an argument is missing or cannot be converted.
func (r *Rule) build(values Values) (path string, consumed map[string]bool, ok bool) {
	var sb strings.Builder
	consumed = make(map[string]bool)
	for _, p := range r.parts {
		if !p.isArg() {
			sb.WriteString(p.literal)
			continue
		}
		raw, present := values[p.name]
		if !present || raw == nil {
			return "", nil, false
		}
		encoded, convOK := convert(p.converter, raw)
		if !convOK {
			return "", nil, false
		}
		sb.WriteString(encoded)
		consumed[p.name] = true
	}
	return sb.String(), consumed, true
}

func convert(converter string, raw any) (string, bool) {
	value := FormatValue(raw)
	switch converter {
	case ConverterInt:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return "", false
		}
		return value, true
	case ConverterPath:
		if value == "" {
			return "", false
		}
		segments := strings.Split(value, "/")
		for i, s := range segments {
			segments[i] = url.PathEscape(s)
		}
		return strings.Join(segments, "/"), true
	default:
		if value == "" {
			return "", false
		}
		return url.PathEscape(value), true
	}
}

// GinPath renders the pattern in gin's :name / *name syntax.
func (r *Rule) GinPath() string {
	var sb strings.Builder
	for _, p := range r.parts {
		switch {
		case !p.isArg():
			sb.WriteString(p.literal)
		case p.converter == ConverterPath:
			sb.WriteString("*" + p.name)
		default:
			sb.WriteString(":" + p.name)
		}
	}
	return sb.String()
}
