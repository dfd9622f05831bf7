package routing

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// Values holds the arguments passed to a URL build.
type Values map[string]any

// Clone returns a shallow copy, so callers can add keys without touching the original.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// String returns the formatted value for key, or "" when absent.
func (v Values) String(key string) string {
	raw, ok := v[key]
	if !ok || raw == nil {
		return ""
	}
	return FormatValue(raw)
}

// FormatValue renders a value the way it appears in a URL.
func FormatValue(raw any) string {
	switch val := raw.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func encodeQuery(values Values, skip map[string]bool) string {
	keys := make([]string, 0, len(values))
	for k, val := range values {
		if skip[k] || val == nil {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	q := url.Values{}
	for _, k := range keys {
		switch val := values[k].(type) {
		case []string:
			for _, item := range val {
				q.Add(k, item)
			}
		default:
			q.Add(k, FormatValue(val))
		}
	}
	return q.Encode()
}
