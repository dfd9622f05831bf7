package webapp

import (
	"fmt"
	"strconv"
	"strings"
)

// Config is the application's mutable settings mapping. Keys are written while
// the application is being set up and only read afterwards.
type Config map[string]any

// SetDefault stores value under key unless the key is already present, and
// returns whatever the key holds afterwards.
func (c Config) SetDefault(key string, value any) any {
	if existing, ok := c[key]; ok {
		return existing
	}
	c[key] = value
	return value
}

// Bool interprets the key as a flag. Missing and nil keys are false.
func (c Config) Bool(key string) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case *bool:
		return v != nil && *v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed
	case int:
		return v != 0
	default:
		return false
	}
}

// String returns the key as a string. Missing and nil keys are "".
func (c Config) String(key string) string {
	switch v := c[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	default:
		return fmt.Sprint(v)
	}
}

// Strings returns the key as a list. A plain string is split on commas.
func (c Config) Strings(key string) []string {
	switch v := c[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	default:
		return nil
	}
}
