package routing

import (
	"fmt"
	"sort"
)

// BuildError is returned when no rule can build a URL for the requested endpoint.
type BuildError struct {
	Endpoint string
	Values   Values
	Method   string
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("could not build url for endpoint %q", e.Endpoint)
	if e.Method != "" {
		msg += fmt.Sprintf(" (%s)", e.Method)
	}
	if len(e.Values) > 0 {
		keys := make([]string, 0, len(e.Values))
		for k := range e.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msg += fmt.Sprintf(" with values %v", keys)
	}
	return msg
}
