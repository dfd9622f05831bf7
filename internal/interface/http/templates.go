package http

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// parseTemplates parses the page templates with stand-ins for the URL
// globals; the real functions are bound per request.
func parseTemplates(globals ...string) (*template.Template, error) {
	placeholders := make(template.FuncMap, len(globals))
	for _, name := range globals {
		placeholders[name] = func(string, ...any) (string, error) { return "", nil }
	}
	return template.New("pages").Funcs(placeholders).ParseFS(templateFS, "templates/*.html")
}
