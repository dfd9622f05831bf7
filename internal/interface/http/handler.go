package http

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/cdnurl/internal/domain/cdn"
	"github.com/yanqian/cdnurl/internal/domain/webapp"
	apperrors "github.com/yanqian/cdnurl/pkg/errors"
)

// Handler serves the host application's pages, static files and URL API.
type Handler struct {
	app       *webapp.App
	templates *template.Template
	logger    *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(app *webapp.App, logger *slog.Logger) (*Handler, error) {
	templates, err := parseTemplates("url_for")
	if err != nil {
		return nil, err
	}
	return &Handler{
		app:       app,
		templates: templates,
		logger:    logger.With("component", "http.handler"),
	}, nil
}

// URLResponse is returned by the URL API.
type URLResponse struct {
	Endpoint string `json:"endpoint"`
	URL      string `json:"url"`
}

// Index renders the landing page through the active url_for global.
func (h *Handler) Index(c *gin.Context) {
	h.render(c, "index.html", gin.H{
		"AppName":     h.app.Name,
		"CDNDomain":   h.app.Config.String(cdn.KeyDomain),
		"AdminAssets": h.app.Map.Has(adminStaticEndpoint),
	})
}

func (h *Handler) render(c *gin.Context, name string, data any) {
	tmpl, err := h.templates.Clone()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "template_error", "template unavailable", err))
		return
	}
	tmpl.Funcs(h.app.TemplateFuncs(c.Request.Context()))

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		httpErr := fromURLError(err)
		if apperrors.CodeOf(err) == "" {
			httpErr = NewHTTPError(http.StatusInternalServerError, "template_error", "failed to render page", err)
		}
		abortWithError(c, httpErr)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// BuildURL resolves ?endpoint=...&key=value pairs through the active url_for global.
func (h *Handler) BuildURL(c *gin.Context) {
	query := c.Request.URL.Query()
	endpoint := strings.TrimSpace(query.Get("endpoint"))
	if endpoint == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "endpoint is required", nil))
		return
	}
	query.Del("endpoint")

	args := make([]any, 0, len(query)*2)
	for key := range query {
		args = append(args, key, query.Get(key))
	}
	values, opts, err := webapp.ParseURLArgs(args...)
	if err != nil {
		abortWithError(c, fromURLError(err))
		return
	}

	urlFor, ok := h.app.Global("url_for")
	if !ok {
		urlFor = webapp.URLFor
	}
	rv, err := urlFor(c.Request.Context(), endpoint, values, opts)
	if err != nil {
		abortWithError(c, fromURLError(err))
		return
	}
	c.JSON(http.StatusOK, URLResponse{Endpoint: endpoint, URL: rv})
}

// Static serves files from folder. The filename parameter comes from a
// <path:filename> rule.
func (h *Handler) Static(folder string) gin.HandlerFunc {
	fs := gin.Dir(folder, false)
	return func(c *gin.Context) {
		c.FileFromFS(c.Param("filename"), fs)
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
