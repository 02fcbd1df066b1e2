package httpapi

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/wmaslo/testgenerator/internal/bank"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

var templateFuncs = template.FuncMap{
	"formatPoints": formatPoints,
	"formatTime":   formatTime,
	"pointsPtr":    pointsPtr,
	"truncate":     truncate,
}

var defaultRenderer = mustNewRenderer(templateFS)

// renderer holds one template set per page, each combined with the layout.
type renderer struct {
	pages map[string]*template.Template
}

func mustNewRenderer(files fs.FS) *renderer {
	r, err := newRenderer(files)
	if err != nil {
		panic(err)
	}
	return r
}

func newRenderer(files fs.FS) (*renderer, error) {
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == layoutTemplate {
			continue
		}
		tmpl, err := template.New(path.Base(layoutTemplate)).Funcs(templateFuncs).ParseFS(files, layoutTemplate, name)
		if err != nil {
			return nil, err
		}
		pages[strings.TrimSuffix(path.Base(name), ".html")] = tmpl
	}
	return &renderer{pages: pages}, nil
}

// page is the data handed to every template. Handlers fill what the page uses.
type page struct {
	Title     string
	Message   string
	Action    string
	Values    url.Values
	Errors    map[string]string
	Topics    []bank.Topic
	Topic     bank.Topic
	Questions []bank.Question
	Catalog   []bank.CatalogEntry
	Tests     []bank.Test
	Test      bank.Test
	Choices   []bank.QuestionChoice
	Preview   bank.Preview
}

func (a *API) render(w http.ResponseWriter, r *http.Request, statusCode int, name string, data page) {
	tmpl, ok := a.pages.pages[name]
	if !ok {
		a.log.Error().Str("template", name).Str("request_id", requestID(r)).Msg("unknown template")
		http.Error(w, "Anfrage fehlgeschlagen", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		a.log.Error().Err(err).Str("template", name).Str("request_id", requestID(r)).Msg("render template")
		http.Error(w, "Anfrage fehlgeschlagen", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = buf.WriteTo(w)
}

func (a *API) renderError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	a.render(w, r, statusCode, "error", page{Title: http.StatusText(statusCode), Message: message})
}

// formatPoints prints 3 as "3" and 1.5 as "1.5".
func formatPoints(points float64) string {
	return strconv.FormatFloat(points, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02.01.2006 15:04")
}

func pointsPtr(points *float64) string {
	if points == nil {
		return ""
	}
	return formatPoints(*points)
}

func truncate(limit int, text string) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
