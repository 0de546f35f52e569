// internal/web/render.go
//
// Template rendering.
//
// Context
// -------
// Templates and static assets are embedded in the binary.  Every *.html
// file under templates/ is parsed once into a single set, so pages share
// the {{ define }} blocks in layout.html.  Render picks the concrete
// template the same way for every page: "<name>.html" when the set has a
// file by that name, otherwise the "<name>" define.
//
// Notes
// -----
//   - Render buffers output so a template error never leaves a half-written
//     page.
//   - UA helpers read *requestinfo.RequestInfo from the page data.

package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/yanizio/shortly/internal/logger"
	"github.com/yanizio/shortly/internal/requestinfo"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.New("").Funcs(funcMap()).ParseFS(templateFS, "templates/*.html"))

// render executes name into w with status 200, or logs and sends a 500.
func render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, execName(templates, name), data); err != nil {
		logger.FromContext(r.Context()).Errorw("render failed", "template", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// execName prefers a file-based template over a define of the same name.
func execName(t *template.Template, name string) string {
	if t.Lookup(name+".html") != nil {
		return name + ".html"
	}
	return name
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"dict":    dict,
		"ms":      func(d time.Duration) int64 { return d.Milliseconds() },
		"date":    func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"lower":   strings.ToLower,
		"device":  func(i *requestinfo.RequestInfo) string { return uaField(i, "device") },
		"browser": func(i *requestinfo.RequestInfo) string { return uaField(i, "browser") },
		"isBot":   func(i *requestinfo.RequestInfo) bool { return i != nil && i.UA.IsBot },
		"imgsrc":  imgsrc,
	}
}

// imgsrc passes http(s) URLs and data:image URIs to an <img src>.
// html/template would otherwise rewrite data: URIs to #ZgotmplZ.
func imgsrc(s string) template.URL {
	switch {
	case strings.HasPrefix(s, "data:image/"),
		strings.HasPrefix(s, "https://"),
		strings.HasPrefix(s, "http://"):
		return template.URL(s)
	}
	return ""
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

func uaField(i *requestinfo.RequestInfo, field string) string {
	if i == nil {
		return ""
	}
	switch field {
	case "device":
		return i.UA.Device
	case "browser":
		return i.UA.Browser
	}
	return ""
}
