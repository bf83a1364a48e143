package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/shopspring/decimal"

	"invoicepro/internal/core"
	applog "invoicepro/internal/log"
	"invoicepro/internal/session"
)

// views holds one template set per page, each parsed together with the
// layout and the partials, plus a set with the partials alone.
type views struct {
	pages    map[string]*template.Template
	partials *template.Template
}

var funcs = template.FuncMap{
	"money": core.FormatMoney,
	"hours": core.FormatHours,
	"percent": func(d decimal.Decimal) string {
		return d.StringFixed(1) + "%"
	},
	"statusClass": func(s core.Status) string {
		return "badge badge-" + string(s)
	},
	"statusLabel": func(s core.Status) string {
		if s == "" {
			return ""
		}
		return strings.ToUpper(string(s[:1])) + string(s[1:])
	},
}

func parseViews(fsys fs.FS) (*views, error) {
	partials, err := template.New("partials").Funcs(funcs).ParseFS(fsys, "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	files, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}
	v := &views{pages: make(map[string]*template.Template, len(files)), partials: partials}
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New(name).Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/partials/*.html", f)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// pageData is what the layout sees. The session fields come from the
// request context, never from package state.
type pageData struct {
	Title  string
	Active string
	User   string
	Theme  session.Theme
	Data   any
}

func newPageData(r *http.Request, active, title string, data any) pageData {
	p := pageData{Title: title, Active: active, Theme: session.ThemeLight, Data: data}
	if sess, ok := session.FromContext(r.Context()); ok {
		p.User = sess.User
		p.Theme = sess.Theme
	}
	return p
}

// renderPage executes a full page into a buffer first so a template error
// never leaves a half written response.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	t, ok := s.views.pages[page]
	if !ok {
		s.renderFailure(w, r, fmt.Errorf("unknown page %q", page), page)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.renderFailure(w, r, err, page)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.views.partials.ExecuteTemplate(&buf, name, data); err != nil {
		s.renderFailure(w, r, err, name)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderFailure(w http.ResponseWriter, r *http.Request, err error, name string) {
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
		applog.FieldError, err,
		applog.FieldOperation, applog.OpRender,
		"template", name)
	InternalServerError("Something went wrong while rendering the page").Write(w)
}
