// Package web renders the portal's HTML pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/npek/portal/internal/user"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Nav holds the menu entries that depend on the signed-in user.
type Nav struct {
	SocialStudies bool
	Philosophy    bool
}

// Navigator decides which gated sections appear in the menu.
type Navigator interface {
	Nav(u *user.User) Nav
}

// View is the data every page template receives.
type View struct {
	Title string
	User  *user.User
	Nav   Nav
	Data  any
}

// Message is the data of the "blocked" page, also used for refusals.
type Message struct {
	Title string
	Text  string
}

type Renderer struct {
	pages map[string]*template.Template
	nav   Navigator
	log   *zap.Logger
}

func NewRenderer(nav Navigator, log *zap.Logger) (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{
		pages: pages,
		nav:   nav,
		log:   log.Named("web"),
	}, nil
}

var funcs = template.FuncMap{
	"roleTitle": func(u *user.User) string {
		switch {
		case u == nil:
			return ""
		case u.IsTeacher():
			return "Учитель"
		case u.IsAdmin:
			return "Администратор"
		default:
			return "Студент"
		}
	},
}

// Render writes page name with status. The signed-in user is taken from the request context.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name, title string, data any) {
	tmpl, ok := r.pages[name]
	if !ok {
		r.log.Error("unknown template", zap.String("name", name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	u := user.FromContext(req.Context())
	view := View{
		Title: title,
		User:  u,
		Data:  data,
	}
	if u != nil && r.nav != nil {
		view.Nav = r.nav.Nav(u)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", view); err != nil {
		r.log.Error("failed to render template",
			zap.String("name", name),
			zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Message renders the shared notice page.
func (r *Renderer) Message(w http.ResponseWriter, req *http.Request, status int, title, text string) {
	r.Render(w, req, status, "blocked", title, Message{Title: title, Text: text})
}
