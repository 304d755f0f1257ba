package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/catalog"
	"github.com/dmitrijs2005/elibrary/internal/client/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/base.html"

// renderer holds one template set per page, each parsed together with the
// base layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer(funcs template.FuncMap) (*renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &renderer{pages: make(map[string]*template.Template)}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		t, err := template.New("").Funcs(funcs).ParseFS(templateFS, layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		r.pages[f[len("templates/"):]] = t
	}
	return r, nil
}

// pageData is what every page template receives.
type pageData struct {
	Title string
	User  *models.User
	CSRF  string
	Flash string
	Data  any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	s.renderFlash(w, r, status, page, title, "", data)
}

func (s *Server) renderFlash(w http.ResponseWriter, r *http.Request, status int, page, title, flash string, data any) {
	t, ok := s.pages.pages[page]
	if !ok {
		s.log.Error(r.Context(), "unknown page template", "page", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	pd := pageData{
		Title: title,
		User:  s.currentUser(r),
		CSRF:  csrfToken(s.keys.csrf, sessionID(r.Context())),
		Flash: flash,
		Data:  data,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", pd); err != nil {
		s.log.Error(r.Context(), "render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, "error.html", http.StatusText(status), struct {
		Status  int
		Message string
	}{status, msg})
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"media": s.client.MediaURL,
		"catalogURL": func(category models.Category, search string, sort catalog.SortKey, page int) string {
			return catalogURL(category, search, sort, page)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02.01.2006")
		},
		"hasFavourite": func(u *models.User, id int64) bool {
			return u != nil && u.HasFavourite(id)
		},
		"debounceMillis": func() int64 {
			return s.opts.SearchDebounce.Milliseconds()
		},
	}
}

func catalogURL(category models.Category, search string, sort catalog.SortKey, page int) string {
	v := url.Values{}
	if category != "" && !category.IsAll() {
		v.Set("category", string(category))
	}
	if search != "" {
		v.Set("search", search)
	}
	if sort != "" && sort != catalog.SortTitle {
		v.Set("sort", string(sort))
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return "/books"
	}
	return "/books?" + v.Encode()
}
