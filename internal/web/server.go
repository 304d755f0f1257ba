// Package web is the server-rendered front of the library: catalog, book
// pages, news, sign-in and the admin area, on top of the remote service.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/catalog"
	"github.com/dmitrijs2005/elibrary/internal/client/api"
	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/client/session"
	"github.com/dmitrijs2005/elibrary/internal/client/storage"
	"github.com/dmitrijs2005/elibrary/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// FileMirror serves and stores copies of book files. *mirror.Mirror
// implements it.
type FileMirror interface {
	DownloadURL(ctx context.Context, book models.Book) (string, error)
	Upload(ctx context.Context, book models.Book, body io.Reader, size int64, contentType string) error
}

type Options struct {
	SecretKey      string
	SessionTTL     time.Duration
	PageSize       int
	SearchDebounce time.Duration
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	RateRPS        float64
	RateBurst      int
	// TrustProxy keys rate limits on X-Forwarded-For/X-Real-IP instead of
	// the connection address.
	TrustProxy bool
	Language   string
	// Mirror is optional.
	Mirror FileMirror
}

type Server struct {
	client  api.Client
	repo    storage.Repository
	cache   *catalog.Cache
	mirror  FileMirror
	log     logging.Logger
	opts    Options
	keys    keys
	pages   *renderer
	policy  *bluemonday.Policy
	limiter *ipLimiter
}

func NewServer(client api.Client, repo storage.Repository, log logging.Logger, opts Options) (*Server, error) {
	if log == nil {
		log = logging.Discard()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	if opts.PageSize <= 0 {
		opts.PageSize = catalog.DefaultPageSize
	}
	if opts.SearchDebounce <= 0 {
		opts.SearchDebounce = catalog.DefaultDebounce
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = api.DefaultTimeout
	}
	if opts.RateRPS <= 0 {
		opts.RateRPS = 10
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 20
	}
	if opts.Language == "" {
		opts.Language = api.DefaultLanguage
	}

	k, err := deriveKeys(opts.SecretKey)
	if err != nil {
		return nil, err
	}

	s := &Server{
		client:  client,
		repo:    repo,
		cache:   catalog.NewCache(client, opts.CacheTTL, log.With("module", "catalog_cache")),
		mirror:  opts.Mirror,
		log:     log.With("module", "web"),
		opts:    opts,
		keys:    k,
		policy:  bluemonday.UGCPolicy(),
		limiter: newIPLimiter(opts.RateRPS, opts.RateBurst, log),
	}

	s.pages, err = newRenderer(s.templateFuncs())
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return s, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * s.opts.RequestTimeout))

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.middleware)
		r.Use(s.browserSession)
		r.Use(s.csrfProtect)

		r.Get("/", s.handleHome)

		r.Get("/books", s.handleBooks)
		r.Get("/api/catalog", s.handleCatalogJSON)
		r.Get("/books/{id}", s.handleBook)
		r.Post("/books/{id}/favorite", s.handleFavorite)
		r.With(s.requireLogin).Get("/books/{id}/download", s.handleDownload)

		r.Get("/news", s.handleNews)
		r.Get("/news/{id}", s.handleNewsItem)

		r.Get("/login", s.handleLoginForm)
		r.Post("/login", s.handleLogin)
		r.Get("/login/sso", s.handleSSO)
		r.Get("/login/callback", s.handleSSOCallback)
		r.Post("/logout", s.handleLogout)

		r.Route("/profile", func(r chi.Router) {
			r.Use(s.requireLogin)
			r.Get("/", s.handleProfile)
			r.Post("/", s.handleProfileUpdate)
			r.Post("/password", s.handleChangePassword)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/", s.handleAdminDashboard)

			r.Get("/books", s.handleAdminBooks)
			r.Get("/books/new", s.handleAdminBookNew)
			r.Post("/books", s.handleAdminBookCreate)
			r.Get("/books/{id}/edit", s.handleAdminBookEdit)
			r.Post("/books/{id}", s.handleAdminBookUpdate)
			r.Post("/books/{id}/delete", s.handleAdminBookDelete)

			r.Get("/news", s.handleAdminNews)
			r.Get("/news/new", s.handleAdminNewsNew)
			r.Post("/news", s.handleAdminNewsCreate)
			r.Get("/news/{id}/edit", s.handleAdminNewsEdit)
			r.Post("/news/{id}", s.handleAdminNewsUpdate)
			r.Post("/news/{id}/delete", s.handleAdminNewsDelete)

			r.Get("/users", s.handleAdminUsers)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "Page not found.")
	})

	return r
}

// RunBackground runs the rate limiter sweeper until ctx is done.
func (s *Server) RunBackground(ctx context.Context) {
	s.limiter.run(ctx)
}

// PurgeSessions drops stored sessions untouched for longer than the session
// TTL.
func (s *Server) PurgeSessions(ctx context.Context) (int64, error) {
	return s.repo.Purge(ctx, time.Now().Add(-s.opts.SessionTTL))
}

type ctxKey int

const sessionIDKey ctxKey = iota

func sessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey).(string)
	return sid
}

// browserSession attaches the session id from the cookie, issuing a new
// session when the cookie is missing or invalid.
func (s *Server) browserSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		if c, err := r.Cookie(sessionCookieName); err == nil {
			sid, err = sessionIDFromToken(c.Value, s.keys.cookie)
			if err != nil {
				s.log.Debug(r.Context(), "discarding session cookie", "error", err)
			}
		}

		if sid == "" {
			sid = uuid.NewString()
			tok, err := generateSessionToken(sid, s.keys.cookie, s.opts.SessionTTL)
			if err != nil {
				s.log.Error(r.Context(), "sign session cookie", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			setSessionCookie(w, r, tok, s.opts.SessionTTL)
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// session returns the account session stored under the request's browser
// session.
func (s *Server) session(r *http.Request) session.Service {
	return session.New(s.client, storage.Scope(s.repo, sessionID(r.Context())), s.log)
}

// currentUser is nil for anonymous visitors.
func (s *Server) currentUser(r *http.Request) *models.User {
	st, err := s.session(r).Current(r.Context())
	if err != nil {
		return nil
	}
	return &st.User
}

func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.currentUser(r) == nil {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := s.currentUser(r)
		switch {
		case u == nil:
			redirectToLogin(w, r)
		case !u.IsAdmin():
			s.renderError(w, r, http.StatusForbidden, "This area is for library staff only.")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}
