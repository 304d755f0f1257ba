package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/client/api"
	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/go-chi/chi/v5"
)

// remoteStatus maps a remote failure onto the status of the page we show.
func remoteStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func remoteMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return "Nothing was found."
	case errors.Is(err, common.ErrForbidden):
		return "You do not have access to this."
	case errors.Is(err, common.ErrUnauthorized):
		return "Please sign in again."
	case errors.Is(err, common.ErrValidation):
		return common.UserMessage(err, "The request was rejected.")
	default:
		return "The library service is unavailable. Try again later."
	}
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func chiID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func intQuery(v url.Values, key string, def int) int {
	n, err := strconv.Atoi(v.Get(key))
	if err != nil {
		return def
	}
	return n
}

// localPath keeps redirects on this site.
func localPath(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// withLanguage picks uz, ru or en from Accept-Language for news requests.
func (s *Server) withLanguage(r *http.Request) *http.Request {
	lang := s.opts.Language
	for _, part := range strings.Split(r.Header.Get("Accept-Language"), ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(strings.ToLower(tag), "-")
		if base == "uz" || base == "ru" || base == "en" {
			lang = base
			break
		}
	}
	return r.WithContext(api.WithLanguage(r.Context(), lang))
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, s)
}
