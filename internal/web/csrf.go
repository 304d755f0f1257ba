package web

import (
	"net/http"

	"github.com/dmitrijs2005/elibrary/internal/cryptox"
)

const (
	csrfFormField = "csrf_token"
	csrfHeader    = "X-CSRF-Token"
)

// csrfToken is bound to the browser session: HMAC(csrf key, session id).
func csrfToken(key []byte, sid string) string {
	return cryptox.MAC(key, sid)
}

func validCSRF(key []byte, sid, got string) bool {
	return sid != "" && cryptox.VerifyMAC(key, sid, got)
}

// csrfProtect rejects state-changing requests whose token does not match
// the browser session.
func (s *Server) csrfProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		got := r.Header.Get(csrfHeader)
		if got == "" {
			got = r.FormValue(csrfFormField)
		}
		if !validCSRF(s.keys.csrf, sessionID(r.Context()), got) {
			s.log.Warn(r.Context(), "csrf check failed", "path", r.URL.Path)
			s.renderError(w, r, http.StatusForbidden, "The form has expired. Reload the page and try again.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
