package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/common"
)

type loginData struct {
	Username string
	Next     string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	next := localPath(r.URL.Query().Get("next"), "/")
	if s.currentUser(r) != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", "Sign in", loginData{Next: next})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	next := localPath(r.FormValue("next"), "/")

	if _, err := s.session(r).Login(r.Context(), username, r.FormValue("password")); err != nil {
		s.log.Info(r.Context(), "login failed", "username", username, "error", err)
		status := http.StatusBadGateway
		msg := remoteMessage(err)
		if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrUnauthorized) {
			status = http.StatusUnauthorized
			msg = common.UserMessage(err, "Wrong username or password.")
		}
		s.renderFlash(w, r, status, "login.html", "Sign in", msg, loginData{Username: username, Next: next})
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// handleSSO sends the browser to the HEMIS authorization page.
func (s *Server) handleSSO(w http.ResponseWriter, r *http.Request) {
	userType := r.URL.Query().Get("type")
	if userType != "staff" {
		userType = "student"
	}

	u, err := s.session(r).SSOAuthURL(r.Context(), userType)
	if err != nil {
		s.log.Warn(r.Context(), "sso auth url", "type", userType, "error", err)
		s.renderFlash(w, r, http.StatusBadGateway, "login.html", "Sign in",
			common.UserMessage(err, "HEMIS sign-in is unavailable right now."), loginData{Next: "/"})
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	if _, err := s.session(r).CompleteSSO(r.Context(), v.Get("code"), v.Get("state")); err != nil {
		s.log.Warn(r.Context(), "sso callback", "error", err)
		s.renderFlash(w, r, http.StatusUnauthorized, "login.html", "Sign in",
			common.UserMessage(err, "HEMIS sign-in failed."), loginData{Next: "/"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.session(r).Logout(r.Context()); err != nil {
		s.log.Error(r.Context(), "logout", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type profileData struct {
	Profile models.User
	Stale   bool
}

// handleProfile refreshes the stored profile; when the service is down the
// stored copy is shown instead.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)

	u, err := sess.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) || errors.Is(err, common.ErrNoSession) {
			redirectToLogin(w, r)
			return
		}
		st, cerr := sess.Current(r.Context())
		if cerr != nil {
			redirectToLogin(w, r)
			return
		}
		s.log.Warn(r.Context(), "profile refresh failed, showing stored profile", "error", err)
		s.render(w, r, http.StatusOK, "profile.html", "Profile", profileData{Profile: st.User, Stale: true})
		return
	}
	s.render(w, r, http.StatusOK, "profile.html", "Profile", profileData{Profile: *u})
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if err := r.ParseForm(); err != nil {
		s.profileFailure(w, r, &common.ValidationError{Message: "Malformed form."})
		return
	}

	var upd models.ProfileUpdate
	for field, dst := range map[string]**string{
		"first_name": &upd.FirstName,
		"last_name":  &upd.LastName,
		"email":      &upd.Email,
	} {
		if _, ok := r.PostForm[field]; ok {
			v := strings.TrimSpace(r.PostForm.Get(field))
			*dst = &v
		}
	}

	u, err := sess.UpdateProfile(r.Context(), upd)
	if err != nil {
		s.profileFailure(w, r, err)
		return
	}
	s.renderFlash(w, r, http.StatusOK, "profile.html", "Profile", "Profile saved.", profileData{Profile: *u})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	oldPassword, newPassword := r.FormValue("old_password"), r.FormValue("new_password")
	if newPassword == "" || newPassword != r.FormValue("confirm_password") {
		s.profileFailure(w, r, &common.ValidationError{Message: "New passwords do not match."})
		return
	}

	if err := s.session(r).ChangePassword(r.Context(), oldPassword, newPassword); err != nil {
		s.profileFailure(w, r, err)
		return
	}
	st, err := s.session(r).Current(r.Context())
	if err != nil {
		redirectToLogin(w, r)
		return
	}
	s.renderFlash(w, r, http.StatusOK, "profile.html", "Profile", "Password changed.", profileData{Profile: st.User})
}

func (s *Server) profileFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, common.ErrUnauthorized) {
		redirectToLogin(w, r)
		return
	}
	st, cerr := s.session(r).Current(r.Context())
	if cerr != nil {
		redirectToLogin(w, r)
		return
	}
	s.renderFlash(w, r, remoteStatus(err), "profile.html", "Profile", remoteMessage(err), profileData{Profile: st.User})
}
