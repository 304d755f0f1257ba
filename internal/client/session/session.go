// Package session keeps the signed-in user and their token in local storage
// and runs the account operations that change them: password and HEMIS SSO
// login, logout, profile refresh and the optimistic favourite toggle.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/client/api"
	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/client/storage"
	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/logging"
)

// State is what a session persists: the user profile and the bearer token.
type State struct {
	User  models.User
	Token string
}

// Service defines the session operations.
//
// Every call that reaches the remote service with a token clears the stored
// session when the service answers 401.
type Service interface {
	Login(ctx context.Context, username, password string) (*models.User, error)
	SSOAuthURL(ctx context.Context, userType string) (string, error)
	CompleteSSO(ctx context.Context, code, state string) (*models.User, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (*models.User, error)
	ToggleFavorite(ctx context.Context, book models.Book) (bool, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	Current(ctx context.Context) (*State, error)
	// Authorize returns ctx carrying the stored token, or ctx unchanged when
	// there is no session.
	Authorize(ctx context.Context) context.Context
}

type service struct {
	client api.Client
	kv     storage.KV
	log    logging.Logger
}

func New(client api.Client, kv storage.KV, log logging.Logger) Service {
	if log == nil {
		log = logging.Discard()
	}
	return &service{client: client, kv: kv, log: log}
}

func (s *service) Current(ctx context.Context) (*State, error) {
	token, err := s.kv.Get(ctx, common.StorageKeyToken)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	raw, err := s.kv.Get(ctx, common.StorageKeyUser)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if len(token) == 0 || len(raw) == 0 {
		return nil, common.ErrNoSession
	}

	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		s.log.Warn(ctx, "dropping unreadable stored user", "error", err)
		_ = s.clear(ctx)
		return nil, common.ErrNoSession
	}
	return &State{User: u, Token: string(token)}, nil
}

func (s *service) Authorize(ctx context.Context) context.Context {
	token, err := s.kv.Get(ctx, common.StorageKeyToken)
	if err != nil || len(token) == 0 {
		return ctx
	}
	return api.WithToken(ctx, string(token))
}

func (s *service) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, &common.ValidationError{Message: "username and password are required"}
	}

	res, err := s.client.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.save(ctx, res.User, res.Token); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "signed in", "user_id", res.User.ID, "method", "password")
	return &res.User, nil
}

// SSOAuthURL returns the HEMIS authorization URL. "staff" and "employee"
// select the staff portal; anything else the student portal.
func (s *service) SSOAuthURL(ctx context.Context, userType string) (string, error) {
	kind := "student"
	switch strings.ToLower(strings.TrimSpace(userType)) {
	case "staff", "employee":
		kind = "staff"
	}

	u, err := s.client.HemisAuthURL(ctx, kind)
	if err != nil {
		return "", fmt.Errorf("hemis auth url: %w", err)
	}
	return u, nil
}

func (s *service) CompleteSSO(ctx context.Context, code, state string) (*models.User, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &common.ValidationError{Message: "Code is required"}
	}

	res, err := s.client.HemisCallback(ctx, code, state)
	if err != nil {
		return nil, fmt.Errorf("hemis callback: %w", err)
	}
	if err := s.save(ctx, res.User, res.Token); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "signed in", "user_id", res.User.ID, "method", "hemis")
	return &res.User, nil
}

func (s *service) Logout(ctx context.Context) error {
	if err := s.clear(ctx); err != nil {
		return err
	}
	s.log.Info(ctx, "signed out")
	return nil
}

func (s *service) Refresh(ctx context.Context) (*models.User, error) {
	st, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.client.Profile(api.WithToken(ctx, st.Token))
	if err != nil {
		return nil, s.remoteFailure(ctx, "refresh profile", err)
	}
	if err := s.saveUser(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

// ToggleFavorite flips book in the stored favourites first, then asks the
// service. A failed call puts the previous list back. The result reports
// whether the book is a favourite now.
func (s *service) ToggleFavorite(ctx context.Context, book models.Book) (bool, error) {
	st, err := s.Current(ctx)
	if errors.Is(err, common.ErrNoSession) {
		return false, common.ErrUnauthorized
	}
	if err != nil {
		return false, err
	}

	previous := st.User.Favourites
	optimistic := st.User
	var added bool
	optimistic.Favourites, added = st.User.ToggleFavourite(book)
	if err := s.saveUser(ctx, optimistic); err != nil {
		return false, err
	}

	res, err := s.client.ToggleFavorite(api.WithToken(ctx, st.Token), book.ID)
	if err != nil {
		if !errors.Is(err, common.ErrUnauthorized) {
			reverted := optimistic
			reverted.Favourites = previous
			if rerr := s.saveUser(ctx, reverted); rerr != nil {
				s.log.Error(ctx, "restore favourites failed", "book_id", book.ID, "error", rerr)
			}
		}
		return st.User.HasFavourite(book.ID), s.remoteFailure(ctx, "toggle favourite", err)
	}

	if res.Added() != added {
		// the service had a different view; follow it
		s.log.Warn(ctx, "favourite state diverged", "book_id", book.ID, "status", res.Status)
		settled := optimistic
		settled.Favourites, added = optimistic.ToggleFavourite(book)
		if err := s.saveUser(ctx, settled); err != nil {
			return added, err
		}
	}
	return added, nil
}

func (s *service) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	st, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.client.UpdateProfile(api.WithToken(ctx, st.Token), upd)
	if err != nil {
		return nil, s.remoteFailure(ctx, "update profile", err)
	}
	if err := s.saveUser(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return &common.ValidationError{Message: "old and new password are required"}
	}

	st, err := s.Current(ctx)
	if err != nil {
		return err
	}
	if err := s.client.ChangePassword(api.WithToken(ctx, st.Token), oldPassword, newPassword); err != nil {
		return s.remoteFailure(ctx, "change password", err)
	}
	return nil
}

// remoteFailure clears the session on 401 and wraps err.
func (s *service) remoteFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrUnauthorized) {
		s.log.Info(ctx, "token rejected, clearing session", "op", op)
		if cerr := s.clear(ctx); cerr != nil {
			s.log.Error(ctx, "clear session failed", "error", cerr)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *service) save(ctx context.Context, u models.User, token string) error {
	if token == "" {
		return fmt.Errorf("save session: empty token")
	}
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	err = s.kv.SetMany(ctx, map[string][]byte{
		common.StorageKeyUser:  b,
		common.StorageKeyToken: []byte(token),
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *service) saveUser(ctx context.Context, u models.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.kv.Set(ctx, common.StorageKeyUser, b); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *service) clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, common.StorageKeyUser, common.StorageKeyToken); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
