package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/common"
)

const (
	loginPath          = "/api/accounts/login/"
	hemisLoginPath     = "/api/accounts/hemis/login/"
	hemisCallbackPath  = "/api/accounts/hemis/callback/"
	profilePath        = "/api/accounts/profile/"
	changePasswordPath = "/api/accounts/change-password/"
	favoritesPath      = "/api/accounts/favorites/"
	usersPath          = "/api/accounts/users/"
)

var errEmptyAuthURL = errors.New("empty auth_url in response")

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*models.AuthResult, error) {
	in := map[string]string{"username": username, "password": password}

	var out models.AuthResult
	if err := c.sendJSON(ctx, http.MethodPost, loginPath, in, &out); err != nil {
		return nil, err
	}
	c.resolveUser(&out.User)
	return &out, nil
}

// HemisAuthURL asks the service for the HEMIS authorization URL. userType is
// "student" (default) or "staff".
func (c *HTTPClient) HemisAuthURL(ctx context.Context, userType string) (string, error) {
	if userType == "" {
		userType = "student"
	}

	var out struct {
		AuthURL string `json:"auth_url"`
	}
	if err := c.getJSON(ctx, hemisLoginPath, url.Values{"user_type": {userType}}, &out); err != nil {
		return "", err
	}
	if out.AuthURL == "" {
		return "", errEmptyAuthURL
	}
	return out.AuthURL, nil
}

// HemisCallback exchanges the provider's authorization code for a session.
// A missing code fails without a network call.
func (c *HTTPClient) HemisCallback(ctx context.Context, code, state string) (*models.AuthResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &common.ValidationError{Message: "Code is required"}
	}

	in := map[string]string{"code": code}
	if state != "" {
		in["state"] = state
	}

	var out models.AuthResult
	if err := c.sendJSON(ctx, http.MethodPost, hemisCallbackPath, in, &out); err != nil {
		return nil, err
	}
	c.resolveUser(&out.User)
	return &out, nil
}

func (c *HTTPClient) Profile(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.getJSON(ctx, profilePath, nil, &u); err != nil {
		return nil, err
	}
	c.resolveUser(&u)
	return &u, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	var u models.User
	if err := c.sendJSON(ctx, http.MethodPatch, profilePath, upd, &u); err != nil {
		return nil, err
	}
	c.resolveUser(&u)
	return &u, nil
}

func (c *HTTPClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	in := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return c.sendJSON(ctx, http.MethodPost, changePasswordPath, in, nil)
}

func (c *HTTPClient) ToggleFavorite(ctx context.Context, bookID int64) (*models.FavouriteStatus, error) {
	var out models.FavouriteStatus
	if err := c.do(ctx, http.MethodPost, idPath(favoritesPath, bookID), nil, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context, search string) ([]models.User, error) {
	var q url.Values
	if s := strings.TrimSpace(search); s != "" {
		q = url.Values{"search": {s}}
	}

	var out listEnvelope[models.User]
	if err := c.getJSON(ctx, usersPath, q, &out); err != nil {
		return nil, err
	}
	for i := range out.items {
		c.resolveUser(&out.items[i])
	}
	return out.items, nil
}
