package models

import (
	"strings"
	"time"
)

type UserType string

const (
	UserTypeStudent  UserType = "student"
	UserTypeEmployee UserType = "employee"
)

// FavouriteRef is the short book reference embedded in a user profile.
type FavouriteRef struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	CoverURL string `json:"coverUrl,omitempty"`
	Author   string `json:"author"`
}

type User struct {
	ID          int64          `json:"id"`
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	UserType    UserType       `json:"user_type"`
	Avatar      string         `json:"avatar,omitempty"`
	Favourites  []FavouriteRef `json:"favourites"`
	DateJoined  time.Time      `json:"date_joined"`
	IsStaff     bool           `json:"is_staff"`
	IsSuperuser bool           `json:"is_superuser"`
}

// DisplayName prefers "First Last" and falls back to the username.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsAdmin reports whether the user may open the admin console.
func (u User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

func (u User) HasFavourite(bookID int64) bool {
	for _, f := range u.Favourites {
		if f.ID == bookID {
			return true
		}
	}
	return false
}

// ToggleFavourite returns a copy of the favourites list with book added or
// removed, and whether it was added.
func (u User) ToggleFavourite(b Book) ([]FavouriteRef, bool) {
	out := make([]FavouriteRef, 0, len(u.Favourites)+1)
	removed := false
	for _, f := range u.Favourites {
		if f.ID == b.ID {
			removed = true
			continue
		}
		out = append(out, f)
	}
	if removed {
		return out, false
	}
	return append(out, FavouriteRef{ID: b.ID, Title: b.Title, CoverURL: b.CoverImage, Author: b.Author}), true
}

// AuthResult is the payload of the login and SSO callback endpoints.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// FavouriteStatus is the toggle endpoint's answer: Status is "added" or "removed".
type FavouriteStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s FavouriteStatus) Added() bool { return s.Status == "added" }

type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}
