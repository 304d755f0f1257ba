package api

import (
	"context"

	"github.com/dmitrijs2005/elibrary/internal/client/models"
)

type Client interface {
	ListBooks(ctx context.Context, category models.Category) ([]models.Book, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	PopularBooks(ctx context.Context) ([]models.Book, error)
	CreateBook(ctx context.Context, in models.BookInput) (*models.Book, error)
	UpdateBook(ctx context.Context, id int64, in models.BookInput) (*models.Book, error)
	DeleteBook(ctx context.Context, id int64) error

	LibraryStats(ctx context.Context) (*models.LibraryStats, error)
	AdminStats(ctx context.Context) (*models.AdminStats, error)

	ListNews(ctx context.Context, search string) ([]models.NewsItem, error)
	GetNews(ctx context.Context, id int64) (*models.NewsItem, error)
	CreateNews(ctx context.Context, in models.NewsInput) (*models.NewsItem, error)
	UpdateNews(ctx context.Context, id int64, in models.NewsInput) (*models.NewsItem, error)
	DeleteNews(ctx context.Context, id int64) error

	Login(ctx context.Context, username, password string) (*models.AuthResult, error)
	HemisAuthURL(ctx context.Context, userType string) (string, error)
	HemisCallback(ctx context.Context, code, state string) (*models.AuthResult, error)
	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	ToggleFavorite(ctx context.Context, bookID int64) (*models.FavouriteStatus, error)
	ListUsers(ctx context.Context, search string) ([]models.User, error)

	// MediaURL resolves a media reference returned by the service.
	MediaURL(ref string) string
}

type ctxKey int

const (
	tokenKey ctxKey = iota
	languageKey
)

// WithToken attaches the session token used for the Authorization header.
// An empty token leaves the request anonymous.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the token attached by WithToken.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// WithLanguage sets the Accept-Language sent with news requests.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey, lang)
}

func languageFromContext(ctx context.Context) string {
	l, _ := ctx.Value(languageKey).(string)
	return l
}
