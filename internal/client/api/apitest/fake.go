// Package apitest provides an in-memory api.Client for tests.
package apitest

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/elibrary/internal/client/api"
	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/common"
)

var _ api.Client = (*Fake)(nil)

// Fake serves canned data. Each *Err field, when set, is returned by the
// matching call. Last* fields capture arguments; Calls counts calls per
// method name.
type Fake struct {
	mu sync.Mutex

	Books   []models.Book
	Popular []models.Book
	News    []models.NewsItem
	Users   []models.User
	Stats   models.LibraryStats
	Admin   models.AdminStats

	AuthResult    models.AuthResult
	AuthURL       string
	ProfileUser   models.User
	FavoriteState string // "added"/"removed"; empty flips per call

	ListBooksErr, GetBookErr, PopularErr, SaveBookErr, DeleteBookErr error
	StatsErr, AdminStatsErr                                          error
	ListNewsErr, GetNewsErr, SaveNewsErr, DeleteNewsErr              error
	LoginErr, AuthURLErr, CallbackErr                                error
	ProfileErr, UpdateProfileErr, ChangePasswordErr                  error
	ToggleErr, ListUsersErr                                          error

	// ListBooksHook runs inside ListBooks before it answers. Tests use it to
	// hold a response back.
	ListBooksHook func(ctx context.Context, category models.Category)

	LastToken      string
	LastCategory   models.Category
	LastBookInput  models.BookInput
	LastNewsInput  models.NewsInput
	LastUsername   string
	LastPassword   string
	LastCode       string
	LastState      string
	LastUserType   string
	LastToggleID   int64
	LastDeletedID  int64
	LastSearch     string
	LastProfileUpd models.ProfileUpdate

	Calls map[string]int

	favourites map[int64]bool
}

func (f *Fake) record(ctx context.Context, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Calls == nil {
		f.Calls = map[string]int{}
	}
	f.Calls[name]++
	f.LastToken = api.TokenFromContext(ctx)
}

// CallCount returns how many times method was called.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

func (f *Fake) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LastToken
}

func (f *Fake) ListBooks(ctx context.Context, category models.Category) ([]models.Book, error) {
	f.record(ctx, "ListBooks")
	if f.ListBooksHook != nil {
		f.ListBooksHook(ctx, category)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastCategory = category
	if f.ListBooksErr != nil {
		return nil, f.ListBooksErr
	}

	out := make([]models.Book, 0, len(f.Books))
	for _, b := range f.Books {
		if category.IsAll() || strings.EqualFold(string(b.Category), string(category)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *Fake) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	f.record(ctx, "GetBook")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetBookErr != nil {
		return nil, f.GetBookErr
	}
	for _, b := range f.Books {
		if b.ID == id {
			b := b
			return &b, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *Fake) PopularBooks(ctx context.Context) ([]models.Book, error) {
	f.record(ctx, "PopularBooks")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Popular, f.PopularErr
}

func (f *Fake) CreateBook(ctx context.Context, in models.BookInput) (*models.Book, error) {
	f.record(ctx, "CreateBook")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastBookInput = in
	if f.SaveBookErr != nil {
		return nil, f.SaveBookErr
	}
	b := bookFromInput(int64(len(f.Books)+1000), in)
	f.Books = append(f.Books, b)
	return &b, nil
}

func (f *Fake) UpdateBook(ctx context.Context, id int64, in models.BookInput) (*models.Book, error) {
	f.record(ctx, "UpdateBook")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastBookInput = in
	if f.SaveBookErr != nil {
		return nil, f.SaveBookErr
	}
	for i := range f.Books {
		if f.Books[i].ID == id {
			f.Books[i] = bookFromInput(id, in)
			b := f.Books[i]
			return &b, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *Fake) DeleteBook(ctx context.Context, id int64) error {
	f.record(ctx, "DeleteBook")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastDeletedID = id
	return f.DeleteBookErr
}

func (f *Fake) LibraryStats(ctx context.Context) (*models.LibraryStats, error) {
	f.record(ctx, "LibraryStats")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StatsErr != nil {
		return nil, f.StatsErr
	}
	s := f.Stats
	return &s, nil
}

func (f *Fake) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	f.record(ctx, "AdminStats")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AdminStatsErr != nil {
		return nil, f.AdminStatsErr
	}
	s := f.Admin
	return &s, nil
}

func (f *Fake) ListNews(ctx context.Context, search string) ([]models.NewsItem, error) {
	f.record(ctx, "ListNews")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastSearch = search
	if f.ListNewsErr != nil {
		return nil, f.ListNewsErr
	}
	out := make([]models.NewsItem, 0, len(f.News))
	for _, n := range f.News {
		if search == "" || strings.Contains(strings.ToLower(n.Title), strings.ToLower(search)) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *Fake) GetNews(ctx context.Context, id int64) (*models.NewsItem, error) {
	f.record(ctx, "GetNews")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetNewsErr != nil {
		return nil, f.GetNewsErr
	}
	for _, n := range f.News {
		if n.ID == id {
			n := n
			return &n, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *Fake) CreateNews(ctx context.Context, in models.NewsInput) (*models.NewsItem, error) {
	f.record(ctx, "CreateNews")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastNewsInput = in
	if f.SaveNewsErr != nil {
		return nil, f.SaveNewsErr
	}
	n := newsFromInput(int64(len(f.News)+1000), in)
	f.News = append(f.News, n)
	return &n, nil
}

func (f *Fake) UpdateNews(ctx context.Context, id int64, in models.NewsInput) (*models.NewsItem, error) {
	f.record(ctx, "UpdateNews")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastNewsInput = in
	if f.SaveNewsErr != nil {
		return nil, f.SaveNewsErr
	}
	n := newsFromInput(id, in)
	return &n, nil
}

func (f *Fake) DeleteNews(ctx context.Context, id int64) error {
	f.record(ctx, "DeleteNews")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastDeletedID = id
	return f.DeleteNewsErr
}

func (f *Fake) Login(ctx context.Context, username, password string) (*models.AuthResult, error) {
	f.record(ctx, "Login")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastUsername, f.LastPassword = username, password
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	res := f.AuthResult
	return &res, nil
}

func (f *Fake) HemisAuthURL(ctx context.Context, userType string) (string, error) {
	f.record(ctx, "HemisAuthURL")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastUserType = userType
	return f.AuthURL, f.AuthURLErr
}

func (f *Fake) HemisCallback(ctx context.Context, code, state string) (*models.AuthResult, error) {
	f.record(ctx, "HemisCallback")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastCode, f.LastState = code, state
	if f.CallbackErr != nil {
		return nil, f.CallbackErr
	}
	res := f.AuthResult
	return &res, nil
}

func (f *Fake) Profile(ctx context.Context) (*models.User, error) {
	f.record(ctx, "Profile")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ProfileErr != nil {
		return nil, f.ProfileErr
	}
	u := f.ProfileUser
	return &u, nil
}

func (f *Fake) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	f.record(ctx, "UpdateProfile")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastProfileUpd = upd
	if f.UpdateProfileErr != nil {
		return nil, f.UpdateProfileErr
	}
	u := f.ProfileUser
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	f.ProfileUser = u
	return &u, nil
}

func (f *Fake) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	f.record(ctx, "ChangePassword")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastPassword = newPassword
	return f.ChangePasswordErr
}

// ToggleFavorite answers FavoriteState when set, otherwise flips its own
// per-book state starting from "not a favourite".
func (f *Fake) ToggleFavorite(ctx context.Context, bookID int64) (*models.FavouriteStatus, error) {
	f.record(ctx, "ToggleFavorite")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastToggleID = bookID
	if f.ToggleErr != nil {
		return nil, f.ToggleErr
	}
	status := f.FavoriteState
	if status == "" {
		if f.favourites == nil {
			f.favourites = map[int64]bool{}
		}
		f.favourites[bookID] = !f.favourites[bookID]
		status = "removed"
		if f.favourites[bookID] {
			status = "added"
		}
	}
	return &models.FavouriteStatus{Status: status}, nil
}

func (f *Fake) ListUsers(ctx context.Context, search string) ([]models.User, error) {
	f.record(ctx, "ListUsers")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastSearch = search
	return f.Users, f.ListUsersErr
}

func (f *Fake) MediaURL(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return "https://library.test/" + strings.TrimLeft(ref, "/")
}

func bookFromInput(id int64, in models.BookInput) models.Book {
	b := models.Book{
		ID: id, Title: in.Title, Author: in.Author, Description: in.Description,
		Category: in.Category, ResourceType: in.ResourceType, PageCount: in.PageCount,
		PublishedDate: in.PublishedDate, Subjects: in.Subjects,
	}
	if in.File != nil {
		b.File = "https://library.test/media/books/files/" + in.File.Filename
	}
	return b
}

func newsFromInput(id int64, in models.NewsInput) models.NewsItem {
	return models.NewsItem{
		ID: id, Title: in.Title, Description: in.Description, Date: in.Date,
		Category: in.Category, Author: in.Author,
	}
}
