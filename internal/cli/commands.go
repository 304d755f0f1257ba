package cli

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/catalog"
	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/common"
)

// parseCategory matches arg against the known categories, ignoring case.
// Unknown names pass through unchanged.
func parseCategory(arg string) models.Category {
	arg = strings.TrimSpace(arg)
	for _, c := range models.Categories {
		if strings.EqualFold(arg, string(c)) {
			return c
		}
	}
	if arg == "" || strings.EqualFold(arg, "all") {
		return models.CategoryAll
	}
	return models.Category(arg)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, &common.ValidationError{Message: fmt.Sprintf("%q is not a book id", arg)}
	}
	return id, nil
}

func (a *App) Category(ctx context.Context, arg string) error {
	if err := a.browser.SetCategory(ctx, parseCategory(arg)); err != nil {
		a.printErr(err, "Could not load the catalog")
	}
	a.printView(a.browser.View())
	return nil
}

// Search applies term after the debounce and prints the resulting page.
func (a *App) Search(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	a.browser.SetSearch(term)
	v, err := a.awaitView(ctx, func(v catalog.View) bool {
		return v.Search == term && !a.browser.Pending()
	})
	if err != nil {
		a.browser.Flush()
		v = a.browser.View()
	}
	a.printView(v)
	return nil
}

func (a *App) Sort(ctx context.Context, key string) error {
	a.browser.SetSort(catalog.ParseSort(key))
	a.printView(a.browser.View())
	return nil
}

func (a *App) Page(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		colError.Fprintln(a.out, "Usage: page <n>")
		return err
	}
	a.browser.SetPage(n)
	a.printView(a.browser.View())
	return nil
}

func (a *App) Next(ctx context.Context) error {
	a.browser.NextPage()
	a.printView(a.browser.View())
	return nil
}

func (a *App) Prev(ctx context.Context) error {
	a.browser.PrevPage()
	a.printView(a.browser.View())
	return nil
}

func (a *App) Show(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		a.printErr(err, "Usage: show <id>")
		return err
	}
	b, err := a.client.GetBook(a.session.Authorize(ctx), id)
	if err != nil {
		a.printErr(err, "Could not load the book")
		return err
	}

	fav := false
	if st, err := a.session.Current(ctx); err == nil {
		fav = st.User.HasFavourite(b.ID)
	}
	a.printBook(*b, fav)
	return nil
}

func (a *App) News(ctx context.Context, category string) error {
	items, err := a.client.ListNews(ctx, "")
	if err != nil {
		a.printErr(err, "Could not load news")
		items = nil
	}
	items = catalog.FilterNews(items, category)
	if len(items) == 0 {
		colWarning.Fprintln(a.out, "No news found.")
		return err
	}
	for _, n := range items {
		colTitle.Fprintf(a.out, "[%d] %s\n", n.ID, n.Title)
		colInfo.Fprintf(a.out, "    %s · %s\n", n.Date, n.Category)
	}
	return nil
}

// Login prompts for credentials.
func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	pw, err := GetPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	return a.LoginWith(ctx, username, string(pw))
}

func (a *App) LoginWith(ctx context.Context, username, password string) error {
	u, err := a.session.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			colError.Fprintln(a.out, "Wrong username or password.")
			return err
		}
		a.printErr(err, "Login failed")
		return err
	}
	colSuccess.Fprintf(a.out, "Welcome, %s!\n", u.DisplayName())
	return nil
}

// SSO prints the HEMIS sign-in link; the code it yields completes the
// login with Callback.
func (a *App) SSO(ctx context.Context, kind string) error {
	u, err := a.session.SSOAuthURL(ctx, kind)
	if err != nil {
		a.printErr(err, "HEMIS sign-in is unavailable")
		return err
	}
	colInfo.Fprintln(a.out, "Open this link in a browser and sign in:")
	fmt.Fprintln(a.out, u)
	colInfo.Fprintln(a.out, "Then run: callback <code> [state]")
	return nil
}

func (a *App) Callback(ctx context.Context, code, state string) error {
	u, err := a.session.CompleteSSO(ctx, code, state)
	if err != nil {
		a.printErr(err, "HEMIS sign-in failed")
		return err
	}
	colSuccess.Fprintf(a.out, "Welcome, %s!\n", u.DisplayName())
	return nil
}

func (a *App) Favourite(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		a.printErr(err, "Usage: fav <id>")
		return err
	}
	b, err := a.client.GetBook(a.session.Authorize(ctx), id)
	if err != nil {
		a.printErr(err, "Could not load the book")
		return err
	}

	added, err := a.session.ToggleFavorite(ctx, *b)
	if err != nil {
		a.printErr(err, "Could not update favourites")
		return err
	}
	if added {
		colSuccess.Fprintf(a.out, "Added %q to favourites.\n", b.Title)
	} else {
		colSuccess.Fprintf(a.out, "Removed %q from favourites.\n", b.Title)
	}
	return nil
}

// Profile refreshes the stored profile, falling back to the stored copy
// when the service is down.
func (a *App) Profile(ctx context.Context) error {
	u, err := a.session.Refresh(ctx)
	if err != nil {
		if !errors.Is(err, common.ErrUnavailable) {
			a.printErr(err, "Could not load the profile")
			return err
		}
		st, cerr := a.session.Current(ctx)
		if cerr != nil {
			a.printErr(cerr, "Could not load the profile")
			return cerr
		}
		colWarning.Fprintln(a.out, "Offline: showing saved profile.")
		u = &st.User
	}
	a.printProfile(*u)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		a.printErr(err, "Logout failed")
		return err
	}
	colSuccess.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) printView(v catalog.View) {
	header := fmt.Sprintf("%s | sort: %s", v.Category, v.Sort)
	if v.Search != "" {
		header += fmt.Sprintf(" | search: %q", v.Search)
	}
	colInfo.Fprintln(a.out, header)

	if v.NotFound() {
		colWarning.Fprintln(a.out, "No books found.")
		return
	}
	for _, b := range v.Items {
		colTitle.Fprintf(a.out, "[%d] %s", b.ID, b.Title)
		colAuthor.Fprintf(a.out, " by %s", b.Author)
		if y := b.Year(); y > 0 {
			fmt.Fprintf(a.out, " (%d)", y)
		}
		fmt.Fprintln(a.out)
	}
	colInfo.Fprintf(a.out, "page %d/%d, %d books\n", v.Page.Page, v.TotalPages, v.TotalItems)
}

func (a *App) printBook(b models.Book, favourite bool) {
	colTitle.Fprintln(a.out, b.Title)
	colAuthor.Fprintln(a.out, b.Author)
	fmt.Fprintf(a.out, "Category: %s\n", b.Category)
	if b.ResourceType != "" {
		fmt.Fprintf(a.out, "Type: %s\n", b.ResourceType)
	}
	if b.PageCount > 0 {
		fmt.Fprintf(a.out, "Pages: %d\n", b.PageCount)
	}
	if b.PublishedDate != "" {
		fmt.Fprintf(a.out, "Published: %s\n", b.PublishedDate)
	}
	if subj := b.SubjectList(); len(subj) > 0 {
		fmt.Fprintf(a.out, "Subjects: %s\n", strings.Join(subj, ", "))
	}
	if d := strings.TrimSpace(html.UnescapeString(a.text.Sanitize(b.Description))); d != "" {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, d)
	}
	if b.File != "" {
		fmt.Fprintf(a.out, "File: %s\n", b.File)
	}
	if favourite {
		colSuccess.Fprintln(a.out, "★ in your favourites")
	}
}

func (a *App) printProfile(u models.User) {
	colTitle.Fprintln(a.out, u.DisplayName())
	fmt.Fprintf(a.out, "Username: %s\n", u.Username)
	if u.Email != "" {
		fmt.Fprintf(a.out, "Email: %s\n", u.Email)
	}
	if u.UserType != "" {
		fmt.Fprintf(a.out, "Account: %s\n", u.UserType)
	}
	if len(u.Favourites) == 0 {
		fmt.Fprintln(a.out, "No favourite books yet.")
		return
	}
	fmt.Fprintln(a.out, "Favourites:")
	for _, f := range u.Favourites {
		fmt.Fprintf(a.out, "  [%d] %s by %s\n", f.ID, f.Title, f.Author)
	}
}
