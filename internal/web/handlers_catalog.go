package web

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/catalog"
	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/mirror"
	"golang.org/x/sync/errgroup"
)

const homeNewsCount = 3

type homeData struct {
	Stats   *models.LibraryStats
	Popular []models.Book
	News    []models.NewsItem
}

// handleHome fetches its three sections in parallel. A failing section is
// left empty without affecting the others.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	r = s.withLanguage(r)
	ctx := r.Context()

	var (
		data homeData
		g    errgroup.Group
	)
	g.Go(func() error {
		st, err := s.client.LibraryStats(ctx)
		if err != nil {
			s.log.Warn(ctx, "home: library stats", "error", err)
			return nil
		}
		data.Stats = st
		return nil
	})
	g.Go(func() error {
		books, err := s.client.PopularBooks(ctx)
		if err != nil {
			s.log.Warn(ctx, "home: popular books", "error", err)
			return nil
		}
		data.Popular = books
		return nil
	})
	g.Go(func() error {
		news, err := s.client.ListNews(ctx, "")
		if err != nil {
			s.log.Warn(ctx, "home: news", "error", err)
			return nil
		}
		data.News = news[:min(len(news), homeNewsCount)]
		return nil
	})
	_ = g.Wait()

	s.render(w, r, http.StatusOK, "home.html", "Electronic library", data)
}

type catalogData struct {
	Page       catalog.Page
	Category   models.Category
	Search     string
	Sort       catalog.SortKey
	Categories []models.Category
	SortKeys   []catalog.SortKey
	NotFound   bool
}

func (s *Server) catalogQuery(r *http.Request) catalog.Query {
	v := r.URL.Query()
	category := models.Category(strings.TrimSpace(v.Get("category")))
	if category.IsAll() {
		category = models.CategoryAll
	}
	return catalog.Query{
		Category: category,
		Search:   strings.TrimSpace(v.Get("search")),
		Sort:     catalog.ParseSort(v.Get("sort")),
		Page:     intQuery(v, "page", 1),
		PageSize: s.opts.PageSize,
	}
}

// catalogPage answers q from the category cache. A failed fetch is an
// empty "not found" page and is not retried.
func (s *Server) catalogPage(r *http.Request, q catalog.Query) (catalog.Page, bool) {
	page, err := s.cache.Query(r.Context(), q)
	if err != nil {
		s.log.Warn(r.Context(), "catalog fetch failed", "category", q.Category, "error", err)
		return catalog.Apply(nil, q), true
	}
	return page, page.Empty()
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	q := s.catalogQuery(r)
	page, notFound := s.catalogPage(r, q)

	s.render(w, r, http.StatusOK, "books.html", "Catalog", catalogData{
		Page:       page,
		Category:   q.Category,
		Search:     q.Search,
		Sort:       q.Sort,
		Categories: models.Categories,
		SortKeys:   catalog.SortKeys,
		NotFound:   notFound,
	})
}

type catalogResponse struct {
	Items      []models.Book `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
	TotalItems int           `json:"total_items"`
	Window     []int         `json:"window"`
	NotFound   bool          `json:"not_found"`
}

// handleCatalogJSON feeds the live search box.
func (s *Server) handleCatalogJSON(w http.ResponseWriter, r *http.Request) {
	q := s.catalogQuery(r)
	page, notFound := s.catalogPage(r, q)

	items := page.Items
	if items == nil {
		items = []models.Book{}
	}
	writeJSON(w, http.StatusOK, catalogResponse{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		TotalItems: page.TotalItems,
		Window:     page.Window,
		NotFound:   notFound,
	})
}

type bookData struct {
	Book        models.Book
	Description template.HTML
	Favourite   bool
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Book not found.")
		return
	}

	sess := s.session(r)
	book, err := s.client.GetBook(sess.Authorize(r.Context()), id)
	if err != nil {
		s.log.Warn(r.Context(), "get book", "id", id, "error", err)
		s.renderError(w, r, remoteStatus(err), remoteMessage(err))
		return
	}

	fav := false
	if st, err := sess.Current(r.Context()); err == nil {
		fav = st.User.HasFavourite(book.ID)
	}

	s.render(w, r, http.StatusOK, "book.html", book.Title, bookData{
		Book:        *book,
		Description: template.HTML(s.policy.Sanitize(book.Description)),
		Favourite:   fav,
	})
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Book not found.")
		return
	}

	sess := s.session(r)
	if _, err := sess.Current(r.Context()); err != nil {
		if wantsJSON(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required"})
			return
		}
		http.Redirect(w, r, "/login?next="+"/books/"+chiID(r), http.StatusSeeOther)
		return
	}

	book, err := s.client.GetBook(sess.Authorize(r.Context()), id)
	if err != nil {
		s.renderError(w, r, remoteStatus(err), remoteMessage(err))
		return
	}

	added, err := sess.ToggleFavorite(r.Context(), *book)
	if err != nil {
		s.log.Warn(r.Context(), "toggle favourite", "book_id", id, "error", err)
		if errors.Is(err, common.ErrUnauthorized) {
			redirectToLogin(w, r)
			return
		}
		if wantsJSON(r) {
			writeJSON(w, remoteStatus(err), map[string]string{"error": remoteMessage(err)})
			return
		}
		s.renderError(w, r, remoteStatus(err), remoteMessage(err))
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]bool{"favourite": added})
		return
	}
	http.Redirect(w, r, localPath(r.FormValue("next"), "/books/"+chiID(r)), http.StatusSeeOther)
}

// handleDownload sends the reader to the mirrored copy when one exists,
// otherwise to the file the service serves.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Book not found.")
		return
	}

	ctx := s.session(r).Authorize(r.Context())
	book, err := s.client.GetBook(ctx, id)
	if err != nil {
		s.renderError(w, r, remoteStatus(err), remoteMessage(err))
		return
	}
	if book.File == "" {
		s.renderError(w, r, http.StatusNotFound, "This book has no downloadable file.")
		return
	}

	if s.mirror != nil {
		u, err := s.mirror.DownloadURL(ctx, *book)
		if err == nil {
			http.Redirect(w, r, u, http.StatusFound)
			return
		}
		if !errors.Is(err, mirror.ErrNoFile) {
			s.log.Warn(ctx, "mirror presign failed, using service file", "book_id", id, "error", err)
		}
	}
	http.Redirect(w, r, s.client.MediaURL(book.File), http.StatusFound)
}

type newsData struct {
	Items      []models.NewsItem
	Category   string
	Search     string
	Categories []models.NewsCategory
	NotFound   bool
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	r = s.withLanguage(r)
	v := r.URL.Query()
	category := strings.TrimSpace(v.Get("category"))
	search := strings.TrimSpace(v.Get("search"))

	items, err := s.client.ListNews(r.Context(), search)
	if err != nil {
		s.log.Warn(r.Context(), "list news", "error", err)
		items = nil
	}
	items = catalog.FilterNews(items, category)

	s.render(w, r, http.StatusOK, "news.html", "News", newsData{
		Items:      items,
		Category:   category,
		Search:     search,
		Categories: models.NewsCategories,
		NotFound:   len(items) == 0,
	})
}

type newsItemData struct {
	Item        models.NewsItem
	Description template.HTML
}

func (s *Server) handleNewsItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "News item not found.")
		return
	}
	r = s.withLanguage(r)

	item, err := s.client.GetNews(r.Context(), id)
	if err != nil {
		s.log.Warn(r.Context(), "get news", "id", id, "error", err)
		s.renderError(w, r, remoteStatus(err), remoteMessage(err))
		return
	}
	s.render(w, r, http.StatusOK, "news_item.html", item.Title, newsItemData{
		Item:        *item,
		Description: template.HTML(s.policy.Sanitize(item.Description)),
	})
}
