package web

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/catalog"
	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/common"
)

const maxUploadMemory = 32 << 20

// authorized returns the request context carrying the signed-in admin's token.
func (s *Server) authorized(r *http.Request) context.Context {
	return s.session(r).Authorize(r.Context())
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.client.AdminStats(s.authorized(r))
	if err != nil {
		s.log.Warn(r.Context(), "admin stats", "error", err)
		s.renderFlash(w, r, http.StatusOK, "admin_dashboard.html", "Admin", remoteMessage(err), (*models.AdminStats)(nil))
		return
	}
	s.render(w, r, http.StatusOK, "admin_dashboard.html", "Admin", stats)
}

type adminBooksData struct {
	Page     catalog.Page
	Search   string
	Category models.Category
}

// handleAdminBooks lists the catalog straight from the service, bypassing
// the shared cache so edits show up at once.
func (s *Server) handleAdminBooks(w http.ResponseWriter, r *http.Request) {
	q := s.catalogQuery(r)

	var flash string
	books, err := s.client.ListBooks(s.authorized(r), q.Category)
	if err != nil {
		s.log.Warn(r.Context(), "admin list books", "error", err)
		flash = remoteMessage(err)
	}
	s.renderFlash(w, r, http.StatusOK, "admin_books.html", "Books", flash, adminBooksData{
		Page:     catalog.Apply(books, q),
		Search:   q.Search,
		Category: q.Category,
	})
}

type bookFormData struct {
	ID            int64
	Book          models.Book
	Categories    []models.Category
	ResourceTypes []models.ResourceType
}

func (s *Server) bookForm(w http.ResponseWriter, r *http.Request, status int, flash string, id int64, b models.Book) {
	title := "New book"
	if id != 0 {
		title = "Edit book"
	}
	s.renderFlash(w, r, status, "admin_book_form.html", title, flash, bookFormData{
		ID:            id,
		Book:          b,
		Categories:    models.Categories[1:],
		ResourceTypes: models.ResourceTypes,
	})
}

func (s *Server) handleAdminBookNew(w http.ResponseWriter, r *http.Request) {
	s.bookForm(w, r, http.StatusOK, "", 0, models.Book{Category: models.CategoryLiterature, ResourceType: models.ResourceBook})
}

func (s *Server) handleAdminBookEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Book not found.")
		return
	}
	b, err := s.client.GetBook(s.authorized(r), id)
	if err != nil {
		s.renderError(w, r, remoteStatus(err), remoteMessage(err))
		return
	}
	s.bookForm(w, r, http.StatusOK, "", id, *b)
}

func (s *Server) handleAdminBookCreate(w http.ResponseWriter, r *http.Request) {
	s.saveBook(w, r, 0)
}

func (s *Server) handleAdminBookUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Book not found.")
		return
	}
	s.saveBook(w, r, id)
}

func (s *Server) saveBook(w http.ResponseWriter, r *http.Request, id int64) {
	in, ups, err := parseBookForm(r)
	defer ups.close()

	echo := models.Book{
		ID: id, Title: in.Title, Author: in.Author, Description: in.Description,
		Category: in.Category, ResourceType: in.ResourceType, PageCount: in.PageCount,
		PublishedDate: in.PublishedDate, Subjects: in.Subjects,
	}
	if err != nil {
		s.bookForm(w, r, http.StatusBadRequest, common.UserMessage(err, "Check the form."), id, echo)
		return
	}

	ctx := s.authorized(r)
	var saved *models.Book
	if id == 0 {
		saved, err = s.client.CreateBook(ctx, in)
	} else {
		saved, err = s.client.UpdateBook(ctx, id, in)
	}
	if err != nil {
		s.log.Warn(r.Context(), "save book", "id", id, "error", err)
		s.bookForm(w, r, remoteStatus(err), remoteMessage(err), id, echo)
		return
	}
	s.cache.Invalidate()
	s.log.Info(r.Context(), "book saved", "id", saved.ID, "created", id == 0)

	if f, ok := ups["file"]; ok && s.mirror != nil {
		if err := s.mirrorFile(ctx, *saved, f); err != nil {
			s.log.Error(r.Context(), "mirror book file", "id", saved.ID, "error", err)
		}
	}
	http.Redirect(w, r, "/admin/books", http.StatusSeeOther)
}

func (s *Server) mirrorFile(ctx context.Context, b models.Book, f upload) error {
	if _, err := f.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return s.mirror.Upload(ctx, b, f.file, f.header.Size, f.header.Header.Get("Content-Type"))
}

func (s *Server) handleAdminBookDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Book not found.")
		return
	}
	if err := s.client.DeleteBook(s.authorized(r), id); err != nil {
		s.log.Warn(r.Context(), "delete book", "id", id, "error", err)
		s.renderError(w, r, remoteStatus(err), remoteMessage(err))
		return
	}
	s.cache.Invalidate()
	s.log.Info(r.Context(), "book deleted", "id", id)
	http.Redirect(w, r, "/admin/books", http.StatusSeeOther)
}

type adminNewsData struct {
	Items  []models.NewsItem
	Search string
}

func (s *Server) handleAdminNews(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	var flash string
	items, err := s.client.ListNews(s.authorized(s.withLanguage(r)), search)
	if err != nil {
		s.log.Warn(r.Context(), "admin list news", "error", err)
		flash = remoteMessage(err)
	}
	s.renderFlash(w, r, http.StatusOK, "admin_news.html", "News", flash, adminNewsData{Items: items, Search: search})
}

type newsFormData struct {
	ID         int64
	Item       models.NewsItem
	Categories []models.NewsCategory
}

func (s *Server) newsForm(w http.ResponseWriter, r *http.Request, status int, flash string, id int64, n models.NewsItem) {
	title := "New post"
	if id != 0 {
		title = "Edit post"
	}
	s.renderFlash(w, r, status, "admin_news_form.html", title, flash, newsFormData{
		ID:         id,
		Item:       n,
		Categories: models.NewsCategories,
	})
}

func (s *Server) handleAdminNewsNew(w http.ResponseWriter, r *http.Request) {
	s.newsForm(w, r, http.StatusOK, "", 0, models.NewsItem{Category: models.NewsGeneral})
}

func (s *Server) handleAdminNewsEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "News item not found.")
		return
	}
	n, err := s.client.GetNews(s.authorized(r), id)
	if err != nil {
		s.renderError(w, r, remoteStatus(err), remoteMessage(err))
		return
	}
	s.newsForm(w, r, http.StatusOK, "", id, *n)
}

func (s *Server) handleAdminNewsCreate(w http.ResponseWriter, r *http.Request) {
	s.saveNews(w, r, 0)
}

func (s *Server) handleAdminNewsUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "News item not found.")
		return
	}
	s.saveNews(w, r, id)
}

func (s *Server) saveNews(w http.ResponseWriter, r *http.Request, id int64) {
	in, ups, err := parseNewsForm(r)
	defer ups.close()

	echo := models.NewsItem{
		ID: id, Title: in.Title, Description: in.Description,
		Date: in.Date, Category: in.Category, Author: in.Author,
	}
	if err != nil {
		s.newsForm(w, r, http.StatusBadRequest, common.UserMessage(err, "Check the form."), id, echo)
		return
	}

	ctx := s.authorized(r)
	if id == 0 {
		_, err = s.client.CreateNews(ctx, in)
	} else {
		_, err = s.client.UpdateNews(ctx, id, in)
	}
	if err != nil {
		s.log.Warn(r.Context(), "save news", "id", id, "error", err)
		s.newsForm(w, r, remoteStatus(err), remoteMessage(err), id, echo)
		return
	}
	http.Redirect(w, r, "/admin/news", http.StatusSeeOther)
}

func (s *Server) handleAdminNewsDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "News item not found.")
		return
	}
	if err := s.client.DeleteNews(s.authorized(r), id); err != nil {
		s.log.Warn(r.Context(), "delete news", "id", id, "error", err)
		s.renderError(w, r, remoteStatus(err), remoteMessage(err))
		return
	}
	http.Redirect(w, r, "/admin/news", http.StatusSeeOther)
}

type adminUsersData struct {
	Users  []models.User
	Search string
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	var flash string
	users, err := s.client.ListUsers(s.authorized(r), search)
	if err != nil {
		s.log.Warn(r.Context(), "admin list users", "error", err)
		flash = remoteMessage(err)
	}
	s.renderFlash(w, r, http.StatusOK, "admin_users.html", "Users", flash, adminUsersData{Users: users, Search: search})
}

type upload struct {
	file   multipart.File
	header *multipart.FileHeader
}

type uploads map[string]upload

func (u uploads) close() {
	for _, f := range u {
		_ = f.file.Close()
	}
}

// openUploads opens the named file fields that were filled in.
func openUploads(r *http.Request, fields ...string) (uploads, error) {
	out := uploads{}
	for _, field := range fields {
		f, h, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			continue
		}
		if err != nil {
			return out, &common.ValidationError{Message: field + ": " + err.Error()}
		}
		if h.Size == 0 {
			_ = f.Close()
			continue
		}
		out[field] = upload{file: f, header: h}
	}
	return out, nil
}

func (u uploads) model(field string) *models.Upload {
	f, ok := u[field]
	if !ok {
		return nil
	}
	return &models.Upload{
		Filename:    f.header.Filename,
		ContentType: f.header.Header.Get("Content-Type"),
		Body:        f.file,
	}
}

func parseMultipart(r *http.Request) error {
	err := r.ParseMultipartForm(maxUploadMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return &common.ValidationError{Message: "Malformed form."}
	}
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return nil
}

func parseBookForm(r *http.Request) (models.BookInput, uploads, error) {
	if err := parseMultipart(r); err != nil {
		return models.BookInput{}, uploads{}, err
	}

	in := models.BookInput{
		Title:         strings.TrimSpace(r.FormValue("title")),
		Author:        strings.TrimSpace(r.FormValue("author")),
		Description:   strings.TrimSpace(r.FormValue("description")),
		Category:      models.Category(r.FormValue("category")),
		ResourceType:  models.ResourceType(r.FormValue("resource_type")),
		PublishedDate: strings.TrimSpace(r.FormValue("published_date")),
		Subjects:      strings.TrimSpace(r.FormValue("subjects")),
	}

	if pc := strings.TrimSpace(r.FormValue("page_count")); pc != "" {
		n, err := strconv.Atoi(pc)
		if err != nil || n < 0 {
			return in, uploads{}, &common.ValidationError{Message: "Page count must be a non-negative number."}
		}
		in.PageCount = n
	}
	if err := validateBook(in); err != nil {
		return in, uploads{}, err
	}

	ups, err := openUploads(r, "cover_image", "qr_code", "file")
	if err != nil {
		return in, ups, err
	}
	in.CoverImage = ups.model("cover_image")
	in.QRCode = ups.model("qr_code")
	in.File = ups.model("file")
	return in, ups, nil
}

func validateBook(in models.BookInput) error {
	switch {
	case in.Title == "":
		return &common.ValidationError{Message: "Title is required."}
	case in.Author == "":
		return &common.ValidationError{Message: "Author is required."}
	case in.Category.IsAll() || !containsCategory(in.Category):
		return &common.ValidationError{Message: "Choose a category."}
	}
	if in.PublishedDate != "" {
		if _, err := parseDate(in.PublishedDate); err != nil {
			return &common.ValidationError{Message: "Published date must look like 2024-01-31."}
		}
	}
	return nil
}

func containsCategory(c models.Category) bool {
	for _, known := range models.Categories {
		if known == c {
			return true
		}
	}
	return false
}

func parseNewsForm(r *http.Request) (models.NewsInput, uploads, error) {
	if err := parseMultipart(r); err != nil {
		return models.NewsInput{}, uploads{}, err
	}

	in := models.NewsInput{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Date:        strings.TrimSpace(r.FormValue("date")),
		Category:    models.NewsCategory(r.FormValue("category")),
		Author:      strings.TrimSpace(r.FormValue("author")),
	}
	switch {
	case in.Title == "":
		return in, uploads{}, &common.ValidationError{Message: "Title is required."}
	case in.Description == "":
		return in, uploads{}, &common.ValidationError{Message: "Text is required."}
	}
	if in.Date != "" {
		if _, err := parseDate(in.Date); err != nil {
			return in, uploads{}, &common.ValidationError{Message: "Date must look like 2024-01-31."}
		}
	}

	ups, err := openUploads(r, "image")
	if err != nil {
		return in, ups, err
	}
	in.Image = ups.model("image")
	return in, ups, nil
}
