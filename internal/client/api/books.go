package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/elibrary/internal/client/models"
)

const (
	booksPath      = "/api/books/"
	popularPath    = "/api/books/popular/"
	statsPath      = "/api/books/stats/"
	adminStatsPath = "/api/books/admin/stats/"
)

// ListBooks fetches every book of category. The whole catalog is returned
// for CategoryAll or an empty category.
func (c *HTTPClient) ListBooks(ctx context.Context, category models.Category) ([]models.Book, error) {
	var q url.Values
	if !category.IsAll() {
		q = url.Values{"category": {string(category)}}
	}

	var out listEnvelope[models.Book]
	if err := c.getJSON(ctx, booksPath, q, &out); err != nil {
		return nil, err
	}
	for i := range out.items {
		c.resolveBook(&out.items[i])
	}
	return out.items, nil
}

func (c *HTTPClient) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	var b models.Book
	if err := c.getJSON(ctx, idPath(booksPath, id), nil, &b); err != nil {
		return nil, err
	}
	c.resolveBook(&b)
	return &b, nil
}

func (c *HTTPClient) PopularBooks(ctx context.Context) ([]models.Book, error) {
	var out listEnvelope[models.Book]
	if err := c.getJSON(ctx, popularPath, nil, &out); err != nil {
		return nil, err
	}
	for i := range out.items {
		c.resolveBook(&out.items[i])
	}
	return out.items, nil
}

func (c *HTTPClient) CreateBook(ctx context.Context, in models.BookInput) (*models.Book, error) {
	return c.saveBook(ctx, http.MethodPost, booksPath, in)
}

func (c *HTTPClient) UpdateBook(ctx context.Context, id int64, in models.BookInput) (*models.Book, error) {
	return c.saveBook(ctx, http.MethodPatch, idPath(booksPath, id), in)
}

func (c *HTTPClient) saveBook(ctx context.Context, method, path string, in models.BookInput) (*models.Book, error) {
	body, ct, err := bookForm(in)
	if err != nil {
		return nil, err
	}
	var b models.Book
	if err := c.do(ctx, method, path, nil, body, ct, &b); err != nil {
		return nil, err
	}
	c.resolveBook(&b)
	return &b, nil
}

func (c *HTTPClient) DeleteBook(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath(booksPath, id), nil, nil, "", nil)
}

func (c *HTTPClient) LibraryStats(ctx context.Context) (*models.LibraryStats, error) {
	var s models.LibraryStats
	if err := c.getJSON(ctx, statsPath, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	var s models.AdminStats
	if err := c.getJSON(ctx, adminStatsPath, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
