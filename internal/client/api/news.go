package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/client/models"
)

const newsPath = "/api/news/"

// ListNews fetches the news feed, optionally filtered by the service-side
// search. Accept-Language comes from WithLanguage or the client default.
func (c *HTTPClient) ListNews(ctx context.Context, search string) ([]models.NewsItem, error) {
	var q url.Values
	if s := strings.TrimSpace(search); s != "" {
		q = url.Values{"search": {s}}
	}

	var out listEnvelope[models.NewsItem]
	if err := c.getJSON(c.withLanguage(ctx), newsPath, q, &out); err != nil {
		return nil, err
	}
	for i := range out.items {
		c.resolveNews(&out.items[i])
	}
	return out.items, nil
}

func (c *HTTPClient) GetNews(ctx context.Context, id int64) (*models.NewsItem, error) {
	var n models.NewsItem
	if err := c.getJSON(c.withLanguage(ctx), idPath(newsPath, id), nil, &n); err != nil {
		return nil, err
	}
	c.resolveNews(&n)
	return &n, nil
}

func (c *HTTPClient) CreateNews(ctx context.Context, in models.NewsInput) (*models.NewsItem, error) {
	return c.saveNews(ctx, http.MethodPost, newsPath, in)
}

func (c *HTTPClient) UpdateNews(ctx context.Context, id int64, in models.NewsInput) (*models.NewsItem, error) {
	return c.saveNews(ctx, http.MethodPatch, idPath(newsPath, id), in)
}

func (c *HTTPClient) saveNews(ctx context.Context, method, path string, in models.NewsInput) (*models.NewsItem, error) {
	body, ct, err := newsForm(in)
	if err != nil {
		return nil, err
	}
	var n models.NewsItem
	if err := c.do(ctx, method, path, nil, body, ct, &n); err != nil {
		return nil, err
	}
	c.resolveNews(&n)
	return &n, nil
}

func (c *HTTPClient) DeleteNews(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath(newsPath, id), nil, nil, "", nil)
}

func (c *HTTPClient) withLanguage(ctx context.Context) context.Context {
	if languageFromContext(ctx) == "" && c.language != "" {
		return WithLanguage(ctx, c.language)
	}
	return ctx
}
