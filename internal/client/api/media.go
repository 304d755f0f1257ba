package api

import (
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/client/models"
)

// MediaURL keeps absolute http(s) references and resolves everything else
// against the base URL. Empty references stay empty.
func (c *HTTPClient) MediaURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimRight(c.baseURL.String(), "/") + "/" + strings.TrimLeft(ref, "/")
}

// upgradeHTTP rewrites a leading "http:" to "https:".
func upgradeHTTP(ref string) string {
	if strings.HasPrefix(ref, "http:") {
		return "https:" + strings.TrimPrefix(ref, "http:")
	}
	return ref
}

func (c *HTTPClient) resolveBook(b *models.Book) {
	b.CoverImage = c.MediaURL(b.CoverImage)
	b.QRCode = c.MediaURL(b.QRCode)
	b.File = c.MediaURL(b.File)
}

func (c *HTTPClient) resolveNews(n *models.NewsItem) {
	n.Image = c.MediaURL(upgradeHTTP(n.Image))
}

func (c *HTTPClient) resolveUser(u *models.User) {
	u.Avatar = c.MediaURL(u.Avatar)
	for i := range u.Favourites {
		u.Favourites[i].CoverURL = c.MediaURL(u.Favourites[i].CoverURL)
	}
}
