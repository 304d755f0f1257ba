package catalog

import (
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/client/models"
)

// FilterNews keeps the items of category. An empty category or "Barchasi"
// keeps everything.
func FilterNews(items []models.NewsItem, category string) []models.NewsItem {
	if models.Category(category).IsAll() {
		return items
	}
	category = strings.TrimSpace(category)

	out := make([]models.NewsItem, 0, len(items))
	for _, n := range items {
		if string(n.Category) == category {
			out = append(out, n)
		}
	}
	return out
}
