// Package catalog derives catalog pages from a category-scoped book set:
// filter by category and search term, sort, then slice into pages.
//
// Apply is the pure function behind every view. Browser wraps it with the
// interactive flow (one fetch per category change, debounced search,
// immediate re-sort) and Cache shares fetched sets between web requests.
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/client/models"
)

const (
	DefaultPageSize = 15
	pagerWindow     = 5
)

type SortKey string

const (
	SortTitle  SortKey = "title"
	SortAuthor SortKey = "author"
	SortYear   SortKey = "year"
)

var SortKeys = []SortKey{SortTitle, SortAuthor, SortYear}

// ParseSort maps s onto a known key; anything unknown sorts by title.
func ParseSort(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortAuthor:
		return SortAuthor
	case SortYear:
		return SortYear
	default:
		return SortTitle
	}
}

type Query struct {
	Category models.Category
	Search   string
	Sort     SortKey
	Page     int
	PageSize int
}

// Page is one slice of the filtered, sorted set.
type Page struct {
	Items      []models.Book
	Page       int
	PageSize   int
	TotalPages int
	TotalItems int
	// Window holds up to five page numbers starting at max(1, Page-2).
	Window []int
}

func (p Page) HasPrev() bool { return p.Page > 1 }
func (p Page) HasNext() bool { return p.Page < p.TotalPages }
func (p Page) Prev() int     { return max(1, p.Page-1) }
func (p Page) Next() int     { return min(max(1, p.TotalPages), p.Page+1) }
func (p Page) Empty() bool   { return p.TotalItems == 0 }

// Apply filters all by category and search, sorts by q.Sort and returns
// page q.Page. all is not modified.
func Apply(all []models.Book, q Query) Page {
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	filtered := Filter(all, q.Category, q.Search)
	Sort(filtered, ParseSort(string(q.Sort)))

	total := len(filtered)
	pages := (total + size - 1) / size

	page := q.Page
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}

	start := min((page-1)*size, total)
	end := min(start+size, total)

	return Page{
		Items:      filtered[start:end],
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
		TotalItems: total,
		Window:     window(page, pages),
	}
}

// Filter returns the books of category whose title or author contains
// search, case-insensitively. The result is a new slice.
func Filter(all []models.Book, category models.Category, search string) []models.Book {
	needle := strings.ToLower(strings.TrimSpace(search))
	cat := strings.TrimSpace(string(category))

	out := make([]models.Book, 0, len(all))
	for _, b := range all {
		if !category.IsAll() && !strings.EqualFold(string(b.Category), cat) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(b.Title), needle) &&
			!strings.Contains(strings.ToLower(b.Author), needle) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Sort orders books in place, stably. Title and author compare
// case-insensitively; year puts the most recent first with missing dates
// counted as the epoch.
func Sort(books []models.Book, key SortKey) {
	switch key {
	case SortAuthor:
		slices.SortStableFunc(books, func(a, b models.Book) int {
			return cmp.Compare(strings.ToLower(a.Author), strings.ToLower(b.Author))
		})
	case SortYear:
		slices.SortStableFunc(books, func(a, b models.Book) int {
			return b.Published().Compare(a.Published())
		})
	default:
		slices.SortStableFunc(books, func(a, b models.Book) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	}
}

func window(page, pages int) []int {
	if pages == 0 {
		return nil
	}
	start := max(1, page-2)
	end := min(pages, start+pagerWindow-1)

	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}
