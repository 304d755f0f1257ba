package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/logging"
)

const DefaultDebounce = 300 * time.Millisecond

// Fetcher loads every book of a category. api.Client satisfies it.
type Fetcher interface {
	ListBooks(ctx context.Context, category models.Category) ([]models.Book, error)
}

// View is the state a Browser renders.
type View struct {
	Page
	Category models.Category
	Search   string
	Sort     SortKey
	Loading  bool
	// Err is the last fetch failure. The book set is empty while it is set.
	Err error
}

// NotFound reports the "nothing to show" state: no fetch in flight and no
// matching books.
func (v View) NotFound() bool {
	return !v.Loading && v.TotalItems == 0
}

// Browser is the interactive catalog flow. A category change fetches once;
// search changes are debounced and recomputed from the fetched set; sort and
// page changes recompute immediately. It is safe for concurrent use.
type Browser struct {
	fetch    Fetcher
	debounce time.Duration
	pageSize int
	onChange func(View)
	log      logging.Logger

	mu       sync.Mutex
	all      []models.Book
	category models.Category
	search   string
	pending  string
	sort     SortKey
	page     int
	loading  bool
	err      error
	gen      uint64
	timer    *time.Timer
	// searchSeq numbers SetSearch calls; applied is the last one applied.
	searchSeq uint64
	applied   uint64
	closed    bool
}

type BrowserOption func(*Browser)

// WithDebounce sets the search debounce. Zero applies searches at once.
func WithDebounce(d time.Duration) BrowserOption {
	return func(b *Browser) { b.debounce = d }
}

func WithPageSize(n int) BrowserOption {
	return func(b *Browser) { b.pageSize = n }
}

// WithOnChange registers the callback receiving every new View. It runs
// without the browser lock held, possibly on the debounce timer goroutine.
func WithOnChange(fn func(View)) BrowserOption {
	return func(b *Browser) { b.onChange = fn }
}

func WithBrowserLogger(l logging.Logger) BrowserOption {
	return func(b *Browser) { b.log = l }
}

func NewBrowser(fetch Fetcher, opts ...BrowserOption) *Browser {
	b := &Browser{
		fetch:    fetch,
		debounce: DefaultDebounce,
		pageSize: DefaultPageSize,
		log:      logging.Discard(),
		category: models.CategoryAll,
		sort:     SortTitle,
		page:     1,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// SetCategory selects category and fetches its book set. It blocks for the
// fetch. A response that arrives after another SetCategory call is dropped.
// A failed fetch leaves an empty set and is returned.
func (b *Browser) SetCategory(ctx context.Context, category models.Category) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.gen++
	gen := b.gen
	b.category = category
	b.page = 1
	b.loading = true
	b.err = nil
	b.mu.Unlock()
	b.notify()

	books, err := b.fetch.ListBooks(ctx, category)

	b.mu.Lock()
	if b.closed || gen != b.gen {
		b.mu.Unlock()
		b.log.Debug(ctx, "dropping stale catalog response", "category", category)
		return nil
	}
	b.loading = false
	if err != nil {
		b.all = nil
		b.err = err
	} else {
		b.all = books
	}
	b.mu.Unlock()

	if err != nil {
		b.log.Warn(ctx, "catalog fetch failed", "category", category, "error", err)
	}
	b.notify()
	return err
}

// SetSearch records term and applies it once no further call arrives for
// the debounce period. Applying a term resets the page to 1.
func (b *Browser) SetSearch(term string) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.pending = term
	b.searchSeq++
	seq := b.searchSeq
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if b.debounce <= 0 {
		b.mu.Unlock()
		b.applySearch(seq)
		return
	}
	b.timer = time.AfterFunc(b.debounce, func() { b.applySearch(seq) })
	b.mu.Unlock()
}

// Flush applies a pending search term immediately.
func (b *Browser) Flush() {
	b.mu.Lock()
	if b.timer == nil {
		b.mu.Unlock()
		return
	}
	b.timer.Stop()
	b.timer = nil
	seq := b.searchSeq
	b.mu.Unlock()
	b.applySearch(seq)
}

// Pending reports whether a search term is waiting for its debounce.
func (b *Browser) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timer != nil
}

// applySearch applies the term recorded by SetSearch call seq. A timer that
// fired after a newer call, or after Flush already applied seq, does nothing.
func (b *Browser) applySearch(seq uint64) {
	b.mu.Lock()
	if b.closed || seq != b.searchSeq || seq == b.applied {
		b.mu.Unlock()
		return
	}
	b.applied = seq
	b.timer = nil
	b.search = b.pending
	b.page = 1
	b.mu.Unlock()
	b.notify()
}

// SetSort changes the sort key. No debounce, no fetch.
func (b *Browser) SetSort(key SortKey) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.sort = ParseSort(string(key))
	b.mu.Unlock()
	b.notify()
}

// SetPage moves to page n; out of range values clamp when the view is built.
func (b *Browser) SetPage(n int) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.page = n
	b.mu.Unlock()
	b.notify()
}

// NextPage and PrevPage step from the page currently shown.
func (b *Browser) NextPage() { b.SetPage(b.View().Next()) }
func (b *Browser) PrevPage() { b.SetPage(b.View().Prev()) }

func (b *Browser) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewLocked()
}

func (b *Browser) viewLocked() View {
	p := Apply(b.all, Query{
		Category: b.category,
		Search:   b.search,
		Sort:     b.sort,
		Page:     b.page,
		PageSize: b.pageSize,
	})
	return View{
		Page:     p,
		Category: b.category,
		Search:   b.search,
		Sort:     b.sort,
		Loading:  b.loading,
		Err:      b.err,
	}
}

// Close stops the debounce timer. Later calls are ignored.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Browser) notify() {
	if b.onChange == nil {
		return
	}
	b.onChange(b.View())
}
