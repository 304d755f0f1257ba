package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/catalog"
	"github.com/dmitrijs2005/elibrary/internal/client/api"
	"github.com/dmitrijs2005/elibrary/internal/client/session"
	"github.com/dmitrijs2005/elibrary/internal/client/storage"
	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/config"
	"github.com/dmitrijs2005/elibrary/internal/logging"
	"github.com/microcosm-cc/bluemonday"
)

// settleTimeout bounds the wait for a debounced search on top of the
// debounce itself.
const settleTimeout = 2 * time.Second

type App struct {
	out      io.Writer
	reader   *bufio.Reader
	client   api.Client
	session  session.Service
	browser  *catalog.Browser
	log      logging.Logger
	text     *bluemonday.Policy
	debounce time.Duration

	// changes is signalled (never blocking) on every browser update.
	changes chan struct{}
	store   *storage.Store
}

// NewApp opens local storage and the remote client described by cfg.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	logger := logging.New(os.Stderr, "text", cfg.LogLevel)

	store, err := storage.InitDatabase(ctx, cfg.StorageDSN)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	client, err := api.New(cfg.APIBaseURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(logger.With("module", "api")),
		api.WithDefaultLanguage(cfg.Language),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := newApp(client, storage.Scope(store.Repo, common.CLINamespace), in, out, logger,
		cfg.SearchDebounce, catalog.WithPageSize(cfg.PageSize))
	a.store = store
	return a, nil
}

func newApp(client api.Client, kv storage.KV, in io.Reader, out io.Writer, log logging.Logger, debounce time.Duration, opts ...catalog.BrowserOption) *App {
	if log == nil {
		log = logging.Discard()
	}
	a := &App{
		out:      out,
		reader:   bufio.NewReader(in),
		client:   client,
		session:  session.New(client, kv, log.With("module", "session")),
		log:      log,
		text:     bluemonday.StrictPolicy(),
		debounce: debounce,
		changes:  make(chan struct{}, 1),
	}
	opts = append([]catalog.BrowserOption{
		catalog.WithDebounce(debounce),
		catalog.WithOnChange(a.onChange),
		catalog.WithBrowserLogger(log.With("module", "catalog")),
	}, opts...)
	a.browser = catalog.NewBrowser(client, opts...)
	return a
}

func (a *App) onChange(catalog.View) {
	select {
	case a.changes <- struct{}{}:
	default:
	}
}

// awaitView waits until the browser view satisfies ok.
func (a *App) awaitView(ctx context.Context, ok func(catalog.View) bool) (catalog.View, error) {
	timeout := time.NewTimer(a.debounce + settleTimeout)
	defer timeout.Stop()
	for {
		v := a.browser.View()
		if ok(v) {
			return v, nil
		}
		select {
		case <-a.changes:
		case <-timeout.C:
			return v, errors.New("catalog did not settle")
		case <-ctx.Done():
			return v, ctx.Err()
		}
	}
}

// Close stops the browser and closes local storage.
func (a *App) Close() error {
	a.browser.Close()
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	_, err := a.session.Current(ctx)
	return err == nil
}

func (a *App) status(ctx context.Context) string {
	st, err := a.session.Current(ctx)
	if err != nil {
		return ""
	}
	return "(" + st.User.Username + ")"
}

func (a *App) printErr(err error, fallback string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		colError.Fprintln(a.out, common.UserMessage(err, fallback))
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrNoSession):
		colError.Fprintln(a.out, "Please log in first.")
	case errors.Is(err, common.ErrNotFound):
		colError.Fprintln(a.out, "Not found.")
	case errors.Is(err, common.ErrUnavailable):
		colError.Fprintln(a.out, "The library service is unavailable. Try again later.")
	default:
		colError.Fprintln(a.out, fallback+":", err)
	}
}
