package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/client/api"
	"github.com/dmitrijs2005/elibrary/internal/client/storage"
	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/config"
	"github.com/dmitrijs2005/elibrary/internal/logging"
	"github.com/dmitrijs2005/elibrary/internal/mirror"
)

const (
	purgeInterval   = time.Hour
	shutdownTimeout = 10 * time.Second
)

// App runs the web front: HTTP server, session purge loop and limiter sweeper.
type App struct {
	config *config.Config
	logger logging.Logger
	store  *storage.Store
	server *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

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

	secret := cfg.SecretKey
	if secret == "" {
		// sessions will not survive a restart
		secret, err = common.MakeRandHexString(32)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		logger.Warn(ctx, "no secret key configured, using a random one")
	}

	opts := Options{
		SecretKey:      secret,
		SessionTTL:     cfg.SessionTTL,
		PageSize:       cfg.PageSize,
		SearchDebounce: cfg.SearchDebounce,
		CacheTTL:       cfg.CacheTTL,
		RequestTimeout: cfg.RequestTimeout,
		RateRPS:        cfg.RateRPS,
		RateBurst:      cfg.RateBurst,
		TrustProxy:     cfg.TrustProxy,
		Language:       cfg.Language,
	}

	if cfg.MirrorEnabled() {
		m, err := mirror.New(ctx, mirror.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3User,
			SecretKey: cfg.S3Password,
		}, logger.With("module", "mirror"))
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts.Mirror = m
	}

	srv, err := NewServer(client, store.Repo, logger, opts)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{config: cfg, logger: logger, store: store, server: srv}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// startHTTPServer serves until ctx is cancelled. A listen or serve failure
// cancels the app and is returned.
func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	hs := &http.Server{
		Addr:              app.config.ListenAddr,
		Handler:           app.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", hs.Addr)
	err := hs.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	app.logger.Error(ctx, "http server failed", "error", err)
	cancelFunc()
	<-stopped
	return fmt.Errorf("http server: %w", err)
}

// purgeSessions drops stale browser sessions once an hour.
func (app *App) purgeSessions(ctx context.Context) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := app.server.PurgeSessions(ctx)
			if err != nil {
				app.logger.Error(ctx, "purge sessions", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "purged stale sessions", "count", n)
			}
		}
	}
}

// Run blocks until a signal arrives, ctx is cancelled or the server fails.
// A server failure is returned.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(ctx, cancelFunc)

	var serveErr error
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		serveErr = app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeSessions(ctx)
	}()
	go func() {
		defer wg.Done()
		app.server.RunBackground(ctx)
	}()
	wg.Wait()

	return errors.Join(serveErr, app.store.Close())
}
