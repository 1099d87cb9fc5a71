// Package server wires storage, sessions, services and the HTTP API into a
// runnable application and handles its lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/cryptox"
	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/dmitrijs2005/agrocms/internal/server/auth"
	"github.com/dmitrijs2005/agrocms/internal/server/config"
	"github.com/dmitrijs2005/agrocms/internal/server/httpapi"
	"github.com/dmitrijs2005/agrocms/internal/server/metrics"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/agrocms/internal/server/services"
	"github.com/dmitrijs2005/agrocms/internal/server/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	openPostgres   = repomanager.OpenPostgres
	newRedisClient = sessions.NewRedisClient
	initTracing    = tracing.Init
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	sessions sessions.Repository
	api      *httpapi.API
	closers  []func() error
}

// NewApp opens storage, applies migrations, runs the configured seeding and
// builds the HTTP API. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, w)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger}
	if err := app.init(ctx); err != nil {
		_ = app.close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	repos, err := openStorage(ctx, app.config)
	if err != nil {
		return fmt.Errorf("storage init error: %w", err)
	}
	app.repos = repos
	app.closers = append(app.closers, repos.Close)

	if err := repos.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	if err := app.openSessions(ctx); err != nil {
		return fmt.Errorf("session store init error: %w", err)
	}

	hasher := cryptox.NewScryptHasher(cryptox.DefaultScryptParams)
	if err := app.seed(ctx, hasher); err != nil {
		return err
	}

	deps := httpapi.Deps{
		Auth:               services.NewAuthService(repos.Users(), app.sessions, hasher, app.config.SessionTTL, app.logger),
		Articles:           services.NewArticleService(repos.Articles(), app.logger),
		Health:             repos.Ping,
		Log:                app.logger,
		SessionSecret:      []byte(app.config.SessionSecret),
		SessionTTL:         app.config.SessionTTL,
		Cookie:             auth.CookieOptions{Secure: app.config.CookieSecure, Domain: app.config.CookieDomain},
		CORSAllowedOrigins: app.config.CORSAllowedOrigins,
		TrustProxy:         app.config.TrustProxy,
		LoginRateLimit:     app.config.LoginRateLimit,
		MaxUploadBytes:     app.config.MaxUploadBytes,
	}
	if app.config.MediaEnabled {
		deps.Media = services.NewMediaService(app.config, nil, app.logger)
	}
	app.api = httpapi.New(deps)
	app.closers = append(app.closers, func() error { app.api.Close(); return nil })

	app.logger.Info(ctx, "app initialised",
		"storage", app.config.Storage,
		"session_store", app.config.SessionStore,
		"media", app.config.MediaEnabled,
	)
	return nil
}

func openStorage(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.Storage {
	case config.StorageFile:
		return repomanager.NewFileRepositoryManager(c.DataDir)
	case config.StoragePostgres:
		db, err := openPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return repomanager.NewPostgresRepositoryManager(db), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", c.Storage)
	}
}

func (app *App) openSessions(ctx context.Context) error {
	switch app.config.SessionStore {
	case config.SessionStoreAuto, config.SessionStorePostgres:
		app.sessions = app.repos.Sessions()
	case config.SessionStoreMemory:
		app.sessions = sessions.NewMemoryRepository()
	case config.SessionStoreRedis:
		rdb, err := newRedisClient(ctx, app.config.RedisURL)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, rdb.Close)
		app.sessions = sessions.NewRedisRepository(rdb)
	default:
		return fmt.Errorf("unknown session store %q", app.config.SessionStore)
	}
	return nil
}

// seed provisions the configured admin and, on an empty store, the sample
// articles, authored by that admin when there is one.
func (app *App) seed(ctx context.Context, hasher cryptox.PasswordHasher) error {
	seeder := services.NewSeedService(app.repos, hasher, app.logger)

	var authorID *int64
	if app.config.AdminUsername != "" {
		if _, err := seeder.SeedAdmin(ctx, app.config.AdminUsername, app.config.AdminPassword, "config"); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		admin, err := app.repos.Users().GetByUsername(ctx, app.config.AdminUsername)
		if err != nil {
			return fmt.Errorf("load admin: %w", err)
		}
		authorID = &admin.ID
	}

	if app.config.SeedSampleArticles {
		if _, err := seeder.SeedSampleArticles(ctx, authorID); err != nil {
			return err
		}
	}
	return nil
}

// Handler returns the HTTP API without the tracing wrapper.
func (app *App) Handler() http.Handler {
	return app.api
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// sweepSessions removes expired sessions once.
func (app *App) sweepSessions(ctx context.Context) {
	n, err := app.sessions.DeleteExpired(ctx)
	if err != nil {
		app.logger.Error(ctx, "session sweep failed", "error", err)
		return
	}
	metrics.AddSessionsSwept(n)
	if n > 0 {
		app.logger.Info(ctx, "expired sessions removed", "count", n)
	}
}

func (app *App) startSweeper(ctx context.Context) {
	ticker := time.NewTicker(app.config.SessionSweepInterval)
	defer ticker.Stop()

	app.sweepSessions(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.sweepSessions(ctx)
		}
	}
}

func (app *App) startHTTPServer(ctx context.Context) error {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           otelhttp.NewHandler(app.api, app.config.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// shuts down gracefully and releases storage.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	shutdownTracing, err := initTracing(ctx, app.logger, app.config.ServiceName, app.config.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("tracing init: %w", err)
	}

	var (
		wg      sync.WaitGroup
		httpErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.startHTTPServer(ctx); err != nil {
			app.logger.Error(ctx, "http server failed", "error", err)
			httpErr = err
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startSweeper(ctx)
	}()

	wg.Wait()

	tctx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := shutdownTracing(tctx); err != nil {
		app.logger.Warn(tctx, "tracing shutdown", "error", err)
	}

	return errors.Join(httpErr, app.close())
}

func (app *App) close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		errs = append(errs, app.closers[i]())
	}
	app.closers = nil
	return errors.Join(errs...)
}
