// Package server assembles the blog backend: it opens the configured store,
// wires session handling and the live reply hub, and runs the HTTP server
// until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pliu/blog/internal/auth"
	"github.com/pliu/blog/internal/config"
	"github.com/pliu/blog/internal/handlers"
	"github.com/pliu/blog/internal/logging"
	"github.com/pliu/blog/internal/store"
	"github.com/pliu/blog/internal/store/mongostore"
	"github.com/pliu/blog/internal/store/sqlstore"
	"github.com/pliu/blog/internal/ws"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  store.Store
	rdb    *redis.Client
	hub    *ws.Hub
	server *http.Server
}

// openStore picks the backend named by cfg.StoreDriver.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.StoreDriver {
	case config.StoreSQLite, config.StorePostgres:
		st, err = sqlstore.New(ctx, cfg.StoreDriver, cfg.DatabaseDSN)
	case config.StoreMongo:
		st, err = mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// newRevoker returns a Redis-backed revoker when an address is configured.
// Without one, logout only clears cookies.
func newRevoker(ctx context.Context, addr string) (auth.Revoker, *redis.Client, error) {
	if addr == "" {
		return auth.NopRevoker{}, nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return auth.NewRedisRevoker(rdb), rdb, nil
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	revoker, rdb, err := newRevoker(ctx, cfg.RedisAddr)
	if err != nil {
		st.Close()
		return nil, err
	}
	if rdb == nil {
		logger.Warn(ctx, "no redis configured, logged out tokens stay valid until expiry")
	}

	issuer, err := auth.NewIssuer([]byte(cfg.SecretKey), cfg.TokenTTL)
	if err != nil {
		st.Close()
		if rdb != nil {
			rdb.Close()
		}
		return nil, err
	}

	hub := ws.NewHub(logger)
	handler := NewRouter(Routes{
		Auth: &handlers.AuthHandler{
			Store:   st,
			Issuer:  issuer,
			Revoker: revoker,
			Cookies: auth.CookiePolicy{Production: cfg.IsProduction()},
			Logger:  logger,
		},
		Blog: &handlers.BlogHandler{
			Store:    st,
			Hub:      hub,
			Upgrader: ws.Upgrader(cfg.AllowedOrigin),
			Logger:   logger,
		},
		Issuer:        issuer,
		Revoker:       revoker,
		Logger:        logger,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	return &App{
		config: cfg,
		logger: logger,
		store:  st,
		rdb:    rdb,
		hub:    hub,
		server: &http.Server{Addr: cfg.Addr, Handler: handler},
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a signal arrives, then shuts the
// server down and releases the store and Redis connections.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)
	app.logger.Info(ctx, "Starting app...", "addr", app.config.Addr, "store", app.config.StoreDriver)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.hub.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = err
		app.logger.Error(ctx, "http server failed", "error", err)
	}
	cancelFunc()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown", "error", err)
	}
	wg.Wait()

	app.close(shutdownCtx)
	app.logger.Info(shutdownCtx, "stopped")
	return runErr
}

func (app *App) close(ctx context.Context) {
	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "close store", "error", err)
	}
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error(ctx, "close redis", "error", err)
		}
	}
}
