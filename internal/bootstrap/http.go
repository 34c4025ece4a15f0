package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/classboard-app/classboard/config"
	httpx "github.com/classboard-app/classboard/internal/http"
	"github.com/classboard-app/classboard/internal/ports"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config    *config.AppConfig
	Session   *SessionLayer
	Documents ports.DocumentStore
	Logger    *slog.Logger
}

// NewHTTPServer builds the HTTP server with routing and middleware.
// The server is not started; Run owns its lifecycle.
func NewHTTPServer(cfg *HTTPServerConfig) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	router := httpx.NewRouter(httpx.RouterServices{
		Sessions:     cfg.Session.Sessions,
		Flow:         cfg.Session.Flow,
		Documents:    cfg.Documents,
		CookieDomain: appCfg.HTTP.CookieDomain,
		Logger:       logger,
	})

	// Order: Recover -> Logging -> Router
	h := httpx.Logging(logger)(router)
	h = httpx.Recover(logger)(h)

	addr := appCfg.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// RunConfig contains dependencies for the service runtime.
type RunConfig struct {
	Server  *http.Server
	Session *SessionLayer
	Logger  *slog.Logger
}

// Run starts the session layer and the HTTP server and blocks until a
// shutdown signal arrives or either fails. Shutdown drains in-flight
// HTTP requests before the session subscription is torn down, so the
// guard keeps seeing a live store until the last request completes.
func Run(cfg RunConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Session.Start(ctx); err != nil {
		return err
	}
	defer cfg.Session.Stop()

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting HTTP server", "addr", cfg.Server.Addr)
		if err := cfg.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return cfg.Server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info("HTTP server stopped")
	return nil
}
