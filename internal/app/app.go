// ABOUTME: Assembles the server from config and owns its lifecycle.
// ABOUTME: Wires the store, registry, sessions, limiter, and both HTTP planes.

// Package app builds a running server out of configuration. It opens the
// shared store, registers the builtin catalog, and serves the RPC and admin
// planes on one HTTP listener.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/maven-gavin/toolgate/internal/admin"
	"github.com/maven-gavin/toolgate/internal/auth"
	"github.com/maven-gavin/toolgate/internal/config"
	"github.com/maven-gavin/toolgate/internal/ratelimit"
	"github.com/maven-gavin/toolgate/internal/registry"
	"github.com/maven-gavin/toolgate/internal/rpc"
	"github.com/maven-gavin/toolgate/internal/session"
	"github.com/maven-gavin/toolgate/internal/store"
	"github.com/maven-gavin/toolgate/internal/tools"
)

const shutdownTimeout = 5 * time.Second

// App is the assembled server.
type App struct {
	config     *config.Config
	logger     *slog.Logger
	store      *store.SQLiteStore
	registry   *registry.Registry
	httpServer *http.Server
}

// New builds the server from configuration. The returned App owns the store
// handle; Run releases it on shutdown.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	reg := registry.NewRegistry(logger)
	if cfg.Calls.Timeout > 0 {
		reg.SetDefaultTimeout(cfg.Calls.Timeout)
	}
	if err := tools.RegisterBuiltins(reg, logger); err != nil {
		st.Close()
		return nil, fmt.Errorf("registering builtins: %w", err)
	}

	sessions := session.NewManager(st, cfg.Sessions.TTL, logger)
	limiter := ratelimit.NewLimiter(st, cfg.RateLimit.Limit, cfg.RateLimit.Window, logger)

	rpcServer, err := rpc.NewServer(rpc.Config{
		Registry:              reg,
		Sessions:              sessions,
		Limiter:               limiter,
		Logger:                logger,
		RequireSessionForList: cfg.Auth.RequireSessionForList,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating rpc server: %w", err)
	}

	adminServer, err := admin.NewServer(admin.Config{
		Sessions: sessions,
		Registry: reg,
		Verifier: auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)),
		Logger:   logger,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating admin server: %w", err)
	}

	mux := http.NewServeMux()
	rpcServer.RegisterRoutes(mux)
	adminServer.RegisterRoutes(mux)

	return &App{
		config:   cfg,
		logger:   logger,
		store:    st,
		registry: reg,
		httpServer: &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Registry exposes the catalog for callers embedding the server that want to
// register tools beyond the builtins before Run.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Run serves until ctx is canceled or the listener fails, then shuts down
// gracefully. Returns nil on a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.Server.HTTPAddr)
	if err != nil {
		a.store.Close()
		return fmt.Errorf("listening on %s: %w", a.config.Server.HTTPAddr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := a.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		a.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		a.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := a.shutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// shutdown stops the HTTP server and closes the store. A fresh context is
// used since the run context is already canceled by the time we get here.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}

	if len(errs) > 0 {
		return errs[0]
	}
	a.logger.Info("shutdown complete")
	return nil
}
