package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/phrazzld/profile-api/internal/api"
	"github.com/phrazzld/profile-api/internal/config"
	"github.com/phrazzld/profile-api/internal/platform/postgres"
	"github.com/phrazzld/profile-api/internal/service/auth"
	"github.com/phrazzld/profile-api/internal/store"
	"github.com/phrazzld/profile-api/internal/store/memory"
)

const shutdownTimeout = 10 * time.Second

// application holds the process-level resources behind the HTTP server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	server *api.Server
}

// newApplication connects to storage and builds the API server. Without a
// database URL users are kept in memory and lost on exit.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (*application, error) {
	app := &application{config: cfg, logger: logger}

	var users store.UsersRepository
	if cfg.Database.URL == "" {
		logger.Warn("no database configured; using in-memory user storage")
		users = memory.NewUsersRepository()
	} else {
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		app.db = db
		logger.Info("database connection established")

		if migrate {
			if err := postgres.Migrate(ctx, db, "up"); err != nil {
				app.cleanup()
				return nil, err
			}
		}
		users = postgres.NewUsersRepository(db)
	}

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	server, err := api.NewServer(api.Deps{
		Config: *cfg,
		Logger: logger,
		Users:  users,
		Tokens: tokens,
	})
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to build server: %w", err)
	}
	app.server = server

	return app, nil
}

// run listens on the configured port until ctx is done.
func (app *application) run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", app.config.Server.Port))
	if err != nil {
		app.cleanup()
		return fmt.Errorf("failed to listen: %w", err)
	}
	return app.serve(ctx, ln)
}

// serve handles requests on ln and shuts down gracefully once ctx is done.
func (app *application) serve(ctx context.Context, ln net.Listener) error {
	defer app.cleanup()

	srv := &http.Server{
		Handler:           app.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("server shutdown completed")
	return nil
}

func (app *application) cleanup() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
	app.db = nil
}
