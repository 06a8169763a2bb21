package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"

	"github.com/kodbank/kodbank/internal/client/client"
	"github.com/kodbank/kodbank/internal/client/config"
	"github.com/kodbank/kodbank/internal/client/repositories/metadata"
	"github.com/kodbank/kodbank/internal/client/services"
	"github.com/kodbank/kodbank/internal/filex"
	"github.com/kodbank/kodbank/internal/logging"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	logger      logging.Logger
	db          *sql.DB
	userName    string
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(logging.BackendSlog, c.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	if err := filex.EnsureParentDir(c.StateDSN); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.StateDSN)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, c.RetryAttempts)
	as := services.NewAuthService(api, metadata.NewSQLiteRepository(db))

	app := &App{
		config:      c,
		authService: as,
		logger:      logger,
		db:          db,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}

	s, err := as.Current(ctx)
	switch {
	case err == nil:
		app.userName = s.Username
	case !errors.Is(err, services.ErrNotLoggedIn):
		_ = db.Close()
		return nil, err
	}

	return app, nil
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

// Run prints a greeting, probes the server and serves the REPL until the
// user exits or stdin is closed.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(ctx, "state db close failed", "error", err)
		}
	}()

	printlnFn("Welcome to KodBank CLI (type 'help' for commands)")

	if err := a.authService.Ping(ctx); err != nil {
		a.logger.Warn(ctx, "server is not reachable", "url", a.config.ServerURL, "error", err)
		printlnFn("Server is not reachable at", a.config.ServerURL)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return "(anonymous)"
	}
	return "(" + a.userName + ")"
}
