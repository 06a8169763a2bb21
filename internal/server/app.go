// Package server initializes and runs the KodBank server: the REST API,
// the gRPC health endpoint and the expired-session sweeper.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kodbank/kodbank/internal/logging"
	"github.com/kodbank/kodbank/internal/server/audit"
	"github.com/kodbank/kodbank/internal/server/auth"
	"github.com/kodbank/kodbank/internal/server/config"
	"github.com/kodbank/kodbank/internal/server/metrics"
	"github.com/kodbank/kodbank/internal/server/repositories/repomanager"
	"github.com/kodbank/kodbank/internal/server/rest"
	"github.com/kodbank/kodbank/internal/server/services"
	"github.com/kodbank/kodbank/internal/server/sweeper"
	"github.com/shopspring/decimal"

	gs "github.com/kodbank/kodbank/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	metrics   *metrics.Metrics
	publisher audit.Publisher
	handler   http.Handler
	grpc      *gs.GRPCServer
	sweeper   *sweeper.Sweeper
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	balance, err := decimal.NewFromString(c.DefaultBalance)
	if err != nil || balance.IsNegative() {
		return nil, fmt.Errorf("invalid default balance %q", c.DefaultBalance)
	}

	if c.SessionValidityDuration <= 0 {
		return nil, fmt.Errorf("session validity must be positive, got %s", c.SessionValidityDuration)
	}

	db, m, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	var publisher audit.Publisher = audit.NopPublisher{}
	if len(c.KafkaBrokers) > 0 {
		publisher = audit.NewKafkaPublisher(c.KafkaBrokers, c.KafkaAuditTopic, logger)
	}

	mx := metrics.New()

	svc := services.NewAuthService(db, m, services.Options{
		Tokens:         auth.TokenConfig{SecretKey: []byte(c.SecretKey), Validity: c.SessionValidityDuration},
		DefaultBalance: balance,
		Hasher:         auth.NewBcryptHasher(c.BcryptCost),
		Logger:         logger,
		Publisher:      publisher,
	})

	// A nil *sql.DB must not end up inside a non-nil interface.
	var (
		restPinger rest.Pinger
		grpcPinger gs.Pinger
	)
	if db != nil {
		restPinger, grpcPinger = db, db
	}

	app := &App{
		config:    c,
		logger:    logger,
		db:        db,
		metrics:   mx,
		publisher: publisher,
		handler: rest.NewRouter(rest.RouterConfig{
			Service:        svc,
			Logger:         logger,
			Metrics:        mx,
			DB:             restPinger,
			AllowedOrigins: c.AllowedOrigins,
			CookieSecure:   c.CookieSecure,
		}),
		grpc: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, grpcPinger),
	}

	if c.SessionSweepSchedule != "" {
		sw, err := sweeper.New(c.SessionSweepSchedule, m.Sessions(db), logger, mx.SessionsSwept)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.sweeper = sw
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	lis, err := net.Listen("tcp", app.config.EndpointAddrHTTP)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	srv := &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startSweeper(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.sweeper.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or one of
// the servers fails, then releases the app's resources.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "driver", app.config.DatabaseDriver)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.sweeper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startSweeper(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "App stopped")
}

// Close releases the database pool and the audit publisher.
func (app *App) Close() {
	if err := app.publisher.Close(); err != nil {
		app.logger.Warn(context.Background(), "audit publisher close failed", "error", err)
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(context.Background(), "db close failed", "error", err)
		}
	}
}
