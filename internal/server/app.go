// Package server wires the AuthKeeper server together: storage, services,
// background jobs and the gRPC endpoint, and runs them until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/archive"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/scheduler"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	users    *services.UserService
	sessions *services.SessionService
	audit    *services.AuditService
	auditor  *services.AsyncAuditor
	limiter  *ratelimit.SlidingWindow
}

// NewApp connects to the database, applies migrations and builds the
// services. The returned App owns the database handle.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	var archiver services.Archiver
	a, err := archive.NewS3Archiver(ctx, archive.Options{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
	})
	switch {
	case err == nil:
		archiver = a
	case errors.Is(err, archive.ErrNoBucket):
		logger.Info(ctx, "audit archive disabled")
	default:
		_ = db.Close()
		return nil, fmt.Errorf("archive init error: %w", err)
	}

	return newApp(c, logger, db, rm, archiver), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager, archiver services.Archiver) *App {
	auditor := services.NewAsyncAuditor(db, rm, c.AuditBuffer, c.StoreTimeout, logger)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		users:    services.NewUserService(db, rm, c, auditor, logger),
		sessions: services.NewSessionService(db, rm, c, auditor, logger),
		audit:    services.NewAuditService(db, rm, c.AuditRetention, c.StoreTimeout, archiver, logger),
		auditor:  auditor,
		limiter:  ratelimit.New(c.RateLimitMaxRequests, c.RateLimitWindow, c.RateLimitIdleTTL),
	}
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

// bootstrapRoot creates the root account on first start.
func (app *App) bootstrapRoot(ctx context.Context) error {
	created, err := app.users.EnsureRootAccount(ctx, app.config.RootAccountPassword)
	if err != nil {
		return fmt.Errorf("root account: %w", err)
	}
	if created {
		app.logger.Info(ctx, "root account created", "user_id", app.config.RootAccountID)
		if app.config.RootAccountPassword == config.DefaultRootPassword {
			app.logger.Warn(ctx, "root account uses the default password, change it")
		}
	}
	return nil
}

func (app *App) jobs() []scheduler.Job {
	return []scheduler.Job{
		{Name: "session_sweep", Interval: app.config.SessionSweepInterval, Run: app.sessions.SweepExpired},
		{Name: "audit_retention", Interval: app.config.AuditSweepInterval, Run: app.audit.PurgeExpired},
		{Name: "ratelimit_eviction", Interval: app.config.RateLimitIdleTTL, Run: func(context.Context) (int64, error) {
			return app.limiter.Sweep(), nil
		}},
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.users, app.sessions, app.audit, app.limiter)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a shutdown signal arrives, then
// drains the audit queue and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)
	app.auditor.Start(ctx)

	defer func() {
		app.auditor.Close()
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
		app.logger.Info(ctx, "App stopped")
	}()

	if err := app.bootstrapRoot(ctx); err != nil {
		return err
	}

	sched := scheduler.New(app.logger, app.jobs()...)
	sched.Start(ctx)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()
	cancelFunc()
	sched.Wait()
	return nil
}
