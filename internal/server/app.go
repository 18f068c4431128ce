// Package server assembles the userdir server: configuration, storage, the
// optional view cache, the directory service and its gRPC transport.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/userdir/internal/logging"
	"github.com/dmitrijs2005/userdir/internal/server/auth"
	"github.com/dmitrijs2005/userdir/internal/server/authz"
	"github.com/dmitrijs2005/userdir/internal/server/cache"
	"github.com/dmitrijs2005/userdir/internal/server/config"
	"github.com/dmitrijs2005/userdir/internal/server/credentials"
	"github.com/dmitrijs2005/userdir/internal/server/directory"
	"github.com/dmitrijs2005/userdir/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userdir/internal/server/repositories/users"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/userdir/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	directory *directory.Service
	resolver  *auth.Resolver
	db        *sql.DB
	redis     *redis.Client
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	access, err := config.LoadAccess(c.AccessFile)
	if err != nil {
		return nil, err
	}

	operators, err := auth.NewOperatorDirectory(access.Operators)
	if err != nil {
		return nil, fmt.Errorf("access file: %w", err)
	}
	if len(access.Operators) == 0 {
		logger.Warn(ctx, "No operators configured, only bearer tokens are accepted", "access_file", c.AccessFile)
	}

	var tokens *auth.TokenVerifier
	if c.SecretKey != "" {
		tokens = auth.NewTokenVerifier([]byte(c.SecretKey))
	}
	app.resolver = auth.NewResolver(operators, tokens)

	store, err := app.initStore(ctx)
	if err != nil {
		return nil, err
	}

	opts := []directory.Option{directory.WithLogger(logger)}
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := app.redis.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "Redis unreachable, reads fall through to the store", "addr", c.RedisAddr, "error", err.Error())
		}
		opts = append(opts, directory.WithCache(cache.NewUserCache(app.redis, c.CacheTTL)))
	}

	creds := credentials.NewManager(credentials.Params{
		Time:      c.HashTime,
		MemoryKiB: c.HashMemoryKiB,
		Threads:   c.HashThreads,
	})

	app.directory = directory.NewService(store, authz.NewGuard(access.Policy), creds, opts...)

	return app, nil
}

func (app *App) initStore(ctx context.Context) (directory.Store, error) {
	if app.config.DatabaseDSN == "" {
		app.logger.Info(ctx, "No database configured, using in-memory store")
		return users.NewMemoryRepository(), nil
	}

	rm := repomanager.NewPostgresRepositoryManager()
	db, err := repomanager.OpenPostgres(ctx, app.config.DatabaseDSN, rm)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	return rm.Users(db), nil
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.directory, app.resolver)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err.Error())
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err.Error())
		}
	}
	app.logger.Info(ctx, "App stopped")
}
