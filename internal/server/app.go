// Package server initializes and runs the BloomDrive application server.
// It opens the database, runs migrations, wires the blob store and listing
// cache, and starts the HTTP server with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bloomdrive/bloomdrive/internal/logging"
	"github.com/bloomdrive/bloomdrive/internal/server/blob"
	"github.com/bloomdrive/bloomdrive/internal/server/config"
	"github.com/bloomdrive/bloomdrive/internal/server/httpapi"
	"github.com/bloomdrive/bloomdrive/internal/server/listcache"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/repomanager"
	"github.com/bloomdrive/bloomdrive/internal/server/services"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
	closers    []func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	app := &App{config: cfg, logger: logger, db: db}
	app.closers = append(app.closers, db.Close)

	blobs, err := app.newBlobStore(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	cache, err := app.newListCache()
	if err != nil {
		app.close()
		return nil, err
	}

	mailer := services.NewLogMailer(logger)
	identity := services.NewIdentityService(db, rm, mailer, logger, cfg)
	files := services.NewFileService(db, rm, blobs, cache, cfg.ListCacheTTL, logger)

	app.httpServer = httpapi.NewServer(cfg, logger, identity, files)
	return app, nil
}

func (app *App) newBlobStore(ctx context.Context) (blob.Store, error) {
	switch app.config.BlobBackend {
	case "local":
		store, err := blob.NewLocalStore(app.config.LocalBlobDir)
		if err != nil {
			return nil, fmt.Errorf("local blob store init error: %w", err)
		}
		return store, nil
	case "s3":
		store, err := blob.NewS3Store(ctx, blob.S3Config{
			RootUser:     app.config.S3RootUser,
			RootPassword: app.config.S3RootPassword,
			Bucket:       app.config.S3Bucket,
			Region:       app.config.S3Region,
			BaseEndpoint: app.config.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 blob store init error: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", app.config.BlobBackend)
	}
}

func (app *App) newListCache() (listcache.Cache, error) {
	if app.config.RedisAddr == "" {
		return listcache.NewMemoryCache(), nil
	}
	cache, err := listcache.NewRedisCache(app.config.RedisAddr, app.config.RedisPassword, app.config.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.closers = append(app.closers, cache.Close)
	return cache, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Error(context.Background(), "close error", "error", err)
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server error", "error", err)
	}

	app.close()
}
