// Package server initializes and runs the filekeeper server: it wires the
// registry backend, byte stores, bin, audit log and notification dispatcher
// together and serves the HTTP API until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/audit"
	"github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/filekeeper/internal/server/notify"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
	"github.com/dmitrijs2005/filekeeper/internal/server/storage"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	dispatcher *notify.Dispatcher
	httpServer *httpapi.HTTPServer
}

func NewApp(cfg *config.Config) (*App, error) {

	handler := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(handler)

	var (
		db  *sql.DB
		rm  repomanager.RepositoryManager
		err error
	)
	if cfg.DatabaseDSN != "" {
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(context.Background(), db); err != nil {
			return nil, fmt.Errorf("db migration error: %w", err)
		}
	} else {
		rm, err = repomanager.NewInMemoryRepositoryManager(cfg.RegistrySnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("registry init error: %w", err)
		}
	}

	store, err := storage.NewLocalStore(cfg.UploadsDir, cfg.DownloadsDir)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	var bin storage.Bin
	if cfg.S3BinEnabled {
		bin, err = storage.NewS3Bin(context.Background(), store, storage.S3Settings{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			KeyPrefix:    cfg.S3KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 bin init error: %w", err)
		}
	} else {
		bin, err = storage.NewFSBin(store, cfg.BinDir)
		if err != nil {
			return nil, fmt.Errorf("bin init error: %w", err)
		}
	}

	var notifier notify.Notifier = notify.Discard
	if cfg.SMTPHost != "" {
		notifier = &notify.SMTPNotifier{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPFrom,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}
	}
	dispatcher := notify.NewDispatcher(notifier, logger, cfg.NotifyTimeout)

	auditLog := audit.NewFileLog(cfg.AuditLogPath)

	assetService := services.NewAssetService(db, rm, cfg, store, bin, auditLog, dispatcher, logger)
	userService := services.NewUserService(db, rm, cfg)

	httpServer := httpapi.NewHTTPServer(cfg.EndpointAddrHTTP, logger, userService, assetService, cfg.SecretKey)

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		dispatcher: dispatcher,
		httpServer: httpServer,
	}, nil
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

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
	}

	// Let in-flight deletion notices finish before the process exits.
	app.dispatcher.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, err.Error())
		}
	}

	app.logger.Info(ctx, "App stopped")
}
