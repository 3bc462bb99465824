package app

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muratoffalex/ytscribe/internal/app/di"
	"github.com/muratoffalex/ytscribe/internal/config"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/server"
)

const (
	shutdownTimeout = 30 * time.Second
	cleanerInterval = time.Hour
)

type Application struct {
	Logger logger.Logger
	cfg    *config.Config
	di     *di.Container
	server *server.Server
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds the long-running service. It stops on SIGINT or SIGTERM.
func New(cfg *config.Config, l logger.Logger) (*Application, error) {
	container, err := di.NewContainer(cfg, l)
	if err != nil {
		return nil, err
	}
	l.Info("DI Container created")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	router := server.NewRouter(container.Handler(), container.Registry)

	return &Application{
		Logger: l,
		cfg:    cfg,
		di:     container,
		server: server.New(cfg.Server(), router, l.WithField("component", "http")),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start binds the listener and serves in the background.
func (a *Application) Start() error {
	a.Logger.Info("Starting application")

	ln, err := net.Listen("tcp", a.cfg.Server().Addr)
	if err != nil {
		a.cancel()
		return err
	}

	a.StartAttemptCleaner()
	go func() {
		if err := a.server.Serve(ln); err != nil {
			a.Logger.WithError(err).Error("HTTP server failed")
		}
		a.cancel()
	}()
	return nil
}

func (a *Application) WaitForShutdown() {
	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	if err := a.di.Close(); err != nil {
		a.Logger.WithError(err).Warn("Failed to close database")
	}
	a.Logger.Info("Application stopped")
}

// StartAttemptCleaner purges attempt history older than the retention period.
func (a *Application) StartAttemptCleaner() {
	if a.di.DB == nil {
		return
	}
	retention := a.cfg.Database().RetentionDays
	go func() {
		ticker := time.NewTicker(cleanerInterval)
		defer ticker.Stop()
		for {
			purged, err := a.di.DB.PurgeOldAttempts(a.ctx, retention)
			if err != nil {
				a.Logger.WithError(err).Error("Failed to purge old attempts")
			} else if purged > 0 {
				a.Logger.WithField("purged", purged).Info("Old attempts purged")
			}

			select {
			case <-a.ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
