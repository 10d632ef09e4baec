package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/complaint-intake/internal/domain/answering"
	"github.com/yanqian/complaint-intake/internal/infra/config"
	"github.com/yanqian/complaint-intake/internal/infra/intake/queue"
)

// App encapsulates the HTTP server and answering worker lifecycle.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	server    *http.Server
	queue     queue.HandlerQueue
	answering *answering.Service
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, jobs queue.HandlerQueue, answeringSvc *answering.Service) *App {
	return &App{
		cfg:       cfg,
		logger:    logger.With("component", "bootstrap"),
		server:    server,
		queue:     jobs,
		answering: answeringSvc,
	}
}

// Run starts the worker and the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	a.queue.SetHandler(a.answering.HandleJob)
	defer a.queue.Stop()

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
