package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"OptionPulse/internal/usecase"
	"OptionPulse/pkg/cache"
	"OptionPulse/pkg/config"
	xhttp "OptionPulse/pkg/http"
	pkgkafka "OptionPulse/pkg/kafka"
	applogger "OptionPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	feed       *usecase.FeedConnector
	lifecycle  *usecase.Lifecycle
	handler    xhttp.Handler
	httpServer *xhttp.Server
	producer   *pkgkafka.Producer
	shared     cache.Service
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	feed *usecase.FeedConnector,
	lifecycle *usecase.Lifecycle,
	handler xhttp.Handler,
	producer *pkgkafka.Producer,
	shared cache.Service,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		feed:      feed,
		lifecycle: lifecycle,
		handler:   handler,
		producer:  producer,
		shared:    shared,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler, a.log,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.feed.Start(ctx); err != nil {
		// The connector keeps retrying with backoff inside Start, so an
		// error here means the ceiling was hit before first connect.
		a.log.Error("feed start failed", applogger.Error(err))
		return err
	}
	a.log.Info("feed connector started",
		applogger.String("symbol", a.cfg.Feed.Symbol),
		applogger.String("url", a.cfg.Feed.WebSocketURL),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.feed.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.shared != nil {
		if err := a.shared.Close(); err != nil {
			a.log.Warn("shared cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
