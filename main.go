package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bebenbaven/YTcommentGETer/internal/app"
	"github.com/Bebenbaven/YTcommentGETer/internal/config"
	"github.com/Bebenbaven/YTcommentGETer/internal/handlers"
	"github.com/Bebenbaven/YTcommentGETer/internal/rabbitmq"
	"github.com/Bebenbaven/YTcommentGETer/internal/routes"
)

func main() {
	ctx := context.Background()

	err := run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to run server", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	s, err := app.LoadScorer(cfg)
	if err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	var queue handlers.JobQueue
	if cfg.AMQPURL != "" {
		done := make(chan os.Signal)
		client := rabbitmq.New(cfg.AMQPQueue, cfg.AMQPURL, done, logger)
		defer func() {
			close(done)
			if err := client.Close(); err != nil {
				logger.ErrorContext(ctx, "failed to close rabbitmq client", "error", err)
			}
		}()
		queue = client
	} else {
		logger.WarnContext(ctx, "AMQP_SERVER_URL is not set, job endpoint disabled")
	}

	router := routes.New(handlers.New(queue, s, logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Start(cfg.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-sig:
	}

	logger.InfoContext(ctx, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return router.Shutdown(shutdownCtx)
}
