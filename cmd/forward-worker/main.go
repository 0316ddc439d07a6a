// Package main runs the SQS worker that forwards emails announced by SES
// receipt notifications.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shineum/ses-forwarder/internal/bootstrap"
	"github.com/shineum/ses-forwarder/internal/logger"
	"github.com/shineum/ses-forwarder/internal/queue"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	cfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	if cfg.Queue.URL == "" {
		log.Fatal().Msg("SQS_QUEUE_URL is required for the worker")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received signal, initiating shutdown")
		cancel()
	}()

	fwd, err := bootstrap.NewForwarder(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create forwarder")
	}

	sqsClient, err := queue.NewSQSClient(ctx, cfg.Storage.Region)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create SQS client")
	}

	poller := queue.NewPoller(sqsClient, queue.Config{
		QueueURL:        cfg.Queue.URL,
		WaitTimeSeconds: cfg.Queue.WaitTimeSeconds,
		MaxMessages:     cfg.Queue.MaxMessages,
	}, fwd, log)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("listen", cfg.Metrics.Listen).Msg("metrics server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	// Blocks until the context is cancelled
	poller.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server shutdown error")
	}

	log.Info().Msg("forward-worker stopped")
}
