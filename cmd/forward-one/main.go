// Package main forwards stored emails by message id from the command line,
// for manual replay of messages the dispatcher gave up on.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shineum/ses-forwarder/internal/bootstrap"
	"github.com/shineum/ses-forwarder/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config file] <message-id>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fwd, err := bootstrap.NewForwarder(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to create forwarder")
		stop()
		os.Exit(1)
	}

	if err := fwd.ForwardBatch(ctx, flag.Args()); err != nil {
		log.Error().Err(err).Msg("forward aborted")
		stop()
		os.Exit(1)
	}

	log.Info().Int("count", flag.NArg()).Msg("all messages processed")
}
