// Package main is the AWS Lambda entry point invoked by SES receipt rules.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/shineum/ses-forwarder/internal/bootstrap"
	"github.com/shineum/ses-forwarder/internal/logger"
	"github.com/shineum/ses-forwarder/internal/trigger"
)

func main() {
	// Configuration comes from the function environment only.
	cfg, err := bootstrap.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	fwd, err := bootstrap.NewForwarder(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create forwarder")
	}

	lambda.Start(trigger.NewHandler(fwd, log).Handle)
}
