// Package bootstrap builds the process-wide configuration and client bundle
// shared by every command.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shineum/ses-forwarder/internal/blobstore"
	"github.com/shineum/ses-forwarder/internal/config"
	"github.com/shineum/ses-forwarder/internal/forwarder"
)

// LoadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given, then validates it.
func LoadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StoreConfig maps storage settings onto a blobstore.Config. Credentials are
// passed only as a complete pair; otherwise the default AWS chain applies.
func StoreConfig(cfg *config.Config) blobstore.Config {
	sc := blobstore.Config{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
	}
	if cfg.StaticCredentials() {
		sc.AccessKeyID = cfg.Storage.AccessKeyID
		sc.SecretAccessKey = cfg.Storage.SecretAccessKey
	}
	return sc
}

// NewForwarder creates the S3 store and the Forwarder using it.
func NewForwarder(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*forwarder.Forwarder, error) {
	store, err := blobstore.NewS3StoreFromConfig(ctx, StoreConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create store: %w", err)
	}

	log.Info().
		Str("endpoint", cfg.Forward.Endpoint).
		Str("bucket", store.Bucket()).
		Dur("timeout", cfg.Forward.Timeout).
		Msg("forwarder configured")

	return forwarder.New(store, forwarder.Config{
		Endpoint: cfg.Forward.Endpoint,
		Timeout:  cfg.Forward.Timeout,
	}, log), nil
}
