// Package blobstore reads stored email payloads from object storage.
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested object does not exist.
var ErrNotFound = errors.New("blobstore: object not found")

// Store fetches raw objects by exact key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Config holds configuration for creating an S3-backed Store.
type Config struct {
	Bucket          string
	KeyPrefix       string
	Region          string
	Endpoint        string // S3-compatible endpoint such as MinIO or localstack
	AccessKeyID     string
	SecretAccessKey string
}
