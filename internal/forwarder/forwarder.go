// Package forwarder relays stored inbound emails to the downstream HTTP API.
package forwarder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/shineum/ses-forwarder/internal/blobstore"
	"github.com/shineum/ses-forwarder/internal/email"
	"github.com/shineum/ses-forwarder/internal/metrics"
)

// HeaderMessageID carries the message identifier on the forwarded request.
const HeaderMessageID = "X-Message-ID"

// DefaultTimeout bounds the POST, including waiting for the response.
const DefaultTimeout = 300 * time.Second

// maxRejectBody caps how much of a rejection response is logged.
const maxRejectBody = 1024

// Config holds the endpoint settings for a Forwarder.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Forwarder fetches stored emails and POSTs their raw bytes to an endpoint.
// It holds no mutable state and is safe for concurrent use.
type Forwarder struct {
	store      blobstore.Store
	endpoint   string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a Forwarder reading from store and posting to cfg.Endpoint.
func New(store blobstore.Store, cfg Config, log zerolog.Logger) *Forwarder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewWithClient(store, cfg.Endpoint, &http.Client{Timeout: timeout}, log)
}

// NewWithClient creates a Forwarder with a custom HTTP client, used for testing.
func NewWithClient(store blobstore.Store, endpoint string, client *http.Client, log zerolog.Logger) *Forwarder {
	return &Forwarder{
		store:      store,
		endpoint:   endpoint,
		httpClient: client,
		log:        log,
	}
}

// Forward delivers the email stored under id to the endpoint.
//
// Storage failures return *StorageFetchError and transport failures return
// *NetworkError; both are logged first. A response other than 200 is logged
// as a rejection and Forward returns nil.
func (f *Forwarder) Forward(ctx context.Context, id string) error {
	log := f.log.With().Str("message_id", id).Logger()

	if id == "" {
		log.Error().Msg("refusing to forward message without id")
		metrics.ForwardRequestsTotal.WithLabelValues(metrics.ResultError).Inc()
		return ErrEmptyMessageID
	}

	start := time.Now()

	msg, err := f.fetch(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch message from storage")
		metrics.ForwardRequestsTotal.WithLabelValues(metrics.ResultStorageError).Inc()
		return err
	}

	status, body, err := f.post(ctx, msg)
	if err != nil {
		result := metrics.ResultError
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			result = metrics.ResultNetworkError
		}
		log.Error().Err(err).Msg("failed to forward message")
		metrics.ForwardRequestsTotal.WithLabelValues(result).Inc()
		return err
	}

	metrics.ForwardDuration.Observe(time.Since(start).Seconds())
	metrics.ForwardPayloadBytes.Observe(float64(msg.Size()))

	if status != http.StatusOK {
		log.Warn().
			Int("status", status).
			Str("response", body).
			Msg("endpoint rejected message")
		metrics.ForwardRequestsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return nil
	}

	log.Info().
		Int("bytes", msg.Size()).
		Dur("elapsed", time.Since(start)).
		Msg("message forwarded")
	metrics.ForwardRequestsTotal.WithLabelValues(metrics.ResultDelivered).Inc()
	return nil
}

// ForwardBatch forwards ids in order, skipping empty entries.
// The first error stops the batch and is returned unchanged.
func (f *Forwarder) ForwardBatch(ctx context.Context, ids []string) error {
	for i, id := range ids {
		if id == "" {
			f.log.Debug().Int("index", i).Msg("skipping record without message id")
			continue
		}
		if err := f.Forward(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// fetch reads the stored email for id.
func (f *Forwarder) fetch(ctx context.Context, id string) (*email.Message, error) {
	raw, err := f.store.Get(ctx, id)
	if err != nil {
		return nil, &StorageFetchError{MessageID: id, Err: err}
	}
	return &email.Message{ID: id, Raw: raw}, nil
}

// post sends msg and returns the response status with a truncated body.
func (f *Forwarder) post(ctx context.Context, msg *email.Message) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(msg.Raw))
	if err != nil {
		return 0, "", fmt.Errorf("forwarder: create request for %s: %w", msg.ID, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(HeaderMessageID, msg.ID)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, "", &NetworkError{MessageID: msg.ID, Endpoint: f.endpoint, Err: err}
	}
	defer resp.Body.Close()

	var body []byte
	if resp.StatusCode != http.StatusOK {
		body, _ = io.ReadAll(io.LimitReader(resp.Body, maxRejectBody))
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, string(body), nil
}
