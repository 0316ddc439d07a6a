// Package trigger adapts SES receipt events to forwarder batches.
package trigger

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// Batcher forwards identifiers in order, stopping at the first error.
type Batcher interface {
	ForwardBatch(ctx context.Context, ids []string) error
}

// Response is the acknowledgement returned once every record is processed.
type Response struct {
	StatusCode int `json:"statusCode"`
}

// Event is an SES receipt event. Records stay undecoded so that one
// malformed record cannot fail the whole invocation.
type Event struct {
	Records []json.RawMessage `json:"Records"`
}

// record reads only the path carrying the message id.
type record struct {
	SES struct {
		Mail struct {
			MessageID string `json:"messageId"`
		} `json:"mail"`
	} `json:"ses"`
}

// Handler is the Lambda entry point for SES receipt events.
type Handler struct {
	batcher Batcher
	log     zerolog.Logger
}

// NewHandler creates a Handler that forwards through b.
func NewHandler(b Batcher, log zerolog.Logger) *Handler {
	return &Handler{batcher: b, log: log}
}

// MessageIDs returns the SES message id of every record, in order.
// Records that do not decode yield an empty string, which ForwardBatch skips.
func (h *Handler) MessageIDs(event Event) []string {
	ids := make([]string, 0, len(event.Records))
	for i, raw := range event.Records {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			h.log.Debug().Int("index", i).Err(err).Msg("skipping malformed record")
			ids = append(ids, "")
			continue
		}
		ids = append(ids, r.SES.Mail.MessageID)
	}
	return ids
}

// Handle forwards every record of event. Errors are returned unchanged so
// the Lambda runtime reports the invocation as failed and its retry policy
// applies.
func (h *Handler) Handle(ctx context.Context, event Event) (Response, error) {
	ids := h.MessageIDs(event)
	h.log.Debug().Int("records", len(ids)).Msg("received SES event")

	if err := h.batcher.ForwardBatch(ctx, ids); err != nil {
		return Response{}, err
	}
	return Response{StatusCode: 200}, nil
}
