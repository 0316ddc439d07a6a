// Package queue consumes SES receipt notifications from SQS and forwards
// the referenced messages.
package queue

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"

	"github.com/shineum/ses-forwarder/internal/metrics"
	"github.com/shineum/ses-forwarder/internal/trigger"
)

// defaultErrorBackoff is the pause after a failed ReceiveMessage call.
const defaultErrorBackoff = 5 * time.Second

// Config holds settings for a Poller.
type Config struct {
	QueueURL        string
	WaitTimeSeconds int32
	MaxMessages     int32
	ErrorBackoff    time.Duration
}

// Poller long-polls one SQS queue and processes messages sequentially.
// A message is deleted only after its batch forwards without error; failed
// messages stay on the queue and are redelivered after the visibility timeout.
type Poller struct {
	client       SQSAPI
	queueURL     string
	batcher      trigger.Batcher
	log          zerolog.Logger
	waitTime     int32
	maxMessages  int32
	errorBackoff time.Duration
}

// NewPoller creates a Poller reading from cfg.QueueURL.
func NewPoller(client SQSAPI, cfg Config, b trigger.Batcher, log zerolog.Logger) *Poller {
	waitTime := cfg.WaitTimeSeconds
	if waitTime <= 0 {
		waitTime = 20
	}
	maxMessages := cfg.MaxMessages
	if maxMessages <= 0 || maxMessages > 10 {
		maxMessages = 10
	}
	backoff := cfg.ErrorBackoff
	if backoff <= 0 {
		backoff = defaultErrorBackoff
	}

	return &Poller{
		client:       client,
		queueURL:     cfg.QueueURL,
		batcher:      b,
		log:          log,
		waitTime:     waitTime,
		maxMessages:  maxMessages,
		errorBackoff: backoff,
	}
}

// Run polls until ctx is cancelled. Receive errors are logged and retried
// after the configured backoff.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info().
		Str("queue_url", p.queueURL).
		Int32("wait_time", p.waitTime).
		Msg("sqs poller started")

	for ctx.Err() == nil {
		if _, err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.log.Error().Err(err).Dur("backoff", p.errorBackoff).Msg("failed to receive messages")
			if err := sleepWithContext(ctx, p.errorBackoff); err != nil {
				break
			}
		}
	}

	p.log.Info().Msg("sqs poller stopped")
}

// Poll performs one ReceiveMessage call and handles every returned message.
// It returns the number of messages received.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	out, err := p.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            &p.queueURL,
		MaxNumberOfMessages: p.maxMessages,
		WaitTimeSeconds:     p.waitTime,
	})
	if err != nil {
		return 0, err
	}

	for _, msg := range out.Messages {
		p.handle(ctx, msg)
	}
	return len(out.Messages), nil
}

// handle forwards one SQS message and deletes it on success.
func (p *Poller) handle(ctx context.Context, msg types.Message) {
	log := p.log.With().Str("sqs_message_id", derefString(msg.MessageId)).Logger()

	ids, err := MessageIDs(derefString(msg.Body))
	if err != nil {
		// An undecodable body can never succeed; drop it.
		log.Warn().Err(err).Msg("discarding malformed queue message")
		metrics.QueueMessagesTotal.WithLabelValues("malformed").Inc()
		p.delete(ctx, msg, log)
		return
	}

	if err := p.batcher.ForwardBatch(ctx, ids); err != nil {
		log.Error().Err(err).Msg("forward failed, leaving message for redelivery")
		metrics.QueueMessagesTotal.WithLabelValues("failed").Inc()
		return
	}

	metrics.QueueMessagesTotal.WithLabelValues("processed").Inc()
	p.delete(ctx, msg, log)
}

// delete removes msg from the queue. It ignores cancellation of ctx so a
// completed forward is not redelivered because of a shutdown.
func (p *Poller) delete(ctx context.Context, msg types.Message, log zerolog.Logger) {
	_, err := p.client.DeleteMessage(context.WithoutCancel(ctx), &sqs.DeleteMessageInput{
		QueueUrl:      &p.queueURL,
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to delete queue message")
	}
}

// sleepWithContext waits for the specified duration or until the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
