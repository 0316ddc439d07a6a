package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"
)

// mockSQSClient implements SQSAPI for testing.
type mockSQSClient struct {
	mu         sync.Mutex
	batches    [][]types.Message
	receiveErr error
	receives   int
	lastInput  *sqs.ReceiveMessageInput
	deleted    []string
}

func (m *mockSQSClient) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	m.mu.Lock()
	m.receives++
	m.lastInput = params
	if m.receiveErr != nil {
		err := m.receiveErr
		m.mu.Unlock()
		return nil, err
	}
	if len(m.batches) == 0 {
		m.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	m.mu.Unlock()
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (m *mockSQSClient) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (m *mockSQSClient) deletedHandles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// mockBatcher fails for ids listed in fail.
type mockBatcher struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls [][]string
}

func (m *mockBatcher) ForwardBatch(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ids)
	for _, id := range ids {
		if m.fail[id] {
			return errors.New("forward failed for " + id)
		}
	}
	return nil
}

func sqsMessage(handle, body string) types.Message {
	return types.Message{
		MessageId:     aws.String("sqs-" + handle),
		ReceiptHandle: aws.String(handle),
		Body:          aws.String(body),
	}
}

func receivedBody(id string) string {
	return `{"notificationType":"Received","mail":{"messageId":"` + id + `"}}`
}

func TestPoll_DeletesOnSuccess(t *testing.T) {
	t.Parallel()

	client := &mockSQSClient{batches: [][]types.Message{{
		sqsMessage("h1", receivedBody("m1")),
		sqsMessage("h2", receivedBody("m2")),
	}}}
	b := &mockBatcher{}
	p := NewPoller(client, Config{QueueURL: "https://sqs.example/q"}, b, zerolog.Nop())

	n, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("received: got %d, want 2", n)
	}
	if len(b.calls) != 2 || b.calls[0][0] != "m1" || b.calls[1][0] != "m2" {
		t.Errorf("ForwardBatch calls: got %q", b.calls)
	}
	if got := client.deletedHandles(); len(got) != 2 || got[0] != "h1" || got[1] != "h2" {
		t.Errorf("deleted: got %q, want [h1 h2]", got)
	}
}

func TestPoll_KeepsFailedMessages(t *testing.T) {
	t.Parallel()

	client := &mockSQSClient{batches: [][]types.Message{{
		sqsMessage("h1", receivedBody("m1")),
		sqsMessage("h2", receivedBody("m2")),
	}}}
	b := &mockBatcher{fail: map[string]bool{"m1": true}}
	p := NewPoller(client, Config{QueueURL: "https://sqs.example/q"}, b, zerolog.Nop())

	if _, err := p.Poll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.deletedHandles(); len(got) != 1 || got[0] != "h2" {
		t.Errorf("deleted: got %q, want only h2", got)
	}
}

func TestPoll_DropsMalformedMessages(t *testing.T) {
	t.Parallel()

	client := &mockSQSClient{batches: [][]types.Message{{
		sqsMessage("bad", "<html>not json</html>"),
	}}}
	b := &mockBatcher{}
	p := NewPoller(client, Config{QueueURL: "https://sqs.example/q"}, b, zerolog.Nop())

	if _, err := p.Poll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.calls) != 0 {
		t.Errorf("ForwardBatch calls: got %d, want 0", len(b.calls))
	}
	if got := client.deletedHandles(); len(got) != 1 || got[0] != "bad" {
		t.Errorf("deleted: got %q, want [bad]", got)
	}
}

func TestPoll_ReceiveError(t *testing.T) {
	t.Parallel()

	client := &mockSQSClient{receiveErr: errors.New("throttled")}
	p := NewPoller(client, Config{QueueURL: "https://sqs.example/q"}, &mockBatcher{}, zerolog.Nop())

	if _, err := p.Poll(context.Background()); !errors.Is(err, client.receiveErr) {
		t.Errorf("expected receive error, got %v", err)
	}
}

func TestPoll_RequestParameters(t *testing.T) {
	t.Parallel()

	client := &mockSQSClient{batches: [][]types.Message{{}}}
	cfg := Config{QueueURL: "https://sqs.example/q", WaitTimeSeconds: 7, MaxMessages: 3}
	p := NewPoller(client, cfg, &mockBatcher{}, zerolog.Nop())

	if _, err := p.Poll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := client.lastInput
	if aws.ToString(in.QueueUrl) != "https://sqs.example/q" {
		t.Errorf("QueueUrl: got %q", aws.ToString(in.QueueUrl))
	}
	if in.WaitTimeSeconds != 7 {
		t.Errorf("WaitTimeSeconds: got %d, want 7", in.WaitTimeSeconds)
	}
	if in.MaxNumberOfMessages != 3 {
		t.Errorf("MaxNumberOfMessages: got %d, want 3", in.MaxNumberOfMessages)
	}
}

func TestNewPoller_Defaults(t *testing.T) {
	t.Parallel()

	p := NewPoller(&mockSQSClient{}, Config{MaxMessages: 50}, &mockBatcher{}, zerolog.Nop())
	if p.waitTime != 20 {
		t.Errorf("waitTime: got %d, want 20", p.waitTime)
	}
	if p.maxMessages != 10 {
		t.Errorf("maxMessages: got %d, want 10 (SQS maximum)", p.maxMessages)
	}
	if p.errorBackoff != defaultErrorBackoff {
		t.Errorf("errorBackoff: got %s, want %s", p.errorBackoff, defaultErrorBackoff)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	client := &mockSQSClient{batches: [][]types.Message{{
		sqsMessage("h1", receivedBody("m1")),
	}}}
	b := &mockBatcher{}
	p := NewPoller(client, Config{QueueURL: "https://sqs.example/q"}, b, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(client.deletedHandles()) == 0 {
		select {
		case <-deadline:
			t.Fatal("message was not processed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_BacksOffOnReceiveError(t *testing.T) {
	t.Parallel()

	client := &mockSQSClient{receiveErr: errors.New("throttled")}
	cfg := Config{QueueURL: "https://sqs.example/q", ErrorBackoff: time.Hour}
	p := NewPoller(client, cfg, &mockBatcher{}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p.Run(ctx)

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.receives != 1 {
		t.Errorf("receives: got %d, want 1 during backoff", client.receives)
	}
}
