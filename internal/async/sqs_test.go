package async

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	mu       sync.Mutex
	sent     []string
	inbox    []*sqs.Message
	deleted  []string
	received []*sqs.ReceiveMessageInput
	extended []int64
}

func (f *fakeSQS) ChangeMessageVisibilityWithContext(_ aws.Context, in *sqs.ChangeMessageVisibilityInput, _ ...request.Option) (*sqs.ChangeMessageVisibilityOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extended = append(f.extended, aws.Int64Value(in.VisibilityTimeout))
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

func (f *fakeSQS) extensions() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.extended...)
}

func (f *fakeSQS) SendMessageWithContext(_ aws.Context, in *sqs.SendMessageInput, _ ...request.Option) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, aws.StringValue(in.MessageBody))
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSQS) ReceiveMessageWithContext(_ aws.Context, in *sqs.ReceiveMessageInput, _ ...request.Option) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, in)
	out := &sqs.ReceiveMessageOutput{Messages: f.inbox}
	f.inbox = nil
	return out, nil
}

func (f *fakeSQS) DeleteMessageWithContext(_ aws.Context, in *sqs.DeleteMessageInput, _ ...request.Option) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.StringValue(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSQueue_Enqueue(t *testing.T) {
	api := &fakeSQS{}
	q := NewSQSQueue(api, "https://sqs.local/q", quiet())

	require.NoError(t, q.Enqueue(context.Background(), Job{JobID: "job-1", RequestID: "req-1"}))
	require.Len(t, api.sent, 1)

	var got Job
	require.NoError(t, json.Unmarshal([]byte(api.sent[0]), &got))
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, "req-1", got.RequestID)

	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{JobID: "job-2"}), ErrQueueClosed)
}

func TestSQSConsumer_PollOnceDeletesEveryOutcome(t *testing.T) {
	api := &fakeSQS{inbox: []*sqs.Message{
		{MessageId: aws.String("1"), ReceiptHandle: aws.String("r1"), Body: aws.String(`{"jobId":"ok"}`)},
		{MessageId: aws.String("2"), ReceiptHandle: aws.String("r2"), Body: aws.String(`{"jobId":"bad"}`)},
		{MessageId: aws.String("3"), ReceiptHandle: aws.String("r3"), Body: aws.String(`not json`)},
	}}
	runner := &recordingRunner{fail: map[string]error{"bad": errors.New("already claimed")}}
	c := NewSQSConsumer(api, runner, SQSConsumerConfig{
		QueueURL: "https://sqs.local/q", WaitSeconds: 0, VisibilitySeconds: 3600, JobTimeout: time.Minute,
	}, quiet())

	n, err := c.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"ok", "bad"}, runner.runs())
	assert.Equal(t, []string{"r1", "r2", "r3"}, api.deleted)

	require.Len(t, api.received, 1)
	assert.Equal(t, int64(20), aws.Int64Value(api.received[0].WaitTimeSeconds))
	assert.Equal(t, int64(3600), aws.Int64Value(api.received[0].VisibilityTimeout))
}

// slowRunner returns once the message visibility has been extended twice.
type slowRunner struct {
	api *fakeSQS
}

func (r slowRunner) Run(ctx context.Context, _ string) error {
	for len(r.api.extensions()) < 2 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
	return nil
}

func TestSQSConsumer_ExtendsVisibilityWhileRunning(t *testing.T) {
	api := &fakeSQS{inbox: []*sqs.Message{
		{MessageId: aws.String("1"), ReceiptHandle: aws.String("r1"), Body: aws.String(`{"jobId":"long"}`)},
	}}
	c := NewSQSConsumer(api, slowRunner{api: api}, SQSConsumerConfig{
		QueueURL: "https://sqs.local/q", VisibilitySeconds: 900,
	}, quiet())
	assert.Equal(t, 300*time.Second, c.heartbeat)
	assert.Zero(t, c.jobTimeout)
	c.heartbeat = 10 * time.Millisecond

	n, err := c.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{900, 900}, api.extensions()[:2])
	assert.Equal(t, []string{"r1"}, api.deleted)
}
