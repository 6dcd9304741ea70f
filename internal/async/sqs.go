package async

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
)

// SQSAPI is the subset of *sqs.SQS used here.
type SQSAPI interface {
	SendMessageWithContext(ctx aws.Context, in *sqs.SendMessageInput, opts ...request.Option) (*sqs.SendMessageOutput, error)
	ReceiveMessageWithContext(ctx aws.Context, in *sqs.ReceiveMessageInput, opts ...request.Option) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageWithContext(ctx aws.Context, in *sqs.DeleteMessageInput, opts ...request.Option) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibilityWithContext(ctx aws.Context, in *sqs.ChangeMessageVisibilityInput, opts ...request.Option) (*sqs.ChangeMessageVisibilityOutput, error)
}

// SQSQueue publishes jobs to an SQS queue for voice-worker processes.
type SQSQueue struct {
	api      SQSAPI
	queueURL string
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

func NewSQSQueue(api SQSAPI, queueURL string, logger *slog.Logger) *SQSQueue {
	return &SQSQueue{api: api, queueURL: queueURL, logger: logger}
}

func (q *SQSQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrQueueClosed
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	out, err := q.api.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		q.logger.Error("queue.sqs.send_failed", "job_id", job.JobID, "error", err)
		return fmt.Errorf("sqs send: %w", err)
	}
	q.logger.Info("queue.sqs.sent", "job_id", job.JobID, "message_id", aws.StringValue(out.MessageId))
	return nil
}

// Shutdown stops accepting jobs. Messages already sent are owned by SQS.
func (q *SQSQueue) Shutdown(context.Context) {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// SQSConsumer long-polls the queue and runs each job through the Runner.
// While a run is in progress the message's visibility is extended every third
// of the visibility timeout. A message is deleted once the run returns,
// whatever the outcome: the job record carries the failure and redelivery
// would only be skipped as claimed.
type SQSConsumer struct {
	api          SQSAPI
	runner       Runner
	logger       *slog.Logger
	queueURL     string
	waitSeconds  int64
	visibility   int64
	heartbeat    time.Duration
	jobTimeout   time.Duration
	errorBackoff time.Duration
}

type SQSConsumerConfig struct {
	QueueURL          string
	WaitSeconds       int
	VisibilitySeconds int
	// JobTimeout bounds each run; zero means no deadline.
	JobTimeout time.Duration
}

func NewSQSConsumer(api SQSAPI, runner Runner, cfg SQSConsumerConfig, logger *slog.Logger) *SQSConsumer {
	c := &SQSConsumer{
		api:          api,
		runner:       runner,
		logger:       logger,
		queueURL:     cfg.QueueURL,
		waitSeconds:  int64(cfg.WaitSeconds),
		visibility:   int64(cfg.VisibilitySeconds),
		jobTimeout:   cfg.JobTimeout,
		errorBackoff: 5 * time.Second,
	}
	if c.waitSeconds <= 0 || c.waitSeconds > 20 {
		c.waitSeconds = 20
	}
	if c.visibility > 0 {
		c.heartbeat = time.Duration(c.visibility) * time.Second / 3
	}
	return c
}

// Run receives one message at a time until ctx is cancelled.
func (c *SQSConsumer) Run(ctx context.Context) error {
	c.logger.Info("queue.sqs.consumer.started", "queue_url", c.queueURL)
	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info("queue.sqs.consumer.stopped")
			return nil
		}
		handled, err := c.PollOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("queue.sqs.receive_failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(c.errorBackoff):
			}
			continue
		}
		if handled == 0 {
			c.logger.Debug("queue.sqs.idle")
		}
	}
}

// PollOnce performs a single receive and processes what it got.
func (c *SQSConsumer) PollOnce(ctx context.Context) (int, error) {
	in := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: aws.Int64(1),
		WaitTimeSeconds:     aws.Int64(c.waitSeconds),
	}
	if c.visibility > 0 {
		in.VisibilityTimeout = aws.Int64(c.visibility)
	}
	out, err := c.api.ReceiveMessageWithContext(ctx, in)
	if err != nil {
		return 0, err
	}
	for _, m := range out.Messages {
		c.handle(ctx, m)
	}
	return len(out.Messages), nil
}

func (c *SQSConsumer) handle(ctx context.Context, m *sqs.Message) {
	var job Job
	if err := json.Unmarshal([]byte(aws.StringValue(m.Body)), &job); err != nil || job.JobID == "" {
		c.logger.Error("queue.sqs.bad_message", "message_id", aws.StringValue(m.MessageId), "error", err)
		c.delete(ctx, m)
		return
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if c.jobTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.jobTimeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	beat := make(chan struct{})
	go func() {
		defer close(beat)
		c.keepVisible(runCtx, m, job.JobID)
	}()
	err := c.runner.Run(runCtx, job.JobID)
	cancel()
	<-beat
	if err != nil {
		c.logger.Error("queue.job.failed", "job_id", job.JobID, "error", err)
	} else {
		c.logger.Info("queue.job.done", "job_id", job.JobID)
	}
	c.delete(ctx, m)
}

// keepVisible extends the message's visibility until ctx is done.
func (c *SQSConsumer) keepVisible(ctx context.Context, m *sqs.Message, jobID string) {
	if c.heartbeat <= 0 {
		return
	}
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		_, err := c.api.ChangeMessageVisibilityWithContext(ctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          aws.String(c.queueURL),
			ReceiptHandle:     m.ReceiptHandle,
			VisibilityTimeout: aws.Int64(c.visibility),
		})
		if err != nil && ctx.Err() == nil {
			c.logger.Warn("queue.sqs.heartbeat_failed", "job_id", jobID, "error", err)
			continue
		}
		c.logger.Debug("queue.sqs.heartbeat", "job_id", jobID, "visibility_seconds", c.visibility)
	}
}

func (c *SQSConsumer) delete(ctx context.Context, m *sqs.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	_, err := c.api.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: m.ReceiptHandle,
	})
	if err != nil {
		c.logger.Error("queue.sqs.delete_failed", "message_id", aws.StringValue(m.MessageId), "error", err)
	}
}
