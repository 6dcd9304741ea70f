package async

import (
	"context"
	"time"
)

// Job is one voice creation run handed to a worker.
type Job struct {
	JobID       string    `json:"jobId"`
	SubmittedAt time.Time `json:"submittedAt"`
	RequestID   string    `json:"requestId,omitempty"`
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Runner executes a job end to end. *pipeline.Processor satisfies it.
type Runner interface {
	Run(ctx context.Context, jobID string) error
}

// Abandoner is implemented by runners that can record a job which will never
// run. Its ctx may already be cancelled.
type Abandoner interface {
	Abandon(ctx context.Context, jobID string, cause error) error
}
