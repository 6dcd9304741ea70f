package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
	"github.com/joseph-ayodele/voice-studio/internal/repository"
)

// stageBase carries what every stage needs to read and advance the job.
type stageBase struct {
	logger  *slog.Logger
	cfg     Config
	jobs    repository.JobRepository
	sleeper Sleeper
	now     func() time.Time
}

// load re-reads the job and checks it is in the status the stage expects.
func (b *stageBase) load(ctx context.Context, jobID string, want constants.JobStatus) (*entity.Job, error) {
	job, err := b.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	if job.Status != want {
		return nil, fmt.Errorf("job %s not ready: status=%s want=%s", jobID, job.Status, want)
	}
	return job, nil
}

// update applies fn to a fresh copy of the job and writes it with CAS retries.
func (b *stageBase) update(ctx context.Context, jobID string, fn func(*entity.Job)) (*entity.Job, error) {
	return repository.MutateJob(ctx, b.jobs, jobID, func(j *entity.Job) error {
		fn(j)
		j.UpdatedAt = b.now().UTC()
		return nil
	})
}

// advance moves the job to the next status after checking the transition.
func (b *stageBase) advance(ctx context.Context, jobID string, to constants.JobStatus, progress int, fn func(*entity.Job)) (*entity.Job, error) {
	job, err := repository.MutateJob(ctx, b.jobs, jobID, func(j *entity.Job) error {
		if !constants.CanTransition(j.Status, to) {
			return fmt.Errorf("invalid transition %s -> %s", j.Status, to)
		}
		if fn != nil {
			fn(j)
		}
		j.SetStatus(to)
		j.AdvanceProgress(progress)
		j.UpdatedAt = b.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}
