package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
)

const (
	TableJobs        = "voice_creation_jobs"
	TableVideos      = "videos"
	TableVoices      = "ai_voices"
	TableCollections = "collections"
)

// JobRepository persists Job Records. Update is compare-and-swap on Revision:
// it fails with common.ErrConflict when the stored revision moved on.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	Get(ctx context.Context, id string) (*entity.Job, error)
	Update(ctx context.Context, job *entity.Job) error
}

type VideoRepository interface {
	Save(ctx context.Context, video *entity.Video) error
	Get(ctx context.Context, id string) (*entity.Video, error)
	ListByCollection(ctx context.Context, collectionID string) ([]entity.Video, error)
	UpdateTranscription(ctx context.Context, id, status, transcript string) (*entity.Video, error)
}

type VoiceRepository interface {
	Create(ctx context.Context, voice *entity.Voice) error
	Get(ctx context.Context, id string) (*entity.Voice, error)
	// Delete removes the voice; a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

type CollectionRepository interface {
	Create(ctx context.Context, c *entity.Collection) error
	Get(ctx context.Context, id string) (*entity.Collection, error)
}

// Store bundles the repositories of one backend.
type Store interface {
	Jobs() JobRepository
	Videos() VideoRepository
	Voices() VoiceRepository
	Collections() CollectionRepository
	// Counts returns the number of records per table, keyed by table name.
	Counts(ctx context.Context) (map[string]int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

const maxMutateAttempts = 5

// MutateJob re-reads the job, applies fn and writes it back, retrying on
// revision conflicts. fn may be called more than once.
func MutateJob(ctx context.Context, jobs JobRepository, id string, fn func(*entity.Job) error) (*entity.Job, error) {
	var lastErr error
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		job, err := jobs.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(job); err != nil {
			return nil, err
		}
		err = jobs.Update(ctx, job)
		if err == nil {
			return job, nil
		}
		if !errors.Is(err, common.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("job %s: %d attempts: %w", id, maxMutateAttempts, lastErr)
}

func notFound(kind, id string) error {
	return common.NewAppError("NOT_FOUND", fmt.Sprintf("%s %s not found", kind, id), common.ErrNotFound)
}
