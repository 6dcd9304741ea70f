package pipeline

import (
	"context"
	"time"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
	"github.com/joseph-ayodele/voice-studio/internal/repository"
)

// TranscriptionStage waits until enough videos in the collection have transcripts.
type TranscriptionStage struct {
	stageBase
	videos repository.VideoRepository
	waker  Waker
}

type TranscriptionOutcome struct {
	Completed int
	Threshold int
	TimedOut  bool
}

// Run polls the collection until TranscriptionThreshold(total) videos are
// transcribed or the timeout elapses. A timeout is not an error: the job is
// flagged and moves on with what is available.
func (s *TranscriptionStage) Run(ctx context.Context, jobID string) (TranscriptionOutcome, error) {
	job, err := s.load(ctx, jobID, constants.JobStatusWaitingTranscriptions)
	if err != nil {
		return TranscriptionOutcome{}, err
	}
	total := job.TotalVideos
	out := TranscriptionOutcome{Threshold: TranscriptionThreshold(total)}
	deadline := s.now().Add(s.cfg.TranscriptionTimeout)

	var wake <-chan struct{}
	if s.waker != nil {
		ch, unsubscribe := s.waker.Subscribe(job.CollectionID)
		defer unsubscribe()
		wake = ch
	}

	s.logger.Info("pipeline.transcription.wait",
		"job_id", jobID, "total", total, "threshold", out.Threshold,
		"timeout", s.cfg.TranscriptionTimeout.String())

	for {
		completed, err := s.countTranscribed(ctx, job.CollectionID)
		if err != nil {
			return out, err
		}
		out.Completed = completed
		if _, err := s.update(ctx, jobID, func(j *entity.Job) {
			j.TranscriptionsCompleted = completed
			j.AdvanceProgress(TranscriptionProgress(completed, total))
		}); err != nil {
			return out, err
		}
		if completed >= out.Threshold {
			break
		}

		remaining := deadline.Sub(s.now())
		if remaining <= 0 {
			out.TimedOut = true
			break
		}
		s.logger.Debug("pipeline.transcription.poll",
			"job_id", jobID, "completed", completed, "threshold", out.Threshold)
		if err := s.wait(ctx, min(s.cfg.PollInterval, remaining), wake); err != nil {
			return out, err
		}
	}

	if out.TimedOut {
		s.logger.Warn("pipeline.transcription.timeout",
			"job_id", jobID, "completed", out.Completed, "threshold", out.Threshold)
	} else {
		s.logger.Info("pipeline.transcription.ok",
			"job_id", jobID, "completed", out.Completed, "threshold", out.Threshold)
	}
	_, err = s.advance(ctx, jobID, constants.JobStatusGeneratingTemplates, ProgressTranscribed, func(j *entity.Job) {
		j.TranscriptionTimedOut = out.TimedOut
	})
	return out, err
}

func (s *TranscriptionStage) countTranscribed(ctx context.Context, collectionID string) (int, error) {
	videos, err := s.videos.ListByCollection(ctx, collectionID)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range videos {
		if videos[i].HasTranscript() {
			n++
		}
	}
	return n, nil
}

// wait sleeps for d, returning early when wake fires. Only a done parent ctx is an error.
func (s *TranscriptionStage) wait(ctx context.Context, d time.Duration, wake <-chan struct{}) error {
	sleepCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if wake != nil {
		go func() {
			select {
			case <-wake:
				cancel()
			case <-sleepCtx.Done():
			}
		}()
	}
	_ = s.sleeper.Sleep(sleepCtx, d)
	return ctx.Err()
}
