package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
	"github.com/joseph-ayodele/voice-studio/internal/repository"
)

// VoiceStage assembles the persisted templates into a voice.
type VoiceStage struct {
	stageBase
	voices repository.VoiceRepository
}

// Run re-reads the templates from the job, creates the voice and completes the job.
func (s *VoiceStage) Run(ctx context.Context, jobID string) (string, error) {
	job, err := s.load(ctx, jobID, constants.JobStatusCreatingVoice)
	if err != nil {
		return "", err
	}
	if len(job.Templates) == 0 {
		return "", errors.New("no templates available to create voice")
	}

	now := s.now().UTC()
	voice := &entity.Voice{
		ID:          uuid.NewString(),
		UserID:      job.UserID,
		Name:        job.VoiceName,
		Badges:      DeriveBadges(job.Templates),
		Description: DescribeVoice(job, len(job.Templates)),
		Templates:   job.Templates,
		Metadata: entity.VoiceMetadata{
			SourceCollectionID:      job.CollectionID,
			ProfileURL:              job.ProfileURL,
			Platform:                job.Platform,
			Username:                job.Username,
			JobID:                   job.ID,
			VideosDiscovered:        job.VideosDiscovered,
			VideosProcessed:         job.VideosProcessed,
			TranscriptionsCompleted: job.TranscriptionsCompleted,
			TemplatesGenerated:      len(job.Templates),
		},
		CreatedAt: now,
	}
	if err := s.voices.Create(ctx, voice); err != nil {
		return "", fmt.Errorf("create voice: %w", err)
	}

	_, err = s.advance(ctx, jobID, constants.JobStatusCompleted, ProgressDone, func(j *entity.Job) {
		j.VoiceID = voice.ID
		j.CompletedAt = &now
	})
	if err != nil {
		s.discard(ctx, jobID, voice.ID)
		return "", err
	}
	s.logger.Info("pipeline.voice.ok", "job_id", jobID, "voice_id", voice.ID, "badges", voice.Badges)
	return voice.ID, nil
}

// discard removes a voice whose job never reached completed, so only
// completed jobs leave a voice behind.
func (s *VoiceStage) discard(ctx context.Context, jobID, voiceID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.voices.Delete(ctx, voiceID); err != nil {
		s.logger.Error("pipeline.voice.discard_failed", "job_id", jobID, "voice_id", voiceID, "error", err)
		return
	}
	s.logger.Warn("pipeline.voice.discarded", "job_id", jobID, "voice_id", voiceID)
}
