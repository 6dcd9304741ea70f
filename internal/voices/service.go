package voices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/async"
	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
	"github.com/joseph-ayodele/voice-studio/internal/pipeline"
	"github.com/joseph-ayodele/voice-studio/internal/repository"
)

// Notifier wakes pipelines waiting on a collection's transcripts.
type Notifier interface {
	Notify(collectionID string) int
}

// Service handles voice creation requests and job/voice lookups.
type Service struct {
	store    repository.Store
	queue    async.Queue
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store repository.Store, queue async.Queue, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, queue: queue, notifier: notifier, logger: logger, now: time.Now}
}

// ProcessProfileRequest is the body of POST /api/voices/process-profile.
type ProcessProfileRequest struct {
	ProfileURL string `json:"profileUrl" validate:"required"`
	Platform   string `json:"platform" validate:"required,oneof=tiktok instagram"`
	VoiceName  string `json:"voiceName,omitempty" validate:"max=100"`
	VideoCount *int   `json:"videoCount,omitempty" validate:"omitempty,min=10,max=200"`
}

type CreateJobResult struct {
	JobID                   string `json:"jobId"`
	CollectionID            string `json:"collectionId"`
	CollectionName          string `json:"collectionName"`
	EstimatedProcessingTime string `json:"estimatedProcessingTime"`
	VideoCount              int    `json:"videoCount"`
}

// CreateJob validates the request, creates the collection and the job record
// and hands the job to the queue. Nothing is written when validation fails.
func (s *Service) CreateJob(ctx context.Context, userID string, req ProcessProfileRequest) (*CreateJobResult, error) {
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	req.VoiceName = strings.TrimSpace(req.VoiceName)
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	platform, _ := constants.ParsePlatform(req.Platform)
	username, err := ExtractUsername(platform, req.ProfileURL)
	if err != nil {
		return nil, err
	}
	videoCount := constants.DefaultVideoCount
	if req.VideoCount != nil {
		videoCount = *req.VideoCount
	}
	voiceName := req.VoiceName
	if voiceName == "" {
		voiceName = fmt.Sprintf("@%s Voice", username)
	}

	now := s.now().UTC()
	minutes := pipeline.EstimateMinutes(videoCount)
	collection := &entity.Collection{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       fmt.Sprintf("%s - Training Data", voiceName),
		Description: fmt.Sprintf("Videos from @%s on %s used to train %s", username, platform.Title(), voiceName),
		Source:      "voice_creation",
		ProfileURL:  req.ProfileURL,
		Platform:    platform,
		Username:    username,
		VideoCount:  videoCount,
		CreatedAt:   now,
	}
	if err := s.store.Collections().Create(ctx, collection); err != nil {
		return nil, common.InternalError("create collection", err)
	}

	job := &entity.Job{
		ID:                    uuid.NewString(),
		UserID:                userID,
		CollectionID:          collection.ID,
		ProfileURL:            req.ProfileURL,
		Platform:              platform,
		Username:              username,
		VoiceName:             voiceName,
		VideoCount:            videoCount,
		StartedAt:             now,
		EstimatedCompletionAt: now.Add(time.Duration(minutes) * time.Minute),
		UpdatedAt:             now,
	}
	job.SetStatus(constants.JobStatusDiscoveringVideos)
	if err := s.store.Jobs().Create(ctx, job); err != nil {
		return nil, common.InternalError("create job", err)
	}

	err = s.queue.Enqueue(ctx, async.Job{
		JobID:       job.ID,
		SubmittedAt: now,
		RequestID:   common.RequestIDFromContext(ctx),
	})
	if err != nil {
		s.logger.Error("voices.job.enqueue_failed", "job_id", job.ID, "error", err)
		s.markFailed(ctx, job.ID, fmt.Errorf("enqueue job: %w", err))
		return nil, common.InternalError("failed to start voice creation", err)
	}

	s.logger.Info("voices.job.created", "job_id", job.ID, "user_id", userID,
		"platform", platform, "username", username, "video_count", videoCount)
	return &CreateJobResult{
		JobID:                   job.ID,
		CollectionID:            collection.ID,
		CollectionName:          collection.Title,
		EstimatedProcessingTime: fmt.Sprintf("%d minutes", minutes),
		VideoCount:              videoCount,
	}, nil
}

func (s *Service) markFailed(ctx context.Context, jobID string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	_, err := repository.MutateJob(ctx, s.store.Jobs(), jobID, func(j *entity.Job) error {
		now := s.now().UTC()
		j.SetStatus(constants.JobStatusFailed)
		j.Error = cause.Error()
		j.Errors = append(j.Errors, cause.Error())
		j.AdvanceProgress(pipeline.ProgressDone)
		j.CompletedAt = &now
		j.UpdatedAt = now
		return nil
	})
	if err != nil {
		s.logger.Error("voices.job.fail_not_recorded", "job_id", jobID, "error", err)
	}
}

// GetJob returns the job if it belongs to userID.
func (s *Service) GetJob(ctx context.Context, userID, jobID string) (*entity.Job, error) {
	job, err := s.store.Jobs().Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, common.NotFoundError(fmt.Sprintf("job %s not found", jobID))
	}
	return job, nil
}

// GetVoice returns the voice if it belongs to userID.
func (s *Service) GetVoice(ctx context.Context, userID, voiceID string) (*entity.Voice, error) {
	voice, err := s.store.Voices().Get(ctx, voiceID)
	if err != nil {
		return nil, err
	}
	if voice.UserID != userID {
		return nil, common.NotFoundError(fmt.Sprintf("voice %s not found", voiceID))
	}
	return voice, nil
}

// TranscriptionEvent is what the transcription service posts when a video
// finishes (or fails) transcription.
type TranscriptionEvent struct {
	VideoID      string `json:"videoId" validate:"required"`
	CollectionID string `json:"collectionId,omitempty"`
	URL          string `json:"url,omitempty"`
	Status       string `json:"transcriptionStatus" validate:"required"`
	Transcript   string `json:"transcript,omitempty"`
}

// RecordTranscription stores the event on the video record and wakes any
// pipeline waiting on its collection. Unknown videos are created when the
// event names a collection.
func (s *Service) RecordTranscription(ctx context.Context, ev TranscriptionEvent) (*entity.Video, error) {
	if err := common.ValidateStruct(ev); err != nil {
		return nil, err
	}
	videos := s.store.Videos()
	video, err := videos.UpdateTranscription(ctx, ev.VideoID, ev.Status, ev.Transcript)
	if errors.Is(err, common.ErrNotFound) && ev.CollectionID != "" {
		now := s.now().UTC()
		video = &entity.Video{
			ID:                  ev.VideoID,
			CollectionID:        ev.CollectionID,
			URL:                 ev.URL,
			TranscriptionStatus: ev.Status,
			Transcript:          ev.Transcript,
			AddedAt:             now,
			UpdatedAt:           now,
		}
		err = videos.Save(ctx, video)
	}
	if err != nil {
		return nil, err
	}

	woken := 0
	if s.notifier != nil {
		woken = s.notifier.Notify(video.CollectionID)
	}
	s.logger.Info("voices.transcription.recorded", "video_id", video.ID,
		"collection_id", video.CollectionID, "status", video.TranscriptionStatus, "woken", woken)
	return video, nil
}
