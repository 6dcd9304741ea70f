package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
	"github.com/joseph-ayodele/voice-studio/internal/llm"
	"github.com/joseph-ayodele/voice-studio/internal/repository"
)

// TemplateStage turns transcripts into hook/bridge/nugget/wta templates, one LLM call at a time.
type TemplateStage struct {
	stageBase
	videos    repository.VideoRepository
	extractor llm.TemplateExtractor
}

// Run synthesizes a template per transcribed video. Videos whose transcript is
// not longer than MinTranscriptLength are skipped; extractor failures are
// recorded and skipped. The stage fails only when no template was produced.
func (s *TemplateStage) Run(ctx context.Context, jobID string) (int, error) {
	job, err := s.load(ctx, jobID, constants.JobStatusGeneratingTemplates)
	if err != nil {
		return 0, err
	}
	all, err := s.videos.ListByCollection(ctx, job.CollectionID)
	if err != nil {
		return 0, fmt.Errorf("list videos: %w", err)
	}
	var videos []entity.Video
	for _, v := range all {
		if v.TranscriptionStatus == constants.TranscriptionStatusCompleted {
			videos = append(videos, v)
		}
	}
	if len(videos) == 0 {
		return 0, errors.New("no transcribed videos available for template generation")
	}

	s.logger.Info("pipeline.templates.start", "job_id", jobID, "videos", len(videos))
	var (
		templates []entity.Template
		results   []entity.ItemResult
		called    bool
	)
	for _, v := range videos {
		res := entity.ItemResult{VideoID: v.ID, VideoURL: v.URL}
		if runeLen(v.Transcript) <= s.cfg.MinTranscriptLength {
			res.Error = "transcript too short"
			results = append(results, res)
			s.logger.Debug("pipeline.templates.skip_short", "job_id", jobID, "video_id", v.ID)
			continue
		}
		if called {
			if err := s.sleeper.Sleep(ctx, s.cfg.TemplateDelay); err != nil {
				return len(templates), err
			}
		}
		called = true

		fields, _, err := s.extractor.ExtractTemplate(ctx, llm.ExtractRequest{
			Transcript:         v.Transcript,
			VideoID:            v.ID,
			Title:              v.Title,
			Platform:           job.Platform,
			Username:           job.Username,
			MaxTranscriptChars: s.cfg.TranscriptLimit,
		})
		if err != nil {
			if ctx.Err() != nil {
				return len(templates), ctx.Err()
			}
			s.logger.Warn("pipeline.templates.video_failed", "job_id", jobID, "video_id", v.ID, "error", err)
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.Success = true
		results = append(results, res)
		templates = append(templates, entity.Template{
			Hook:          fields.Hook,
			Bridge:        fields.Bridge,
			Nugget:        fields.Nugget,
			WTA:           fields.WTA,
			SourceVideoID: v.ID,
			SourceMetadata: entity.TemplateSource{
				ViewCount: v.ViewCount,
				LikeCount: v.LikeCount,
				Platform:  platformOf(v, job),
				URL:       v.URL,
			},
		})
	}

	if len(templates) == 0 {
		if _, err := s.update(ctx, jobID, func(j *entity.Job) { j.TemplateResults = results }); err != nil {
			s.logger.Warn("pipeline.templates.results_not_saved", "job_id", jobID, "error", err)
		}
		return 0, errors.New("failed to generate any templates from the transcribed videos")
	}

	_, err = s.advance(ctx, jobID, constants.JobStatusCreatingVoice, ProgressTemplatesSaved, func(j *entity.Job) {
		j.Templates = templates
		j.TemplatesGenerated = len(templates)
		j.TemplateResults = results
	})
	if err != nil {
		return len(templates), err
	}
	s.logger.Info("pipeline.templates.ok", "job_id", jobID, "templates", len(templates), "attempted", len(results))
	return len(templates), nil
}

func platformOf(v entity.Video, job *entity.Job) constants.Platform {
	if v.Platform != "" {
		return v.Platform
	}
	return job.Platform
}
