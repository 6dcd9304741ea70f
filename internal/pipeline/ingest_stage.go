package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
	"github.com/joseph-ayodele/voice-studio/internal/upstream"
)

// IngestStage submits every discovered video to the collection in bounded batches.
type IngestStage struct {
	stageBase
	provider upstream.ContentProvider
}

// Run ingests the descriptors stored on the job. Per-video failures are recorded
// and skipped; the stage only fails when nothing could be ingested.
func (s *IngestStage) Run(ctx context.Context, jobID string) (int, error) {
	job, err := s.load(ctx, jobID, constants.JobStatusProcessingVideos)
	if err != nil {
		return 0, err
	}
	videos := job.DiscoveredVideos
	total := len(videos)
	size := s.cfg.IngestBatchSize

	succeeded := 0
	for start := 0; start < total; start += size {
		end := min(start+size, total)
		results := s.ingestBatch(ctx, job, videos[start:end])
		for _, r := range results {
			if r.Success {
				succeeded++
			}
		}

		attempted := end
		if _, err := s.update(ctx, jobID, func(j *entity.Job) {
			j.IngestionResults = append(j.IngestionResults, results...)
			j.VideosProcessed = attempted
			j.AdvanceProgress(IngestProgress(attempted, total))
		}); err != nil {
			return succeeded, err
		}
		s.logger.Info("pipeline.ingest.batch_ok",
			"job_id", jobID, "attempted", attempted, "total", total, "succeeded", succeeded)

		if end < total {
			if err := s.sleeper.Sleep(ctx, s.cfg.IngestBatchDelay); err != nil {
				return succeeded, err
			}
		}
	}

	if succeeded == 0 {
		return 0, errors.New("failed to add any videos to the collection")
	}
	_, err = s.advance(ctx, jobID, constants.JobStatusWaitingTranscriptions, ProgressIngested, nil)
	return succeeded, err
}

// ingestBatch runs one batch concurrently and returns results in input order.
func (s *IngestStage) ingestBatch(ctx context.Context, job *entity.Job, batch []entity.VideoDescriptor) []entity.ItemResult {
	results := make([]entity.ItemResult, len(batch))
	var g errgroup.Group
	for i, v := range batch {
		g.Go(func() error {
			res := entity.ItemResult{VideoURL: v.URL, VideoID: v.ID}
			id, err := s.provider.AddVideoToCollection(ctx, upstream.AddVideoRequest{
				URL:          v.URL,
				CollectionID: job.CollectionID,
				Title:        videoTitle(job, v),
				Metadata: map[string]any{
					"source":       "voice_creation",
					"jobId":        job.ID,
					"platform":     job.Platform,
					"username":     job.Username,
					"viewCount":    v.ViewCount,
					"likeCount":    v.LikeCount,
					"thumbnailUrl": v.ThumbnailURL,
				},
			})
			if err != nil {
				s.logger.Warn("pipeline.ingest.video_failed", "job_id", job.ID, "video_url", v.URL, "error", err)
				res.Error = err.Error()
			} else {
				res.Success = true
				if id != "" {
					res.VideoID = id
				}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func videoTitle(job *entity.Job, v entity.VideoDescriptor) string {
	if v.Title != "" {
		return v.Title
	}
	return fmt.Sprintf("@%s %s video", job.Username, job.Platform.Title())
}
