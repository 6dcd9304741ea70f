package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
	"github.com/joseph-ayodele/voice-studio/internal/upstream"
)

// DiscoveryStage asks the content provider for the creator's videos.
type DiscoveryStage struct {
	stageBase
	provider upstream.ContentProvider
}

// Run moves discovering_videos -> processing_videos and records the descriptors.
func (s *DiscoveryStage) Run(ctx context.Context, jobID string) (int, error) {
	job, err := s.load(ctx, jobID, constants.JobStatusDiscoveringVideos)
	if err != nil {
		return 0, err
	}

	s.logger.Info("pipeline.discover.start",
		"job_id", jobID, "username", job.Username,
		"platform", job.Platform, "video_count", job.VideoCount,
	)
	videos, err := s.provider.DiscoverCreator(ctx, upstream.DiscoverRequest{
		Username:   job.Username,
		Platform:   job.Platform,
		VideoCount: job.VideoCount,
	})
	if errors.Is(err, upstream.ErrNoVideos) || (err == nil && len(videos) == 0) {
		return 0, fmt.Errorf("no videos found for @%s on %s", job.Username, job.Platform.Title())
	}
	if err != nil {
		return 0, err
	}

	_, err = s.advance(ctx, jobID, constants.JobStatusProcessingVideos, ProgressDiscovered, func(j *entity.Job) {
		j.VideosDiscovered = len(videos)
		j.TotalVideos = len(videos)
		j.DiscoveredVideos = videos
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("pipeline.discover.ok", "job_id", jobID, "videos", len(videos))
	return len(videos), nil
}
