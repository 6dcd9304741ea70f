package entity

import (
	"time"

	"github.com/joseph-ayodele/voice-studio/constants"
)

// Job is the voice_creation_jobs document. It is the only state shared between
// pipeline stages; each stage re-reads it instead of passing data in memory.
type Job struct {
	ID           string             `json:"jobId" bson:"_id"`
	UserID       string             `json:"userId" bson:"userId"`
	CollectionID string             `json:"collectionId" bson:"collectionId"`
	ProfileURL   string             `json:"profileUrl" bson:"profileUrl"`
	Platform     constants.Platform `json:"platform" bson:"platform"`
	Username     string             `json:"username" bson:"username"`
	VoiceName    string             `json:"voiceName" bson:"voiceName"`
	VideoCount   int                `json:"videoCount" bson:"videoCount"`

	Status                  constants.JobStatus `json:"status" bson:"status"`
	Progress                int                 `json:"progress" bson:"progress"`
	CurrentStep             int                 `json:"currentStep" bson:"currentStep"`
	StepName                string              `json:"stepName" bson:"stepName"`
	VideosDiscovered        int                 `json:"videosDiscovered" bson:"videosDiscovered"`
	VideosProcessed         int                 `json:"videosProcessed" bson:"videosProcessed"`
	TranscriptionsCompleted int                 `json:"transcriptionsCompleted" bson:"transcriptionsCompleted"`
	TotalVideos             int                 `json:"totalVideos" bson:"totalVideos"`
	TemplatesGenerated      int                 `json:"templatesGenerated" bson:"templatesGenerated"`
	TranscriptionTimedOut   bool                `json:"transcriptionTimedOut" bson:"transcriptionTimedOut"`

	DiscoveredVideos []VideoDescriptor `json:"discoveredVideos,omitempty" bson:"discoveredVideos,omitempty"`
	IngestionResults []ItemResult      `json:"ingestionResults,omitempty" bson:"ingestionResults,omitempty"`
	TemplateResults  []ItemResult      `json:"templateResults,omitempty" bson:"templateResults,omitempty"`
	Templates        []Template        `json:"templates,omitempty" bson:"templates,omitempty"`

	VoiceID string   `json:"voiceId,omitempty" bson:"voiceId,omitempty"`
	Errors  []string `json:"errors,omitempty" bson:"errors,omitempty"`
	Error   string   `json:"error,omitempty" bson:"error,omitempty"`

	// Attempts counts processor claims; anything above 1 is a redelivery.
	Attempts int `json:"attempts" bson:"attempts"`
	// Revision is the optimistic concurrency token checked on every update.
	Revision int64 `json:"revision" bson:"revision"`

	StartedAt             time.Time  `json:"startedAt" bson:"startedAt"`
	EstimatedCompletionAt time.Time  `json:"estimatedCompletionAt" bson:"estimatedCompletionAt"`
	CompletedAt           *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	UpdatedAt             time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// AdvanceProgress raises Progress to p, clamped to [0,100]. Lower values are
// ignored so progress never moves backwards.
func (j *Job) AdvanceProgress(p int) {
	if p > 100 {
		p = 100
	}
	if p > j.Progress {
		j.Progress = p
	}
}

// SetStatus moves the job to status and refreshes the step fields.
func (j *Job) SetStatus(status constants.JobStatus) {
	j.Status = status
	if step := status.Step(); step > 0 {
		j.CurrentStep = step
	}
	j.StepName = status.StepName()
}

// ItemResult is the per-video outcome of a batch step.
type ItemResult struct {
	VideoID  string `json:"videoId,omitempty" bson:"videoId,omitempty"`
	VideoURL string `json:"videoUrl,omitempty" bson:"videoUrl,omitempty"`
	Success  bool   `json:"success" bson:"success"`
	Error    string `json:"error,omitempty" bson:"error,omitempty"`
}

// CountSucceeded returns how many results are successful.
func CountSucceeded(results []ItemResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
