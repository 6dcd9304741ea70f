package entity

import (
	"time"

	"github.com/joseph-ayodele/voice-studio/constants"
)

// VideoDescriptor is one candidate video returned by creator discovery.
type VideoDescriptor struct {
	ID           string `json:"id,omitempty" bson:"id,omitempty"`
	URL          string `json:"url" bson:"url"`
	Title        string `json:"title,omitempty" bson:"title,omitempty"`
	Description  string `json:"description,omitempty" bson:"description,omitempty"`
	Author       string `json:"author,omitempty" bson:"author,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty" bson:"thumbnailUrl,omitempty"`
	Duration     int    `json:"duration,omitempty" bson:"duration,omitempty"`
	ViewCount    int64  `json:"viewCount,omitempty" bson:"viewCount,omitempty"`
	LikeCount    int64  `json:"likeCount,omitempty" bson:"likeCount,omitempty"`
	CommentCount int64  `json:"commentCount,omitempty" bson:"commentCount,omitempty"`
	ShareCount   int64  `json:"shareCount,omitempty" bson:"shareCount,omitempty"`
}

// Video is a record in the videos collection. The ingestion endpoint creates it
// and the transcription service fills in the transcript; the pipeline only reads it.
type Video struct {
	ID                  string             `json:"id" bson:"_id"`
	CollectionID        string             `json:"collectionId" bson:"collectionId"`
	URL                 string             `json:"url" bson:"url"`
	Title               string             `json:"title,omitempty" bson:"title,omitempty"`
	Platform            constants.Platform `json:"platform,omitempty" bson:"platform,omitempty"`
	ViewCount           int64              `json:"viewCount,omitempty" bson:"viewCount,omitempty"`
	LikeCount           int64              `json:"likeCount,omitempty" bson:"likeCount,omitempty"`
	TranscriptionStatus string             `json:"transcriptionStatus" bson:"transcriptionStatus"`
	Transcript          string             `json:"transcript,omitempty" bson:"transcript,omitempty"`
	AddedAt             time.Time          `json:"addedAt" bson:"addedAt"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// HasTranscript reports whether the video finished transcription with usable text.
func (v *Video) HasTranscript() bool {
	return v.TranscriptionStatus == constants.TranscriptionStatusCompleted && v.Transcript != ""
}
