package entity

import (
	"time"

	"github.com/joseph-ayodele/voice-studio/constants"
)

// Template is the hook/bridge/golden-nugget/call-to-action decomposition of one transcript.
type Template struct {
	Hook           string         `json:"hook" bson:"hook"`
	Bridge         string         `json:"bridge" bson:"bridge"`
	Nugget         string         `json:"nugget" bson:"nugget"`
	WTA            string         `json:"wta" bson:"wta"`
	SourceVideoID  string         `json:"sourceVideoId" bson:"sourceVideoId"`
	SourceMetadata TemplateSource `json:"sourceMetadata" bson:"sourceMetadata"`
}

// Text joins the four parts; used for keyword based badge rules.
func (t Template) Text() string {
	return t.Hook + " " + t.Bridge + " " + t.Nugget + " " + t.WTA
}

type TemplateSource struct {
	ViewCount int64              `json:"viewCount" bson:"viewCount"`
	LikeCount int64              `json:"likeCount" bson:"likeCount"`
	Platform  constants.Platform `json:"platform" bson:"platform"`
	URL       string             `json:"url" bson:"url"`
}

// Voice is the ai_voices document produced at the end of a successful job.
type Voice struct {
	ID          string        `json:"id" bson:"_id"`
	UserID      string        `json:"userId" bson:"userId"`
	Name        string        `json:"name" bson:"name"`
	Badges      []string      `json:"badges" bson:"badges"`
	Description string        `json:"description" bson:"description"`
	Templates   []Template    `json:"templates" bson:"templates"`
	Metadata    VoiceMetadata `json:"metadata" bson:"metadata"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
}

// VoiceMetadata records where a voice came from.
type VoiceMetadata struct {
	SourceCollectionID      string             `json:"sourceCollectionId" bson:"sourceCollectionId"`
	ProfileURL              string             `json:"profileUrl" bson:"profileUrl"`
	Platform                constants.Platform `json:"platform" bson:"platform"`
	Username                string             `json:"username" bson:"username"`
	JobID                   string             `json:"jobId" bson:"jobId"`
	VideosDiscovered        int                `json:"videosDiscovered" bson:"videosDiscovered"`
	VideosProcessed         int                `json:"videosProcessed" bson:"videosProcessed"`
	TranscriptionsCompleted int                `json:"transcriptionsCompleted" bson:"transcriptionsCompleted"`
	TemplatesGenerated      int                `json:"templatesGenerated" bson:"templatesGenerated"`
}
