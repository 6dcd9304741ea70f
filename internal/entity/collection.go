package entity

import (
	"time"

	"github.com/joseph-ayodele/voice-studio/constants"
)

// Collection groups the ingested videos of one job.
type Collection struct {
	ID          string             `json:"id" bson:"_id"`
	UserID      string             `json:"userId" bson:"userId"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Source      string             `json:"source" bson:"source"`
	ProfileURL  string             `json:"profileUrl" bson:"profileUrl"`
	Platform    constants.Platform `json:"platform" bson:"platform"`
	Username    string             `json:"username" bson:"username"`
	VideoCount  int                `json:"videoCount" bson:"videoCount"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}
