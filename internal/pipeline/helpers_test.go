package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
)

func TestTranscriptionThreshold(t *testing.T) {
	tests := []struct{ total, want int }{
		{0, 10}, {5, 10}, {10, 10}, {14, 10}, {15, 11}, {20, 14},
		{50, 35}, {51, 36}, {100, 70}, {200, 140},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, TranscriptionThreshold(tt.total))
		})
	}
}

func TestProgressHelpers(t *testing.T) {
	assert.Equal(t, 25, IngestProgress(0, 40))
	assert.Equal(t, 45, IngestProgress(20, 40))
	assert.Equal(t, 65, IngestProgress(40, 40))
	assert.Equal(t, 65, IngestProgress(50, 40))
	assert.Equal(t, 25, IngestProgress(3, 0))

	assert.Equal(t, 65, TranscriptionProgress(0, 10))
	assert.Equal(t, 79, TranscriptionProgress(7, 10))
	assert.Equal(t, 85, TranscriptionProgress(12, 10))
}

func TestDeriveBadges(t *testing.T) {
	plain := entity.Template{Hook: "hey", Bridge: "so", Nugget: "this works", WTA: "follow"}
	many := func(n int, tpl entity.Template) []entity.Template {
		out := make([]entity.Template, n)
		for i := range out {
			out[i] = tpl
		}
		return out
	}

	assert.Equal(t, []string{"Focused", "Professional", "Professional"}, DeriveBadges(nil))
	assert.Equal(t, []string{"Extensive", "Professional", "Professional"}, DeriveBadges(many(100, plain)))
	assert.Equal(t, []string{"Focused", "Professional", "Professional"}, DeriveBadges(many(20, plain)))
	assert.Equal(t, []string{"Comprehensive", "Professional", "Professional"}, DeriveBadges(many(21, plain)))

	mixed := many(51, plain)
	mixed[3].Nugget = "Here is HOW TO batch your content"
	mixed[9].WTA = "Believe in the process"
	assert.Equal(t, []string{"Extensive", "Educational", "Motivational"}, DeriveBadges(mixed))

	onlyMotivation := []entity.Template{{Hook: "Chase the dream"}}
	got := DeriveBadges(onlyMotivation)
	assert.Equal(t, []string{"Focused", "Motivational", "Professional"}, got)
	assert.Len(t, got, constants.BadgeCount)
}

func TestDescribeVoiceAndEstimate(t *testing.T) {
	job := &entity.Job{Username: "chef", Platform: constants.Instagram}
	assert.Equal(t, "AI voice trained on 12 scripts from @chef's Instagram videos", DescribeVoice(job, 12))
	assert.Equal(t, 12, EstimateMinutes(10))
	assert.Equal(t, 22, EstimateMinutes(50))
	assert.Equal(t, 60, EstimateMinutes(200))
}
