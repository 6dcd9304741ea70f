package pipeline

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
)

// Progress checkpoints of the pipeline.
const (
	ProgressDiscovered     = 25
	ProgressIngested       = 65
	ProgressTranscribed    = 85
	ProgressTemplatesSaved = 95
	ProgressDone           = 100
)

// TranscriptionThreshold is max(ceil(0.7*total), 10).
func TranscriptionThreshold(total int) int {
	t := (7*total + 9) / 10
	if t < 10 {
		t = 10
	}
	return t
}

// IngestProgress spreads attempted/total over 25..65.
func IngestProgress(attempted, total int) int {
	return scale(ProgressDiscovered, ProgressIngested, attempted, total)
}

// TranscriptionProgress spreads completed/total over 65..85.
func TranscriptionProgress(completed, total int) int {
	return scale(ProgressIngested, ProgressTranscribed, completed, total)
}

func scale(lo, hi, n, total int) int {
	if total <= 0 {
		return lo
	}
	if n > total {
		n = total
	}
	if n < 0 {
		n = 0
	}
	return lo + (hi-lo)*n/total
}

// DeriveBadges returns exactly constants.BadgeCount badges: the volume badge,
// then Educational and Motivational when their keywords appear, padded with
// Professional.
func DeriveBadges(templates []entity.Template) []string {
	badges := []constants.Badge{constants.VolumeBadge(len(templates))}

	var corpus strings.Builder
	for _, t := range templates {
		corpus.WriteString(t.Text())
		corpus.WriteByte(' ')
	}
	text := corpus.String()
	if constants.IsEducational(text) {
		badges = append(badges, constants.Educational)
	}
	if constants.IsMotivational(text) {
		badges = append(badges, constants.Motivational)
	}
	for len(badges) < constants.BadgeCount {
		badges = append(badges, constants.Professional)
	}
	return constants.AsStrings(badges[:constants.BadgeCount])
}

// DescribeVoice is the one-line summary stored on the voice.
func DescribeVoice(job *entity.Job, templates int) string {
	return fmt.Sprintf("AI voice trained on %d scripts from @%s's %s videos",
		templates, job.Username, job.Platform.Title())
}

// EstimateMinutes is the rough wall-clock estimate reported at job creation.
func EstimateMinutes(videoCount int) int {
	m := 10 + videoCount/4
	if m > 60 {
		m = 60
	}
	return m
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
