package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlatform(t *testing.T) {
	p, ok := ParsePlatform(" TikTok ")
	assert.True(t, ok)
	assert.Equal(t, TikTok, p)

	_, ok = ParsePlatform("youtube")
	assert.False(t, ok)
}

func TestJobStatusTransitions(t *testing.T) {
	path := []JobStatus{
		JobStatusDiscoveringVideos,
		JobStatusProcessingVideos,
		JobStatusWaitingTranscriptions,
		JobStatusGeneratingTemplates,
		JobStatusCreatingVoice,
		JobStatusCompleted,
	}
	for i := 1; i < len(path); i++ {
		assert.Truef(t, CanTransition(path[i-1], path[i]), "%s -> %s", path[i-1], path[i])
		assert.Falsef(t, CanTransition(path[i], path[i-1]), "%s -> %s", path[i], path[i-1])
	}
	for _, s := range path[:len(path)-1] {
		assert.True(t, CanTransition(s, JobStatusFailed), s)
	}
	assert.False(t, CanTransition(JobStatusCompleted, JobStatusFailed))
	assert.False(t, CanTransition(JobStatusFailed, JobStatusDiscoveringVideos))
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.False(t, JobStatusCreatingVoice.IsTerminal())
}

func TestBadges(t *testing.T) {
	assert.Equal(t, Focused, VolumeBadge(20))
	assert.Equal(t, Comprehensive, VolumeBadge(21))
	assert.Equal(t, Extensive, VolumeBadge(51))
	assert.True(t, IsEducational("Here is HOW TO fold dough"))
	assert.True(t, IsMotivational("never give up on it"))
	assert.False(t, IsMotivational("plain recipe"))
}
