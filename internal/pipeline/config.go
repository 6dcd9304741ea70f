package pipeline

import (
	"context"
	"time"

	"github.com/joseph-ayodele/voice-studio/internal/common"
)

// Config holds the pacing of the voice creation stages.
type Config struct {
	IngestBatchSize      int           // concurrent ingestion calls per batch, default 10
	IngestBatchDelay     time.Duration // pause between batches, default 2s
	PollInterval         time.Duration // transcription poll interval, default 30s
	TranscriptionTimeout time.Duration // ceiling on the transcription wait, default 30m
	TemplateDelay        time.Duration // pause between LLM calls, default 500ms
	MinTranscriptLength  int           // transcripts must be longer than this, default 50
	TranscriptLimit      int           // characters of transcript sent to the LLM, default 6000
}

func DefaultConfig() Config {
	return Config{
		IngestBatchSize:      10,
		IngestBatchDelay:     2 * time.Second,
		PollInterval:         30 * time.Second,
		TranscriptionTimeout: 30 * time.Minute,
		TemplateDelay:        500 * time.Millisecond,
		MinTranscriptLength:  50,
		TranscriptLimit:      6000,
	}
}

// ConfigFrom maps the environment configuration onto the pipeline settings.
func ConfigFrom(c common.PipelineConfig) Config {
	return Config{
		IngestBatchSize:      c.IngestBatchSize,
		IngestBatchDelay:     c.IngestBatchDelay,
		PollInterval:         c.PollInterval,
		TranscriptionTimeout: c.TranscriptionTimeout,
		TemplateDelay:        c.TemplateDelay,
		MinTranscriptLength:  c.MinTranscriptLength,
		TranscriptLimit:      c.TranscriptPromptLimit,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IngestBatchSize <= 0 {
		c.IngestBatchSize = d.IngestBatchSize
	}
	if c.IngestBatchDelay < 0 {
		c.IngestBatchDelay = 0
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.TranscriptionTimeout <= 0 {
		c.TranscriptionTimeout = d.TranscriptionTimeout
	}
	if c.TemplateDelay < 0 {
		c.TemplateDelay = 0
	}
	if c.MinTranscriptLength <= 0 {
		c.MinTranscriptLength = d.MinTranscriptLength
	}
	if c.TranscriptLimit <= 0 {
		c.TranscriptLimit = d.TranscriptLimit
	}
	return c
}

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the latter case.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Waker delivers a signal whenever a video in the collection changes, so the
// transcription wait can re-check before its next poll.
type Waker interface {
	Subscribe(collectionID string) (<-chan struct{}, func())
}
