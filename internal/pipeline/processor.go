package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
	"github.com/joseph-ayodele/voice-studio/internal/llm"
	"github.com/joseph-ayodele/voice-studio/internal/repository"
	"github.com/joseph-ayodele/voice-studio/internal/upstream"
)

// ErrAlreadyClaimed is returned when the job is terminal or another run owns it.
var ErrAlreadyClaimed = errors.New("job already claimed")

type Deps struct {
	Jobs      repository.JobRepository
	Videos    repository.VideoRepository
	Voices    repository.VoiceRepository
	Provider  upstream.ContentProvider
	Extractor llm.TemplateExtractor
	// Waker is optional; without it the transcription wait only polls.
	Waker Waker
	// Sleeper and Now default to real timers and time.Now.
	Sleeper Sleeper
	Now     func() time.Time
}

// Processor runs the voice creation stages for a job in order:
// discovery, ingestion, transcription wait, templates, voice.
type Processor struct {
	logger *slog.Logger
	jobs   repository.JobRepository
	now    func() time.Time

	discovery     *DiscoveryStage
	ingest        *IngestStage
	transcription *TranscriptionStage
	templates     *TemplateStage
	voice         *VoiceStage
}

func NewProcessor(logger *slog.Logger, cfg Config, deps Deps) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Sleeper == nil {
		deps.Sleeper = timerSleeper{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	base := stageBase{
		logger:  logger,
		cfg:     cfg.withDefaults(),
		jobs:    deps.Jobs,
		sleeper: deps.Sleeper,
		now:     deps.Now,
	}
	return &Processor{
		logger:        logger,
		jobs:          deps.Jobs,
		now:           deps.Now,
		discovery:     &DiscoveryStage{stageBase: base, provider: deps.Provider},
		ingest:        &IngestStage{stageBase: base, provider: deps.Provider},
		transcription: &TranscriptionStage{stageBase: base, videos: deps.Videos, waker: deps.Waker},
		templates:     &TemplateStage{stageBase: base, videos: deps.Videos, extractor: deps.Extractor},
		voice:         &VoiceStage{stageBase: base, voices: deps.Voices},
	}
}

// Run claims the job and executes every stage. Any stage error marks the job
// failed and is returned. There is no resume: a redelivered job that was
// already claimed returns ErrAlreadyClaimed without touching the record.
func (p *Processor) Run(ctx context.Context, jobID string) error {
	if err := p.claim(ctx, jobID); err != nil {
		if errors.Is(err, ErrAlreadyClaimed) {
			p.logger.Warn("processor.claim.skipped", "job_id", jobID)
		}
		return err
	}
	start := p.now()
	p.logger.Info("processor.start", "job_id", jobID)

	if err := p.runStages(ctx, jobID); err != nil {
		p.logger.Error("processor.failed", "job_id", jobID, "error", err,
			"elapsed_ms", p.now().Sub(start).Milliseconds())
		p.fail(ctx, jobID, err)
		return err
	}
	p.logger.Info("processor.completed", "job_id", jobID, "elapsed_ms", p.now().Sub(start).Milliseconds())
	return nil
}

func (p *Processor) runStages(ctx context.Context, jobID string) error {
	if _, err := p.discovery.Run(ctx, jobID); err != nil {
		return err
	}
	if _, err := p.ingest.Run(ctx, jobID); err != nil {
		return err
	}
	if _, err := p.transcription.Run(ctx, jobID); err != nil {
		return err
	}
	if _, err := p.templates.Run(ctx, jobID); err != nil {
		return err
	}
	_, err := p.voice.Run(ctx, jobID)
	return err
}

func (p *Processor) claim(ctx context.Context, jobID string) error {
	_, err := repository.MutateJob(ctx, p.jobs, jobID, func(j *entity.Job) error {
		if j.Status.IsTerminal() || j.Attempts > 0 {
			return ErrAlreadyClaimed
		}
		j.Attempts++
		j.UpdatedAt = p.now().UTC()
		return nil
	})
	return err
}

// fail records the error on the job. It writes even when ctx is already
// cancelled so shutdowns leave a terminal record behind.
func (p *Processor) fail(ctx context.Context, jobID string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	_, err := repository.MutateJob(ctx, p.jobs, jobID, func(j *entity.Job) error {
		if j.Status.IsTerminal() {
			return nil
		}
		p.markFailed(j, cause)
		return nil
	})
	if err != nil {
		p.logger.Error("processor.fail.not_recorded", "job_id", jobID, "error", err)
	}
}

// Abandon fails a job that was accepted but never claimed. A job another run
// has claimed is left alone and ErrAlreadyClaimed is returned.
func (p *Processor) Abandon(ctx context.Context, jobID string, cause error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	_, err := repository.MutateJob(ctx, p.jobs, jobID, func(j *entity.Job) error {
		if j.Status.IsTerminal() || j.Attempts > 0 {
			return ErrAlreadyClaimed
		}
		j.Attempts++
		p.markFailed(j, cause)
		return nil
	})
	if err != nil {
		return err
	}
	p.logger.Warn("processor.abandoned", "job_id", jobID, "error", cause)
	return nil
}

func (p *Processor) markFailed(j *entity.Job, cause error) {
	now := p.now().UTC()
	j.SetStatus(constants.JobStatusFailed)
	j.Error = cause.Error()
	j.Errors = append(j.Errors, cause.Error())
	j.AdvanceProgress(ProgressDone)
	j.CompletedAt = &now
	j.UpdatedAt = now
}
