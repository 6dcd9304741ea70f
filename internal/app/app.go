// Package app wires the store, collaborators and the voice pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"

	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/llm/providers"
	"github.com/joseph-ayodele/voice-studio/internal/pipeline"
	"github.com/joseph-ayodele/voice-studio/internal/repository"
	"github.com/joseph-ayodele/voice-studio/internal/transcription"
	"github.com/joseph-ayodele/voice-studio/internal/upstream"
)

// Runtime holds the long-lived pieces shared by the binaries.
type Runtime struct {
	Store     repository.Store
	Hub       *transcription.Hub
	Processor *pipeline.Processor

	closers []func() error
	logger  *slog.Logger
}

// Build opens the store and assembles the processor.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Runtime, error) {
	store, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt := &Runtime{Store: store, Hub: transcription.NewHub(), logger: logger}

	extractor, closeLLM, err := providers.New(ctx, cfg.LLM, logger)
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	rt.closers = append(rt.closers, closeLLM)

	content := upstream.NewClient(upstream.Config{
		BaseURL: cfg.Upstream.ResolveBaseURL(cfg.Server.Port),
		Token:   cfg.Upstream.Token,
		Timeout: cfg.Upstream.Timeout,
	}, nil, logger)

	rt.Processor = pipeline.NewProcessor(logger, pipeline.ConfigFrom(cfg.Pipeline), pipeline.Deps{
		Jobs:      store.Jobs(),
		Videos:    store.Videos(),
		Voices:    store.Voices(),
		Provider:  content,
		Extractor: extractor,
		Waker:     rt.Hub,
	})
	logger.Info("app.runtime.ready",
		"store", cfg.Database.Driver, "llm", cfg.LLM.Provider, "queue", cfg.Queue.Driver)
	return rt, nil
}

// Close releases the LLM client and the store.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	for _, c := range r.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.Store.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// NewSQSClient uses the shared AWS config chain with the configured region.
func NewSQSClient(cfg common.QueueConfig) (*sqs.SQS, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
		Config:            aws.Config{Region: aws.String(cfg.AWSRegion)},
	})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return sqs.New(sess), nil
}
