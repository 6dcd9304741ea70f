package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/voice-studio/internal/app"
	"github.com/joseph-ayodele/voice-studio/internal/async"
	"github.com/joseph-ayodele/voice-studio/internal/common"
)

// voice-worker consumes job messages from SQS and runs the pipeline.
func main() {
	envFile := flag.String("env", ".env", "dotenv file to load if present")
	flag.Parse()

	cfg, err := common.LoadConfig(*envFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	cfg.Queue.Driver = "sqs"
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build runtime", "error", err)
		os.Exit(1)
	}
	defer func() { _ = rt.Close(context.Background()) }()

	client, err := app.NewSQSClient(cfg.Queue)
	if err != nil {
		logger.Error("failed to create sqs client", "error", err)
		os.Exit(1)
	}
	consumer := async.NewSQSConsumer(client, rt.Processor, async.SQSConsumerConfig{
		QueueURL:          cfg.Queue.SQSURL,
		WaitSeconds:       int(cfg.Queue.WaitTime),
		VisibilitySeconds: int(cfg.Queue.Visibility),
		JobTimeout:        cfg.Queue.JobTimeout,
	}, logger)

	if err := consumer.Run(ctx); err != nil {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
}
