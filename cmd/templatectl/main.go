package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/llm"
	"github.com/joseph-ayodele/voice-studio/internal/llm/providers"
)

// templatectl runs template extraction on one transcript file N times, for
// checking prompt and provider stability.
func main() {
	var (
		envFile  = flag.String("env", ".env", "dotenv file to load if present")
		provider = flag.String("provider", "", "override LLM_PROVIDER (gemini|openai)")
		times    = flag.Int("times", 3, "number of runs")
		platform = flag.String("platform", "tiktok", "platform hint for the prompt")
		username = flag.String("username", "", "creator handle hint for the prompt")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage: templatectl [flags] <transcript.txt>")
		os.Exit(2)
	}
	raw, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		logger.Error("read transcript", "path", flag.Arg(0), "error", err)
		os.Exit(1)
	}

	cfg, err := common.LoadConfig(*envFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	if *provider != "" {
		cfg.LLM.Provider = *provider
	}
	if cfg.LLM.APIKey() == "" {
		logger.Error("an API key for the selected provider is required", "provider", cfg.LLM.Provider)
		os.Exit(2)
	}
	p, ok := constants.ParsePlatform(*platform)
	if !ok {
		logger.Error("unsupported platform", "platform", *platform)
		os.Exit(2)
	}

	ctx := context.Background()
	extractor, closeFn, err := providers.New(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("llm provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = closeFn() }()

	failed := false
	for i := 1; i <= *times; i++ {
		runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		start := time.Now()
		fields, _, err := extractor.ExtractTemplate(runCtx, llm.ExtractRequest{
			Transcript:         string(raw),
			VideoID:            fmt.Sprintf("local-%d", i),
			Platform:           p,
			Username:           *username,
			MaxTranscriptChars: cfg.Pipeline.TranscriptPromptLimit,
		})
		cancel()
		if err != nil {
			failed = true
			logger.Error("template.run.error", "iter", i, "err", err)
		} else {
			out, _ := json.Marshal(fields)
			logger.Info("template.run.ok", "iter", i, "elapsed_ms", time.Since(start).Milliseconds(), "template", string(out))
		}
		if i < *times {
			time.Sleep(cfg.Pipeline.TemplateDelay)
		}
	}
	if failed {
		os.Exit(1)
	}
}
