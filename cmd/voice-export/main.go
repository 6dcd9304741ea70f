package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/export"
	repo "github.com/joseph-ayodele/voice-studio/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		envFile = flag.String("env", ".env", "dotenv file to load if present")
		voiceID = flag.String("voice", "", "voice id to export (required)")
		userID  = flag.String("user", "", "owner user id (required)")
		out     = flag.String("out", "", "output XLSX path (defaults to voice-<id>.xlsx)")
	)
	flag.Parse()

	if *voiceID == "" || *userID == "" {
		printError("Error: --voice and --user are required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = fmt.Sprintf("voice-%s.xlsx", *voiceID)
	}

	cfg, err := common.LoadConfig(*envFile)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := repo.Open(ctx, cfg.Database, logger)
	if err != nil {
		printError("Error: opening store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close(context.Background()) }()

	data, err := export.NewService(store.Voices(), logger).ExportVoiceXLSX(ctx, *userID, *voiceID)
	if err != nil {
		printError("Error: export failed: %s\n", common.PublicMessage(err))
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		printError("Error: writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes)\n", *out, len(data))
}
