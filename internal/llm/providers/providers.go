package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/llm"
	"github.com/joseph-ayodele/voice-studio/internal/llm/gemini"
	"github.com/joseph-ayodele/voice-studio/internal/llm/openai"
)

// New builds the template extractor named by cfg.Provider. The returned close
// func releases provider resources and is never nil.
func New(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.TemplateExtractor, func() error, error) {
	switch cfg.Provider {
	case "openai":
		c := openai.NewClient(openai.Config{
			APIKey:          cfg.OpenAIAPIKey,
			BaseURL:         cfg.OpenAIURL,
			Model:           cfg.OpenAIModel,
			Temperature:     cfg.Temperature,
			Timeout:         cfg.Timeout,
			LenientOptional: true,
		}, logger)
		return c, func() error { return nil }, nil
	case "gemini", "":
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:          cfg.GeminiAPIKey,
			Model:           cfg.GeminiModel,
			Temperature:     cfg.Temperature,
			Timeout:         cfg.Timeout,
			LenientOptional: true,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
