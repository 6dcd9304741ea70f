package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/voice-studio/internal/llm"
)

// Config for the Gemini client.
type Config struct {
	APIKey          string
	Model           string // e.g., "gemini-1.5-flash"
	Temperature     float32
	Timeout         time.Duration
	LenientOptional bool
}

// generator is the part of *genai.GenerativeModel the client uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Client struct {
	cfg   Config
	sdk   *genai.Client
	model generator
	log   *slog.Logger
}

// NewClient dials the Gemini API and configures a JSON-mode model with the template schema.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	sdk, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := sdk.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = templateSchema()
	model.SystemInstruction = genai.NewUserContent(genai.Text(llm.BuildSystemPrompt()))

	return &Client{cfg: cfg, sdk: sdk, model: model, log: logger}, nil
}

func newWithGenerator(cfg Config, g generator, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &Client{cfg: cfg, model: g, log: logger}
}

func (c *Client) Close() error {
	if c.sdk == nil {
		return nil
	}
	return c.sdk.Close()
}

// templateSchema mirrors llm.BuildTemplateJSONSchema in Gemini's schema type.
func templateSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(llm.TemplateFieldNames))
	for _, name := range llm.TemplateFieldNames {
		props[name] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   llm.TemplateFieldNames,
	}
}

// ExtractTemplate implements llm.TemplateExtractor.
func (c *Client) ExtractTemplate(ctx context.Context, req llm.ExtractRequest) (llm.TemplateFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.template.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"video_id", req.VideoID,
		"text_len", len(req.Transcript),
	)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, genai.Text(llm.BuildUserPrompt(req)))
	if err != nil {
		c.log.Error("llm.template.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.TemplateFields{}, nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		c.log.Error("llm.template.no_candidates",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.TemplateFields{}, nil, errors.New("no candidates in gemini response")
	}

	out, rawContent, err := llm.DecodeTemplate([]byte(text), c.cfg.LenientOptional, c.log, rid, start)
	if err != nil {
		return out, rawContent, err
	}
	c.log.Info("llm.template.ok",
		"req_id", rid,
		"video_id", req.VideoID,
		"hook_len", len(out.Hook),
		"nugget_len", len(out.Nugget),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
