package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
)

// ErrNoVideos is returned when discovery succeeds but finds nothing to ingest.
var ErrNoVideos = errors.New("no videos found for creator")

// ContentProvider is what the pipeline needs from the creator discovery and
// video ingestion endpoints.
type ContentProvider interface {
	DiscoverCreator(ctx context.Context, req DiscoverRequest) ([]entity.VideoDescriptor, error)
	AddVideoToCollection(ctx context.Context, req AddVideoRequest) (string, error)
}

type DiscoverRequest struct {
	Username   string             `json:"username"`
	Platform   constants.Platform `json:"platform"`
	VideoCount int                `json:"videoCount"`
}

type AddVideoRequest struct {
	URL          string         `json:"url"`
	CollectionID string         `json:"collectionId"`
	Title        string         `json:"title"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the internal API that scrapes creators and ingests videos.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, httpClient: httpClient, log: logger}
}

func (c *Client) headers() map[string]string {
	if c.cfg.Token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.cfg.Token}
}

// DiscoverCreator calls POST /api/process-creator. A non-2xx status, success=false
// or an empty list are all errors.
func (c *Client) DiscoverCreator(ctx context.Context, req DiscoverRequest) ([]entity.VideoDescriptor, error) {
	raw, _, err := SendJSON(ctx, c.httpClient, c.cfg.BaseURL+"/api/process-creator", req, c.headers(), c.log)
	if err != nil {
		return nil, fmt.Errorf("discover creator @%s: %w", req.Username, withBodyMessage(err))
	}
	var resp struct {
		Success         bool                     `json:"success"`
		Error           string                   `json:"error"`
		ExtractedVideos []entity.VideoDescriptor `json:"extractedVideos"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode discovery response: %w", err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "unsuccessful response"
		}
		return nil, fmt.Errorf("discover creator @%s: %s", req.Username, msg)
	}
	videos := make([]entity.VideoDescriptor, 0, len(resp.ExtractedVideos))
	for _, v := range resp.ExtractedVideos {
		if strings.TrimSpace(v.URL) == "" {
			continue
		}
		videos = append(videos, v)
	}
	if len(videos) == 0 {
		return nil, ErrNoVideos
	}
	c.log.Info("upstream.discover.ok", "username", req.Username, "platform", req.Platform, "videos", len(videos))
	return videos, nil
}

// AddVideoToCollection calls POST /api/add-video-to-collection and returns the
// video id when the endpoint reports one.
func (c *Client) AddVideoToCollection(ctx context.Context, req AddVideoRequest) (string, error) {
	raw, _, err := SendJSON(ctx, c.httpClient, c.cfg.BaseURL+"/api/add-video-to-collection", req, c.headers(), c.log)
	if err != nil {
		return "", fmt.Errorf("add video %s: %w", req.URL, withBodyMessage(err))
	}
	var resp struct {
		VideoID string `json:"videoId"`
		ID      string `json:"id"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &resp) == nil {
		if resp.VideoID != "" {
			return resp.VideoID, nil
		}
		return resp.ID, nil
	}
	return "", nil
}

// withBodyMessage surfaces the upstream {"error": "..."} text when present.
func withBodyMessage(err error) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(se.Body, &body) == nil && body.Error != "" {
		return fmt.Errorf("%w: %s", err, body.Error)
	}
	return err
}
