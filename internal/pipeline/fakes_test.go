package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
	"github.com/joseph-ayodele/voice-studio/internal/llm"
	"github.com/joseph-ayodele/voice-studio/internal/repository"
	"github.com/joseph-ayodele/voice-studio/internal/upstream"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func openStore(t *testing.T) repository.Store {
	t.Helper()
	s, err := repository.OpenSQLite(context.Background(), ":memory:", quiet())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

// fakeClock advances virtual time on every Sleep.
type fakeClock struct {
	mu      sync.Mutex
	t       time.Time
	slept   []time.Duration
	onSleep func(n int)
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.slept = append(c.slept, d)
	n := len(c.slept)
	hook := c.onSleep
	c.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return nil
}

func (c *fakeClock) sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.slept...)
}

// fakeProvider plays both the discovery API and the ingestion collaborator,
// which writes a video record for each accepted URL.
type fakeProvider struct {
	mu          sync.Mutex
	discovered  []entity.VideoDescriptor
	discoverErr error
	failURLs    map[string]bool
	transcripts map[string]string
	videos      repository.VideoRepository
	added       []upstream.AddVideoRequest
	inflight    int
	maxInflight int
}

func (f *fakeProvider) DiscoverCreator(ctx context.Context, req upstream.DiscoverRequest) ([]entity.VideoDescriptor, error) {
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	return f.discovered, nil
}

func (f *fakeProvider) AddVideoToCollection(ctx context.Context, req upstream.AddVideoRequest) (string, error) {
	f.mu.Lock()
	f.added = append(f.added, req)
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	fail := f.failURLs[req.URL]
	transcript, transcribed := f.transcripts[req.URL]
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()
	time.Sleep(time.Millisecond)

	if fail {
		return "", errors.New("ingestion rejected")
	}
	id := "vid-" + req.URL[strings.LastIndex(req.URL, "/")+1:]
	v := &entity.Video{
		ID: id, CollectionID: req.CollectionID, URL: req.URL, Title: req.Title,
		TranscriptionStatus: "pending", AddedAt: time.Now().UTC(),
	}
	if transcribed {
		v.TranscriptionStatus = constants.TranscriptionStatusCompleted
		v.Transcript = transcript
	}
	if err := f.videos.Save(ctx, v); err != nil {
		return "", err
	}
	return id, nil
}

type fakeExtractor struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (f *fakeExtractor) ExtractTemplate(ctx context.Context, req llm.ExtractRequest) (llm.TemplateFields, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.VideoID)
	fail := f.fail[req.VideoID]
	f.mu.Unlock()
	if fail {
		return llm.TemplateFields{}, nil, errors.New("model refused")
	}
	return llm.TemplateFields{
		Hook:   "Hook for " + req.VideoID,
		Bridge: "Bridge",
		Nugget: "Learn this one step",
		WTA:    "Follow for more",
	}, []byte(`{}`), nil
}

// progressRecorder wraps a JobRepository and records every persisted progress value.
// Writes moving the job to rejectStatus fail without reaching the store.
type progressRecorder struct {
	repository.JobRepository
	mu           sync.Mutex
	progress     []int
	rejectStatus constants.JobStatus
}

var errStoreUnavailable = errors.New("store unavailable")

func (r *progressRecorder) Update(ctx context.Context, job *entity.Job) error {
	if r.rejectStatus != "" && job.Status == r.rejectStatus {
		return errStoreUnavailable
	}
	if err := r.JobRepository.Update(ctx, job); err != nil {
		return err
	}
	r.mu.Lock()
	r.progress = append(r.progress, job.Progress)
	r.mu.Unlock()
	return nil
}

func seedJob(t *testing.T, jobs repository.JobRepository, id string, status constants.JobStatus, videoCount int) *entity.Job {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job := &entity.Job{
		ID:           id,
		UserID:       "user-1",
		CollectionID: "col-" + id,
		ProfileURL:   "https://www.tiktok.com/@chef",
		Platform:     constants.TikTok,
		Username:     "chef",
		VoiceName:    "@chef Voice",
		VideoCount:   videoCount,
		StartedAt:    now,
		UpdatedAt:    now,
	}
	job.SetStatus(status)
	require.NoError(t, jobs.Create(context.Background(), job))
	return job
}

func descriptors(n int) []entity.VideoDescriptor {
	out := make([]entity.VideoDescriptor, n)
	for i := range out {
		out[i] = entity.VideoDescriptor{
			ID:        fmt.Sprintf("d%d", i),
			URL:       fmt.Sprintf("https://www.tiktok.com/@chef/video/%d", i),
			Title:     fmt.Sprintf("Recipe %d", i),
			ViewCount: int64(1000 * i),
		}
	}
	return out
}

func longTranscript(i int) string {
	return fmt.Sprintf("Transcript %d: here is a long enough script about cooking pasta properly at home tonight.", i)
}
