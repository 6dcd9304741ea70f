package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/voice-studio/internal/async"
	"github.com/joseph-ayodele/voice-studio/internal/auth"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
	"github.com/joseph-ayodele/voice-studio/internal/export"
	"github.com/joseph-ayodele/voice-studio/internal/repository"
	"github.com/joseph-ayodele/voice-studio/internal/transcription"
	"github.com/joseph-ayodele/voice-studio/internal/voices"
)

type stubQueue struct {
	jobs []async.Job
	err  error
}

func (q *stubQueue) Enqueue(_ context.Context, job async.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *stubQueue) Shutdown(context.Context) {}

type fixture struct {
	srv   *httptest.Server
	store repository.Store
	queue *stubQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := repository.OpenSQLite(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	q := &stubQueue{}
	s := New(Options{
		Voices:        voices.NewService(store, q, transcription.NewHub(), logger),
		Export:        export.NewService(store.Voices(), logger),
		Auth:          auth.HeaderAuthenticator{},
		Store:         store,
		WebhookSecret: "s3cret",
		Logger:        logger,
	})
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: store, queue: q}
}

func (f *fixture) do(t *testing.T, method, path, user string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rdr)
	require.NoError(t, err)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestProcessProfile(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/voices/process-profile", "", map[string]any{"profileUrl": "@chef", "platform": "tiktok"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, map[string]any{"error": "Authentication failed"}, body)

	resp, body = f.do(t, http.MethodPost, "/api/voices/process-profile", "user-1",
		map[string]any{"profileUrl": "@chef", "platform": "tiktok", "videoCount": 5}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "videoCount must be at least 10", body["error"])

	resp, _ = f.do(t, http.MethodPost, "/api/voices/process-profile", "user-1", `{"profileUrl":`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	counts, err := f.store.Counts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counts[repository.TableJobs])

	resp, body = f.do(t, http.MethodPost, "/api/voices/process-profile", "user-1",
		map[string]any{"profileUrl": "https://www.tiktok.com/@chef", "platform": "tiktok", "videoCount": 20}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(20), body["videoCount"])
	assert.Equal(t, "15 minutes", body["estimatedProcessingTime"])
	assert.NotEmpty(t, body["message"])
	jobID, _ := body["jobId"].(string)
	require.NotEmpty(t, jobID)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, jobID, f.queue.jobs[0].JobID)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = f.do(t, http.MethodGet, "/api/voices/jobs/"+jobID, "user-1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "discovering_videos", body["status"])
	assert.Equal(t, float64(0), body["progress"])

	resp, _ = f.do(t, http.MethodGet, "/api/voices/jobs/"+jobID, "user-2", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProcessProfile_QueueFailure(t *testing.T) {
	f := newFixture(t)
	f.queue.err = errors.New("down")

	resp, body := f.do(t, http.MethodPost, "/api/voices/process-profile", "user-1",
		map[string]any{"profileUrl": "@chef", "platform": "instagram"}, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "failed to start voice creation", body["error"])
}

func TestVoiceAndExport(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Voices().Create(context.Background(), &entity.Voice{
		ID: "voice-1", UserID: "user-1", Name: "@chef Voice",
		Badges:    []string{"Focused", "Professional", "Professional"},
		Templates: []entity.Template{{Hook: "h", Bridge: "b", Nugget: "n", WTA: "w"}},
		CreatedAt: time.Now(),
	}))

	resp, body := f.do(t, http.MethodGet, "/api/voices/voice-1", "user-1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "@chef Voice", body["name"])

	resp, _ = f.do(t, http.MethodGet, "/api/voices/voice-1", "user-2", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/voices/voice-1/export", "user-1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "voice-voice-1.xlsx")
}

func TestTranscriptionEvents(t *testing.T) {
	f := newFixture(t)
	ev := map[string]any{"videoId": "v1", "collectionId": "col-1", "transcriptionStatus": "completed", "transcript": "hi"}

	resp, _ := f.do(t, http.MethodPost, "/api/voices/transcription-events", "", ev, map[string]string{"X-Webhook-Secret": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/api/voices/transcription-events", "", ev, map[string]string{"X-Webhook-Secret": "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "v1", body["videoId"])

	v, err := f.store.Videos().Get(context.Background(), "v1")
	require.NoError(t, err)
	assert.True(t, v.HasTranscript())
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodGet, "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	hs := health.NewServer()
	rep := NewHealthReporter(hs, f.store, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, rep.Check(context.Background()))

	require.NoError(t, f.store.Close(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, rep.Check(context.Background()))
}
