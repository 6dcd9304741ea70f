package voices

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/voice-studio/constants"
	"github.com/joseph-ayodele/voice-studio/internal/async"
	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
	"github.com/joseph-ayodele/voice-studio/internal/repository"
)

type fakeQueue struct {
	mu        sync.Mutex
	jobs      []async.Job
	err       error
	onEnqueue func(async.Job)
}

func (q *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.onEnqueue != nil {
		q.onEnqueue(job)
	}
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Shutdown(context.Context) {}

type countingNotifier struct{ collections []string }

func (n *countingNotifier) Notify(collectionID string) int {
	n.collections = append(n.collections, collectionID)
	return 1
}

func newService(t *testing.T) (*Service, repository.Store, *fakeQueue, *countingNotifier) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := repository.OpenSQLite(context.Background(), ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	q := &fakeQueue{}
	n := &countingNotifier{}
	return NewService(store, q, n, logger), store, q, n
}

func intPtr(v int) *int { return &v }

func assertNothingStored(t *testing.T, store repository.Store) {
	t.Helper()
	counts, err := store.Counts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counts[repository.TableJobs])
	assert.Zero(t, counts[repository.TableCollections])
}

func TestCreateJob_RejectsBadInputWithoutWriting(t *testing.T) {
	cases := map[string]ProcessProfileRequest{
		"count below range": {ProfileURL: "@chef", Platform: "tiktok", VideoCount: intPtr(9)},
		"count above range": {ProfileURL: "@chef", Platform: "tiktok", VideoCount: intPtr(201)},
		"unknown platform":  {ProfileURL: "@chef", Platform: "youtube"},
		"missing url":       {Platform: "instagram"},
		"bad username":      {ProfileURL: "https://www.tiktok.com/foryou", Platform: "tiktok"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			svc, store, q, _ := newService(t)
			_, err := svc.CreateJob(context.Background(), "user-1", req)
			require.Error(t, err)
			assert.Equal(t, 400, common.HTTPStatus(err))
			assertNothingStored(t, store)
			assert.Empty(t, q.jobs)
		})
	}
}

func TestCreateJob_ValidationMessage(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.CreateJob(context.Background(), "user-1", ProcessProfileRequest{
		ProfileURL: "@chef", Platform: "tiktok", VideoCount: intPtr(5),
	})
	assert.Equal(t, "videoCount must be at least 10", common.PublicMessage(err))
}

func TestCreateJob_Success(t *testing.T) {
	svc, store, q, _ := newService(t)
	ctx := common.WithRequestID(context.Background(), "req-9")

	res, err := svc.CreateJob(ctx, "user-1", ProcessProfileRequest{
		ProfileURL: "https://www.tiktok.com/@Chef.Mike", Platform: "TikTok", VideoCount: intPtr(40),
	})
	require.NoError(t, err)
	assert.Equal(t, 40, res.VideoCount)
	assert.Equal(t, "20 minutes", res.EstimatedProcessingTime)
	assert.Equal(t, "@chef.mike Voice - Training Data", res.CollectionName)

	job, err := store.Jobs().Get(context.Background(), res.JobID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusDiscoveringVideos, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, 1, job.CurrentStep)
	assert.Equal(t, "chef.mike", job.Username)
	assert.Equal(t, "@chef.mike Voice", job.VoiceName)
	assert.Equal(t, res.CollectionID, job.CollectionID)

	col, err := store.Collections().Get(context.Background(), res.CollectionID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", col.UserID)
	assert.Equal(t, "voice_creation", col.Source)

	require.Len(t, q.jobs, 1)
	assert.Equal(t, res.JobID, q.jobs[0].JobID)
	assert.Equal(t, "req-9", q.jobs[0].RequestID)
}

func TestCreateJob_DefaultsVideoCount(t *testing.T) {
	svc, _, _, _ := newService(t)
	res, err := svc.CreateJob(context.Background(), "user-1", ProcessProfileRequest{
		ProfileURL: "chef", Platform: "instagram", VoiceName: "Chef Voice",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultVideoCount, res.VideoCount)
	assert.Equal(t, "Chef Voice - Training Data", res.CollectionName)
}

func TestCreateJob_EnqueueFailureMarksJobFailed(t *testing.T) {
	svc, store, q, _ := newService(t)
	q.err = errors.New("queue down")

	_, err := svc.CreateJob(context.Background(), "user-1", ProcessProfileRequest{ProfileURL: "@chef", Platform: "tiktok"})
	require.Error(t, err)
	assert.Equal(t, 500, common.HTTPStatus(err))

	counts, err := store.Counts(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), counts[repository.TableJobs])
}

func TestGetJobAndVoice_OwnerScoped(t *testing.T) {
	svc, store, _, _ := newService(t)
	res, err := svc.CreateJob(context.Background(), "user-1", ProcessProfileRequest{ProfileURL: "@chef", Platform: "tiktok"})
	require.NoError(t, err)

	job, err := svc.GetJob(context.Background(), "user-1", res.JobID)
	require.NoError(t, err)
	assert.Equal(t, res.JobID, job.ID)

	_, err = svc.GetJob(context.Background(), "user-2", res.JobID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = svc.GetJob(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.Voices().Create(context.Background(), &entity.Voice{ID: "voice-1", UserID: "user-1", Name: "v"}))
	_, err = svc.GetVoice(context.Background(), "user-1", "voice-1")
	assert.NoError(t, err)
	_, err = svc.GetVoice(context.Background(), "user-2", "voice-1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecordTranscription(t *testing.T) {
	svc, store, _, n := newService(t)
	ctx := context.Background()

	_, err := svc.RecordTranscription(ctx, TranscriptionEvent{VideoID: "v1", Status: "completed"})
	assert.ErrorIs(t, err, common.ErrNotFound, "unknown video without a collection")

	v, err := svc.RecordTranscription(ctx, TranscriptionEvent{
		VideoID: "v1", CollectionID: "col-1", Status: "completed", Transcript: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "col-1", v.CollectionID)

	v, err = svc.RecordTranscription(ctx, TranscriptionEvent{VideoID: "v1", Status: "completed", Transcript: "hello again"})
	require.NoError(t, err)
	assert.Equal(t, "hello again", v.Transcript)

	stored, err := store.Videos().Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "hello again", stored.Transcript)
	assert.Equal(t, []string{"col-1", "col-1"}, n.collections)

	_, err = svc.RecordTranscription(ctx, TranscriptionEvent{Status: "completed"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCreateJob_RecordWrittenBeforeHandoff(t *testing.T) {
	svc, store, q, _ := newService(t)
	var seen *entity.Job
	q.onEnqueue = func(job async.Job) {
		got, err := store.Jobs().Get(context.Background(), job.JobID)
		require.NoError(t, err)
		seen = got
	}

	res, err := svc.CreateJob(context.Background(), "user-1", ProcessProfileRequest{
		ProfileURL: "@chef", Platform: "tiktok",
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, res.JobID, seen.ID)
	assert.Equal(t, constants.JobStatusDiscoveringVideos, seen.Status)
	assert.Zero(t, seen.Attempts)
}
