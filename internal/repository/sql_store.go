package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
)

// SQLStore keeps each record as a JSON document next to the columns it is
// queried by. The same code serves Postgres and SQLite; ent's builder takes care
// of placeholders and quoting per dialect.
type SQLStore struct {
	drv  *entsql.Driver
	pool *pgxpool.Pool
	log  *slog.Logger

	jobs        *sqlJobRepo
	videos      *sqlVideoRepo
	voices      *sqlVoiceRepo
	collections *sqlCollectionRepo
}

func newSQLStore(drv *entsql.Driver, logger *slog.Logger) *SQLStore {
	s := &SQLStore{drv: drv, log: logger}
	s.jobs = &sqlJobRepo{s: s}
	s.videos = &sqlVideoRepo{s: s}
	s.voices = &sqlVoiceRepo{s: s}
	s.collections = &sqlCollectionRepo{s: s}
	return s
}

func (s *SQLStore) Jobs() JobRepository               { return s.jobs }
func (s *SQLStore) Videos() VideoRepository           { return s.videos }
func (s *SQLStore) Voices() VoiceRepository           { return s.voices }
func (s *SQLStore) Collections() CollectionRepository { return s.collections }

func (s *SQLStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

// schemaDDL is portable across Postgres and SQLite.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS ` + TableJobs + ` (
	id TEXT NOT NULL PRIMARY KEY,
	user_id TEXT NOT NULL,
	collection_id TEXT NOT NULL,
	status TEXT NOT NULL,
	revision BIGINT NOT NULL,
	updated_at TEXT NOT NULL,
	doc TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS ` + TableVideos + ` (
	id TEXT NOT NULL PRIMARY KEY,
	collection_id TEXT NOT NULL,
	transcription_status TEXT NOT NULL,
	added_at TEXT NOT NULL,
	doc TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS ` + TableVoices + ` (
	id TEXT NOT NULL PRIMARY KEY,
	user_id TEXT NOT NULL,
	doc TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS ` + TableCollections + ` (
	id TEXT NOT NULL PRIMARY KEY,
	user_id TEXT NOT NULL,
	doc TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS videos_collection_id ON ` + TableVideos + ` (collection_id)`,
}

// EnsureSchema creates the tables and indexes when missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, q := range schemaDDL {
		if _, err := s.drv.ExecContext(ctx, q); err != nil {
			s.log.Error("create schema failed", "query", q, "error", err)
			return common.WrapError(err, "ensure schema")
		}
	}
	return nil
}

func (s *SQLStore) Counts(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, 4)
	for _, table := range []string{TableJobs, TableVideos, TableVoices, TableCollections} {
		q, args := s.builder().Select(entsql.Count("*")).From(entsql.Table(table)).Query()
		var n int64
		if err := s.queryRow(ctx, q, args, &n); err != nil {
			return nil, err
		}
		out[table] = n
	}
	return out, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	return s.drv.DB().PingContext(ctx)
}

// Close closes the database connections gracefully
func (s *SQLStore) Close(context.Context) error {
	s.log.Info("closing database connections")
	err := s.drv.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// queryRow scans the first row into dest and returns errNoRows when empty.
func (s *SQLStore) queryRow(ctx context.Context, q string, args []any, dest ...any) error {
	rows, err := s.drv.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return errNoRows
	}
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	return rows.Err()
}

var errNoRows = sql.ErrNoRows

func (s *SQLStore) getDoc(ctx context.Context, table, id string, dest any) error {
	q, args := s.builder().Select("doc").From(entsql.Table(table)).Where(entsql.EQ("id", id)).Query()
	var doc string
	if err := s.queryRow(ctx, q, args, &doc); err != nil {
		return err
	}
	return json.Unmarshal([]byte(doc), dest)
}

func (s *SQLStore) insert(ctx context.Context, table string, cols []string, vals []any) error {
	q, args := s.builder().Insert(table).Columns(cols...).Values(vals...).Query()
	_, err := s.drv.ExecContext(ctx, q, args...)
	return err
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type sqlJobRepo struct{ s *SQLStore }

func (r *sqlJobRepo) Create(ctx context.Context, job *entity.Job) error {
	if job.Revision == 0 {
		job.Revision = 1
	}
	doc, err := json.Marshal(job)
	if err != nil {
		return err
	}
	err = r.s.insert(ctx, TableJobs,
		[]string{"id", "user_id", "collection_id", "status", "revision", "updated_at", "doc"},
		[]any{job.ID, job.UserID, job.CollectionID, string(job.Status), job.Revision, stamp(job.UpdatedAt), string(doc)})
	if err != nil {
		r.s.log.Error("job create failed", "job_id", job.ID, "error", err)
		return common.WrapError(err, "create job")
	}
	r.s.log.Info("job created", "job_id", job.ID, "user_id", job.UserID, "collection_id", job.CollectionID)
	return nil
}

func (r *sqlJobRepo) Get(ctx context.Context, id string) (*entity.Job, error) {
	var job entity.Job
	if err := r.s.getDoc(ctx, TableJobs, id, &job); err != nil {
		if errors.Is(err, errNoRows) {
			return nil, notFound("job", id)
		}
		return nil, common.WrapError(err, "get job")
	}
	return &job, nil
}

func (r *sqlJobRepo) Update(ctx context.Context, job *entity.Job) error {
	expected := job.Revision
	job.Revision = expected + 1
	doc, err := json.Marshal(job)
	if err != nil {
		job.Revision = expected
		return err
	}
	q, args := r.s.builder().Update(TableJobs).
		Set("status", string(job.Status)).
		Set("revision", job.Revision).
		Set("updated_at", stamp(job.UpdatedAt)).
		Set("doc", string(doc)).
		Where(entsql.And(entsql.EQ("id", job.ID), entsql.EQ("revision", expected))).
		Query()
	res, err := r.s.drv.ExecContext(ctx, q, args...)
	if err != nil {
		job.Revision = expected
		r.s.log.Error("job update failed", "job_id", job.ID, "error", err)
		return common.WrapError(err, "update job")
	}
	n, err := res.RowsAffected()
	if err != nil {
		job.Revision = expected
		return common.WrapError(err, "update job")
	}
	if n == 0 {
		job.Revision = expected
		if _, err := r.Get(ctx, job.ID); err != nil {
			return err
		}
		r.s.log.Debug("job revision conflict", "job_id", job.ID, "revision", expected)
		return common.ErrConflict
	}
	return nil
}

type sqlVideoRepo struct{ s *SQLStore }

// Save inserts the video or replaces an existing record with the same id.
func (r *sqlVideoRepo) Save(ctx context.Context, v *entity.Video) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return err
	}
	q, args := r.s.builder().Insert(TableVideos).
		Columns("id", "collection_id", "transcription_status", "added_at", "doc").
		Values(v.ID, v.CollectionID, v.TranscriptionStatus, stamp(v.AddedAt), string(doc)).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.s.drv.ExecContext(ctx, q, args...); err != nil {
		r.s.log.Error("video save failed", "video_id", v.ID, "error", err)
		return common.WrapError(err, "save video")
	}
	return nil
}

func (r *sqlVideoRepo) Get(ctx context.Context, id string) (*entity.Video, error) {
	var v entity.Video
	if err := r.s.getDoc(ctx, TableVideos, id, &v); err != nil {
		if errors.Is(err, errNoRows) {
			return nil, notFound("video", id)
		}
		return nil, common.WrapError(err, "get video")
	}
	return &v, nil
}

func (r *sqlVideoRepo) ListByCollection(ctx context.Context, collectionID string) ([]entity.Video, error) {
	q, args := r.s.builder().Select("doc").From(entsql.Table(TableVideos)).
		Where(entsql.EQ("collection_id", collectionID)).
		OrderBy("added_at", "id").
		Query()
	rows, err := r.s.drv.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, common.WrapError(err, "list videos")
	}
	defer rows.Close()
	var out []entity.Video
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var v entity.Video
		if err := json.Unmarshal([]byte(doc), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *sqlVideoRepo) UpdateTranscription(ctx context.Context, id, status, transcript string) (*entity.Video, error) {
	v, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v.TranscriptionStatus = status
	v.Transcript = transcript
	v.UpdatedAt = time.Now().UTC()
	if err := r.Save(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

type sqlVoiceRepo struct{ s *SQLStore }

func (r *sqlVoiceRepo) Create(ctx context.Context, v *entity.Voice) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := r.s.insert(ctx, TableVoices, []string{"id", "user_id", "doc"}, []any{v.ID, v.UserID, string(doc)}); err != nil {
		r.s.log.Error("voice create failed", "voice_id", v.ID, "error", err)
		return common.WrapError(err, "create voice")
	}
	r.s.log.Info("voice created", "voice_id", v.ID, "templates", len(v.Templates))
	return nil
}

func (r *sqlVoiceRepo) Get(ctx context.Context, id string) (*entity.Voice, error) {
	var v entity.Voice
	if err := r.s.getDoc(ctx, TableVoices, id, &v); err != nil {
		if errors.Is(err, errNoRows) {
			return nil, notFound("voice", id)
		}
		return nil, common.WrapError(err, "get voice")
	}
	return &v, nil
}

func (r *sqlVoiceRepo) Delete(ctx context.Context, id string) error {
	q, args := r.s.builder().Delete(TableVoices).Where(entsql.EQ("id", id)).Query()
	if _, err := r.s.drv.ExecContext(ctx, q, args...); err != nil {
		return common.WrapError(err, "delete voice")
	}
	r.s.log.Info("voice deleted", "voice_id", id)
	return nil
}

type sqlCollectionRepo struct{ s *SQLStore }

func (r *sqlCollectionRepo) Create(ctx context.Context, c *entity.Collection) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := r.s.insert(ctx, TableCollections, []string{"id", "user_id", "doc"}, []any{c.ID, c.UserID, string(doc)}); err != nil {
		return common.WrapError(err, "create collection")
	}
	return nil
}

func (r *sqlCollectionRepo) Get(ctx context.Context, id string) (*entity.Collection, error) {
	var c entity.Collection
	if err := r.s.getDoc(ctx, TableCollections, id, &c); err != nil {
		if errors.Is(err, errNoRows) {
			return nil, notFound("collection", id)
		}
		return nil, common.WrapError(err, "get collection")
	}
	return &c, nil
}
