package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
)

// MongoStore keeps each record as a document in the collection of the same name.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	log    *slog.Logger
}

// OpenMongo connects, pings and creates the secondary indexes.
func OpenMongo(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*MongoStore, error) {
	logger.Info("connecting to mongodb", "database", cfg.MongoDatabase)
	opts := options.Client().ApplyURI(cfg.MongoURI)
	if cfg.DialTimeout > 0 {
		opts.SetConnectTimeout(cfg.DialTimeout)
	}
	if cfg.MaxConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxConns))
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		return nil, err
	}
	s := &MongoStore{client: client, db: client.Database(cfg.MongoDatabase), log: logger}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.Info("successfully connected to mongodb")
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(TableVideos).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "collectionId", Value: 1}, {Key: "addedAt", Value: 1}},
	})
	if err != nil {
		return common.WrapError(err, "create videos index")
	}
	_, err = s.db.Collection(TableJobs).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "startedAt", Value: -1}},
	})
	return common.WrapError(err, "create jobs index")
}

func (s *MongoStore) Jobs() JobRepository               { return &mongoJobRepo{s: s, c: s.db.Collection(TableJobs)} }
func (s *MongoStore) Videos() VideoRepository           { return &mongoVideoRepo{s: s, c: s.db.Collection(TableVideos)} }
func (s *MongoStore) Voices() VoiceRepository           { return &mongoDocRepo[entity.Voice]{c: s.db.Collection(TableVoices), kind: "voice"} }
func (s *MongoStore) Collections() CollectionRepository { return &mongoDocRepo[entity.Collection]{c: s.db.Collection(TableCollections), kind: "collection"} }

func (s *MongoStore) Counts(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, 4)
	for _, name := range []string{TableJobs, TableVideos, TableVoices, TableCollections} {
		n, err := s.db.Collection(name).CountDocuments(ctx, bson.D{})
		if err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	s.log.Info("closing mongodb connection")
	return s.client.Disconnect(ctx)
}

func findByID[T any](ctx context.Context, c *mongo.Collection, kind, id string) (*T, error) {
	var out T
	err := c.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(kind, id)
	}
	if err != nil {
		return nil, common.WrapError(err, "get "+kind)
	}
	return &out, nil
}

type mongoJobRepo struct {
	s *MongoStore
	c *mongo.Collection
}

func (r *mongoJobRepo) Create(ctx context.Context, job *entity.Job) error {
	if job.Revision == 0 {
		job.Revision = 1
	}
	if _, err := r.c.InsertOne(ctx, job); err != nil {
		r.s.log.Error("job create failed", "job_id", job.ID, "error", err)
		return common.WrapError(err, "create job")
	}
	r.s.log.Info("job created", "job_id", job.ID, "user_id", job.UserID, "collection_id", job.CollectionID)
	return nil
}

func (r *mongoJobRepo) Get(ctx context.Context, id string) (*entity.Job, error) {
	return findByID[entity.Job](ctx, r.c, "job", id)
}

func (r *mongoJobRepo) Update(ctx context.Context, job *entity.Job) error {
	expected := job.Revision
	job.Revision = expected + 1
	res, err := r.c.ReplaceOne(ctx, bson.M{"_id": job.ID, "revision": expected}, job)
	if err != nil {
		job.Revision = expected
		r.s.log.Error("job update failed", "job_id", job.ID, "error", err)
		return common.WrapError(err, "update job")
	}
	if res.MatchedCount == 0 {
		job.Revision = expected
		if _, err := r.Get(ctx, job.ID); err != nil {
			return err
		}
		return common.ErrConflict
	}
	return nil
}

type mongoVideoRepo struct {
	s *MongoStore
	c *mongo.Collection
}

func (r *mongoVideoRepo) Save(ctx context.Context, v *entity.Video) error {
	_, err := r.c.ReplaceOne(ctx, bson.M{"_id": v.ID}, v, options.Replace().SetUpsert(true))
	if err != nil {
		r.s.log.Error("video save failed", "video_id", v.ID, "error", err)
		return common.WrapError(err, "save video")
	}
	return nil
}

func (r *mongoVideoRepo) Get(ctx context.Context, id string) (*entity.Video, error) {
	return findByID[entity.Video](ctx, r.c, "video", id)
}

func (r *mongoVideoRepo) ListByCollection(ctx context.Context, collectionID string) ([]entity.Video, error) {
	cur, err := r.c.Find(ctx, bson.M{"collectionId": collectionID},
		options.Find().SetSort(bson.D{{Key: "addedAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, common.WrapError(err, "list videos")
	}
	var out []entity.Video
	if err := cur.All(ctx, &out); err != nil {
		return nil, common.WrapError(err, "list videos")
	}
	return out, nil
}

func (r *mongoVideoRepo) UpdateTranscription(ctx context.Context, id, status, transcript string) (*entity.Video, error) {
	var v entity.Video
	err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"transcriptionStatus": status, "transcript": transcript, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("video", id)
	}
	if err != nil {
		return nil, common.WrapError(err, "update transcription")
	}
	return &v, nil
}

// mongoDocRepo serves the write-once voice and collection records.
type mongoDocRepo[T any] struct {
	c    *mongo.Collection
	kind string
}

func (r *mongoDocRepo[T]) Create(ctx context.Context, doc *T) error {
	if _, err := r.c.InsertOne(ctx, doc); err != nil {
		return common.WrapError(err, "create "+r.kind)
	}
	return nil
}

func (r *mongoDocRepo[T]) Delete(ctx context.Context, id string) error {
	if _, err := r.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return common.WrapError(err, "delete "+r.kind)
	}
	return nil
}

func (r *mongoDocRepo[T]) Get(ctx context.Context, id string) (*T, error) {
	return findByID[T](ctx, r.c, r.kind, id)
}
