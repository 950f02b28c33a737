// Package mongostore implements the repository interfaces on MongoDB. Each
// aggregate is one document: tasks embed their team, sub-tasks and
// activities; notices embed their recipients and readers.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/taskboard-api/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	tasksCollection    = "tasks"
	noticesCollection  = "notices"
	countersCollection = "counters"
)

// Repositories bundles the Mongo-backed repositories.
type Repositories struct {
	Users   repository.UserRepository
	Tasks   repository.TaskRepository
	Notices repository.NoticeRepository
}

// New returns repositories over db.
func New(db *mongo.Database) Repositories {
	ids := &sequence{coll: db.Collection(countersCollection)}
	return Repositories{
		Users:   &UserRepository{coll: db.Collection(usersCollection), ids: ids},
		Tasks:   &TaskRepository{coll: db.Collection(tasksCollection), ids: ids},
		Notices: &NoticeRepository{coll: db.Collection(noticesCollection), ids: ids},
	}
}

// EnsureIndexes creates the indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		tasksCollection: {
			{Keys: bson.D{{Key: "stage", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "team", Value: 1}}},
		},
		noticesCollection: {
			{Keys: bson.D{{Key: "team", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// sequence hands out numeric ids so that both stores expose the same id
// space to the API.
type sequence struct {
	coll *mongo.Collection
}

func (s *sequence) next(ctx context.Context, name string) (uint64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return uint64(counter.Seq), nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicateKey
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
