// internal/app/store/fanout/fanoutstore.go
package fanoutstore

import (
	"context"
	"time"

	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the fan-out failure log.
const Collection = "fanout_failures"

type Store struct {
	c *mongo.Collection
}

var _ schedule.FanoutStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Record appends a failed secondary write to the log.
func (s *Store) Record(ctx context.Context, f models.FanoutFailure) error {
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	f.ResolvedAt = nil
	_, err := s.c.InsertOne(ctx, f)
	return err
}

// Pending returns unresolved records with fewer than maxAttempts attempts,
// oldest first. A limit of zero means no limit.
func (s *Store) Pending(ctx context.Context, limit, maxAttempts int) ([]models.FanoutFailure, error) {
	filter := bson.M{
		"resolved_at": bson.M{"$exists": false},
		"attempts":    bson.M{"$lt": maxAttempts},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.FanoutFailure
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve marks a record as replayed.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"resolved_at": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

// Bump counts a failed replay.
func (s *Store) Bump(ctx context.Context, id primitive.ObjectID, lastErr string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"last_error": lastErr},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

// CountPending reports how many records still await replay.
func (s *Store) CountPending(ctx context.Context, maxAttempts int) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"resolved_at": bson.M{"$exists": false},
		"attempts":    bson.M{"$lt": maxAttempts},
	})
}
