// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the groups collection.
const Collection = "groups"

type Store struct {
	c *mongo.Collection
}

var _ schedule.GroupStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a new group at version 1. A PIN already in use yields
// schedule.ErrPINTaken and leaves the existing group untouched.
func (s *Store) Create(ctx context.Context, g *models.Group) error {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	g.Version = 1
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Schedule.Events == nil {
		g.Schedule.Events = []models.Event{}
	}
	if g.Schedule.Tasks == nil {
		g.Schedule.Tasks = []models.Task{}
	}
	g.Schedule.FreeTime = nonNil(g.Schedule.FreeTime)

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return schedule.ErrPINTaken
		}
		return err
	}
	return nil
}

func (s *Store) GetByPIN(ctx context.Context, pin int) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"pin": pin}).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Group{}, schedule.ErrGroupNotFound
		}
		return models.Group{}, err
	}
	return g, nil
}

// ListByMember returns the groups userID belongs to, ordered by PIN.
func (s *Store) ListByMember(ctx context.Context, userID string) ([]models.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "pin", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"members": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMember appends userID and replaces free time, provided the stored
// version is expect and userID is not already a member.
func (s *Store) AddMember(ctx context.Context, pin int, userID string, expect int64, free []models.Interval) error {
	filter := bson.M{"pin": pin, "version": expect, "members": bson.M{"$ne": userID}}
	update := bson.M{
		"$push": bson.M{"members": userID},
		"$set":  bson.M{"schedule.free_time": nonNil(free)},
	}
	return s.cas(ctx, pin, filter, update)
}

// RemoveMember drops userID from members and administrators and replaces
// free time under the same version check.
func (s *Store) RemoveMember(ctx context.Context, pin int, userID string, expect int64, free []models.Interval) error {
	filter := bson.M{"pin": pin, "version": expect, "members": userID}
	update := bson.M{
		"$pull": bson.M{"members": userID, "administrative_members": userID},
		"$set":  bson.M{"schedule.free_time": nonNil(free)},
	}
	return s.cas(ctx, pin, filter, update)
}

// AddAdmin promotes a current member. It is a no-op for an existing admin.
func (s *Store) AddAdmin(ctx context.Context, pin int, userID string) error {
	filter := bson.M{"pin": pin, "members": userID}
	update := bson.M{"$addToSet": bson.M{"administrative_members": userID}}
	matched, err := s.write(ctx, filter, update)
	if err != nil || matched {
		return err
	}
	if err := s.mustExist(ctx, pin); err != nil {
		return err
	}
	return schedule.ErrNotMember
}

// PushEvent appends ev unless an event with the same _id is already present.
func (s *Store) PushEvent(ctx context.Context, pin int, ev models.Event) error {
	filter := bson.M{"pin": pin, "schedule.events._id": bson.M{"$ne": ev.ID}}
	return s.push(ctx, pin, filter, bson.M{"$push": bson.M{"schedule.events": ev}})
}

// PushTask appends t unless a task with the same _id is already present.
func (s *Store) PushTask(ctx context.Context, pin int, t models.Task) error {
	filter := bson.M{"pin": pin, "schedule.tasks._id": bson.M{"$ne": t.ID}}
	return s.push(ctx, pin, filter, bson.M{"$push": bson.M{"schedule.tasks": t}})
}

func (s *Store) push(ctx context.Context, pin int, filter, update bson.M) error {
	matched, err := s.write(ctx, filter, update)
	if err != nil || matched {
		return err
	}
	return s.mustExist(ctx, pin)
}

func (s *Store) SetTaskProgress(ctx context.Context, pin int, taskID primitive.ObjectID, progress string) error {
	filter := bson.M{"pin": pin, "schedule.tasks._id": taskID}
	update := bson.M{"$set": bson.M{"schedule.tasks.$.progress": progress}}
	matched, err := s.write(ctx, filter, update)
	if err != nil || matched {
		return err
	}
	if err := s.mustExist(ctx, pin); err != nil {
		return err
	}
	return schedule.ErrTaskNotFound
}

// SetFreeTime replaces the cached free time if the stored version is expect.
func (s *Store) SetFreeTime(ctx context.Context, pin int, expect int64, free []models.Interval) error {
	filter := bson.M{"pin": pin, "version": expect}
	return s.cas(ctx, pin, filter, bson.M{"$set": bson.M{"schedule.free_time": nonNil(free)}})
}

// cas runs a version-guarded update. A miss on an existing group is a
// version conflict.
func (s *Store) cas(ctx context.Context, pin int, filter, update bson.M) error {
	matched, err := s.write(ctx, filter, update)
	if err != nil || matched {
		return err
	}
	if err := s.mustExist(ctx, pin); err != nil {
		return err
	}
	return schedule.ErrVersionConflict
}

// write applies update and bumps version and updated_at on a match.
func (s *Store) write(ctx context.Context, filter, update bson.M) (bool, error) {
	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
	}
	set["updated_at"] = time.Now().UTC()
	update["$set"] = set
	update["$inc"] = bson.M{"version": 1}

	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) mustExist(ctx context.Context, pin int) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"pin": pin}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return schedule.ErrGroupNotFound
	}
	return nil
}

func nonNil(free []models.Interval) []models.Interval {
	if free == nil {
		return []models.Interval{}
	}
	return free
}
