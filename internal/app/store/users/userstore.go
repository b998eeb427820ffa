// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the users collection.
const Collection = "users"

type Store struct {
	c *mongo.Collection
}

var _ schedule.UserStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a new user at version 1. The caller's document receives the
// assigned ID and timestamps.
func (s *Store) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.Version = 1
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.SignupDate.IsZero() {
		u.SignupDate = now
	}
	if u.Groups == nil {
		u.Groups = map[string]string{}
	}
	fillSchedule(&u.Schedule)

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return schedule.ErrUserExists
		}
		return err
	}
	return nil
}

// GetByUserID loads a user by login id.
func (s *Store) GetByUserID(ctx context.Context, userID string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, schedule.ErrUserNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// ListByUserIDs loads the users that exist among userIDs, ordered by user id.
func (s *Store) ListByUserIDs(ctx context.Context, userIDs []string) ([]models.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := s.write(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{"last_login": at}}, schedule.ErrUserNotFound)
	return err
}

// PushEvent appends ev unless an event with the same _id is already present.
func (s *Store) PushEvent(ctx context.Context, userID string, ev models.Event) error {
	filter := bson.M{"user_id": userID, "schedule.events._id": bson.M{"$ne": ev.ID}}
	return s.push(ctx, userID, filter, bson.M{"$push": bson.M{"schedule.events": ev}})
}

// PushTask appends t unless a task with the same _id is already present.
func (s *Store) PushTask(ctx context.Context, userID string, t models.Task) error {
	filter := bson.M{"user_id": userID, "schedule.tasks._id": bson.M{"$ne": t.ID}}
	return s.push(ctx, userID, filter, bson.M{"$push": bson.M{"schedule.tasks": t}})
}

func (s *Store) push(ctx context.Context, userID string, filter, update bson.M) error {
	matched, err := s.write(ctx, filter, update, nil)
	if err != nil || matched {
		return err
	}
	// nothing matched: either the element is already there or the user is gone
	return s.mustExist(ctx, userID)
}

// PullEventsByOrigin removes every event copied from group pin.
func (s *Store) PullEventsByOrigin(ctx context.Context, userID string, pin int) error {
	update := bson.M{"$pull": bson.M{"schedule.events": bson.M{"origin_pin": pin}}}
	_, err := s.write(ctx, bson.M{"user_id": userID}, update, schedule.ErrUserNotFound)
	return err
}

func (s *Store) SetTaskProgress(ctx context.Context, userID string, taskID primitive.ObjectID, progress string) error {
	filter := bson.M{"user_id": userID, "schedule.tasks._id": taskID}
	update := bson.M{"$set": bson.M{"schedule.tasks.$.progress": progress}}
	matched, err := s.write(ctx, filter, update, nil)
	if err != nil || matched {
		return err
	}
	if err := s.mustExist(ctx, userID); err != nil {
		return err
	}
	return schedule.ErrTaskNotFound
}

// SetGroup caches a group's display name under its PIN.
func (s *Store) SetGroup(ctx context.Context, userID string, pin int, name string) error {
	update := bson.M{"$set": bson.M{"groups." + strconv.Itoa(pin): name}}
	_, err := s.write(ctx, bson.M{"user_id": userID}, update, schedule.ErrUserNotFound)
	return err
}

func (s *Store) UnsetGroup(ctx context.Context, userID string, pin int) error {
	update := bson.M{"$unset": bson.M{"groups." + strconv.Itoa(pin): ""}}
	_, err := s.write(ctx, bson.M{"user_id": userID}, update, schedule.ErrUserNotFound)
	return err
}

// SetFreeTime replaces the cached free time if the stored version is expect.
func (s *Store) SetFreeTime(ctx context.Context, userID string, expect int64, free []models.Interval) error {
	filter := bson.M{"user_id": userID, "version": expect}
	update := bson.M{"$set": bson.M{"schedule.free_time": nonNil(free)}}
	matched, err := s.write(ctx, filter, update, nil)
	if err != nil || matched {
		return err
	}
	if err := s.mustExist(ctx, userID); err != nil {
		return err
	}
	return schedule.ErrVersionConflict
}

// write applies update to the document matching filter, bumping its version
// and updated_at. When nothing matches it returns notMatched, or reports
// matched=false if notMatched is nil.
func (s *Store) write(ctx context.Context, filter, update bson.M, notMatched error) (bool, error) {
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
	if res.MatchedCount == 0 {
		if notMatched != nil {
			return false, notMatched
		}
		return false, nil
	}
	return true, nil
}

func (s *Store) mustExist(ctx context.Context, userID string) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"user_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return schedule.ErrUserNotFound
	}
	return nil
}

func fillSchedule(sc *models.Schedule) {
	if sc.Events == nil {
		sc.Events = []models.Event{}
	}
	if sc.Tasks == nil {
		sc.Tasks = []models.Task{}
	}
	sc.FreeTime = nonNil(sc.FreeTime)
}

// nonNil keeps empty free time stored as [] rather than null.
func nonNil(free []models.Interval) []models.Interval {
	if free == nil {
		return []models.Interval{}
	}
	return free
}
