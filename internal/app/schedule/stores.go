// internal/app/schedule/stores.go
package schedule

import (
	"context"
	"time"

	"github.com/dalemusser/groupsched/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore persists users. Each method is atomic on one document and bumps
// the document version when it writes.
//
// Implementations return ErrUserNotFound for a missing user, ErrUserExists for a
// duplicate user id, ErrTaskNotFound when a positional task update matches
// nothing, and ErrVersionConflict when a compare-and-swap loses.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByUserID(ctx context.Context, userID string) (models.User, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]models.User, error)
	TouchLogin(ctx context.Context, userID string, at time.Time) error

	// Pushes are keyed by element _id; pushing an id already present is a no-op.
	PushEvent(ctx context.Context, userID string, ev models.Event) error
	PushTask(ctx context.Context, userID string, t models.Task) error
	PullEventsByOrigin(ctx context.Context, userID string, pin int) error
	SetTaskProgress(ctx context.Context, userID string, taskID primitive.ObjectID, progress string) error

	SetGroup(ctx context.Context, userID string, pin int, name string) error
	UnsetGroup(ctx context.Context, userID string, pin int) error

	// SetFreeTime replaces free time only if the stored version equals expect.
	SetFreeTime(ctx context.Context, userID string, expect int64, free []models.Interval) error
}

// GroupStore persists groups, with the same conventions as UserStore
// (ErrGroupNotFound, ErrPINTaken).
type GroupStore interface {
	Create(ctx context.Context, g *models.Group) error
	GetByPIN(ctx context.Context, pin int) (models.Group, error)
	ListByMember(ctx context.Context, userID string) ([]models.Group, error)

	// AddMember and RemoveMember change membership and replace free time in a
	// single compare-and-swap on version.
	AddMember(ctx context.Context, pin int, userID string, expect int64, free []models.Interval) error
	RemoveMember(ctx context.Context, pin int, userID string, expect int64, free []models.Interval) error
	AddAdmin(ctx context.Context, pin int, userID string) error

	PushEvent(ctx context.Context, pin int, ev models.Event) error
	PushTask(ctx context.Context, pin int, t models.Task) error
	SetTaskProgress(ctx context.Context, pin int, taskID primitive.ObjectID, progress string) error

	SetFreeTime(ctx context.Context, pin int, expect int64, free []models.Interval) error
}

// FanoutStore keeps the log of secondary writes awaiting replay.
type FanoutStore interface {
	Record(ctx context.Context, f models.FanoutFailure) error
	// Pending returns unresolved records with fewer than maxAttempts attempts,
	// oldest first.
	Pending(ctx context.Context, limit, maxAttempts int) ([]models.FanoutFailure, error)
	Resolve(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Bump(ctx context.Context, id primitive.ObjectID, lastErr string) error
}

// TxRunner runs fn as one unit. Inside a real transaction, fn sees a context
// for which txn.Active reports true.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error
