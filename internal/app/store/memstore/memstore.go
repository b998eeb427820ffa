// internal/app/store/memstore/memstore.go
//
// Package memstore is an in-process implementation of the schedule store
// contracts. Every method holds one mutex for its whole duration, which gives
// the same per-document atomicity as the MongoDB stores. Documents are copied
// on the way in and out so callers never share memory with the store.
package memstore

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds all three collections.
type Store struct {
	mu       sync.Mutex
	users    map[string]*models.User
	groups   map[int]*models.Group
	failures []*models.FanoutFailure

	// FailHook, when set, is consulted before every write. A non-nil return
	// fails that write. op is the method name (for example "users.PushEvent")
	// and key the user id or PIN.
	FailHook func(op, key string) error
}

func New() *Store {
	return &Store{
		users:  make(map[string]*models.User),
		groups: make(map[int]*models.Group),
	}
}

// Users returns the users collection.
func (s *Store) Users() *Users { return &Users{s: s} }

// Groups returns the groups collection.
func (s *Store) Groups() *Groups { return &Groups{s: s} }

// Fanout returns the fan-out failure log.
func (s *Store) Fanout() *Fanout { return &Fanout{s: s} }

func (s *Store) hook(op, key string) error {
	if s.FailHook == nil {
		return nil
	}
	return s.FailHook(op, key)
}

var (
	_ schedule.UserStore   = (*Users)(nil)
	_ schedule.GroupStore  = (*Groups)(nil)
	_ schedule.FanoutStore = (*Fanout)(nil)
)

// ---- users ----

type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, doc *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if err := u.s.hook("users.Create", doc.UserID); err != nil {
		return err
	}
	if _, ok := u.s.users[doc.UserID]; ok {
		return schedule.ErrUserExists
	}
	now := time.Now().UTC()
	doc.ID = primitive.NewObjectID()
	doc.Version = 1
	doc.CreatedAt = now
	doc.UpdatedAt = now
	cp := cloneUser(*doc)
	u.s.users[doc.UserID] = &cp
	return nil
}

func (u *Users) GetByUserID(_ context.Context, userID string) (models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	doc, ok := u.s.users[userID]
	if !ok {
		return models.User{}, schedule.ErrUserNotFound
	}
	return cloneUser(*doc), nil
}

func (u *Users) ListByUserIDs(_ context.Context, userIDs []string) ([]models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	out := make([]models.User, 0, len(userIDs))
	for _, id := range userIDs {
		if doc, ok := u.s.users[id]; ok {
			out = append(out, cloneUser(*doc))
		}
	}
	return out, nil
}

// update runs fn on the stored user under the lock and bumps its version.
func (u *Users) update(op, userID string, fn func(*models.User) error) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if err := u.s.hook(op, userID); err != nil {
		return err
	}
	doc, ok := u.s.users[userID]
	if !ok {
		return schedule.ErrUserNotFound
	}
	next := cloneUser(*doc)
	if err := fn(&next); err != nil {
		return err
	}
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	u.s.users[userID] = &next
	return nil
}

func (u *Users) TouchLogin(_ context.Context, userID string, at time.Time) error {
	return u.update("users.TouchLogin", userID, func(doc *models.User) error {
		t := at
		doc.LastLogin = &t
		return nil
	})
}

func (u *Users) PushEvent(_ context.Context, userID string, ev models.Event) error {
	return u.update("users.PushEvent", userID, func(doc *models.User) error {
		if !hasEvent(doc.Schedule.Events, ev.ID) {
			doc.Schedule.Events = append(doc.Schedule.Events, ev)
		}
		return nil
	})
}

func (u *Users) PushTask(_ context.Context, userID string, t models.Task) error {
	return u.update("users.PushTask", userID, func(doc *models.User) error {
		if !hasTask(doc.Schedule.Tasks, t.ID) {
			doc.Schedule.Tasks = append(doc.Schedule.Tasks, cloneTask(t))
		}
		return nil
	})
}

func (u *Users) PullEventsByOrigin(_ context.Context, userID string, pin int) error {
	return u.update("users.PullEventsByOrigin", userID, func(doc *models.User) error {
		kept := doc.Schedule.Events[:0]
		for _, ev := range doc.Schedule.Events {
			if ev.OriginPIN != pin {
				kept = append(kept, ev)
			}
		}
		doc.Schedule.Events = kept
		return nil
	})
}

func (u *Users) SetTaskProgress(_ context.Context, userID string, taskID primitive.ObjectID, progress string) error {
	return u.update("users.SetTaskProgress", userID, func(doc *models.User) error {
		return setProgress(doc.Schedule.Tasks, taskID, progress)
	})
}

func (u *Users) SetGroup(_ context.Context, userID string, pin int, name string) error {
	return u.update("users.SetGroup", userID, func(doc *models.User) error {
		if doc.Groups == nil {
			doc.Groups = map[string]string{}
		}
		doc.Groups[strconv.Itoa(pin)] = name
		return nil
	})
}

func (u *Users) UnsetGroup(_ context.Context, userID string, pin int) error {
	return u.update("users.UnsetGroup", userID, func(doc *models.User) error {
		delete(doc.Groups, strconv.Itoa(pin))
		return nil
	})
}

func (u *Users) SetFreeTime(_ context.Context, userID string, expect int64, free []models.Interval) error {
	return u.update("users.SetFreeTime", userID, func(doc *models.User) error {
		if doc.Version != expect {
			return schedule.ErrVersionConflict
		}
		doc.Schedule.FreeTime = cloneIntervals(free)
		return nil
	})
}

// ---- groups ----

type Groups struct{ s *Store }

func (g *Groups) Create(_ context.Context, doc *models.Group) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if err := g.s.hook("groups.Create", strconv.Itoa(doc.PIN)); err != nil {
		return err
	}
	if _, ok := g.s.groups[doc.PIN]; ok {
		return schedule.ErrPINTaken
	}
	now := time.Now().UTC()
	doc.ID = primitive.NewObjectID()
	doc.Version = 1
	doc.CreatedAt = now
	doc.UpdatedAt = now
	cp := cloneGroup(*doc)
	g.s.groups[doc.PIN] = &cp
	return nil
}

func (g *Groups) GetByPIN(_ context.Context, pin int) (models.Group, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	doc, ok := g.s.groups[pin]
	if !ok {
		return models.Group{}, schedule.ErrGroupNotFound
	}
	return cloneGroup(*doc), nil
}

func (g *Groups) ListByMember(_ context.Context, userID string) ([]models.Group, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	var out []models.Group
	for _, doc := range g.s.groups {
		if doc.IsMember(userID) {
			out = append(out, cloneGroup(*doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PIN < out[j].PIN })
	return out, nil
}

func (g *Groups) update(op string, pin int, fn func(*models.Group) error) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if err := g.s.hook(op, strconv.Itoa(pin)); err != nil {
		return err
	}
	doc, ok := g.s.groups[pin]
	if !ok {
		return schedule.ErrGroupNotFound
	}
	next := cloneGroup(*doc)
	if err := fn(&next); err != nil {
		return err
	}
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	g.s.groups[pin] = &next
	return nil
}

func (g *Groups) AddMember(_ context.Context, pin int, userID string, expect int64, free []models.Interval) error {
	return g.update("groups.AddMember", pin, func(doc *models.Group) error {
		if doc.Version != expect || doc.IsMember(userID) {
			return schedule.ErrVersionConflict
		}
		doc.Members = append(doc.Members, userID)
		doc.Schedule.FreeTime = cloneIntervals(free)
		return nil
	})
}

func (g *Groups) RemoveMember(_ context.Context, pin int, userID string, expect int64, free []models.Interval) error {
	return g.update("groups.RemoveMember", pin, func(doc *models.Group) error {
		if doc.Version != expect || !doc.IsMember(userID) {
			return schedule.ErrVersionConflict
		}
		doc.Members = without(doc.Members, userID)
		doc.AdministrativeMembers = without(doc.AdministrativeMembers, userID)
		doc.Schedule.FreeTime = cloneIntervals(free)
		return nil
	})
}

func (g *Groups) AddAdmin(_ context.Context, pin int, userID string) error {
	return g.update("groups.AddAdmin", pin, func(doc *models.Group) error {
		if !doc.IsMember(userID) {
			return schedule.ErrNotMember
		}
		if !doc.IsAdmin(userID) {
			doc.AdministrativeMembers = append(doc.AdministrativeMembers, userID)
		}
		return nil
	})
}

func (g *Groups) PushEvent(_ context.Context, pin int, ev models.Event) error {
	return g.update("groups.PushEvent", pin, func(doc *models.Group) error {
		if !hasEvent(doc.Schedule.Events, ev.ID) {
			doc.Schedule.Events = append(doc.Schedule.Events, ev)
		}
		return nil
	})
}

func (g *Groups) PushTask(_ context.Context, pin int, t models.Task) error {
	return g.update("groups.PushTask", pin, func(doc *models.Group) error {
		if !hasTask(doc.Schedule.Tasks, t.ID) {
			doc.Schedule.Tasks = append(doc.Schedule.Tasks, cloneTask(t))
		}
		return nil
	})
}

func (g *Groups) SetTaskProgress(_ context.Context, pin int, taskID primitive.ObjectID, progress string) error {
	return g.update("groups.SetTaskProgress", pin, func(doc *models.Group) error {
		return setProgress(doc.Schedule.Tasks, taskID, progress)
	})
}

func (g *Groups) SetFreeTime(_ context.Context, pin int, expect int64, free []models.Interval) error {
	return g.update("groups.SetFreeTime", pin, func(doc *models.Group) error {
		if doc.Version != expect {
			return schedule.ErrVersionConflict
		}
		doc.Schedule.FreeTime = cloneIntervals(free)
		return nil
	})
}

// ---- fan-out failures ----

type Fanout struct{ s *Store }

func (f *Fanout) Record(_ context.Context, rec models.FanoutFailure) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.hook("fanout.Record", rec.Kind); err != nil {
		return err
	}
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	f.s.failures = append(f.s.failures, &rec)
	return nil
}

func (f *Fanout) Pending(_ context.Context, limit, maxAttempts int) ([]models.FanoutFailure, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.FanoutFailure
	for _, rec := range f.s.failures {
		if rec.ResolvedAt != nil || rec.Attempts >= maxAttempts {
			continue
		}
		out = append(out, *rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *Fanout) Resolve(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, rec := range f.s.failures {
		if rec.ID == id {
			t := at
			rec.ResolvedAt = &t
			return nil
		}
	}
	return schedule.ErrNotFound
}

func (f *Fanout) Bump(_ context.Context, id primitive.ObjectID, lastErr string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, rec := range f.s.failures {
		if rec.ID == id {
			rec.Attempts++
			rec.LastError = lastErr
			return nil
		}
	}
	return schedule.ErrNotFound
}

func (f *Fanout) CountPending(_ context.Context, maxAttempts int) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, rec := range f.s.failures {
		if rec.ResolvedAt == nil && rec.Attempts < maxAttempts {
			n++
		}
	}
	return n, nil
}

// All returns every recorded failure, resolved or not, in insertion order.
func (f *Fanout) All() []models.FanoutFailure {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]models.FanoutFailure, 0, len(f.s.failures))
	for _, rec := range f.s.failures {
		out = append(out, *rec)
	}
	return out
}
