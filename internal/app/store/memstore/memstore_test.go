package memstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/app/store/memstore"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newUser(id string) *models.User {
	return &models.User{UserID: id, Schedule: models.EmptySchedule(), Groups: map[string]string{}}
}

func TestUsers_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	users := memstore.New().Users()

	if err := users.Create(ctx, newUser("alice1")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := users.Create(ctx, newUser("alice1")); !errors.Is(err, schedule.ErrUserExists) {
		t.Errorf("duplicate Create err = %v, want ErrUserExists", err)
	}
	if _, err := users.GetByUserID(ctx, "nobody1"); !errors.Is(err, schedule.ErrUserNotFound) {
		t.Errorf("GetByUserID(missing) err = %v", err)
	}
}

func TestUsers_PushIsIdempotent(t *testing.T) {
	ctx := context.Background()
	users := memstore.New().Users()
	_ = users.Create(ctx, newUser("alice1"))

	ev := models.Event{ID: primitive.NewObjectID(), Title: "Sync"}
	for i := 0; i < 3; i++ {
		if err := users.PushEvent(ctx, "alice1", ev); err != nil {
			t.Fatalf("PushEvent: %v", err)
		}
	}
	task := models.Task{ID: primitive.NewObjectID(), AssignedUsers: []string{"alice1"}}
	_ = users.PushTask(ctx, "alice1", task)
	_ = users.PushTask(ctx, "alice1", task)

	u, _ := users.GetByUserID(ctx, "alice1")
	if len(u.Schedule.Events) != 1 || len(u.Schedule.Tasks) != 1 {
		t.Errorf("events=%d tasks=%d, want 1 and 1", len(u.Schedule.Events), len(u.Schedule.Tasks))
	}
}

func TestUsers_SetFreeTimeCAS(t *testing.T) {
	ctx := context.Background()
	users := memstore.New().Users()
	_ = users.Create(ctx, newUser("alice1"))

	u, _ := users.GetByUserID(ctx, "alice1")
	free := []models.Interval{{Start: 0, End: 10}}
	if err := users.SetFreeTime(ctx, "alice1", u.Version, free); err != nil {
		t.Fatalf("SetFreeTime: %v", err)
	}
	if err := users.SetFreeTime(ctx, "alice1", u.Version, free); !errors.Is(err, schedule.ErrVersionConflict) {
		t.Errorf("stale SetFreeTime err = %v, want ErrVersionConflict", err)
	}

	after, _ := users.GetByUserID(ctx, "alice1")
	if after.Version != u.Version+1 {
		t.Errorf("version = %d, want %d", after.Version, u.Version+1)
	}
}

func TestUsers_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	users := memstore.New().Users()
	_ = users.Create(ctx, newUser("alice1"))
	_ = users.SetGroup(ctx, "alice1", 123456, "Study")

	u, _ := users.GetByUserID(ctx, "alice1")
	u.Groups["123456"] = "changed"

	again, _ := users.GetByUserID(ctx, "alice1")
	if again.Groups["123456"] != "Study" {
		t.Error("mutating a returned user changed the store")
	}
}

func TestUsers_TaskProgressAndPull(t *testing.T) {
	ctx := context.Background()
	users := memstore.New().Users()
	_ = users.Create(ctx, newUser("alice1"))

	id := primitive.NewObjectID()
	_ = users.PushTask(ctx, "alice1", models.Task{ID: id, Progress: models.ProgressNotStarted})
	if err := users.SetTaskProgress(ctx, "alice1", id, models.ProgressFinished); err != nil {
		t.Fatalf("SetTaskProgress: %v", err)
	}
	if err := users.SetTaskProgress(ctx, "alice1", primitive.NewObjectID(), models.ProgressFinished); !errors.Is(err, schedule.ErrTaskNotFound) {
		t.Errorf("missing task err = %v", err)
	}

	_ = users.PushEvent(ctx, "alice1", models.Event{ID: primitive.NewObjectID(), OriginPIN: 123456})
	_ = users.PushEvent(ctx, "alice1", models.Event{ID: primitive.NewObjectID()})
	if err := users.PullEventsByOrigin(ctx, "alice1", 123456); err != nil {
		t.Fatalf("PullEventsByOrigin: %v", err)
	}

	u, _ := users.GetByUserID(ctx, "alice1")
	if u.Schedule.Tasks[0].Progress != models.ProgressFinished {
		t.Errorf("progress = %q", u.Schedule.Tasks[0].Progress)
	}
	if len(u.Schedule.Events) != 1 || u.Schedule.Events[0].OriginPIN != 0 {
		t.Errorf("events after pull = %+v", u.Schedule.Events)
	}
}

func TestGroups_Membership(t *testing.T) {
	ctx := context.Background()
	groups := memstore.New().Groups()

	g := &models.Group{PIN: 123456, Name: "Study", Members: []string{"alice1"}, AdministrativeMembers: []string{"alice1"}, Schedule: models.EmptySchedule()}
	if err := groups.Create(ctx, g); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := groups.Create(ctx, &models.Group{PIN: 123456}); !errors.Is(err, schedule.ErrPINTaken) {
		t.Errorf("duplicate pin err = %v", err)
	}

	if err := groups.AddMember(ctx, 123456, "bob01", g.Version, nil); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := groups.AddMember(ctx, 123456, "carol1", g.Version, nil); !errors.Is(err, schedule.ErrVersionConflict) {
		t.Errorf("stale AddMember err = %v", err)
	}
	if err := groups.AddAdmin(ctx, 123456, "zed01"); !errors.Is(err, schedule.ErrNotMember) {
		t.Errorf("AddAdmin(non-member) err = %v", err)
	}
	if err := groups.AddAdmin(ctx, 123456, "bob01"); err != nil {
		t.Fatalf("AddAdmin: %v", err)
	}

	got, _ := groups.GetByPIN(ctx, 123456)
	if err := groups.RemoveMember(ctx, 123456, "bob01", got.Version, nil); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	got, _ = groups.GetByPIN(ctx, 123456)
	if got.IsMember("bob01") || got.IsAdmin("bob01") {
		t.Errorf("bob01 still present: %+v", got)
	}

	list, _ := groups.ListByMember(ctx, "alice1")
	if len(list) != 1 || list[0].PIN != 123456 {
		t.Errorf("ListByMember = %+v", list)
	}
}

func TestFanout_Lifecycle(t *testing.T) {
	ctx := context.Background()
	fan := memstore.New().Fanout()

	_ = fan.Record(ctx, models.FanoutFailure{Kind: models.FanoutEvent, UserID: "alice1"})
	_ = fan.Record(ctx, models.FanoutFailure{Kind: models.FanoutTask, UserID: "bob01"})

	pending, _ := fan.Pending(ctx, 10, 3)
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	_ = fan.Resolve(ctx, pending[0].ID, pending[0].CreatedAt)
	for i := 0; i < 3; i++ {
		_ = fan.Bump(ctx, pending[1].ID, "still failing")
	}

	if left, _ := fan.Pending(ctx, 10, 3); len(left) != 0 {
		t.Errorf("pending after resolve and max attempts = %d", len(left))
	}
	all := fan.All()
	if all[1].Attempts != 3 || all[1].LastError != "still failing" {
		t.Errorf("bumped record = %+v", all[1])
	}
}

func TestFailHook(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	boom := errors.New("boom")
	st.FailHook = func(op, key string) error {
		if op == "users.PushEvent" && key == "bob01" {
			return boom
		}
		return nil
	}
	users := st.Users()
	_ = users.Create(ctx, newUser("bob01"))
	if err := users.PushEvent(ctx, "bob01", models.Event{ID: primitive.NewObjectID()}); !errors.Is(err, boom) {
		t.Errorf("hooked PushEvent err = %v", err)
	}
}
