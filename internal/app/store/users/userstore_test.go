package userstore_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dalemusser/groupsched/internal/app/schedule"
	userstore "github.com/dalemusser/groupsched/internal/app/store/users"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"github.com/dalemusser/groupsched/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newUser(id string) *models.User {
	return &models.User{UserID: id, FirstName: "Test", LastName: "User", Role: models.RoleMember}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := newUser("alice1")
	if err := store.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if u.Version != 1 {
		t.Errorf("Version = %d, want 1", u.Version)
	}

	got, err := store.GetByUserID(ctx, "alice1")
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	// empty arrays, never null
	if got.Schedule.Events == nil || got.Schedule.Tasks == nil || got.Schedule.FreeTime == nil || got.Groups == nil {
		t.Errorf("expected empty collections, got %+v", got)
	}
}

func TestStore_Create_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Create(ctx, newUser("alice1")); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if err := store.Create(ctx, newUser("alice1")); !errors.Is(err, schedule.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestStore_GetByUserID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByUserID(ctx, "nobody1"); !errors.Is(err, schedule.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if err := store.SetGroup(ctx, "nobody1", 123456, "x"); !errors.Is(err, schedule.ErrUserNotFound) {
		t.Errorf("SetGroup: expected ErrUserNotFound, got %v", err)
	}
	if err := store.PushEvent(ctx, "nobody1", models.Event{ID: primitive.NewObjectID()}); !errors.Is(err, schedule.ErrUserNotFound) {
		t.Errorf("PushEvent: expected ErrUserNotFound, got %v", err)
	}
}

func TestStore_ListByUserIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "carol1")
	fixtures.CreateUser(ctx, "alice1")

	users, err := store.ListByUserIDs(ctx, []string{"carol1", "alice1", "ghost1"})
	if err != nil {
		t.Fatalf("ListByUserIDs failed: %v", err)
	}
	if len(users) != 2 || users[0].UserID != "alice1" || users[1].UserID != "carol1" {
		t.Errorf("users = %+v", users)
	}
}

func TestStore_PushEvent_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "alice1")
	start := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
	ev := models.Event{ID: primitive.NewObjectID(), Title: "Sync", StartDate: start, EndDate: start.Add(time.Hour), OriginPIN: 123456}

	for i := 0; i < 2; i++ {
		if err := store.PushEvent(ctx, "alice1", ev); err != nil {
			t.Fatalf("PushEvent #%d failed: %v", i+1, err)
		}
	}
	u, _ := store.GetByUserID(ctx, "alice1")
	if len(u.Schedule.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(u.Schedule.Events))
	}
	if u.Version != 2 {
		t.Errorf("Version = %d, want 2 (no-op push must not bump)", u.Version)
	}

	if err := store.PullEventsByOrigin(ctx, "alice1", 123456); err != nil {
		t.Fatalf("PullEventsByOrigin failed: %v", err)
	}
	u, _ = store.GetByUserID(ctx, "alice1")
	if len(u.Schedule.Events) != 0 {
		t.Errorf("events after pull = %d", len(u.Schedule.Events))
	}
}

func TestStore_TaskProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "alice1")
	task := models.Task{ID: primitive.NewObjectID(), AssignedUsers: []string{"alice1"}, Progress: models.ProgressNotStarted, UrgencyLevel: 3}
	if err := store.PushTask(ctx, "alice1", task); err != nil {
		t.Fatalf("PushTask failed: %v", err)
	}
	if err := store.SetTaskProgress(ctx, "alice1", task.ID, models.ProgressFinished); err != nil {
		t.Fatalf("SetTaskProgress failed: %v", err)
	}
	u, _ := store.GetByUserID(ctx, "alice1")
	if u.Schedule.Tasks[0].Progress != models.ProgressFinished {
		t.Errorf("progress = %q", u.Schedule.Tasks[0].Progress)
	}

	if err := store.SetTaskProgress(ctx, "alice1", primitive.NewObjectID(), models.ProgressFinished); !errors.Is(err, schedule.ErrTaskNotFound) {
		t.Errorf("missing task: expected ErrTaskNotFound, got %v", err)
	}
}

func TestStore_Groups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "alice1")
	if err := store.SetGroup(ctx, "alice1", 123456, "Study Group"); err != nil {
		t.Fatalf("SetGroup failed: %v", err)
	}
	u, _ := store.GetByUserID(ctx, "alice1")
	if u.Groups["123456"] != "Study Group" {
		t.Errorf("groups = %v", u.Groups)
	}

	if err := store.UnsetGroup(ctx, "alice1", 123456); err != nil {
		t.Fatalf("UnsetGroup failed: %v", err)
	}
	u, _ = store.GetByUserID(ctx, "alice1")
	if _, ok := u.Groups["123456"]; ok {
		t.Errorf("groups after unset = %v", u.Groups)
	}
}

func TestStore_SetFreeTime_CAS(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "alice1")
	free := []models.Interval{{Start: 0, End: 540}, {Start: 600, End: 10080}}

	if err := store.SetFreeTime(ctx, "alice1", 7, free); !errors.Is(err, schedule.ErrVersionConflict) {
		t.Errorf("stale version: expected ErrVersionConflict, got %v", err)
	}
	if err := store.SetFreeTime(ctx, "alice1", 1, free); err != nil {
		t.Fatalf("SetFreeTime failed: %v", err)
	}
	u, _ := store.GetByUserID(ctx, "alice1")
	if !reflect.DeepEqual(u.Schedule.FreeTime, free) || u.Version != 2 {
		t.Errorf("after CAS: free=%v version=%d", u.Schedule.FreeTime, u.Version)
	}

	// nil is stored as an empty array
	if err := store.SetFreeTime(ctx, "alice1", 2, nil); err != nil {
		t.Fatalf("SetFreeTime(nil) failed: %v", err)
	}
	u, _ = store.GetByUserID(ctx, "alice1")
	if u.Schedule.FreeTime == nil || len(u.Schedule.FreeTime) != 0 {
		t.Errorf("free after nil = %#v", u.Schedule.FreeTime)
	}

	if err := store.SetFreeTime(ctx, "ghost1", 1, free); !errors.Is(err, schedule.ErrUserNotFound) {
		t.Errorf("missing user: expected ErrUserNotFound, got %v", err)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "alice1")
	f := userstore.NewFetcher(db)

	su := f.FetchUser(ctx, "alice1")
	if su == nil {
		t.Fatal("expected a session user")
	}
	if su.UserID != "alice1" || su.Name != "Test User" || su.Role != models.RoleMember {
		t.Errorf("session user = %+v", su)
	}
	if f.FetchUser(ctx, "ghost1") != nil {
		t.Error("expected nil for unknown user")
	}
}
