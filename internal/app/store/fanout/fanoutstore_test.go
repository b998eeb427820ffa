package fanoutstore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/groupsched/internal/app/schedule"
	fanoutstore "github.com/dalemusser/groupsched/internal/app/store/fanout"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"github.com/dalemusser/groupsched/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := fanoutstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
	ev := models.Event{ID: primitive.NewObjectID(), Title: "Sync"}
	recs := []models.FanoutFailure{
		{Kind: models.FanoutGroupName, UserID: "bob01", PIN: 123456, GroupName: "Study Group", CreatedAt: base.Add(time.Minute)},
		{Kind: models.FanoutEvent, UserID: "alice1", PIN: 123456, Event: &ev, CreatedAt: base},
		{Kind: models.FanoutFreeTime, PIN: 123456, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range recs {
		if err := store.Record(ctx, r); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	pending, err := store.Pending(ctx, 2, 3)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 2 || pending[0].Kind != models.FanoutEvent || pending[1].Kind != models.FanoutGroupName {
		t.Fatalf("pending = %+v, want oldest two", pending)
	}
	if pending[0].Event == nil || pending[0].Event.ID != ev.ID {
		t.Errorf("event payload lost: %+v", pending[0].Event)
	}

	if err := store.Resolve(ctx, pending[0].ID, base.Add(time.Hour)); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := store.Bump(ctx, pending[1].ID, "unavailable"); err != nil {
			t.Fatalf("Bump failed: %v", err)
		}
	}

	// one resolved, one out of attempts, one left
	rest, err := store.Pending(ctx, 0, 3)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(rest) != 1 || rest[0].Kind != models.FanoutFreeTime || rest[0].UserID != "" {
		t.Errorf("rest = %+v", rest)
	}
	if n, err := store.CountPending(ctx, 3); err != nil || n != 1 {
		t.Errorf("CountPending = %d, %v", n, err)
	}

	if err := store.Resolve(ctx, primitive.NewObjectID(), base); !errors.Is(err, schedule.ErrNotFound) {
		t.Errorf("Resolve unknown: expected ErrNotFound, got %v", err)
	}
}
