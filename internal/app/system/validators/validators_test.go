package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/groupsched/internal/app/system/validators"
	"github.com/dalemusser/groupsched/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// First call
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}

	// Second call should also succeed (idempotent)
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}
	for _, expected := range []string{"users", "groups", "fanout_failures"} {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func TestValidators(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	validUser := func() bson.M {
		return bson.M{
			"user_id":    "alice1",
			"first_name": "Alice",
			"last_name":  "Smith",
			"role":       "member",
			"version":    int64(1),
			"schedule": bson.M{
				"events":    bson.A{},
				"tasks":     bson.A{},
				"free_time": bson.A{bson.M{"start": 0, "end": 540}},
			},
		}
	}
	validGroup := func() bson.M {
		return bson.M{
			"pin":                    123456,
			"name":                   "Study Group",
			"name_ci":                "study group",
			"members":                bson.A{"alice1"},
			"administrative_members": bson.A{"alice1"},
			"version":                int64(1),
		}
	}

	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{"valid user", "users", validUser(), false},
		{"user missing fields", "users", bson.M{"user_id": "bob01"}, true},
		{"user bad role", "users", with(with(validUser(), "user_id", "carol1"), "role", "owner"), true},
		{"user upper-case id", "users", with(validUser(), "user_id", "Alice2"), true},
		{"user bad free time", "users", with(with(validUser(), "user_id", "dave01"), "schedule", bson.M{"free_time": bson.A{bson.M{"start": "x"}}}), true},
		{"valid group", "groups", validGroup(), false},
		{"group short pin", "groups", with(validGroup(), "pin", 12345), true},
		{"group blank name", "groups", with(with(validGroup(), "pin", 222222), "name", "   "), true},
		{"valid fanout", "fanout_failures", bson.M{"kind": "event", "attempts": 0, "created_at": time.Now()}, false},
		{"fanout bad kind", "fanout_failures", bson.M{"kind": "email", "attempts": 0, "created_at": time.Now()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("insert failed: %v", err)
			}
		})
	}
}

func with(doc bson.M, key string, value any) bson.M {
	doc[key] = value
	return doc
}
