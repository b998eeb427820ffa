// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureGroups(ctx, db); err != nil {
		problems = append(problems, "groups: "+err.Error())
	}
	if err := ensureFanoutFailures(ctx, db); err != nil {
		problems = append(problems, "fanout_failures: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isTrue(b *bool) bool { return b != nil && *b }

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

// desired is the resolved shape of one mongo.IndexModel.
type desired struct {
	model  mongo.IndexModel
	name   string
	unique bool
	sig    string
	first  string // first key, used in duplicate hints
}

func describe(m mongo.IndexModel) desired {
	d := desired{model: m}
	keys := m.Keys.(bson.D)
	d.sig = keySig(keys)
	if len(keys) > 0 {
		d.first = keys[0].Key
	}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = isTrue(m.Options.Unique)
	}
	return d
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// create builds the index and turns a duplicate-key failure on a unique index
// into a message that shows how to find the offending documents.
func create(ctx context.Context, coll *mongo.Collection, d desired) error {
	_, err := coll.Indexes().CreateOne(ctx, d.model)
	if err == nil {
		return nil
	}
	if d.unique && isDuplicateKeyErr(err) {
		return fmt.Errorf("%s(%s): cannot create unique index (duplicates present); find them with "+
			`db.%s.aggregate([{ $group: { _id: "$%s", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
			coll.Name(), d.name, coll.Name(), d.first)
	}
	return fmt.Errorf("%s(%s): %v", coll.Name(), d.name, err)
}

// recreate drops an index that no longer matches and builds the desired one.
func recreate(ctx context.Context, coll *mongo.Collection, old string, d desired) error {
	if _, err := coll.Indexes().DropOne(ctx, old); err != nil {
		zap.L().Warn("drop existing index failed",
			zap.String("collection", coll.Name()),
			zap.String("name", old),
			zap.String("keys", d.sig),
			zap.Error(err))
		return fmt.Errorf("%s(%s): drop failed: %v", coll.Name(), d.name, err)
	}
	return create(ctx, coll, d)
}

func ensureIndex(ctx context.Context, coll *mongo.Collection, d desired) error {
	existing := listIndexes(ctx, coll)

	ex, ok := existing[d.sig]
	if !ok {
		err := create(ctx, coll, d)
		if err == nil || !isOptionsConflictErr(err) {
			return err
		}
		// raced with another creator or a differently named twin; look again
		ex, ok = listIndexes(ctx, coll)[d.sig]
		if !ok {
			return err
		}
	}

	switch {
	case d.unique != isTrue(ex.Unique):
		// options mismatch (e.g. upgrading to unique)
		return recreate(ctx, coll, ex.Name, d)
	case d.name != "" && ex.Name != d.name:
		zap.L().Info("renaming index to align with desired name",
			zap.String("collection", coll.Name()),
			zap.String("from", ex.Name),
			zap.String("to", d.name),
			zap.String("keys", d.sig))
		return recreate(ctx, coll, ex.Name, d)
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		d := describe(m)
		start := time.Now()

		if err := ensureIndex(ctx, coll, d); err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", d.name),
				zap.String("keys", d.sig),
				zap.Bool("unique", d.unique),
				zap.String("took", time.Since(start).String()),
				zap.Error(err))
			errs = append(errs, err.Error())
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Login ids are stored lower-cased, so a plain unique index is case-insensitive.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_userid"),
		},
		// Group fan-out removes copies by origin.
		{
			Keys:    bson.D{{Key: "schedule.events.origin_pin", Value: 1}},
			Options: options.Index().SetName("idx_users_events_originpin"),
		},
	})
}

// --- groups ---
func ensureGroups(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("groups")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// 1) PINs address groups and must be unique.
		{
			Keys:    bson.D{{Key: "pin", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_groups_pin"),
		},

		// 2) "My groups" and the personal-event cascade look groups up by member.
		{
			Keys:    bson.D{{Key: "members", Value: 1}, {Key: "pin", Value: 1}},
			Options: options.Index().SetName("idx_groups_members_pin"),
		},
	})
}

// --- fan-out failures ---
func ensureFanoutFailures(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("fanout_failures")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Reconciler scans unresolved records oldest first.
		{
			Keys: bson.D{
				{Key: "resolved_at", Value: 1},
				{Key: "attempts", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_fanout_resolved_attempts_created"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_fanout_userid"),
		},
	})
}
