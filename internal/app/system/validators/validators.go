// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/groupsched/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("groups", groupsSchema())
	ensure("fanout_failures", fanoutFailuresSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var integer = bson.A{"int", "long"}

func intervalsSchema() bson.M {
	return bson.M{
		"bsonType": "array",
		"items": bson.M{
			"bsonType": "object",
			"required": bson.A{"start", "end"},
			"properties": bson.M{
				"start": bson.M{"bsonType": integer},
				"end":   bson.M{"bsonType": integer},
			},
		},
	}
}

func scheduleSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"properties": bson.M{
			"events":    bson.M{"bsonType": "array"},
			"tasks":     bson.M{"bsonType": "array"},
			"free_time": intervalsSchema(),
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "first_name", "last_name", "role", "version"},
			"properties": bson.M{
				"user_id":    bson.M{"bsonType": "string", "pattern": "^[a-z0-9]{5,10}$"},
				"first_name": bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"last_name":  bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"role":       bson.M{"enum": bson.A{models.RoleAdministrator, models.RoleMember}},
				"groups":     bson.M{"bsonType": "object"},
				"schedule":   scheduleSchema(),
				"version":    bson.M{"bsonType": integer, "minimum": 1},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"pin", "name", "name_ci", "members", "administrative_members", "version"},
			"properties": bson.M{
				"pin":                    bson.M{"bsonType": integer, "minimum": 100000, "maximum": 999999},
				"name":                   bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":                bson.M{"bsonType": "string", "minLength": 1},
				"members":                bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"administrative_members": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"schedule":               scheduleSchema(),
				"version":                bson.M{"bsonType": integer, "minimum": 1},
			},
		},
	}
}

func fanoutFailuresSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"kind", "attempts", "created_at"},
			"properties": bson.M{
				"kind": bson.M{"enum": bson.A{
					models.FanoutEvent, models.FanoutTask, models.FanoutProgress,
					models.FanoutGroupName, models.FanoutFreeTime, models.FanoutLeave,
				}},
				"attempts":   bson.M{"bsonType": integer, "minimum": 0},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
