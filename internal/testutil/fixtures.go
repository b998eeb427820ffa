package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/groupsched/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a member with an empty schedule and no password.
func (f *Fixtures) CreateUser(ctx context.Context, userID string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		FirstName:  "Test",
		LastName:   "User",
		Role:       models.RoleMember,
		SignupDate: now,
		Schedule:   models.EmptySchedule(),
		Groups:     map[string]string{},
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateGroup inserts a group administered by admin whose members are admin
// followed by members. It does not touch the users' group caches.
func (f *Fixtures) CreateGroup(ctx context.Context, pin int, name, admin string, members ...string) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:                    primitive.NewObjectID(),
		PIN:                   pin,
		Name:                  name,
		NameCI:                text.Fold(name),
		AdministrativeMembers: []string{admin},
		Members:               append([]string{admin}, members...),
		Schedule:              models.EmptySchedule(),
		Version:               1,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}
