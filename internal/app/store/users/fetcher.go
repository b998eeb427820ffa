package userstore

import (
	"context"
	"strings"

	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"github.com/dalemusser/groupsched/internal/app/system/timeouts"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection(Collection)}
}

// FetchUser retrieves a user by login id and returns nil if the user is not
// found or if any error occurs. This implements auth.UserFetcher.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	// Use a short timeout for the DB query
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"user_id":    1,
		"first_name": 1,
		"last_name":  1,
		"role":       1,
	})
	if err := f.users.FindOne(ctx, bson.M{"user_id": userID}, proj).Decode(&u); err != nil {
		return nil
	}

	return &auth.SessionUser{
		UserID: u.UserID,
		Name:   strings.TrimSpace(u.FirstName + " " + u.LastName),
		Role:   u.Role,
	}
}
