// internal/domain/models/user.go
package models

// Terminology: User Identifiers
//   - ID / _id: The MongoDB ObjectID that identifies a user record
//   - UserID / user_id: The human-chosen, lower-cased handle users log in with

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can register with.
const (
	RoleAdministrator = "administrator"
	RoleMember        = "member"
)

// User is a registered account with its own personal schedule.
//
// NOTE:
//   - Groups is a display cache keyed by the group PIN (decimal string).
//     Authoritative membership lives on the Group document.
//   - Version is bumped by every write and guards derived free time.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID       string             `bson:"user_id" json:"userId"`
	FirstName    string             `bson:"first_name" json:"firstName"`
	LastName     string             `bson:"last_name" json:"lastName"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"` // administrator | member

	SignupDate time.Time  `bson:"signup_date" json:"signupDate"`
	LastLogin  *time.Time `bson:"last_login,omitempty" json:"lastLogin,omitempty"`

	Schedule Schedule          `bson:"schedule" json:"schedule"`
	Groups   map[string]string `bson:"groups" json:"groups"`

	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"-"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}
