// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a set of users sharing one schedule, addressed by a 6-digit PIN.
//
// Invariant: every entry of AdministrativeMembers is also in Members.
type Group struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	PIN    int                `bson:"pin" json:"pin"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"`

	AdministrativeMembers []string `bson:"administrative_members" json:"administrativeMembers"`
	Members               []string `bson:"members" json:"members"`

	Schedule Schedule `bson:"schedule" json:"schedule"`

	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsMember reports whether userID belongs to the group.
func (g Group) IsMember(userID string) bool {
	return contains(g.Members, userID)
}

// IsAdmin reports whether userID administers the group.
func (g Group) IsAdmin(userID string) bool {
	return contains(g.AdministrativeMembers, userID)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
