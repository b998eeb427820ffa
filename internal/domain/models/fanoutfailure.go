// internal/domain/models/fanoutfailure.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fan-out failure kinds.
const (
	FanoutEvent     = "event"      // push Event into UserID's schedule
	FanoutTask      = "task"       // push Task into UserID's schedule
	FanoutProgress  = "progress"   // set Progress on TaskID in UserID's schedule
	FanoutGroupName = "group_name" // set groups[PIN] = GroupName on UserID
	FanoutFreeTime  = "free_time"  // recompute free time for UserID, or for PIN when UserID is empty
	FanoutLeave     = "leave"      // drop PIN's event copies and groups entry from UserID
)

// FanoutFailure records a secondary write that did not land, so it can be replayed.
type FanoutFailure struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind   string             `bson:"kind" json:"kind"`
	UserID string             `bson:"user_id" json:"userId"`
	PIN    int                `bson:"pin,omitempty" json:"pin,omitempty"`

	Event     *Event             `bson:"event,omitempty" json:"event,omitempty"`
	Task      *Task              `bson:"task,omitempty" json:"task,omitempty"`
	TaskID    primitive.ObjectID `bson:"task_id,omitempty" json:"taskId,omitempty"`
	Progress  string             `bson:"progress,omitempty" json:"progress,omitempty"`
	GroupName string             `bson:"group_name,omitempty" json:"groupName,omitempty"`

	Attempts   int        `bson:"attempts" json:"attempts"`
	LastError  string     `bson:"last_error" json:"lastError"`
	CreatedAt  time.Time  `bson:"created_at" json:"createdAt"`
	ResolvedAt *time.Time `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`
}
