// internal/domain/models/schedule.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task progress states.
const (
	ProgressNotStarted = "not started"
	ProgressInProgress = "in progress"
	ProgressFinished   = "finished"
)

// ProgressStates lists the allowed task progress values in display order.
var ProgressStates = []string{ProgressNotStarted, ProgressInProgress, ProgressFinished}

// Schedule is embedded in both users and groups.
// FreeTime is derived from Events and is only ever rewritten as a whole.
type Schedule struct {
	Events   []Event    `bson:"events" json:"events"`
	Tasks    []Task     `bson:"tasks" json:"tasks"`
	FreeTime []Interval `bson:"free_time" json:"freeTime"`
}

// EmptySchedule returns a schedule with non-nil slices, so the stored arrays
// accept $push from the first write.
func EmptySchedule() Schedule {
	return Schedule{Events: []Event{}, Tasks: []Task{}, FreeTime: []Interval{}}
}

// Event is a titled block of time.
type Event struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	StartDate   time.Time          `bson:"start_date" json:"startDate"`
	EndDate     time.Time          `bson:"end_date" json:"endDate"`
	Description string             `bson:"description" json:"description"`

	// OriginPIN is set on a member's copy of a group event.
	OriginPIN int `bson:"origin_pin,omitempty" json:"originPin,omitempty"`
}

// Contains reports whether t falls inside the event (both ends inclusive).
func (e Event) Contains(t time.Time) bool {
	return !t.Before(e.StartDate) && !t.After(e.EndDate)
}

// Task is a unit of work assigned to one or more users.
type Task struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	AssignedUsers []string           `bson:"assigned_users" json:"assignedUsers"`
	Progress      string             `bson:"progress" json:"progress"`
	StartDate     time.Time          `bson:"start_date" json:"startDate"`
	EndDate       time.Time          `bson:"end_date" json:"endDate"`
	StartTime     string             `bson:"start_time,omitempty" json:"startTime,omitempty"` // HH:MM
	EndTime       string             `bson:"end_time,omitempty" json:"endTime,omitempty"`     // HH:MM
	UrgencyLevel  int                `bson:"urgency_level" json:"urgencyLevel"`
	Description   string             `bson:"description" json:"description"`

	OriginPIN int `bson:"origin_pin,omitempty" json:"originPin,omitempty"`
}

// IsAssigned reports whether userID is one of the task's assignees.
func (t Task) IsAssigned(userID string) bool {
	return contains(t.AssignedUsers, userID)
}

// Interval is a closed range of whole minutes.
// Stored free time uses week-relative minutes (0 = Monday 00:00).
type Interval struct {
	Start int64 `bson:"start" json:"start"`
	End   int64 `bson:"end" json:"end"`
}

// EventInput is the caller-supplied shape of a new event.
type EventInput struct {
	Title       string `json:"title"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// TaskInput is the caller-supplied shape of a new task.
type TaskInput struct {
	Progress      string   `json:"progress"`
	AssignedUsers []string `json:"assignedUsers"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
	StartTime     string   `json:"startTime,omitempty"`
	EndTime       string   `json:"endTime,omitempty"`
	UrgencyLevel  int      `json:"urgencyLevel"`
	Description   string   `json:"description"`
}
