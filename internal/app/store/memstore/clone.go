// internal/app/store/memstore/clone.go
package memstore

import (
	"slices"

	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func cloneUser(u models.User) models.User {
	u.Schedule = cloneSchedule(u.Schedule)
	if u.Groups != nil {
		m := make(map[string]string, len(u.Groups))
		for k, v := range u.Groups {
			m[k] = v
		}
		u.Groups = m
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}

func cloneGroup(g models.Group) models.Group {
	g.Schedule = cloneSchedule(g.Schedule)
	g.Members = slices.Clone(g.Members)
	g.AdministrativeMembers = slices.Clone(g.AdministrativeMembers)
	return g
}

func cloneSchedule(s models.Schedule) models.Schedule {
	out := models.Schedule{
		Events:   slices.Clone(s.Events),
		FreeTime: cloneIntervals(s.FreeTime),
	}
	if s.Tasks != nil {
		out.Tasks = make([]models.Task, len(s.Tasks))
		for i, t := range s.Tasks {
			out.Tasks[i] = cloneTask(t)
		}
	}
	return out
}

func cloneTask(t models.Task) models.Task {
	t.AssignedUsers = slices.Clone(t.AssignedUsers)
	return t
}

func cloneIntervals(in []models.Interval) []models.Interval {
	if in == nil {
		return []models.Interval{}
	}
	return slices.Clone(in)
}

func hasEvent(events []models.Event, id primitive.ObjectID) bool {
	for _, ev := range events {
		if ev.ID == id {
			return true
		}
	}
	return false
}

func hasTask(tasks []models.Task, id primitive.ObjectID) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

func setProgress(tasks []models.Task, id primitive.ObjectID, progress string) error {
	for i := range tasks {
		if tasks[i].ID == id {
			tasks[i].Progress = progress
			return nil
		}
	}
	return schedule.ErrTaskNotFound
}

func without(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
