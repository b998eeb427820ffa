// internal/app/schedule/mutations.go
package schedule

import (
	"context"
	"time"

	"github.com/dalemusser/groupsched/internal/app/policy/taskpolicy"
	"github.com/dalemusser/groupsched/internal/app/system/inputval"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// GroupAddEvent adds an event to the group, recomputes the group's free time,
// and copies the event onto every member, refreshing each member's free time.
func (s *Service) GroupAddEvent(ctx context.Context, pin int, in models.EventInput) (ev models.Event, err error) {
	defer s.observe("group_add_event", time.Now(), &err)

	if pin, err = inputval.PIN(pin); err != nil {
		return ev, err
	}
	ev, err = inputval.Event(in, s.loc)
	if err != nil {
		return ev, err
	}
	g, err := s.groups.GetByPIN(ctx, pin)
	if err != nil {
		return models.Event{}, err
	}

	ev.ID = primitive.NewObjectID()
	if err = s.groups.PushEvent(ctx, pin, ev); err != nil {
		return models.Event{}, err
	}

	// the copies are personal events, so the members' other groups change too
	done := map[int]bool{pin: true}
	for _, member := range g.Members {
		cp := ev
		cp.OriginPIN = pin
		if perr := s.users.PushEvent(ctx, member, cp); perr != nil {
			s.recordFailure(ctx, models.FanoutFailure{Kind: models.FanoutEvent, UserID: member, PIN: pin, Event: &cp}, perr)
			continue
		}
		s.fanOutFreeTime(ctx, member)
		s.cascadeGroups(ctx, member, done)
	}

	// after the member copies, so the recompute sees the fresh personal events
	s.fanOutGroupFreeTime(ctx, pin)

	s.log.Info("group event added", zap.Int("pin", pin), zap.String("event_id", ev.ID.Hex()))
	return ev, nil
}

// GroupAddTask adds a task to the group and copies it to each assignee. With
// no assignees the task goes to actor.
func (s *Service) GroupAddTask(ctx context.Context, pin int, actor string, in models.TaskInput) (t models.Task, err error) {
	defer s.observe("group_add_task", time.Now(), &err)

	if pin, err = inputval.PIN(pin); err != nil {
		return t, err
	}
	if actor, err = inputval.UserID(actor); err != nil {
		return t, err
	}
	t, err = inputval.Task(in, s.loc)
	if err != nil {
		return t, err
	}
	g, err := s.groups.GetByPIN(ctx, pin)
	if err != nil {
		return models.Task{}, err
	}

	if len(t.AssignedUsers) == 0 {
		t.AssignedUsers = []string{actor}
	}
	if id, ok := taskpolicy.CanAssign(g, t.AssignedUsers); !ok {
		return models.Task{}, inputval.Invalid("assignedUsers", "%s is not a member of this group", id)
	}

	t.ID = primitive.NewObjectID()
	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.groups.PushTask(ctx, pin, t); err != nil {
			return err
		}
		for _, id := range t.AssignedUsers {
			cp := t
			cp.OriginPIN = pin
			f := models.FanoutFailure{Kind: models.FanoutTask, UserID: id, PIN: pin, Task: &cp}
			if err := s.secondary(ctx, f, s.users.PushTask(ctx, id, cp)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}

	s.log.Info("group task added", zap.Int("pin", pin), zap.String("task_id", t.ID.Hex()),
		zap.Strings("assigned", t.AssignedUsers))
	return t, nil
}

// AddPersonalTask adds a task to userID's schedule and copies it to any other
// assignees, who must be registered users.
func (s *Service) AddPersonalTask(ctx context.Context, userID string, in models.TaskInput) (t models.Task, err error) {
	defer s.observe("add_personal_task", time.Now(), &err)

	if userID, err = inputval.UserID(userID); err != nil {
		return t, err
	}
	t, err = inputval.Task(in, s.loc)
	if err != nil {
		return t, err
	}
	if _, err = s.users.GetByUserID(ctx, userID); err != nil {
		return models.Task{}, err
	}

	if len(t.AssignedUsers) == 0 {
		t.AssignedUsers = []string{userID}
	}
	for _, id := range t.AssignedUsers {
		if id == userID {
			continue
		}
		if _, uerr := s.users.GetByUserID(ctx, id); uerr != nil {
			if isNotFound(uerr) {
				return models.Task{}, inputval.Invalid("assignedUsers", "%s is not a registered user", id)
			}
			return models.Task{}, uerr
		}
	}

	t.ID = primitive.NewObjectID()
	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.users.PushTask(ctx, userID, t); err != nil {
			return err
		}
		for _, id := range t.AssignedUsers {
			if id == userID {
				continue
			}
			f := models.FanoutFailure{Kind: models.FanoutTask, UserID: id, Task: &t}
			if err := s.secondary(ctx, f, s.users.PushTask(ctx, id, t)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// AddPersonalEvent adds an event to userID's schedule, recomputes their free
// time, then recomputes the free time of every group they belong to before
// returning.
func (s *Service) AddPersonalEvent(ctx context.Context, userID string, in models.EventInput) (ev models.Event, err error) {
	defer s.observe("add_personal_event", time.Now(), &err)

	if userID, err = inputval.UserID(userID); err != nil {
		return ev, err
	}
	ev, err = inputval.Event(in, s.loc)
	if err != nil {
		return ev, err
	}
	if _, err = s.users.GetByUserID(ctx, userID); err != nil {
		return models.Event{}, err
	}

	ev.ID = primitive.NewObjectID()
	if err = s.users.PushEvent(ctx, userID, ev); err != nil {
		return models.Event{}, err
	}
	s.fanOutFreeTime(ctx, userID)
	s.cascadeGroups(ctx, userID, map[int]bool{})
	return ev, nil
}

// UpdateTaskProgress sets the progress of a group task and mirrors it onto
// each assignee's copy. Only administrators and assignees may do this.
func (s *Service) UpdateTaskProgress(ctx context.Context, pin int, taskID primitive.ObjectID, progress, actor string) (t models.Task, err error) {
	defer s.observe("update_task_progress", time.Now(), &err)

	if pin, err = inputval.PIN(pin); err != nil {
		return t, err
	}
	if progress, err = inputval.Progress(progress); err != nil {
		return t, err
	}
	if actor, err = inputval.UserID(actor); err != nil {
		return t, err
	}

	g, err := s.groups.GetByPIN(ctx, pin)
	if err != nil {
		return t, err
	}
	t, ok := findTask(g.Schedule.Tasks, taskID)
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	if !taskpolicy.CanUpdateProgress(g, t, actor) {
		return models.Task{}, forbidden("%s may not update task %s", actor, taskID.Hex())
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.groups.SetTaskProgress(ctx, pin, taskID, progress); err != nil {
			return err
		}
		for _, id := range t.AssignedUsers {
			f := models.FanoutFailure{Kind: models.FanoutProgress, UserID: id, PIN: pin, TaskID: taskID, Progress: progress}
			if err := s.secondary(ctx, f, s.users.SetTaskProgress(ctx, id, taskID, progress)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}

	t.Progress = progress
	return t, nil
}

// UpdatePersonalTaskProgress sets progress on userID's own copy of a task.
func (s *Service) UpdatePersonalTaskProgress(ctx context.Context, userID string, taskID primitive.ObjectID, progress string) (t models.Task, err error) {
	defer s.observe("update_personal_task_progress", time.Now(), &err)

	if userID, err = inputval.UserID(userID); err != nil {
		return t, err
	}
	if progress, err = inputval.Progress(progress); err != nil {
		return t, err
	}
	u, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		return t, err
	}
	t, ok := findTask(u.Schedule.Tasks, taskID)
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	if err = s.users.SetTaskProgress(ctx, userID, taskID, progress); err != nil {
		return models.Task{}, err
	}
	t.Progress = progress
	return t, nil
}

func findTask(tasks []models.Task, id primitive.ObjectID) (models.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}
