// internal/app/schedule/groups.go
package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/groupsched/internal/app/system/inputval"
	"github.com/dalemusser/groupsched/internal/app/system/interval"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.uber.org/zap"
)

// CreateGroup creates a group whose founder is its only member and
// administrator.
func (s *Service) CreateGroup(ctx context.Context, name, founder string, pin int) (g models.Group, err error) {
	defer s.observe("create_group", time.Now(), &err)

	name, err = inputval.GroupName(name)
	if err != nil {
		return g, err
	}
	founder, err = inputval.UserID(founder)
	if err != nil {
		return g, err
	}
	if pin, err = inputval.PIN(pin); err != nil {
		return g, err
	}

	u, err := s.users.GetByUserID(ctx, founder)
	if err != nil {
		return g, err
	}

	g = models.Group{
		PIN:                   pin,
		Name:                  name,
		NameCI:                text.Fold(name),
		AdministrativeMembers: []string{founder},
		Members:               []string{founder},
		Schedule:              models.EmptySchedule(),
	}
	if free := interval.WeekFree(u.Schedule.Events, s.loc); free != nil {
		g.Schedule.FreeTime = free
	}
	if err = s.groups.Create(ctx, &g); err != nil {
		return models.Group{}, err
	}

	s.fanOutGroupName(ctx, founder, pin, name)
	s.log.Info("group created", zap.Int("pin", pin), zap.String("founder", founder))
	return g, nil
}

// AssignAdmin promotes an existing member to administrator.
func (s *Service) AssignAdmin(ctx context.Context, userID string, pin int) (g models.Group, err error) {
	defer s.observe("assign_admin", time.Now(), &err)

	userID, pin, err = checkMemberArgs(userID, pin)
	if err != nil {
		return g, err
	}
	g, err = s.groups.GetByPIN(ctx, pin)
	if err != nil {
		return g, err
	}
	if _, err = s.users.GetByUserID(ctx, userID); err != nil {
		return models.Group{}, err
	}
	if !g.IsMember(userID) {
		return models.Group{}, ErrNotMember
	}
	if g.IsAdmin(userID) {
		return models.Group{}, ErrAlreadyAdmin
	}

	if err = s.groups.AddAdmin(ctx, pin, userID); err != nil {
		return models.Group{}, err
	}
	s.fanOutGroupName(ctx, userID, pin, g.Name)

	return s.groups.GetByPIN(ctx, pin)
}

// AddMember adds userID to the group. The membership change and the group's
// recomputed free time are written as one compare-and-swap. Group events in
// progress right now are copied onto the new member.
func (s *Service) AddMember(ctx context.Context, userID string, pin int) (g models.Group, err error) {
	defer s.observe("add_member", time.Now(), &err)

	userID, pin, err = checkMemberArgs(userID, pin)
	if err != nil {
		return g, err
	}
	g, err = s.groups.GetByPIN(ctx, pin)
	if err != nil {
		return g, err
	}
	if _, err = s.users.GetByUserID(ctx, userID); err != nil {
		return models.Group{}, err
	}

	for attempt := 0; ; attempt++ {
		if g.IsMember(userID) {
			return models.Group{}, ErrAlreadyMember
		}
		members := append(append([]string(nil), g.Members...), userID)
		free, ferr := s.groupFree(ctx, g.Schedule.Events, members)
		if ferr != nil {
			return models.Group{}, ferr
		}

		err = s.groups.AddMember(ctx, pin, userID, g.Version, free)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrVersionConflict) || attempt+1 >= maxCASAttempts {
			return models.Group{}, err
		}
		s.metrics.CASRetry("group")
		if g, err = s.groups.GetByPIN(ctx, pin); err != nil {
			return models.Group{}, err
		}
	}

	s.backfill(ctx, userID, g)
	s.fanOutGroupName(ctx, userID, pin, g.Name)

	s.log.Info("member added", zap.Int("pin", pin), zap.String("user_id", userID))
	return s.groups.GetByPIN(ctx, pin)
}

// backfill copies the group events that contain the current instant onto a
// new member and refreshes the member's free time.
func (s *Service) backfill(ctx context.Context, userID string, g models.Group) {
	now := s.now()
	copied := false
	for _, ev := range g.Schedule.Events {
		if !ev.Contains(now) {
			continue
		}
		cp := ev
		cp.OriginPIN = g.PIN
		if err := s.users.PushEvent(ctx, userID, cp); err != nil {
			s.recordFailure(ctx, models.FanoutFailure{Kind: models.FanoutEvent, UserID: userID, PIN: g.PIN, Event: &cp}, err)
			continue
		}
		copied = true
	}
	if copied {
		s.fanOutFreeTime(ctx, userID)
		s.cascadeGroups(ctx, userID, map[int]bool{g.PIN: true})
	}
}

// RemoveMember takes userID out of the group. The last administrator cannot
// leave while anyone else remains.
func (s *Service) RemoveMember(ctx context.Context, userID string, pin int) (g models.Group, err error) {
	defer s.observe("remove_member", time.Now(), &err)

	userID, pin, err = checkMemberArgs(userID, pin)
	if err != nil {
		return g, err
	}
	g, err = s.groups.GetByPIN(ctx, pin)
	if err != nil {
		return g, err
	}

	for attempt := 0; ; attempt++ {
		if !g.IsMember(userID) {
			return models.Group{}, ErrNotMember
		}
		if g.IsAdmin(userID) && len(g.AdministrativeMembers) == 1 && len(g.Members) > 1 {
			return models.Group{}, ErrLastAdmin
		}
		members := removeString(g.Members, userID)
		free, ferr := s.groupFree(ctx, g.Schedule.Events, members)
		if ferr != nil {
			return models.Group{}, ferr
		}

		err = s.groups.RemoveMember(ctx, pin, userID, g.Version, free)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrVersionConflict) || attempt+1 >= maxCASAttempts {
			return models.Group{}, err
		}
		s.metrics.CASRetry("group")
		if g, err = s.groups.GetByPIN(ctx, pin); err != nil {
			return models.Group{}, err
		}
	}

	if err := s.leave(ctx, userID, pin); err != nil {
		s.recordFailure(ctx, models.FanoutFailure{Kind: models.FanoutLeave, UserID: userID, PIN: pin}, err)
	}

	s.log.Info("member removed", zap.Int("pin", pin), zap.String("user_id", userID))
	return s.groups.GetByPIN(ctx, pin)
}

// leave drops the group's traces from a former member's document.
func (s *Service) leave(ctx context.Context, userID string, pin int) error {
	if err := s.users.PullEventsByOrigin(ctx, userID, pin); err != nil {
		return err
	}
	if err := s.users.UnsetGroup(ctx, userID, pin); err != nil {
		return err
	}
	if err := s.recomputeUserFree(ctx, userID); err != nil {
		return err
	}
	s.cascadeGroups(ctx, userID, map[int]bool{pin: true})
	return nil
}

// JoinGroup lets a user add themselves when they know both the name and the
// PIN. Names compare case-insensitively.
func (s *Service) JoinGroup(ctx context.Context, name string, pin int, userID string) (models.Group, error) {
	name, err := inputval.GroupName(name)
	if err != nil {
		return models.Group{}, err
	}
	userID, pin, err = checkMemberArgs(userID, pin)
	if err != nil {
		return models.Group{}, err
	}

	g, err := s.groups.GetByPIN(ctx, pin)
	if err != nil {
		return models.Group{}, err
	}
	if text.Fold(name) != g.NameCI {
		return models.Group{}, ErrGroupNameMismatch
	}
	if g.IsMember(userID) {
		return models.Group{}, ErrAlreadyMember
	}
	return s.AddMember(ctx, userID, pin)
}

// SearchGroupByPIN looks a group up by PIN.
func (s *Service) SearchGroupByPIN(ctx context.Context, pin int) (models.Group, error) {
	pin, err := inputval.PIN(pin)
	if err != nil {
		return models.Group{}, err
	}
	return s.groups.GetByPIN(ctx, pin)
}

// ListUserGroups returns the groups userID belongs to, read from the group
// documents rather than the user's cached name map.
func (s *Service) ListUserGroups(ctx context.Context, userID string) ([]models.Group, error) {
	userID, err := inputval.UserID(userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByUserID(ctx, userID); err != nil {
		return nil, err
	}
	return s.groups.ListByMember(ctx, userID)
}

func (s *Service) fanOutGroupName(ctx context.Context, userID string, pin int, name string) {
	if err := s.users.SetGroup(ctx, userID, pin, name); err != nil {
		s.recordFailure(ctx, models.FanoutFailure{Kind: models.FanoutGroupName, UserID: userID, PIN: pin, GroupName: name}, err)
	}
}

func checkMemberArgs(userID string, pin int) (string, int, error) {
	userID, err := inputval.UserID(userID)
	if err != nil {
		return "", 0, err
	}
	pin, err = inputval.PIN(pin)
	if err != nil {
		return "", 0, err
	}
	return userID, pin, nil
}
