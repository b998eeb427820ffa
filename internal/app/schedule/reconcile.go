// internal/app/schedule/reconcile.go
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/groupsched/internal/domain/models"
	"go.uber.org/zap"
)

// Reconcile replays up to limit recorded fan-out failures. Each replay is
// idempotent, so a record that partially landed before can be retried safely.
// It returns how many records were resolved and how many are still pending
// after this pass.
func (s *Service) Reconcile(ctx context.Context, limit int) (resolved, pending int, err error) {
	defer s.observe("reconcile", time.Now(), &err)

	if s.fanout == nil {
		return 0, 0, nil
	}
	batch, err := s.fanout.Pending(ctx, limit, s.maxAttempts)
	if err != nil {
		return 0, 0, err
	}

	abandoned := 0
	for _, f := range batch {
		if ctx.Err() != nil {
			pending++
			continue
		}
		rerr := s.replay(ctx, f)
		if rerr == nil {
			if err := s.fanout.Resolve(ctx, f.ID, s.now().UTC()); err != nil {
				return resolved, pending, err
			}
			resolved++
			continue
		}

		s.log.Warn("fan-out replay failed",
			zap.String("id", f.ID.Hex()),
			zap.String("kind", f.Kind),
			zap.Int("attempts", f.Attempts+1),
			zap.Error(rerr))
		if err := s.fanout.Bump(ctx, f.ID, rerr.Error()); err != nil {
			return resolved, pending, err
		}
		if f.Attempts+1 >= s.maxAttempts {
			abandoned++
			s.log.Error("fan-out record abandoned",
				zap.String("id", f.ID.Hex()),
				zap.String("kind", f.Kind),
				zap.String("user_id", f.UserID),
				zap.Int("pin", f.PIN))
			continue
		}
		pending++
	}

	s.metrics.Reconciled("resolved", resolved)
	s.metrics.Reconciled("retry", pending)
	s.metrics.Reconciled("abandoned", abandoned)
	return resolved, pending, nil
}

func (s *Service) replay(ctx context.Context, f models.FanoutFailure) error {
	switch f.Kind {
	case models.FanoutEvent:
		if f.Event == nil {
			return errors.New("event record has no event")
		}
		if err := s.users.PushEvent(ctx, f.UserID, *f.Event); err != nil {
			return err
		}
		if err := s.recomputeUserFree(ctx, f.UserID); err != nil {
			return err
		}
		s.cascadeGroups(ctx, f.UserID, map[int]bool{f.PIN: true})
		return nil

	case models.FanoutTask:
		if f.Task == nil {
			return errors.New("task record has no task")
		}
		return s.users.PushTask(ctx, f.UserID, *f.Task)

	case models.FanoutProgress:
		return s.users.SetTaskProgress(ctx, f.UserID, f.TaskID, f.Progress)

	case models.FanoutGroupName:
		return s.users.SetGroup(ctx, f.UserID, f.PIN, f.GroupName)

	case models.FanoutFreeTime:
		if f.UserID == "" {
			return s.recomputeGroupFree(ctx, f.PIN)
		}
		return s.recomputeUserFree(ctx, f.UserID)

	case models.FanoutLeave:
		return s.leave(ctx, f.UserID, f.PIN)
	}
	return fmt.Errorf("unknown fan-out kind %q", f.Kind)
}
