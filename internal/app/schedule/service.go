// internal/app/schedule/service.go
//
// Package schedule applies every mutation to user and group schedules and keeps
// their derived free time current.
//
// A mutation writes its owning document first (the primary write) and then
// copies the change to the other affected documents (the fan-out). Fan-out
// writes that fail are logged, counted and recorded so Reconcile can replay
// them; they never fail the request. When a TxRunner backed by a real
// transaction is configured, task writes and progress mirrors instead commit or
// roll back together.
package schedule

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dalemusser/groupsched/internal/app/system/interval"
	"github.com/dalemusser/groupsched/internal/app/system/metrics"
	"github.com/dalemusser/groupsched/internal/app/system/txn"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"go.uber.org/zap"
)

const (
	// maxCASAttempts bounds free-time compare-and-swap retries.
	maxCASAttempts = 5

	DefaultMaxAttempts = 10
)

// Config carries the optional collaborators of a Service.
type Config struct {
	Loc         *time.Location   // week origin for free time; UTC when nil
	Now         func() time.Time // clock; time.Now when nil
	Tx          TxRunner         // nil runs fan-out best-effort
	Metrics     *metrics.Metrics // nil records nothing
	MaxAttempts int              // reconcile attempts before a record is abandoned
}

type Service struct {
	users  UserStore
	groups GroupStore
	fanout FanoutStore

	loc         *time.Location
	now         func() time.Time
	tx          TxRunner
	metrics     *metrics.Metrics
	maxAttempts int
	log         *zap.Logger
}

func New(users UserStore, groups GroupStore, fanout FanoutStore, cfg Config, logger *zap.Logger) *Service {
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:       users,
		groups:      groups,
		fanout:      fanout,
		loc:         cfg.Loc,
		now:         cfg.Now,
		tx:          cfg.Tx,
		metrics:     cfg.Metrics,
		maxAttempts: cfg.MaxAttempts,
		log:         logger,
	}
}

// Location is the zone that week-relative free time is measured in.
func (s *Service) Location() *time.Location { return s.loc }

// Now reads the service clock.
func (s *Service) Now() time.Time { return s.now() }

func (s *Service) observe(op string, start time.Time, errp *error) {
	s.metrics.Observe(op, start, *errp)
}

func (s *Service) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx(ctx, fn)
}

// secondary handles a fan-out write error. Inside a transaction the error is
// returned so the whole unit rolls back; otherwise it is recorded for replay
// and swallowed.
func (s *Service) secondary(ctx context.Context, f models.FanoutFailure, err error) error {
	if err == nil {
		return nil
	}
	if txn.Active(ctx) {
		return err
	}
	s.recordFailure(ctx, f, err)
	return nil
}

func (s *Service) recordFailure(ctx context.Context, f models.FanoutFailure, cause error) {
	s.log.Warn("fan-out write failed",
		zap.String("kind", f.Kind),
		zap.String("user_id", f.UserID),
		zap.Int("pin", f.PIN),
		zap.Error(cause))
	s.metrics.FanoutFailure(f.Kind)

	if s.fanout == nil {
		return
	}
	f.LastError = cause.Error()
	f.CreatedAt = s.now().UTC()

	// the request context may already be done; the record must still land
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.fanout.Record(rctx, f); err != nil {
		s.log.Error("failed to record fan-out failure",
			zap.String("kind", f.Kind),
			zap.String("user_id", f.UserID),
			zap.Int("pin", f.PIN),
			zap.Error(err))
	}
}

// recomputeUserFree rewrites a user's week-relative free time from their
// events, retrying on version conflicts.
func (s *Service) recomputeUserFree(ctx context.Context, userID string) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		u, err := s.users.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		free := interval.WeekFree(u.Schedule.Events, s.loc)
		if sameIntervals(free, u.Schedule.FreeTime) {
			return nil
		}
		err = s.users.SetFreeTime(ctx, userID, u.Version, free)
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}
		s.metrics.CASRetry("user")
	}
	return ErrVersionConflict
}

// recomputeGroupFree rewrites a group's free time from the group's events and
// every member's personal events.
func (s *Service) recomputeGroupFree(ctx context.Context, pin int) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		g, err := s.groups.GetByPIN(ctx, pin)
		if err != nil {
			return err
		}
		free, err := s.groupFree(ctx, g.Schedule.Events, g.Members)
		if err != nil {
			return err
		}
		if sameIntervals(free, g.Schedule.FreeTime) {
			return nil
		}
		err = s.groups.SetFreeTime(ctx, pin, g.Version, free)
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}
		s.metrics.CASRetry("group")
	}
	return ErrVersionConflict
}

// groupEvents is the group's own events plus the personal events of members.
func (s *Service) groupEvents(ctx context.Context, own []models.Event, members []string) ([]models.Event, error) {
	events := slices.Clone(own)
	if len(members) == 0 {
		return events, nil
	}
	users, err := s.users.ListByUserIDs(ctx, members)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		events = append(events, u.Schedule.Events...)
	}
	return events, nil
}

func (s *Service) groupFree(ctx context.Context, own []models.Event, members []string) ([]models.Interval, error) {
	events, err := s.groupEvents(ctx, own, members)
	if err != nil {
		return nil, err
	}
	return interval.WeekFree(events, s.loc), nil
}

// fanOutFreeTime recomputes a user's free time as a secondary write.
func (s *Service) fanOutFreeTime(ctx context.Context, userID string) {
	if err := s.recomputeUserFree(ctx, userID); err != nil {
		s.recordFailure(ctx, models.FanoutFailure{Kind: models.FanoutFreeTime, UserID: userID}, err)
	}
}

// fanOutGroupFreeTime recomputes a group's free time as a secondary write.
func (s *Service) fanOutGroupFreeTime(ctx context.Context, pin int) {
	if err := s.recomputeGroupFree(ctx, pin); err != nil {
		s.recordFailure(ctx, models.FanoutFailure{Kind: models.FanoutFreeTime, PIN: pin}, err)
	}
}

// cascadeGroups recomputes every group userID belongs to after their personal
// events changed. Pins already in done are skipped; pins recomputed here are
// added to it so callers looping over several users touch each group once.
func (s *Service) cascadeGroups(ctx context.Context, userID string, done map[int]bool) {
	groups, err := s.groups.ListByMember(ctx, userID)
	if err != nil {
		s.log.Warn("could not list groups for free-time cascade", zap.String("user_id", userID), zap.Error(err))
		return
	}
	for _, g := range groups {
		if done[g.PIN] {
			continue
		}
		done[g.PIN] = true
		s.fanOutGroupFreeTime(ctx, g.PIN)
	}
}

func sameIntervals(a, b []models.Interval) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func removeString(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
