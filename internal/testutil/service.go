package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/app/store/memstore"
	"github.com/dalemusser/groupsched/internal/app/system/metrics"
	"go.uber.org/zap"
)

// TestPassword satisfies the password rules.
const TestPassword = "Passw0rd!"

// Now is the fixed clock of services built by NewService: Wednesday
// 2025-05-14 12:00 UTC.
var Now = time.Date(2025, 5, 14, 12, 0, 0, 0, time.UTC)

// NewService returns a schedule service over a fresh in-memory store.
func NewService(t testing.TB) (*schedule.Service, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	svc := schedule.New(st.Users(), st.Groups(), st.Fanout(), schedule.Config{
		Loc:     time.UTC,
		Now:     func() time.Time { return Now },
		Metrics: metrics.New(),
	}, zap.NewNop())
	return svc, st
}

// MustRegister registers userID as a member named Test User.
func MustRegister(t testing.TB, svc *schedule.Service, userID string) {
	t.Helper()
	_, err := svc.Register(context.Background(), schedule.RegisterInput{
		FirstName: "Test",
		LastName:  "User",
		UserID:    userID,
		Password:  TestPassword,
	})
	if err != nil {
		t.Fatalf("register %s: %v", userID, err)
	}
}

// MustCreateGroup registers the founder and members, creates the group and
// adds the members.
func MustCreateGroup(t testing.TB, svc *schedule.Service, pin int, name, founder string, members ...string) {
	t.Helper()
	ctx := context.Background()
	MustRegister(t, svc, founder)
	if _, err := svc.CreateGroup(ctx, name, founder, pin); err != nil {
		t.Fatalf("create group %d: %v", pin, err)
	}
	for _, m := range members {
		MustRegister(t, svc, m)
		if _, err := svc.AddMember(ctx, m, pin); err != nil {
			t.Fatalf("add %s to %d: %v", m, pin, err)
		}
	}
}
