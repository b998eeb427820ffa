package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewReconciler_RejectsBadSchedule(t *testing.T) {
	_, err := NewReconciler(func(context.Context, int) (int, int, error) { return 0, 0, nil }, zap.NewNop(), "every now and then", 10)
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestReconciler_RunOnce(t *testing.T) {
	var gotLimit int
	w, err := NewReconciler(func(_ context.Context, limit int) (int, int, error) {
		gotLimit = limit
		return 3, 1, nil
	}, zap.NewNop(), "@every 1m", 0)
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}

	resolved, pending, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if resolved != 3 || pending != 1 {
		t.Errorf("RunOnce = %d, %d; want 3, 1", resolved, pending)
	}
	if gotLimit != 100 {
		t.Errorf("default batch = %d, want 100", gotLimit)
	}
}

func TestReconciler_RunOnceError(t *testing.T) {
	boom := errors.New("boom")
	w, _ := NewReconciler(func(context.Context, int) (int, int, error) { return 0, 0, boom }, nil, "@every 1m", 5)
	if _, _, err := w.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Errorf("RunOnce err = %v, want boom", err)
	}
}

func TestReconciler_StartStop(t *testing.T) {
	var calls atomic.Int32
	w, err := NewReconciler(func(context.Context, int) (int, int, error) {
		calls.Add(1)
		return 0, 0, nil
	}, zap.NewNop(), "@every 1s", 5)
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	w.Stop()
	w.Stop()

	if calls.Load() == 0 {
		t.Error("expected at least one scheduled run")
	}
}
