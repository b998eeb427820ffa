// internal/app/system/workers/reconciler.go
package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/dalemusser/groupsched/internal/app/system/timeouts"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReconcileFunc replays up to limit pending fan-out failures and reports how
// many were resolved and how many remain pending.
type ReconcileFunc func(ctx context.Context, limit int) (resolved, pending int, err error)

// Reconciler runs a ReconcileFunc on a cron schedule. Overlapping runs are
// skipped rather than queued.
type Reconciler struct {
	run   ReconcileFunc
	log   *zap.Logger
	spec  string
	batch int

	mu   sync.Mutex
	cron *cron.Cron
}

// NewReconciler validates spec (standard cron syntax or a descriptor such as
// "@every 5m") and returns a stopped worker.
func NewReconciler(run ReconcileFunc, logger *zap.Logger, spec string, batch int) (*Reconciler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("reconcile schedule %q: %w", spec, err)
	}
	if batch <= 0 {
		batch = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{run: run, log: logger, spec: spec, batch: batch}, nil
}

// Start schedules the job. Calling Start twice is a no-op.
func (w *Reconciler) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.spec, w.tick); err != nil {
		return fmt.Errorf("schedule reconciler: %w", err)
	}
	c.Start()
	w.cron = c

	w.log.Info("fan-out reconciler started",
		zap.String("schedule", w.spec),
		zap.Int("batch", w.batch))
	return nil
}

// Stop halts scheduling and waits for a running pass to finish.
func (w *Reconciler) Stop() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	w.log.Info("fan-out reconciler stopped")
}

func (w *Reconciler) tick() {
	ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Batch(), w.log, "fan-out reconcile")
	defer cancel()
	w.RunOnce(ctx)
}

// RunOnce performs a single pass immediately.
func (w *Reconciler) RunOnce(ctx context.Context) (resolved, pending int, err error) {
	resolved, pending, err = w.run(ctx, w.batch)
	if err != nil {
		w.log.Error("fan-out reconcile failed", zap.Error(err))
		return resolved, pending, err
	}
	if resolved > 0 || pending > 0 {
		w.log.Info("fan-out reconcile pass",
			zap.Int("resolved", resolved),
			zap.Int("pending", pending))
	}
	return resolved, pending, nil
}
