// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"strings"

	"github.com/dalemusser/groupsched/internal/app/schedule"
	fanoutstore "github.com/dalemusser/groupsched/internal/app/store/fanout"
	groupstore "github.com/dalemusser/groupsched/internal/app/store/groups"
	"github.com/dalemusser/groupsched/internal/app/store/memstore"
	userstore "github.com/dalemusser/groupsched/internal/app/store/users"
	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"github.com/dalemusser/groupsched/internal/app/system/metrics"
	"github.com/dalemusser/groupsched/internal/app/system/timeouts"
	"github.com/dalemusser/groupsched/internal/app/system/txn"
	"github.com/dalemusser/groupsched/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup builds the schedule service over the configured backend and starts
// the fan-out reconciler. It runs after ConnectDB and EnsureSchema and before
// BuildHandler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("tiers", n))
	}

	rt := deps.Runtime
	if rt == nil {
		rt = &Runtime{}
	}
	buildRuntime(rt, appCfg, deps, logger)

	if appCfg.ReconcileSchedule == "" {
		logger.Info("fan-out reconciler disabled")
		return nil
	}
	rec, err := workers.NewReconciler(rt.Service.Reconcile, logger, appCfg.ReconcileSchedule, appCfg.ReconcileBatch)
	if err != nil {
		return err
	}
	if err := rec.Start(); err != nil {
		return err
	}
	rt.Reconciler = rec
	return nil
}

// buildRuntime wires stores, transactions and metrics into rt.
func buildRuntime(rt *Runtime, appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	rt.Metrics = metrics.New()
	cfg := schedule.Config{
		Loc:         appCfg.Location(),
		Metrics:     rt.Metrics,
		MaxAttempts: appCfg.ReconcileMaxAttempts,
	}

	if deps.MongoDatabase != nil {
		db := deps.MongoDatabase
		cfg.Tx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return txn.Run(ctx, db, logger, fn)
		}
		fan := fanoutstore.New(db)
		rt.Service = schedule.New(userstore.New(db), groupstore.New(db), fan, cfg, logger)
		rt.Fanout = fan
		rt.Fetcher = userstore.NewFetcher(db)
		return
	}

	mem := memstore.New()
	rt.Service = schedule.New(mem.Users(), mem.Groups(), mem.Fanout(), cfg, logger)
	rt.Fanout = mem.Fanout()
	rt.Fetcher = serviceFetcher{svc: rt.Service}
}

// serviceFetcher refreshes session users through the service, for backends
// without a dedicated fetcher.
type serviceFetcher struct {
	svc *schedule.Service
}

func (f serviceFetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	u, err := f.svc.GetUserByID(ctx, userID)
	if err != nil {
		return nil
	}
	return &auth.SessionUser{
		UserID: u.UserID,
		Name:   strings.TrimSpace(u.FirstName + " " + u.LastName),
		Role:   u.Role,
	}
}
