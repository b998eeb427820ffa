// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/groupsched/internal/app/features/health"
	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"github.com/dalemusser/groupsched/internal/app/system/metrics"
	"github.com/dalemusser/groupsched/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app. The Mongo fields
// are nil for the memory backend.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Runtime is allocated in ConnectDB and filled in by Startup so the later
	// hooks share one service and worker.
	Runtime *Runtime
}

// Runtime is the long-lived application state built at startup.
type Runtime struct {
	Service    *schedule.Service
	Metrics    *metrics.Metrics
	Fanout     health.PendingCounter
	Fetcher    auth.UserFetcher
	Reconciler *workers.Reconciler
}
