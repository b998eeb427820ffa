// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// appConfigKeys defines the configuration keys for groupsched.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: GROUPSCHED_MONGO_URI, GROUPSCHED_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_backend", Default: BackendMongo, Desc: "Persistence backend: 'mongo' or 'memory'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "groupsched", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "groupsched-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime (e.g., 24h, 30m)"},

	// Week origin for free time and the zone for naive timestamps.
	{Name: "time_zone", Default: "UTC", Desc: "IANA time zone for schedules (e.g., America/Chicago)"},

	// Fan-out reconciliation
	{Name: "reconcile_schedule", Default: "@every 5m", Desc: "Cron spec for the fan-out reconciler (blank disables it)"},
	{Name: "reconcile_batch", Default: 100, Desc: "Pending fan-out records replayed per pass"},
	{Name: "reconcile_max_attempts", Default: 10, Desc: "Replays before a fan-out record is abandoned"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges flags, environment variables
// (WAFFLE_* for core, GROUPSCHED_* for app), config files and defaults, with
// precedence in that order.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "GROUPSCHED", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreBackend:     appValues.String("store_backend"),
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		TimeZone: appValues.String("time_zone"),

		ReconcileSchedule:    appValues.String("reconcile_schedule"),
		ReconcileBatch:       appValues.Int("reconcile_batch"),
		ReconcileMaxAttempts: appValues.Int("reconcile_max_attempts"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects settings that would only fail later: an unknown
// backend, a malformed MongoDB URI, an unknown time zone, or a bad cron spec.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreBackend {
	case BackendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return fmt.Errorf("mongo_database is required for the mongo backend")
		}
	case BackendMemory:
		if coreCfg != nil && coreCfg.Env == "prod" {
			logger.Warn("memory backend in production; all data is lost on restart")
		}
	default:
		return fmt.Errorf("store_backend must be %q or %q, got %q", BackendMongo, BackendMemory, appCfg.StoreBackend)
	}

	if _, err := time.LoadLocation(appCfg.TimeZone); err != nil {
		return fmt.Errorf("invalid time_zone %q: %w", appCfg.TimeZone, err)
	}

	if appCfg.ReconcileSchedule != "" {
		if _, err := cron.ParseStandard(appCfg.ReconcileSchedule); err != nil {
			return fmt.Errorf("invalid reconcile_schedule %q: %w", appCfg.ReconcileSchedule, err)
		}
	}
	if appCfg.SessionMaxAge <= 0 {
		return fmt.Errorf("session_max_age must be positive")
	}

	return nil
}
