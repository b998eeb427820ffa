// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and request limits; the
// values here are loaded in LoadConfig and passed to every lifecycle hook.
type AppConfig struct {
	// StoreBackend selects persistence: "mongo" or "memory".
	StoreBackend string

	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionMaxAge time.Duration

	// TimeZone is the IANA zone that anchors week-relative free time.
	TimeZone string

	// Fan-out reconciler. An empty schedule disables the worker.
	ReconcileSchedule    string
	ReconcileBatch       int
	ReconcileMaxAttempts int
}

// Location resolves TimeZone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil || c.TimeZone == "" {
		return time.UTC
	}
	return loc
}

func (c AppConfig) usesMongo() bool {
	return c.StoreBackend != BackendMemory
}
