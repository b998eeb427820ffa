// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/groupsched/internal/app/features/errors"
	groupsfeature "github.com/dalemusser/groupsched/internal/app/features/groups"
	healthfeature "github.com/dalemusser/groupsched/internal/app/features/health"
	loginfeature "github.com/dalemusser/groupsched/internal/app/features/login"
	logoutfeature "github.com/dalemusser/groupsched/internal/app/features/logout"
	"github.com/dalemusser/groupsched/internal/app/features/middleware"
	personalfeature "github.com/dalemusser/groupsched/internal/app/features/personal"
	registerfeature "github.com/dalemusser/groupsched/internal/app/features/register"
	userinfofeature "github.com/dalemusser/groupsched/internal/app/features/userinfo"
	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"github.com/dalemusser/groupsched/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed, so deps.Runtime already holds the schedule service.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt := deps.Runtime
	if rt == nil || rt.Service == nil {
		return nil, errors.New("bootstrap: Startup has not built the runtime")
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Reload the user on each request so deleted accounts lose their session.
	sessionMgr.SetUserFetcher(rt.Fetcher)

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(sessionMgr.LoadSessionUser)

	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, rt.Fanout, appCfg.ReconcileMaxAttempts, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", rt.Metrics.Handler())

	// Accounts
	registerHandler := registerfeature.NewHandler(rt.Service, errLog, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler))

	loginHandler := loginfeature.NewHandler(rt.Service, sessionMgr, errLog, logger)
	loginHandler.Limiter = ratelimit.NewLoginLimiter()
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	userHandler := userinfofeature.NewHandler(rt.Service, errLog, logger)
	r.Mount("/users", userinfofeature.Routes(userHandler, sessionMgr))

	// Schedules
	groupsHandler := groupsfeature.NewHandler(rt.Service, errLog, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

	personalHandler := personalfeature.NewHandler(rt.Service, errLog, logger)
	r.Mount("/schedule", personalfeature.Routes(personalHandler, sessionMgr))

	return r, nil
}
