// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"

	httperr "github.com/dalemusser/groupsched/internal/app/features/errors"
	"github.com/dalemusser/groupsched/internal/app/features/shared"
	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"github.com/dalemusser/groupsched/internal/app/system/ratelimit"
	"github.com/dalemusser/groupsched/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Svc        *schedule.Service
	SessionMgr *auth.SessionManager
	ErrLog     *httperr.ErrorLogger
	Log        *zap.Logger

	// Limiter throttles attempts when set.
	Limiter *ratelimit.LoginLimiter
}

func NewHandler(svc *schedule.Service, sessionMgr *auth.SessionManager, errLog *httperr.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:        svc,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type loginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLoginPost checks credentials, starts a session and answers with the
// signed-in user.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, req.UserID); !ok {
			h.Log.Warn("sign-in throttled",
				zap.String("user_id", req.UserID),
				zap.String("ip", ratelimit.ClientIP(r)))
			httperr.WriteJSON(w, http.StatusTooManyRequests, httperr.Response{Error: msg})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Svc.Login(ctx, req.UserID, req.Password)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetUser(u.UserID)
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		UserID: u.UserID,
		Name:   u.FirstName + " " + u.LastName,
		Role:   u.Role,
	}); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	h.Log.Info("user signed in", zap.String("user_id", u.UserID))
	httperr.WriteJSON(w, http.StatusOK, u)
}
