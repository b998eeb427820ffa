// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/groupsched/internal/app/features/shared"
	"github.com/dalemusser/groupsched/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// ServeLogout handles POST /logout and answers 204.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		// The browser keeps a cookie we could not overwrite; nothing else to do.
		h.Log.Error("logout: save session", zap.Error(err))
	}
	h.Log.Info("user signed out", zap.String("user_id", shared.Actor(r)))
	w.WriteHeader(http.StatusNoContent)
}
