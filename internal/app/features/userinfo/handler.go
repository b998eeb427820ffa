// internal/app/features/userinfo/handler.go
package userinfo

import (
	"context"
	"net/http"
	"time"

	httperr "github.com/dalemusser/groupsched/internal/app/features/errors"
	"github.com/dalemusser/groupsched/internal/app/features/shared"
	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/app/system/normalize"
	"github.com/dalemusser/groupsched/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves user records to signed-in users.
type Handler struct {
	Svc    *schedule.Service
	ErrLog *httperr.ErrorLogger
	Log    *zap.Logger
}

// NewHandler creates a new userinfo handler.
func NewHandler(svc *schedule.Service, errLog *httperr.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, ErrLog: errLog, Log: logger}
}

// profile is what other users see: no schedule, no group map.
type profile struct {
	UserID     string    `json:"userId"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Role       string    `json:"role"`
	SignupDate time.Time `json:"signupDate"`
}

// ServeMe handles GET /users/me with the caller's full record.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, shared.Actor(r))
}

// ServeUser handles GET /users/{userID}. Callers asking for themselves get the
// full record; anyone else gets the public profile.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, userID string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Svc.GetUserByID(ctx, userID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	if u.UserID == normalize.UserID(shared.Actor(r)) {
		httperr.WriteJSON(w, http.StatusOK, u)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, profile{
		UserID:     u.UserID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		SignupDate: u.SignupDate,
	})
}
