// internal/app/features/register/handler.go
package register

import (
	"context"
	"net/http"

	httperr "github.com/dalemusser/groupsched/internal/app/features/errors"
	"github.com/dalemusser/groupsched/internal/app/features/shared"
	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Svc    *schedule.Service
	ErrLog *httperr.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(svc *schedule.Service, errLog *httperr.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, ErrLog: errLog, Log: logger}
}

// HandleRegister handles POST /register. It does not sign the new user in.
//
// On success: 201 and
//
//	{ "registrationCompleted": true }
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in schedule.RegisterInput
	if err := shared.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Svc.Register(ctx, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusCreated, res)
}
