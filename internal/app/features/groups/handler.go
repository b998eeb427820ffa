// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"fmt"
	"net/http"

	httperr "github.com/dalemusser/groupsched/internal/app/features/errors"
	"github.com/dalemusser/groupsched/internal/app/features/shared"
	"github.com/dalemusser/groupsched/internal/app/policy/grouppolicy"
	"github.com/dalemusser/groupsched/internal/app/schedule"
	"github.com/dalemusser/groupsched/internal/app/system/inputval"
	"github.com/dalemusser/groupsched/internal/app/system/timeouts"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the group API. Authorization is decided here with
// grouppolicy before the service is called; the service itself only checks
// task progress permissions.
type Handler struct {
	Svc    *schedule.Service
	ErrLog *httperr.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(svc *schedule.Service, errLog *httperr.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, ErrLog: errLog, Log: logger}
}

// summary is what a signed-in non-member sees after a PIN lookup.
type summary struct {
	PIN         int    `json:"pin"`
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
}

type createRequest struct {
	Name string `json:"name"`
	PIN  int    `json:"pin"`
}

type memberRequest struct {
	UserID string `json:"userId"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| Group lookup                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList handles GET /groups: the caller's groups.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	gs, err := h.Svc.ListUserGroups(ctx, shared.Actor(r))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if gs == nil {
		gs = []models.Group{}
	}
	httperr.WriteJSON(w, http.StatusOK, gs)
}

// ServeGroup handles GET /groups/{pin}. Members get the whole group,
// everyone else a summary.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pin, err := inputval.ParsePIN(chi.URLParam(r, "pin"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	g, err := h.Svc.SearchGroupByPIN(ctx, pin)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if !grouppolicy.CanView(g, shared.Actor(r)) {
		httperr.WriteJSON(w, http.StatusOK, summary{PIN: g.PIN, Name: g.Name, MemberCount: len(g.Members)})
		return
	}
	httperr.WriteJSON(w, http.StatusOK, g)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups, POST /groups/join                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate handles POST /groups. The caller founds the group.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Svc.CreateGroup(ctx, req.Name, shared.Actor(r), req.PIN)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusCreated, g)
}

// HandleJoin handles POST /groups/join. Knowing both the name and the PIN is
// the credential.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, err := h.Svc.JoinGroup(ctx, req.Name, req.PIN, shared.Actor(r))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, g)
}

// loadGroup resolves {pin} and checks allow against the caller. It writes the
// error response itself and reports whether the handler should go on.
func (h *Handler) loadGroup(ctx context.Context, w http.ResponseWriter, r *http.Request, allow func(models.Group, string) bool, what string) (models.Group, bool) {
	pin, err := inputval.ParsePIN(chi.URLParam(r, "pin"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return models.Group{}, false
	}
	g, err := h.Svc.SearchGroupByPIN(ctx, pin)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return models.Group{}, false
	}
	if !allow(g, shared.Actor(r)) {
		h.ErrLog.Write(w, r, forbidden(what))
		return models.Group{}, false
	}
	return g, true
}

func forbidden(what string) error {
	return fmt.Errorf("%w: %s", schedule.ErrForbidden, what)
}
