// internal/app/features/groups/membership.go
package groups

import (
	"context"
	"net/http"

	httperr "github.com/dalemusser/groupsched/internal/app/features/errors"
	"github.com/dalemusser/groupsched/internal/app/features/shared"
	"github.com/dalemusser/groupsched/internal/app/policy/grouppolicy"
	"github.com/dalemusser/groupsched/internal/app/system/normalize"
	"github.com/dalemusser/groupsched/internal/app/system/timeouts"
	"github.com/dalemusser/groupsched/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// HandleAddAdmin handles POST /groups/{pin}/admins with {"userId": "..."}.
func (h *Handler) HandleAddAdmin(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r, grouppolicy.CanManage, "only administrators can promote members")
	if !ok {
		return
	}
	g, err := h.Svc.AssignAdmin(ctx, req.UserID, g.PIN)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, g)
}

// HandleAddMember handles POST /groups/{pin}/members with {"userId": "..."}.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r, grouppolicy.CanManage, "only administrators can add members")
	if !ok {
		return
	}
	g, err := h.Svc.AddMember(ctx, req.UserID, g.PIN)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, g)
}

// HandleRemoveMember handles DELETE /groups/{pin}/members/{userID}.
// Administrators may remove anyone; members may remove themselves.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	target := chi.URLParam(r, "userID")
	allow := func(g models.Group, actor string) bool {
		return grouppolicy.CanRemove(g, actor, normalize.UserID(target))
	}
	g, ok := h.loadGroup(ctx, w, r, allow, "only administrators can remove other members")
	if !ok {
		return
	}
	g, err := h.Svc.RemoveMember(ctx, target, g.PIN)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, g)
}
