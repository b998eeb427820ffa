// internal/app/policy/taskpolicy/taskpolicy.go
package taskpolicy

import "github.com/dalemusser/groupsched/internal/domain/models"

// CanUpdateProgress reports whether actor may change the progress of a group
// task: group administrators and the task's assignees may.
func CanUpdateProgress(g models.Group, t models.Task, actor string) bool {
	if actor == "" {
		return false
	}
	return g.IsAdmin(actor) || t.IsAssigned(actor)
}

// CanAssign reports whether every assignee belongs to the group. It returns
// the first id that does not.
func CanAssign(g models.Group, assignees []string) (string, bool) {
	for _, id := range assignees {
		if !g.IsMember(id) {
			return id, false
		}
	}
	return "", true
}
