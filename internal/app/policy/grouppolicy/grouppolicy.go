// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import "github.com/dalemusser/groupsched/internal/domain/models"

// CanView reports whether actor may read the group's schedule and free time.
// Only members can; the PIN lookup itself is public so users can find a group
// before joining.
func CanView(g models.Group, actor string) bool {
	return actor != "" && g.IsMember(actor)
}

// CanContribute reports whether actor may add events and tasks to the group.
func CanContribute(g models.Group, actor string) bool {
	return CanView(g, actor)
}

// CanManage reports whether actor may add members or promote administrators.
func CanManage(g models.Group, actor string) bool {
	return actor != "" && g.IsAdmin(actor)
}

// CanRemove reports whether actor may remove target from the group:
// administrators may remove anyone, and members may remove themselves.
func CanRemove(g models.Group, actor, target string) bool {
	if actor == "" {
		return false
	}
	if actor == target {
		return g.IsMember(actor)
	}
	return g.IsAdmin(actor)
}
