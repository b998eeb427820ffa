// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// UserID trims and lower-cases a user id so lookups are case-insensitive.
func UserID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role trims and lower-cases a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Progress trims, lower-cases, and collapses inner whitespace, so
// "In   Progress" becomes "in progress".
func Progress(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// UserIDs normalizes every id and drops blanks and duplicates, keeping the
// first occurrence order.
func UserIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = UserID(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
