package attendance

import (
	"sort"
	"strings"
)

// DeletedNamePrefix marks directory slots whose employee was soft-deleted.
const DeletedNamePrefix = "Deleted"

// IsPlaceholder reports whether a directory entry is an empty or soft-deleted slot.
func IsPlaceholder(e Employee) bool {
	name := strings.TrimSpace(e.Name)
	return name == "" || strings.HasPrefix(name, DeletedNamePrefix)
}

// Roster drops placeholder slots and orders the rest by slot (ties by ID).
// Inactive employees stay: hours they clocked this month are still owed.
// The input slice is not modified.
func Roster(employees []Employee) []Employee {
	roster := make([]Employee, 0, len(employees))
	for _, e := range employees {
		if IsPlaceholder(e) {
			continue
		}
		roster = append(roster, e)
	}
	sort.SliceStable(roster, func(i, j int) bool {
		if roster[i].Slot != roster[j].Slot {
			return roster[i].Slot < roster[j].Slot
		}
		return roster[i].ID < roster[j].ID
	})
	return roster
}
