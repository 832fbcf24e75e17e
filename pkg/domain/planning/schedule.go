package planning

import "sort"

// Slot is the scheduling view of a feature or task, independent of its identity.
type Slot struct {
	Order          int
	CanParallelize bool
	Group          string
	Dependencies   []int
}

// CanRunConcurrently reports whether two siblings may be worked at the same time:
// both must allow it, and when both name a group the groups must match.
func CanRunConcurrently(a, b Slot) bool {
	if !a.CanParallelize || !b.CanParallelize {
		return false
	}
	if a.Group != "" && b.Group != "" {
		return a.Group == b.Group
	}
	return true
}

// FeatureSlot returns the scheduling view of a planned feature.
func FeatureSlot(f PlannedFeature) Slot {
	return Slot{Order: f.ExecutionOrder, CanParallelize: f.CanParallelize, Group: f.ParallelGroup, Dependencies: f.Dependencies}
}

// TaskSlot returns the scheduling view of a planned task.
func TaskSlot(t PlannedTask) Slot {
	return Slot{Order: t.ExecutionOrder, CanParallelize: t.CanParallelize, Group: t.ParallelGroup, Dependencies: t.Dependencies}
}

// SortByOrder returns a copy of items stably sorted by ascending order.
// Ties keep source order; execution order is advisory, not a total order.
func SortByOrder[T any](items []T, order func(T) int) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return order(sorted[i]) < order(sorted[j])
	})
	return sorted
}

// DistinctGroups returns each non-empty group label once, in first-seen order.
func DistinctGroups[T any](items []T, group func(T) string) []string {
	seen := make(map[string]bool)
	groups := []string{}
	for _, item := range items {
		g := group(item)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		groups = append(groups, g)
	}
	return groups
}

// ExecutionOrder returns feature IDs sorted by planned execution order.
func ExecutionOrder(features []GeneratedFeature) []string {
	sorted := SortByOrder(features, func(f GeneratedFeature) int { return f.ExecutionOrder })
	ids := make([]string, 0, len(sorted))
	for _, f := range sorted {
		ids = append(ids, f.ID)
	}
	return ids
}

// ParallelGroupsOf returns the distinct parallel groups used by features.
func ParallelGroupsOf(features []GeneratedFeature) []string {
	return DistinctGroups(features, func(f GeneratedFeature) string { return f.ParallelGroup })
}

// IdentifierMap maps planner ordinals to identifiers assigned at creation time.
// It is filled incrementally, so a lookup only sees items created before it.
type IdentifierMap struct {
	ids map[int]string
}

// NewIdentifierMap returns an empty map.
func NewIdentifierMap() *IdentifierMap {
	return &IdentifierMap{ids: make(map[int]string)}
}

// Record stores the identifier for an ordinal. The first identifier recorded for
// an ordinal wins, which keeps duplicate execution orders pointing at the earliest item.
func (m *IdentifierMap) Record(ordinal int, id string) {
	if _, exists := m.ids[ordinal]; exists {
		return
	}
	m.ids[ordinal] = id
}

// Lookup returns the identifier recorded for ordinal.
func (m *IdentifierMap) Lookup(ordinal int) (string, bool) {
	id, ok := m.ids[ordinal]
	return id, ok
}

// Resolve maps ordinals to identifiers, silently dropping ordinals that are unknown.
func (m *IdentifierMap) Resolve(ordinals []int) []string {
	resolved := make([]string, 0, len(ordinals))
	for _, o := range ordinals {
		if id, ok := m.ids[o]; ok {
			resolved = append(resolved, id)
		}
	}
	return resolved
}

// Len returns the number of recorded ordinals.
func (m *IdentifierMap) Len() int {
	return len(m.ids)
}

// GroupSummary lists the members of one parallel group.
type GroupSummary struct {
	Name    string
	Members []int // indexes into the summarized slice
}

// Summary partitions siblings into parallel groups and sequential items.
type Summary struct {
	Groups []GroupSummary
	// Ungrouped holds items that may run in parallel but name no group.
	Ungrouped []int
	// Sequential holds items that must run on their own.
	Sequential []int
}

// Summarize builds a Summary of slots. Members are listed in execution order.
func Summarize(slots []Slot) Summary {
	idx := make([]int, len(slots))
	for i := range slots {
		idx[i] = i
	}
	ordered := SortByOrder(idx, func(i int) int { return slots[i].Order })

	var s Summary
	groupPos := make(map[string]int)
	for _, i := range ordered {
		slot := slots[i]
		switch {
		case slot.CanParallelize && slot.Group != "":
			pos, ok := groupPos[slot.Group]
			if !ok {
				pos = len(s.Groups)
				groupPos[slot.Group] = pos
				s.Groups = append(s.Groups, GroupSummary{Name: slot.Group})
			}
			s.Groups[pos].Members = append(s.Groups[pos].Members, i)
		case slot.CanParallelize:
			s.Ungrouped = append(s.Ungrouped, i)
		default:
			s.Sequential = append(s.Sequential, i)
		}
	}
	return s
}
