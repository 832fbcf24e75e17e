package planning

import (
	"fmt"
	"strconv"
	"strings"
)

// ParallelLabel renders the "Parallel" column of a schedule table.
func ParallelLabel(s Slot) string {
	switch {
	case s.CanParallelize && s.Group != "":
		return fmt.Sprintf("Yes (group: `%s`)", s.Group)
	case s.CanParallelize:
		return "Yes"
	case len(s.Dependencies) > 0:
		return "No - depends on " + joinInts(s.Dependencies)
	default:
		return "No"
	}
}

// FeaturePlaceholder is the stand-in shown before a feature has an identifier.
func FeaturePlaceholder(position int) string {
	return fmt.Sprintf("_(Feature %d)_", position)
}

// TaskPlaceholder is the stand-in shown before a task has an identifier.
func TaskPlaceholder(position int) string {
	return fmt.Sprintf("_(Task %d)_", position)
}

// RenderEpicDescription renders the epic body. It always uses the placeholder pass
// because no feature exists yet when the epic is created.
func RenderEpicDescription(resp *PlannerResponse) string {
	var b strings.Builder
	if resp.EpicDescription != "" {
		b.WriteString(resp.EpicDescription)
		b.WriteString("\n\n")
	}

	slots := make([]Slot, len(resp.Features))
	names := make([]string, len(resp.Features))
	for i, f := range resp.Features {
		slots[i] = FeatureSlot(f)
		names[i] = f.Title
	}

	b.WriteString("## Execution Plan\n\n")
	b.WriteString("| Order | Feature | Identifier | Parallel |\n")
	b.WriteString("|-------|---------|------------|----------|\n")
	for _, i := range orderedIndexes(slots) {
		f := resp.Features[i]
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", f.ExecutionOrder, escapeCell(f.Title), FeaturePlaceholder(i+1), ParallelLabel(slots[i]))
	}
	b.WriteString("\n")

	writeSummary(&b, slots, names, nil)
	writeInstructions(&b, resp.Instructions)
	writeFooter(&b, resp.RiskLevel, resp.EstimatedEffort, "")
	return trimTrailing(b.String())
}

// RenderFeatureDescription renders a feature body.
//
// With identifiers == nil this is the placeholder pass: tasks are shown with
// position placeholders and the summary uses titles. Once tasks exist, pass their
// identifiers (identifiers[i] belongs to f.Tasks[i]) for the final pass; only the
// task table and the schedule summary differ between the two.
func RenderFeatureDescription(f PlannedFeature, identifiers []string) string {
	final := identifiers != nil

	var b strings.Builder
	if f.Description != "" {
		b.WriteString(f.Description)
		b.WriteString("\n\n")
	}

	if len(f.Tasks) > 0 {
		slots := make([]Slot, len(f.Tasks))
		names := make([]string, len(f.Tasks))
		for i, t := range f.Tasks {
			slots[i] = TaskSlot(t)
			if final {
				names[i] = identifierAt(identifiers, i)
			} else {
				names[i] = t.Title
			}
		}

		b.WriteString("## Tasks\n\n")
		b.WriteString("| Order | Identifier | Title | Parallel |\n")
		b.WriteString("|-------|------------|-------|----------|\n")
		for _, i := range orderedIndexes(slots) {
			t := f.Tasks[i]
			id := TaskPlaceholder(i + 1)
			if final {
				id = identifierAt(identifiers, i)
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", t.ExecutionOrder, id, escapeCell(t.Title), ParallelLabel(slots[i]))
		}
		b.WriteString("\n")

		var depNames map[int]string
		if final {
			depNames = make(map[int]string, len(f.Tasks))
			for i, t := range f.Tasks {
				if _, ok := depNames[t.ExecutionOrder]; !ok {
					depNames[t.ExecutionOrder] = identifierAt(identifiers, i)
				}
			}
		}
		writeSummary(&b, slots, names, depNames)
	}

	writeInstructions(&b, f.Instructions)
	writeFooter(&b, f.RiskLevel, f.EstimatedEffort, f.Complexity)
	return trimTrailing(b.String())
}

// RenderTaskDescription renders a task body.
func RenderTaskDescription(t PlannedTask) string {
	var b strings.Builder
	if t.Description != "" {
		b.WriteString(t.Description)
		b.WriteString("\n\n")
	}
	if len(t.Validations) > 0 {
		b.WriteString("## Validations\n\n")
		for _, v := range t.Validations {
			fmt.Fprintf(&b, "- **%s**: %s\n", v.Type, v.Description)
		}
		b.WriteString("\n")
	}
	writeInstructions(&b, t.Instructions)
	writeFooter(&b, t.RiskLevel, t.EstimatedEffort, t.Complexity)
	return trimTrailing(b.String())
}

// writeSummary lists parallel groups and sequential items. depNames, when set,
// rewrites dependency ordinals as identifiers; unknown ordinals are skipped.
func writeSummary(b *strings.Builder, slots []Slot, names []string, depNames map[int]string) {
	s := Summarize(slots)

	if len(s.Groups) > 0 || len(s.Ungrouped) > 0 {
		b.WriteString("### Parallel Groups\n\n")
		for _, g := range s.Groups {
			fmt.Fprintf(b, "- `%s`: %s\n", g.Name, strings.Join(pick(names, g.Members), ", "))
		}
		if len(s.Ungrouped) > 0 {
			fmt.Fprintf(b, "- _(any)_: %s\n", strings.Join(pick(names, s.Ungrouped), ", "))
		}
		b.WriteString("\n")
	}

	if len(s.Sequential) > 0 {
		b.WriteString("### Sequential\n\n")
		for _, i := range s.Sequential {
			line := "- " + names[i]
			if deps := dependencyNames(slots[i].Dependencies, depNames); deps != "" {
				line += " (after " + deps + ")"
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
}

func dependencyNames(deps []int, depNames map[int]string) string {
	if len(deps) == 0 {
		return ""
	}
	if depNames == nil {
		return joinInts(deps)
	}
	var names []string
	for _, d := range deps {
		if n, ok := depNames[d]; ok {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

func writeInstructions(b *strings.Builder, in Instructions) {
	if in.AIInstructions != "" {
		b.WriteString("## AI Instructions\n\n")
		b.WriteString(in.AIInstructions)
		b.WriteString("\n\n")
	}
	if len(in.AcceptanceCriteria) > 0 {
		b.WriteString("## Acceptance Criteria\n\n")
		for _, c := range in.AcceptanceCriteria {
			b.WriteString("- [ ] " + c + "\n")
		}
		b.WriteString("\n")
	}
	if len(in.FilesInvolved) > 0 {
		b.WriteString("## Files Involved\n\n")
		for _, f := range in.FilesInvolved {
			b.WriteString("- `" + f + "`\n")
		}
		b.WriteString("\n")
	}
	if in.TechnicalNotes != "" {
		b.WriteString("## Technical Notes\n\n")
		b.WriteString(in.TechnicalNotes)
		b.WriteString("\n\n")
	}
}

func writeFooter(b *strings.Builder, risk RiskLevel, effort EstimatedEffort, complexity Complexity) {
	var parts []string
	if risk != "" {
		parts = append(parts, "**Risk:** "+string(risk))
	}
	if effort != "" {
		parts = append(parts, "**Effort:** "+string(effort))
	}
	if complexity != "" {
		parts = append(parts, "**Complexity:** "+string(complexity))
	}
	if len(parts) == 0 {
		return
	}
	b.WriteString("---\n\n")
	b.WriteString(strings.Join(parts, " | "))
	b.WriteString("\n")
}

func orderedIndexes(slots []Slot) []int {
	idx := make([]int, len(slots))
	for i := range idx {
		idx[i] = i
	}
	return SortByOrder(idx, func(i int) int { return slots[i].Order })
}

func identifierAt(identifiers []string, i int) string {
	if i < len(identifiers) && identifiers[i] != "" {
		return identifiers[i]
	}
	return TaskPlaceholder(i + 1)
}

func pick(names []string, idx []int) []string {
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, names[i])
	}
	return out
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func trimTrailing(s string) string {
	return strings.TrimRight(s, "\n") + "\n"
}
