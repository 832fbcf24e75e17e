package tracker

import "github.com/felixgeelhaar/spectree/pkg/domain/tracker"

// BuiltinTemplates returns the templates the in-memory tracker ships with.
func BuiltinTemplates() map[string]tracker.TemplatePreview {
	return map[string]tracker.TemplatePreview{
		"crud": {Features: []tracker.PreviewFeature{
			{
				Title: "Data model", ExecutionOrder: 1, Complexity: "simple",
				Tasks: []tracker.PreviewTask{
					{Title: "Define schema", ExecutionOrder: 1, Complexity: "simple"},
					{Title: "Write migration", ExecutionOrder: 2, Complexity: "simple"},
				},
			},
			{
				Title: "API", ExecutionOrder: 2, CanParallelize: true, ParallelGroup: "surface", Complexity: "moderate",
				Tasks: []tracker.PreviewTask{
					{Title: "Create and update endpoints", ExecutionOrder: 1, Complexity: "moderate"},
					{Title: "List and delete endpoints", ExecutionOrder: 1, CanParallelize: true, ParallelGroup: "endpoints", Complexity: "simple"},
				},
			},
			{
				Title: "Admin UI", ExecutionOrder: 2, CanParallelize: true, ParallelGroup: "surface", Complexity: "moderate",
				Tasks: []tracker.PreviewTask{
					{Title: "List view", ExecutionOrder: 1, Complexity: "simple"},
					{Title: "Edit form", ExecutionOrder: 2, Complexity: "moderate"},
				},
			},
		}},
		"bugfix": {Features: []tracker.PreviewFeature{
			{
				Title: "Fix", ExecutionOrder: 1, Complexity: "simple",
				Tasks: []tracker.PreviewTask{
					{Title: "Reproduce with a failing test", ExecutionOrder: 1, Complexity: "simple"},
					{Title: "Patch the defect", ExecutionOrder: 2, Complexity: "simple"},
					{Title: "Add regression coverage", ExecutionOrder: 3, Complexity: "trivial"},
				},
			},
		}},
	}
}

// RegisterBuiltinTemplates registers every built-in template on m.
func (m *Memory) RegisterBuiltinTemplates() {
	for name, t := range BuiltinTemplates() {
		m.RegisterTemplate(name, t)
	}
}
