package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
)

func TestMemory_Identifiers(t *testing.T) {
	m := NewMemory("eng")
	ctx := context.Background()

	epic, err := m.CreateEpic(ctx, tracker.CreateEpicInput{Name: "E", TeamID: "team"})
	if err != nil {
		t.Fatalf("CreateEpic: %v", err)
	}
	f1, _ := m.CreateFeature(ctx, tracker.CreateFeatureInput{Title: "A", EpicID: epic.ID})
	f2, _ := m.CreateFeature(ctx, tracker.CreateFeatureInput{Title: "B", EpicID: epic.ID})
	t1, _ := m.CreateTask(ctx, tracker.CreateTaskInput{Title: "a1", FeatureID: f1.ID})
	t2, _ := m.CreateTask(ctx, tracker.CreateTaskInput{Title: "b1", FeatureID: f2.ID})
	t3, _ := m.CreateTask(ctx, tracker.CreateTaskInput{Title: "a2", FeatureID: f1.ID})

	if f1.Identifier != "ENG-1" || f2.Identifier != "ENG-2" {
		t.Errorf("unexpected feature identifiers %s %s", f1.Identifier, f2.Identifier)
	}
	if t1.Identifier != "ENG-1-1" || t2.Identifier != "ENG-2-1" || t3.Identifier != "ENG-1-2" {
		t.Errorf("unexpected task identifiers %s %s %s", t1.Identifier, t2.Identifier, t3.Identifier)
	}
	if got := m.Tasks(f1.ID); len(got) != 2 || got[1].Title != "a2" {
		t.Errorf("unexpected tasks %+v", got)
	}
	if got := m.Features(epic.ID); len(got) != 2 || got[0].Title != "A" {
		t.Errorf("unexpected features %+v", got)
	}
}

func TestMemory_NotFound(t *testing.T) {
	m := NewMemory("")
	ctx := context.Background()

	if _, err := m.CreateFeature(ctx, tracker.CreateFeatureInput{Title: "A", EpicID: "nope"}); !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := m.AddValidation(ctx, "nope", tracker.Validation{}); !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := m.PreviewTemplate(ctx, "nope", "E"); !errors.Is(err, tracker.ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestMemory_Fault(t *testing.T) {
	m := NewMemory("ENG")
	ctx := context.Background()
	boom := errors.New("boom")
	m.SetFault(func(op string, n int) error {
		if op == OpCreateEpic && n == 1 {
			return boom
		}
		return nil
	})

	if _, err := m.CreateEpic(ctx, tracker.CreateEpicInput{Name: "E"}); !errors.Is(err, boom) {
		t.Fatalf("expected injected fault, got %v", err)
	}
	if _, err := m.CreateEpic(ctx, tracker.CreateEpicInput{Name: "E"}); err != nil {
		t.Fatalf("expected second call to succeed, got %v", err)
	}
	if m.Calls(OpCreateEpic) != 2 || m.TotalCalls() != 2 {
		t.Errorf("unexpected call counts %d/%d", m.Calls(OpCreateEpic), m.TotalCalls())
	}
}

func TestMemory_Annotations(t *testing.T) {
	m := NewMemory("ENG")
	ctx := context.Background()
	epic, _ := m.CreateEpic(ctx, tracker.CreateEpicInput{Name: "E"})
	f, _ := m.CreateFeature(ctx, tracker.CreateFeatureInput{Title: "A", EpicID: epic.ID})
	task, _ := m.CreateTask(ctx, tracker.CreateTaskInput{Title: "t", FeatureID: f.ID})

	if err := m.SetStructuredDescription(ctx, tracker.KindTask, task.ID, tracker.StructuredDescription{Summary: "s"}); err != nil {
		t.Fatal(err)
	}
	if d, ok := m.StructuredDescription(tracker.KindTask, task.ID); !ok || d.Summary != "s" {
		t.Errorf("unexpected descriptor %+v", d)
	}
	if err := m.SetStructuredDescription(ctx, tracker.KindFeature, task.ID, tracker.StructuredDescription{}); err == nil {
		t.Error("expected error for kind mismatch")
	}
	if err := m.AddValidation(ctx, task.ID, tracker.Validation{Type: "manual"}); err != nil {
		t.Fatal(err)
	}
	if len(m.Validations(task.ID)) != 1 {
		t.Error("expected validation stored")
	}
	if _, err := m.UpdateFeature(ctx, f.ID, tracker.UpdateFeatureInput{Description: "new"}); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.Feature(f.ID); got.Description != "new" {
		t.Errorf("expected updated description, got %q", got.Description)
	}
}

func TestMemory_Templates(t *testing.T) {
	m := NewMemory("ENG")
	ctx := context.Background()
	m.RegisterTemplate("crud", tracker.TemplatePreview{Features: []tracker.PreviewFeature{
		{Title: "Model", ExecutionOrder: 1, Tasks: []tracker.PreviewTask{{Title: "Schema", ExecutionOrder: 1}}},
		{Title: "API", ExecutionOrder: 2, Tasks: []tracker.PreviewTask{{Title: "Routes", ExecutionOrder: 1}, {Title: "Tests", ExecutionOrder: 2}}},
	}})

	preview, err := m.PreviewTemplate(ctx, "crud", "Orders")
	if err != nil {
		t.Fatal(err)
	}
	if preview.TemplateName != "crud" || preview.EpicName != "Orders" || len(preview.Features) != 2 {
		t.Errorf("unexpected preview %+v", preview)
	}
	if m.Calls(OpCreateFeature) != 0 {
		t.Error("preview must not create anything")
	}

	res, err := m.CreateFromTemplate(ctx, "crud", "Orders", "team", tracker.TemplateOptions{EpicDescription: "d"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Epic.Name != "Orders" || len(res.Features) != 2 || len(res.Tasks) != 3 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Tasks[2].FeatureID != res.Features[1].ID || res.Tasks[2].Identifier != "ENG-2-2" {
		t.Errorf("unexpected task linkage %+v", res.Tasks[2])
	}
}

func TestMemory_BuiltinTemplates(t *testing.T) {
	m := NewMemory("ENG")
	m.RegisterBuiltinTemplates()

	res, err := m.CreateFromTemplate(context.Background(), "bugfix", "Crash on save", "team", tracker.TemplateOptions{})
	if err != nil {
		t.Fatalf("CreateFromTemplate failed: %v", err)
	}
	if len(res.Features) != 1 || len(res.Tasks) != 3 {
		t.Errorf("unexpected result %d features / %d tasks", len(res.Features), len(res.Tasks))
	}
	if res.Tasks[2].Identifier != "ENG-1-3" {
		t.Errorf("unexpected identifier %q", res.Tasks[2].Identifier)
	}
}
