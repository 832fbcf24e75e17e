package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/spectree/pkg/domain"
	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
)

func TestRecordAndLoadEvents(t *testing.T) {
	repo := NewFilesystemRepository(t.TempDir())

	events, err := repo.LoadEvents()
	if err != nil || len(events) != 0 {
		t.Fatalf("expected empty trail before first write, got %v (%v)", events, err)
	}

	ts := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	first := domain.Event{ID: "e1", RunID: "r1", Action: "plan.ai_generation", Timestamp: ts}
	first.Hash = first.CalculateHash()
	second := domain.Event{ID: "e2", RunID: "r1", Action: "plan.materialized", Timestamp: ts, PrevHash: first.Hash}
	second.Hash = second.CalculateHash()

	for _, e := range []domain.Event{first, second} {
		if err := repo.RecordEvent(e); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}

	loaded, err := repo.LoadEvents()
	if err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}
	if len(loaded) != 2 || loaded[1].ID != "e2" {
		t.Fatalf("unexpected events %+v", loaded)
	}
	if loaded[1].CalculateHash() != second.Hash {
		t.Error("expected hash to survive the round trip")
	}
}

func TestLoadEvents_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	repo := NewFilesystemRepository(dir)
	_ = repo.Initialize()
	content := "{\"id\":\"ok\"}\nnot json\n\n"
	if err := os.WriteFile(filepath.Join(dir, SpectreeDir, EventsFile), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	events, err := repo.LoadEvents()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].ID != "ok" {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestRunEvents(t *testing.T) {
	repo := NewFilesystemRepository(t.TempDir())

	if events, err := repo.RunEvents("r1"); err != nil || len(events) != 0 {
		t.Fatalf("expected no run events before first write, got %v (%v)", events, err)
	}

	for _, e := range []domain.Event{
		{ID: "e1", RunID: "r1", Action: "plan.ai_generation"},
		{ID: "e2", RunID: "r2", Action: "plan.dry_run"},
		{ID: "e3", RunID: "r1", Action: "plan.materialized"},
	} {
		if err := repo.RecordEvent(e); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}

	events, err := repo.RunEvents("r1")
	if err != nil {
		t.Fatalf("RunEvents: %v", err)
	}
	if len(events) != 2 || events[0].ID != "e1" || events[1].ID != "e3" {
		t.Errorf("unexpected run events %+v", events)
	}
	if other, _ := repo.RunEvents("missing"); other == nil || len(other) != 0 {
		t.Errorf("expected empty non-nil slice for unknown run, got %#v", other)
	}
}

func TestSaveAndLoadPlan(t *testing.T) {
	repo := NewFilesystemRepository(t.TempDir())

	if _, err := repo.LoadPlan(); !errors.Is(err, ErrNoPlan) {
		t.Fatalf("expected ErrNoPlan, got %v", err)
	}

	plan := &planning.GeneratedPlan{
		Epic:     planning.GeneratedEpic{ID: "e", Name: "Search"},
		Features: []planning.GeneratedFeature{{ID: "f1", Identifier: "ENG-1", ExecutionOrder: 1}},
	}
	plan.Finalize()
	if err := repo.SavePlan(plan); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	loaded, err := repo.LoadPlan()
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if loaded.Epic.Name != "Search" || loaded.TotalFeatures != 1 || loaded.ExecutionOrder[0] != "f1" {
		t.Errorf("unexpected plan %+v", loaded)
	}
}

func TestResolvePath_RejectsTraversal(t *testing.T) {
	repo := NewFilesystemRepository(t.TempDir())
	for _, name := range []string{"", "../secrets", "nested/file.json"} {
		if _, err := repo.ResolvePath(name); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
	if !repo.IsInitialized() {
		if err := repo.Initialize(); err != nil {
			t.Fatal(err)
		}
	}
	if !repo.IsInitialized() {
		t.Error("expected workspace directory to exist")
	}
}
