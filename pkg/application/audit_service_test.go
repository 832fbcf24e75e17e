package application_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/spectree/pkg/application"
	"github.com/felixgeelhaar/spectree/pkg/domain"
)

type failingStore struct {
	domain.MemoryAuditStore
	err error
}

func (s *failingStore) RecordEvent(domain.Event) error { return s.err }

func TestAuditService_LogChainsEvents(t *testing.T) {
	store := domain.NewMemoryAuditStore()
	svc := application.NewAuditService(store)

	if err := svc.Log("plan.ai_generation", domain.ActorAI, map[string]interface{}{"model": "m"}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if err := svc.ForRun("run-1").Log("plan.materialized", domain.ActorSystem, nil); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, _ := svc.GetTimeline()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].PrevHash != events[0].Hash {
		t.Error("expected second event to chain to the first")
	}
	if events[1].RunID != "run-1" {
		t.Errorf("expected run ID to be stamped, got %q", events[1].RunID)
	}

	run, _ := svc.RunTimeline("run-1")
	if len(run) != 1 || run[0].Action != "plan.materialized" {
		t.Errorf("unexpected run timeline %+v", run)
	}

	violations, err := svc.VerifyIntegrity()
	if err != nil || len(violations) != 0 {
		t.Errorf("expected intact chain, got %v (%v)", violations, err)
	}
}

func TestAuditService_VerifyIntegrity_Tampered(t *testing.T) {
	store := domain.NewMemoryAuditStore()
	svc := application.NewAuditService(store)
	_ = svc.Log("a", domain.ActorSystem, nil)
	_ = svc.Log("b", domain.ActorSystem, nil)

	events, _ := store.LoadEvents()
	tampered := domain.NewMemoryAuditStore()
	events[0].Action = "rewritten"
	for _, e := range events {
		_ = tampered.RecordEvent(e)
	}

	violations, _ := application.NewAuditService(tampered).VerifyIntegrity()
	if len(violations) != 1 || !strings.Contains(violations[0], "Content hash mismatch") {
		t.Errorf("expected a content hash violation, got %v", violations)
	}
}

func TestAuditService_Error(t *testing.T) {
	svc := application.NewAuditService(&failingStore{err: errors.New("audit fail")})
	if err := svc.Log("act", "actor", nil); err == nil {
		t.Error("expected error on save fail")
	}
}
