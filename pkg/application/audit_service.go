package application

import (
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/spectree/pkg/domain"
	"github.com/google/uuid"
)

// AuditService appends hash-chained events to a store.
type AuditService struct {
	store domain.AuditStore
	runID string
	mu    *sync.Mutex
}

// Compile-time check that AuditService implements AuditLogger
var _ domain.AuditLogger = (*AuditService)(nil)

func NewAuditService(store domain.AuditStore) *AuditService {
	return &AuditService{store: store, mu: &sync.Mutex{}}
}

// ForRun returns a logger that stamps every event with runID.
// It shares the store and the chain with s.
func (s *AuditService) ForRun(runID string) *AuditService {
	return &AuditService{store: s.store, runID: runID, mu: s.mu}
}

func (s *AuditService) Log(action string, actor string, metadata map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Get the latest event to continue the hash chain
	events, err := s.store.LoadEvents()
	if err != nil {
		return fmt.Errorf("load audit trail: %w", err)
	}
	prevHash := ""
	if len(events) > 0 {
		prevHash = events[len(events)-1].Hash
	}

	event := domain.Event{
		ID:        uuid.New().String(),
		RunID:     s.runID,
		Timestamp: time.Now(),
		Action:    action,
		Actor:     actor,
		Metadata:  metadata,
		PrevHash:  prevHash,
	}
	event.Hash = event.CalculateHash()

	return s.store.RecordEvent(event)
}

func (s *AuditService) GetTimeline() ([]domain.Event, error) {
	return s.store.LoadEvents()
}

// RunTimeline returns the events recorded for one run, in order.
func (s *AuditService) RunTimeline(runID string) ([]domain.Event, error) {
	return s.store.RunEvents(runID)
}

func (s *AuditService) VerifyIntegrity() ([]string, error) {
	events, err := s.store.LoadEvents()
	if err != nil {
		return nil, err
	}

	var violations []string
	lastHash := ""

	for i, e := range events {
		if e.PrevHash != lastHash {
			violations = append(violations, fmt.Sprintf("Event %d (%s): PrevHash mismatch. Audit trail broken.", i, e.ID))
		}
		if e.Hash != e.CalculateHash() {
			violations = append(violations, fmt.Sprintf("Event %d (%s): Content hash mismatch. Possible tampering.", i, e.ID))
		}
		lastHash = e.Hash
	}

	return violations, nil
}
