package domain

import "sync"

// AuditStore persists audit events in order.
type AuditStore interface {
	RecordEvent(event Event) error
	LoadEvents() ([]Event, error)
	// RunEvents returns the events of one generation run, in recording order.
	RunEvents(runID string) ([]Event, error)
}

// MemoryAuditStore keeps events for the lifetime of the process.
type MemoryAuditStore struct {
	mu     sync.Mutex
	events []Event
	byRun  map[string][]int
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{byRun: make(map[string][]int)}
}

func (s *MemoryAuditStore) RecordEvent(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.RunID != "" {
		if s.byRun == nil {
			s.byRun = make(map[string][]int)
		}
		s.byRun[event.RunID] = append(s.byRun[event.RunID], len(s.events))
	}
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryAuditStore) LoadEvents() ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...), nil
}

func (s *MemoryAuditStore) RunEvents(runID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.byRun[runID]
	out := make([]Event, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.events[i])
	}
	return out, nil
}
