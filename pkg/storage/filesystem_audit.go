package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/felixgeelhaar/spectree/pkg/domain"
)

// maxEventLine bounds a single JSONL audit record.
const maxEventLine = 1 << 20

// RecordEvent appends event to the workspace audit log, creating the
// workspace on first use.
func (r *FilesystemRepository) RecordEvent(event domain.Event) error {
	if err := r.Initialize(); err != nil {
		return err
	}
	path, err := r.ResolvePath(EventsFile)
	if err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event %s: %w", event.ID, err)
	}

	// #nosec G304 -- path comes from ResolvePath
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append audit event %s: %w", event.ID, err)
	}
	return nil
}

// LoadEvents returns every decodable event in the audit log. A workspace
// without a log yields an empty slice.
func (r *FilesystemRepository) LoadEvents() ([]domain.Event, error) {
	return r.scanEvents(func(domain.Event) bool { return true })
}

// RunEvents returns the events recorded for runID.
func (r *FilesystemRepository) RunEvents(runID string) ([]domain.Event, error) {
	return r.scanEvents(func(e domain.Event) bool { return e.RunID == runID })
}

// scanEvents streams the audit log line by line, keeping events that match.
// Malformed lines are skipped so one torn write does not hide the rest of the trail.
func (r *FilesystemRepository) scanEvents(keep func(domain.Event) bool) ([]domain.Event, error) {
	path, err := r.ResolvePath(EventsFile)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- path comes from ResolvePath
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	events := []domain.Event{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventLine)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e domain.Event
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		if keep(e) {
			events = append(events, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return events, nil
}
