package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTemplateNotFound is returned for unknown template names.
	ErrTemplateNotFound = errors.New("template not found")
)

// APIError is an error response from the REST tracker.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: tracker returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// Temporary reports whether the call may succeed if repeated.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// Is maps 404 responses onto ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

// ToolError is returned when a tracker tool call reports an error.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %s", e.Tool, e.Message)
}
