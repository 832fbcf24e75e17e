package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/spectree/internal/infrastructure/config"
	"github.com/felixgeelhaar/spectree/pkg/application"
	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
	"github.com/felixgeelhaar/spectree/pkg/storage"
)

// Exit codes beyond the generic failure.
const (
	ExitUsage   = 2
	ExitPartial = 3
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var perr *planning.PlanParsingError
	if errors.As(err, &perr) {
		msg := "could not build a plan from the AI response"
		if perr.RawExcerpt != "" {
			msg += fmt.Sprintf(" (response began: %q)", planning.Truncate(perr.RawExcerpt, 80))
		}
		return NewCLIError(msg, perr.Hint, err)
	}

	var merr *application.MaterializationError
	if errors.As(err, &merr) {
		cliErr := NewCLIError("plan was only partially created", partialHint(merr.Partial), err)
		cliErr.ExitCode = ExitPartial
		return cliErr
	}

	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		cliErr := NewCLIError("invalid configuration", "Run 'spectree config show' to inspect the effective settings", err)
		cliErr.ExitCode = ExitUsage
		return cliErr
	}

	switch {
	case errors.Is(err, application.ErrEmptyPrompt):
		return &CLIError{Message: "no prompt given", Hint: "Pass the request as an argument or use --file", Err: err, ExitCode: ExitUsage}
	case errors.Is(err, application.ErrTeamRequired):
		return &CLIError{Message: "no team selected", Hint: "Pass --team-id, or use --dry-run to preview without a tracker", Err: err, ExitCode: ExitUsage}
	case errors.Is(err, tracker.ErrTemplateNotFound):
		return NewCLIError("template not found", "Check the template name configured in your tracker", err)
	case errors.Is(err, storage.ErrNoPlan):
		return NewCLIError("no plan found", "Run 'spectree plan generate' first", err)
	}

	return err
}

func partialHint(p application.PartialPlan) string {
	if p.IsEmpty() {
		return "Nothing was created in the tracker; it is safe to retry"
	}
	var parts []string
	if p.EpicID != "" {
		parts = append(parts, "epic "+p.EpicID)
	}
	if len(p.FeatureIDs) > 0 {
		parts = append(parts, "features "+strings.Join(p.FeatureIDs, ", "))
	}
	if len(p.TaskIDs) > 0 {
		parts = append(parts, "tasks "+strings.Join(p.TaskIDs, ", "))
	}
	return "Already created: " + strings.Join(parts, "; ") + ". Remove them before retrying"
}
