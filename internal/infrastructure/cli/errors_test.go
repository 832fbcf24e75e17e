package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/spectree/internal/infrastructure/config"
	"github.com/felixgeelhaar/spectree/pkg/application"
	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
	"github.com/felixgeelhaar/spectree/pkg/storage"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		message  string
		hint     string
		exitCode int
	}{
		{"empty prompt", application.ErrEmptyPrompt, "no prompt given", "--file", ExitUsage},
		{"team", fmt.Errorf("generate: %w", application.ErrTeamRequired), "no team selected", "--dry-run", ExitUsage},
		{"template", fmt.Errorf("x: %w", tracker.ErrTemplateNotFound), "template not found", "template name", 1},
		{"no plan", storage.ErrNoPlan, "no plan found", "spectree plan generate", 1},
		{"parsing", planning.NewPlanParsingError("No JSON object found in AI response", "sorry", nil), `response began: "sorry"`, planning.ParsingHint, 1},
		{"config", config.ValidationErrors{{Field: "ai.provider", Message: "unknown"}}, "invalid configuration", "config show", ExitUsage},
		{"partial", &application.MaterializationError{
			Stage:   application.StageCreateTask,
			Entity:  "API",
			Partial: application.PartialPlan{EpicID: "e1", FeatureIDs: []string{"ENG-1"}, TaskIDs: []string{"ENG-1-1"}},
		}, "partially created", "epic e1; features ENG-1; tasks ENG-1-1", ExitPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cliErr *CLIError
			if !errors.As(MapError(tt.err), &cliErr) {
				t.Fatalf("expected CLIError for %v", tt.err)
			}
			if !strings.Contains(cliErr.Message, tt.message) {
				t.Errorf("message = %q, want it to contain %q", cliErr.Message, tt.message)
			}
			if !strings.Contains(cliErr.Hint, tt.hint) {
				t.Errorf("hint = %q, want it to contain %q", cliErr.Hint, tt.hint)
			}
			if cliErr.ExitCode != tt.exitCode {
				t.Errorf("exit code = %d, want %d", cliErr.ExitCode, tt.exitCode)
			}
			if cliErr.Err == nil {
				t.Error("expected the original error to be wrapped")
			}
		})
	}
}

func TestMapError_Passthrough(t *testing.T) {
	if MapError(nil) != nil {
		t.Error("expected nil for nil")
	}
	plain := errors.New("boom")
	if MapError(plain) != plain {
		t.Error("expected unmapped errors to pass through")
	}
}

func TestPartialHint_Empty(t *testing.T) {
	if got := partialHint(application.PartialPlan{}); !strings.Contains(got, "safe to retry") {
		t.Errorf("unexpected hint %q", got)
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Error("expected 0 for nil")
	}
	if ExitCode(errors.New("x")) != 1 {
		t.Error("expected 1 for plain errors")
	}
	if ExitCode(fmt.Errorf("wrapped: %w", &CLIError{ExitCode: ExitPartial})) != ExitPartial {
		t.Error("expected the CLIError exit code")
	}
}
