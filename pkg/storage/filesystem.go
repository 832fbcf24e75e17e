package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/spectree/pkg/domain"
	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
)

const SpectreeDir = ".spectree"
const EventsFile = "events.jsonl"
const LastPlanFile = "last_plan.json"
const DeadLettersFile = "dead_letters.jsonl"

// ErrNoPlan is returned by LoadPlan before any plan was saved.
var ErrNoPlan = errors.New("no saved plan")

// FilesystemRepository keeps the audit trail and the last generated plan
// under <root>/.spectree.
type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

var _ domain.AuditStore = (*FilesystemRepository)(nil)

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// ResolvePath ensures the path is within the .spectree directory and prevents traversal.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := filepath.Join(r.root, SpectreeDir)
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	path := filepath.Join(r.root, SpectreeDir)
	// G301: Use 0700 for directories
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", SpectreeDir, err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, SpectreeDir))
	return err == nil
}

// SavePlan overwrites the last generated plan.
func (r *FilesystemRepository) SavePlan(plan *planning.GeneratedPlan) error {
	if err := r.Initialize(); err != nil {
		return err
	}
	path, err := r.ResolvePath(LastPlanFile)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	// G306: Use 0600 for files
	return os.WriteFile(path, data, 0600)
}

func (r *FilesystemRepository) LoadPlan() (*planning.GeneratedPlan, error) {
	var missing bool
	retryer := retry.New[*planning.GeneratedPlan](r.retryConfig)

	plan, err := retryer.Do(context.Background(), func(ctx context.Context) (*planning.GeneratedPlan, error) {
		path, err := r.ResolvePath(LastPlanFile)
		if err != nil {
			return nil, err
		}

		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				missing = true
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read plan file: %w", err)
		}

		var p planning.GeneratedPlan
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
		}
		return &p, nil
	})
	if missing {
		return nil, ErrNoPlan
	}
	return plan, err
}
