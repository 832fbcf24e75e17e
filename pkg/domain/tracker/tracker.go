// Package tracker describes the project-tracking backend that plans are
// materialized into. Only creation and annotation calls are modelled.
package tracker

import "context"

// Kind names the entity a structured description is attached to.
type Kind string

const (
	KindEpic    Kind = "epic"
	KindFeature Kind = "feature"
	KindTask    Kind = "task"
)

type Epic struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Feature struct {
	ID             string   `json:"id"`
	Identifier     string   `json:"identifier"`
	EpicID         string   `json:"epicId,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	ExecutionOrder int      `json:"executionOrder"`
	CanParallelize bool     `json:"canParallelize"`
	ParallelGroup  string   `json:"parallelGroup,omitempty"`
	Complexity     string   `json:"estimatedComplexity,omitempty"`
	Dependencies   []string `json:"dependencies,omitempty"`
}

type Task struct {
	ID             string   `json:"id"`
	Identifier     string   `json:"identifier"`
	FeatureID      string   `json:"featureId"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	ExecutionOrder int      `json:"executionOrder"`
	CanParallelize bool     `json:"canParallelize"`
	ParallelGroup  string   `json:"parallelGroup,omitempty"`
	Complexity     string   `json:"estimatedComplexity,omitempty"`
	Dependencies   []string `json:"dependencies,omitempty"`
}

type CreateEpicInput struct {
	Name        string `json:"name"`
	TeamID      string `json:"teamId"`
	Description string `json:"description,omitempty"`
}

// CreateFeatureInput creates a feature. Dependencies are the tracker IDs
// of features that already exist.
type CreateFeatureInput struct {
	Title          string   `json:"title"`
	EpicID         string   `json:"epicId"`
	Description    string   `json:"description,omitempty"`
	ExecutionOrder int      `json:"executionOrder"`
	CanParallelize bool     `json:"canParallelize"`
	Complexity     string   `json:"estimatedComplexity"`
	ParallelGroup  string   `json:"parallelGroup,omitempty"`
	Dependencies   []string `json:"dependencies,omitempty"`
}

// CreateTaskInput creates a task. Dependencies are the tracker IDs of
// sibling tasks that already exist.
type CreateTaskInput struct {
	Title          string   `json:"title"`
	FeatureID      string   `json:"featureId"`
	Description    string   `json:"description,omitempty"`
	ExecutionOrder int      `json:"executionOrder"`
	Complexity     string   `json:"estimatedComplexity"`
	CanParallelize bool     `json:"canParallelize"`
	ParallelGroup  string   `json:"parallelGroup,omitempty"`
	Dependencies   []string `json:"dependencies,omitempty"`
}

type UpdateFeatureInput struct {
	Description string `json:"description"`
}

// StructuredDescription is the machine-readable companion of a Markdown description.
type StructuredDescription struct {
	Summary            string   `json:"summary"`
	AIInstructions     string   `json:"aiInstructions,omitempty"`
	AcceptanceCriteria []string `json:"acceptanceCriteria,omitempty"`
	FilesInvolved      []string `json:"filesInvolved,omitempty"`
	TechnicalNotes     string   `json:"technicalNotes,omitempty"`
	RiskLevel          string   `json:"riskLevel,omitempty"`
	EstimatedEffort    string   `json:"estimatedEffort,omitempty"`
}

// Validation is a completion check attached to a task.
type Validation struct {
	Type             string `json:"type"`
	Description      string `json:"description"`
	Command          string `json:"command,omitempty"`
	ExpectedExitCode *int   `json:"expectedExitCode,omitempty"`
	TimeoutMs        *int   `json:"timeoutMs,omitempty"`
	FilePath         string `json:"filePath,omitempty"`
	SearchPattern    string `json:"searchPattern,omitempty"`
	TestCommand      string `json:"testCommand,omitempty"`
}

// TemplatePreview is what a template would create, without identities.
type TemplatePreview struct {
	TemplateName string           `json:"templateName"`
	EpicName     string           `json:"epicName"`
	Features     []PreviewFeature `json:"features"`
}

type PreviewFeature struct {
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	ExecutionOrder int           `json:"executionOrder"`
	CanParallelize bool          `json:"canParallelize"`
	ParallelGroup  string        `json:"parallelGroup,omitempty"`
	Complexity     string        `json:"estimatedComplexity,omitempty"`
	Tasks          []PreviewTask `json:"tasks"`
}

type PreviewTask struct {
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	ExecutionOrder int    `json:"executionOrder"`
	CanParallelize bool   `json:"canParallelize"`
	ParallelGroup  string `json:"parallelGroup,omitempty"`
	Complexity     string `json:"estimatedComplexity,omitempty"`
}

type TemplateOptions struct {
	EpicDescription string `json:"epicDescription,omitempty"`
}

// TemplateResult is the flat result of instantiating a template.
// Tasks reference their feature through FeatureID.
type TemplateResult struct {
	Epic     Epic      `json:"epic"`
	Features []Feature `json:"features"`
	Tasks    []Task    `json:"tasks"`
}

// Client is the tracker collaborator. Every call is a single round trip.
type Client interface {
	CreateEpic(ctx context.Context, in CreateEpicInput) (*Epic, error)
	CreateFeature(ctx context.Context, in CreateFeatureInput) (*Feature, error)
	UpdateFeature(ctx context.Context, id string, in UpdateFeatureInput) (*Feature, error)
	CreateTask(ctx context.Context, in CreateTaskInput) (*Task, error)
	SetStructuredDescription(ctx context.Context, kind Kind, id string, desc StructuredDescription) error
	AddValidation(ctx context.Context, taskID string, v Validation) error
	PreviewTemplate(ctx context.Context, name, epicName string) (*TemplatePreview, error)
	CreateFromTemplate(ctx context.Context, name, epicName, teamID string, opts TemplateOptions) (*TemplateResult, error)
}
