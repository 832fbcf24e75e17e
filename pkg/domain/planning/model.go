package planning

// Instructions are the optional guidance fields an epic, feature or task may carry.
type Instructions struct {
	AIInstructions     string          `json:"aiInstructions,omitempty" yaml:"ai_instructions,omitempty"`
	AcceptanceCriteria []string        `json:"acceptanceCriteria,omitempty" yaml:"acceptance_criteria,omitempty"`
	FilesInvolved      []string        `json:"filesInvolved,omitempty" yaml:"files_involved,omitempty"`
	TechnicalNotes     string          `json:"technicalNotes,omitempty" yaml:"technical_notes,omitempty"`
	RiskLevel          RiskLevel       `json:"riskLevel,omitempty" yaml:"risk_level,omitempty"`
	EstimatedEffort    EstimatedEffort `json:"estimatedEffort,omitempty" yaml:"estimated_effort,omitempty"`
}

// IsZero reports whether no instructional field is set.
func (i Instructions) IsZero() bool {
	return i.AIInstructions == "" &&
		len(i.AcceptanceCriteria) == 0 &&
		len(i.FilesInvolved) == 0 &&
		i.TechnicalNotes == "" &&
		i.RiskLevel == "" &&
		i.EstimatedEffort == ""
}

// ValidationCheck is a machine- or human-verifiable completion check attached to a task.
type ValidationCheck struct {
	Type             ValidationType `json:"type" yaml:"type"`
	Description      string         `json:"description" yaml:"description"`
	Command          string         `json:"command,omitempty" yaml:"command,omitempty"`
	ExpectedExitCode *int           `json:"expectedExitCode,omitempty" yaml:"expected_exit_code,omitempty"`
	TimeoutMs        *int           `json:"timeoutMs,omitempty" yaml:"timeout_ms,omitempty"`
	FilePath         string         `json:"filePath,omitempty" yaml:"file_path,omitempty"`
	SearchPattern    string         `json:"searchPattern,omitempty" yaml:"search_pattern,omitempty"`
	TestCommand      string         `json:"testCommand,omitempty" yaml:"test_command,omitempty"`
}

// PlannedTask is a validated task as proposed by the planner.
// Dependencies hold sibling task ExecutionOrder values, not array positions.
type PlannedTask struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Complexity     Complexity        `json:"complexity"`
	ExecutionOrder int               `json:"executionOrder"`
	CanParallelize bool              `json:"canParallelize"`
	ParallelGroup  string            `json:"parallelGroup,omitempty"`
	Dependencies   []int             `json:"dependencies"`
	Validations    []ValidationCheck `json:"validations,omitempty"`
	Instructions
}

// PlannedFeature is a validated feature as proposed by the planner.
// Dependencies hold other features' ExecutionOrder values.
type PlannedFeature struct {
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	ExecutionOrder int           `json:"executionOrder"`
	CanParallelize bool          `json:"canParallelize"`
	ParallelGroup  string        `json:"parallelGroup,omitempty"`
	Complexity     Complexity    `json:"complexity"`
	Dependencies   []int         `json:"dependencies"`
	Tasks          []PlannedTask `json:"tasks"`
	Instructions
}

// PlannerResponse is the validated form of the planner's output. It always has at least one feature.
type PlannerResponse struct {
	EpicName        string           `json:"epicName"`
	EpicDescription string           `json:"epicDescription"`
	Features        []PlannedFeature `json:"features"`
	Instructions
}

// TaskCount returns the total number of planned tasks across all features.
func (r *PlannerResponse) TaskCount() int {
	n := 0
	for _, f := range r.Features {
		n += len(f.Tasks)
	}
	return n
}

// GeneratedEpic is the epic as created by the tracker.
type GeneratedEpic struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// GeneratedTask mirrors PlannedTask with tracker-assigned identity.
type GeneratedTask struct {
	ID             string     `json:"id" yaml:"id"`
	Identifier     string     `json:"identifier" yaml:"identifier"`
	Title          string     `json:"title" yaml:"title"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	ExecutionOrder int        `json:"executionOrder" yaml:"execution_order"`
	CanParallelize bool       `json:"canParallelize" yaml:"can_parallelize"`
	ParallelGroup  string     `json:"parallelGroup,omitempty" yaml:"parallel_group,omitempty"`
	Complexity     Complexity `json:"complexity" yaml:"complexity"`
	Dependencies   []string   `json:"dependencies" yaml:"dependencies"`
}

// GeneratedFeature mirrors PlannedFeature with tracker-assigned identity.
type GeneratedFeature struct {
	ID             string          `json:"id" yaml:"id"`
	Identifier     string          `json:"identifier" yaml:"identifier"`
	Title          string          `json:"title" yaml:"title"`
	Description    string          `json:"description,omitempty" yaml:"description,omitempty"`
	ExecutionOrder int             `json:"executionOrder" yaml:"execution_order"`
	CanParallelize bool            `json:"canParallelize" yaml:"can_parallelize"`
	ParallelGroup  string          `json:"parallelGroup,omitempty" yaml:"parallel_group,omitempty"`
	Complexity     Complexity      `json:"complexity" yaml:"complexity"`
	Dependencies   []string        `json:"dependencies" yaml:"dependencies"`
	Tasks          []GeneratedTask `json:"tasks" yaml:"tasks"`
}

// GeneratedPlan is the terminal artifact of a generation run.
type GeneratedPlan struct {
	Epic           GeneratedEpic      `json:"epic" yaml:"epic"`
	Features       []GeneratedFeature `json:"features" yaml:"features"`
	ExecutionOrder []string           `json:"executionOrder" yaml:"execution_order"`
	ParallelGroups []string           `json:"parallelGroups" yaml:"parallel_groups"`
	TotalFeatures  int                `json:"totalFeatures" yaml:"total_features"`
	TotalTasks     int                `json:"totalTasks" yaml:"total_tasks"`
	DryRun         bool               `json:"dryRun" yaml:"dry_run"`
	// Warnings lists best-effort annotation calls that failed.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Finalize fills the derived schedule fields from Features.
func (p *GeneratedPlan) Finalize() {
	p.ExecutionOrder = ExecutionOrder(p.Features)
	p.ParallelGroups = ParallelGroupsOf(p.Features)
	p.TotalFeatures = len(p.Features)
	p.TotalTasks = 0
	for _, f := range p.Features {
		p.TotalTasks += len(f.Tasks)
	}
}
