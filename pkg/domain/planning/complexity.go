package planning

import "strings"

// Complexity is the planner's estimate of how hard an item is.
type Complexity string

const (
	ComplexityTrivial  Complexity = "trivial"
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// DefaultComplexity is used whenever the planner omits complexity or sends an unknown value.
const DefaultComplexity = ComplexityModerate

// AllComplexities returns all valid complexity values.
func AllComplexities() []Complexity {
	return []Complexity{ComplexityTrivial, ComplexitySimple, ComplexityModerate, ComplexityComplex}
}

// IsValid returns true if the complexity is part of the closed set.
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexityTrivial, ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	default:
		return false
	}
}

func (c Complexity) String() string {
	return string(c)
}

// ParseComplexity normalizes a raw value, falling back to DefaultComplexity.
func ParseComplexity(s string) Complexity {
	c := Complexity(strings.ToLower(strings.TrimSpace(s)))
	if c.IsValid() {
		return c
	}
	return DefaultComplexity
}

// RiskLevel is an optional annotation; the zero value means "not stated".
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// IsValid returns true if the risk level is part of the closed set.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// ParseRiskLevel returns the normalized level, or "" when the value is unknown.
func ParseRiskLevel(s string) RiskLevel {
	r := RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	if r.IsValid() {
		return r
	}
	return ""
}

// EstimatedEffort is an optional t-shirt size; the zero value means "not stated".
type EstimatedEffort string

const (
	EffortTrivial EstimatedEffort = "trivial"
	EffortSmall   EstimatedEffort = "small"
	EffortMedium  EstimatedEffort = "medium"
	EffortLarge   EstimatedEffort = "large"
	EffortXL      EstimatedEffort = "xl"
)

// IsValid returns true if the effort is part of the closed set.
func (e EstimatedEffort) IsValid() bool {
	switch e {
	case EffortTrivial, EffortSmall, EffortMedium, EffortLarge, EffortXL:
		return true
	default:
		return false
	}
}

// ParseEstimatedEffort returns the normalized effort, or "" when the value is unknown.
func ParseEstimatedEffort(s string) EstimatedEffort {
	e := EstimatedEffort(strings.ToLower(strings.TrimSpace(s)))
	if e.IsValid() {
		return e
	}
	return ""
}

// ValidationType identifies how a task's completion can be checked.
type ValidationType string

const (
	ValidationCommand      ValidationType = "command"
	ValidationFileExists   ValidationType = "file_exists"
	ValidationFileContains ValidationType = "file_contains"
	ValidationTestPasses   ValidationType = "test_passes"
	ValidationManual       ValidationType = "manual"
)

// IsValid returns true if the validation type is part of the closed set.
func (v ValidationType) IsValid() bool {
	switch v {
	case ValidationCommand, ValidationFileExists, ValidationFileContains, ValidationTestPasses, ValidationManual:
		return true
	default:
		return false
	}
}
