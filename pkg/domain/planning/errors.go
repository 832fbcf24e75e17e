package planning

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxRawExcerpt bounds how much of a model response is attached to errors.
const MaxRawExcerpt = 500

// ParsingHint is attached to every PlanParsingError.
const ParsingHint = "Try simplifying the request or run the generation again; model output varies between attempts."

// ErrEmptyResponse is returned when the text-generation collaborator produced no content.
var ErrEmptyResponse = errors.New("AI returned an empty response")

// PlanParsingError reports model output that could not be turned into a plan.
type PlanParsingError struct {
	Message    string
	RawExcerpt string
	Hint       string
	Err        error
}

func (e *PlanParsingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PlanParsingError) Unwrap() error {
	return e.Err
}

// NewPlanParsingError builds a PlanParsingError with a bounded excerpt of raw.
func NewPlanParsingError(msg, raw string, err error) *PlanParsingError {
	return &PlanParsingError{
		Message:    msg,
		RawExcerpt: Truncate(raw, MaxRawExcerpt),
		Hint:       ParsingHint,
		Err:        err,
	}
}

// Truncate shortens s to at most max runes.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
