package planning

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Run states. Untyped so they convert to statekit.StateID directly.
const (
	RunPending       = "pending"
	RunGenerating    = "generating"
	RunValidated     = "validated"
	RunMaterializing = "materializing"
	RunCompleted     = "completed"
	RunFailed        = "failed"
)

// Run events.
const (
	EventGenerate    = "generate"
	EventValidate    = "validate"
	EventMaterialize = "materialize"
	EventPreview     = "preview"
	EventInstantiate = "instantiate"
	EventComplete    = "complete"
	EventFail        = "fail"
)

// RunContext carries the identity of a generation run.
type RunContext struct {
	RunID string
}

// RunStateMachine tracks a single plan generation run.
//
// AI path:       pending -> generating -> validated -> materializing -> completed
// Dry run:       pending -> generating -> validated -> completed
// Template path: pending -> materializing -> completed
// Any non-terminal state may move to failed.
type RunStateMachine struct {
	runID       string
	interpreter *statekit.Interpreter[RunContext]
}

func NewRunStateMachine(runID string) (*RunStateMachine, error) {
	builder := statekit.NewMachine[RunContext]("plan-run").
		WithInitial(statekit.StateID(RunPending)).
		WithContext(RunContext{RunID: runID})

	builder.State(RunPending).
		On(EventGenerate).Target(RunGenerating).
		On(EventInstantiate).Target(RunMaterializing).
		On(EventFail).Target(RunFailed).
		Done()

	builder.State(RunGenerating).
		On(EventValidate).Target(RunValidated).
		On(EventFail).Target(RunFailed).
		Done()

	builder.State(RunValidated).
		On(EventMaterialize).Target(RunMaterializing).
		On(EventPreview).Target(RunCompleted).
		On(EventFail).Target(RunFailed).
		Done()

	builder.State(RunMaterializing).
		On(EventComplete).Target(RunCompleted).
		On(EventFail).Target(RunFailed).
		Done()

	builder.State(RunCompleted).Done()
	builder.State(RunFailed).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build run state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &RunStateMachine{runID: runID, interpreter: interpreter}, nil
}

// Transition applies event, returning an error when the current state does not accept it.
func (sm *RunStateMachine) Transition(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if sm.Current() != before {
		return nil
	}
	return fmt.Errorf("run %s: event '%s' is not allowed in state '%s'", sm.runID, event, before)
}

// Fail moves the run to failed unless it already finished.
func (sm *RunStateMachine) Fail() {
	if sm.IsTerminal() {
		return
	}
	_ = sm.Transition(EventFail)
}

func (sm *RunStateMachine) Current() string {
	return string(sm.interpreter.State().Value)
}

func (sm *RunStateMachine) RunID() string {
	return sm.runID
}

// IsTerminal reports whether the run completed or failed.
func (sm *RunStateMachine) IsTerminal() bool {
	s := sm.Current()
	return s == RunCompleted || s == RunFailed
}
