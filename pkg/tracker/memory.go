package tracker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
	"github.com/google/uuid"
)

// Operation names reported to a FaultFunc and counted by Calls.
const (
	OpCreateEpic               = "CreateEpic"
	OpCreateFeature            = "CreateFeature"
	OpUpdateFeature            = "UpdateFeature"
	OpCreateTask               = "CreateTask"
	OpSetStructuredDescription = "SetStructuredDescription"
	OpAddValidation            = "AddValidation"
	OpPreviewTemplate          = "PreviewTemplate"
	OpCreateFromTemplate       = "CreateFromTemplate"
)

// FaultFunc is consulted before every call; n is the 1-based count of calls to op.
// A non-nil error fails the call without changing state.
type FaultFunc func(op string, n int) error

// Memory is an in-process tracker. Features are numbered per team key
// (ENG-1, ENG-2) and tasks per feature (ENG-1-1).
type Memory struct {
	key string

	mu           sync.Mutex
	fault        FaultFunc
	calls        map[string]int
	epics        map[string]*tracker.Epic
	features     map[string]*tracker.Feature
	featureOrder []string
	tasks        map[string]*tracker.Task
	taskCount    map[string]int
	descriptions map[string]tracker.StructuredDescription
	validations  map[string][]tracker.Validation
	templates    map[string]tracker.TemplatePreview
	nextFeature  int
}

var _ tracker.Client = (*Memory)(nil)

// NewMemory creates an empty tracker that assigns identifiers under key.
func NewMemory(key string) *Memory {
	if key == "" {
		key = "SPEC"
	}
	return &Memory{
		key:          strings.ToUpper(key),
		calls:        make(map[string]int),
		epics:        make(map[string]*tracker.Epic),
		features:     make(map[string]*tracker.Feature),
		tasks:        make(map[string]*tracker.Task),
		taskCount:    make(map[string]int),
		descriptions: make(map[string]tracker.StructuredDescription),
		validations:  make(map[string][]tracker.Validation),
		templates:    make(map[string]tracker.TemplatePreview),
	}
}

// SetFault installs f; nil removes it.
func (m *Memory) SetFault(f FaultFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fault = f
}

// RegisterTemplate makes a template available under name.
func (m *Memory) RegisterTemplate(name string, t tracker.TemplatePreview) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.TemplateName = name
	m.templates[name] = t
}

// enter counts the call and applies the fault hook. Callers hold m.mu.
func (m *Memory) enter(op string) error {
	m.calls[op]++
	if m.fault != nil {
		return m.fault(op, m.calls[op])
	}
	return nil
}

func (m *Memory) CreateEpic(ctx context.Context, in tracker.CreateEpicInput) (*tracker.Epic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCreateEpic); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("create epic: name is required")
	}
	epic := &tracker.Epic{ID: uuid.New().String(), Name: in.Name, Description: in.Description}
	m.epics[epic.ID] = epic
	out := *epic
	return &out, nil
}

func (m *Memory) CreateFeature(ctx context.Context, in tracker.CreateFeatureInput) (*tracker.Feature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCreateFeature); err != nil {
		return nil, err
	}
	if _, ok := m.epics[in.EpicID]; !ok {
		return nil, fmt.Errorf("create feature: epic %s: %w", in.EpicID, tracker.ErrNotFound)
	}
	return m.addFeature(in), nil
}

func (m *Memory) addFeature(in tracker.CreateFeatureInput) *tracker.Feature {
	m.nextFeature++
	f := &tracker.Feature{
		ID:             uuid.New().String(),
		Identifier:     fmt.Sprintf("%s-%d", m.key, m.nextFeature),
		EpicID:         in.EpicID,
		Title:          in.Title,
		Description:    in.Description,
		ExecutionOrder: in.ExecutionOrder,
		CanParallelize: in.CanParallelize,
		ParallelGroup:  in.ParallelGroup,
		Complexity:     in.Complexity,
		Dependencies:   append([]string(nil), in.Dependencies...),
	}
	m.features[f.ID] = f
	m.featureOrder = append(m.featureOrder, f.ID)
	out := *f
	return &out
}

func (m *Memory) UpdateFeature(ctx context.Context, id string, in tracker.UpdateFeatureInput) (*tracker.Feature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpUpdateFeature); err != nil {
		return nil, err
	}
	f, ok := m.features[id]
	if !ok {
		return nil, fmt.Errorf("update feature %s: %w", id, tracker.ErrNotFound)
	}
	f.Description = in.Description
	out := *f
	return &out, nil
}

func (m *Memory) CreateTask(ctx context.Context, in tracker.CreateTaskInput) (*tracker.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCreateTask); err != nil {
		return nil, err
	}
	if _, ok := m.features[in.FeatureID]; !ok {
		return nil, fmt.Errorf("create task: feature %s: %w", in.FeatureID, tracker.ErrNotFound)
	}
	return m.addTask(in), nil
}

func (m *Memory) addTask(in tracker.CreateTaskInput) *tracker.Task {
	f := m.features[in.FeatureID]
	m.taskCount[f.ID]++
	t := &tracker.Task{
		ID:             uuid.New().String(),
		Identifier:     fmt.Sprintf("%s-%d", f.Identifier, m.taskCount[f.ID]),
		FeatureID:      f.ID,
		Title:          in.Title,
		Description:    in.Description,
		ExecutionOrder: in.ExecutionOrder,
		CanParallelize: in.CanParallelize,
		ParallelGroup:  in.ParallelGroup,
		Complexity:     in.Complexity,
		Dependencies:   append([]string(nil), in.Dependencies...),
	}
	m.tasks[t.ID] = t
	out := *t
	return &out
}

func (m *Memory) SetStructuredDescription(ctx context.Context, kind tracker.Kind, id string, desc tracker.StructuredDescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpSetStructuredDescription); err != nil {
		return err
	}
	if !m.exists(kind, id) {
		return fmt.Errorf("set structured description on %s %s: %w", kind, id, tracker.ErrNotFound)
	}
	m.descriptions[string(kind)+"/"+id] = desc
	return nil
}

func (m *Memory) exists(kind tracker.Kind, id string) bool {
	switch kind {
	case tracker.KindEpic:
		_, ok := m.epics[id]
		return ok
	case tracker.KindFeature:
		_, ok := m.features[id]
		return ok
	case tracker.KindTask:
		_, ok := m.tasks[id]
		return ok
	default:
		return false
	}
}

func (m *Memory) AddValidation(ctx context.Context, taskID string, v tracker.Validation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpAddValidation); err != nil {
		return err
	}
	if _, ok := m.tasks[taskID]; !ok {
		return fmt.Errorf("add validation to task %s: %w", taskID, tracker.ErrNotFound)
	}
	m.validations[taskID] = append(m.validations[taskID], v)
	return nil
}

func (m *Memory) PreviewTemplate(ctx context.Context, name, epicName string) (*tracker.TemplatePreview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpPreviewTemplate); err != nil {
		return nil, err
	}
	t, ok := m.templates[name]
	if !ok {
		return nil, fmt.Errorf("preview %q: %w", name, tracker.ErrTemplateNotFound)
	}
	preview := t
	preview.EpicName = epicName
	return &preview, nil
}

func (m *Memory) CreateFromTemplate(ctx context.Context, name, epicName, teamID string, opts tracker.TemplateOptions) (*tracker.TemplateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCreateFromTemplate); err != nil {
		return nil, err
	}
	t, ok := m.templates[name]
	if !ok {
		return nil, fmt.Errorf("instantiate %q: %w", name, tracker.ErrTemplateNotFound)
	}

	epic := &tracker.Epic{ID: uuid.New().String(), Name: epicName, Description: opts.EpicDescription}
	m.epics[epic.ID] = epic
	res := &tracker.TemplateResult{Epic: *epic}

	for _, pf := range t.Features {
		f := m.addFeature(tracker.CreateFeatureInput{
			Title:          pf.Title,
			EpicID:         epic.ID,
			Description:    pf.Description,
			ExecutionOrder: pf.ExecutionOrder,
			CanParallelize: pf.CanParallelize,
			Complexity:     pf.Complexity,
			ParallelGroup:  pf.ParallelGroup,
		})
		res.Features = append(res.Features, *f)
		for _, pt := range pf.Tasks {
			task := m.addTask(tracker.CreateTaskInput{
				Title:          pt.Title,
				FeatureID:      f.ID,
				Description:    pt.Description,
				ExecutionOrder: pt.ExecutionOrder,
				Complexity:     pt.Complexity,
				CanParallelize: pt.CanParallelize,
				ParallelGroup:  pt.ParallelGroup,
			})
			res.Tasks = append(res.Tasks, *task)
		}
	}
	return res, nil
}

// Calls returns how many times op was invoked, including failed calls.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (m *Memory) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// Feature returns a copy of the feature with the given ID.
func (m *Memory) Feature(id string) (tracker.Feature, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.features[id]
	if !ok {
		return tracker.Feature{}, false
	}
	return *f, true
}

// Features returns all features of an epic in creation order.
func (m *Memory) Features(epicID string) []tracker.Feature {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tracker.Feature
	for _, id := range m.featureOrder {
		if f := m.features[id]; f.EpicID == epicID {
			out = append(out, *f)
		}
	}
	return out
}

// Tasks returns the tasks of a feature ordered by identifier.
func (m *Memory) Tasks(featureID string) []tracker.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tracker.Task
	for _, t := range m.tasks {
		if t.FeatureID == featureID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Identifier) != len(out[j].Identifier) {
			return len(out[i].Identifier) < len(out[j].Identifier)
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out
}

// StructuredDescription returns the descriptor stored for an entity.
func (m *Memory) StructuredDescription(kind tracker.Kind, id string) (tracker.StructuredDescription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.descriptions[string(kind)+"/"+id]
	return d, ok
}

// Validations returns the checks attached to a task.
func (m *Memory) Validations(taskID string) []tracker.Validation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tracker.Validation(nil), m.validations[taskID]...)
}
