// Package domain holds the intake script graph: steps, branching options and
// the immutable indexed snapshot a session walks.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StepKind discriminates how a step's answer is captured.
type StepKind string

const (
	KindMultipleChoice StepKind = "multiple_choice"
	KindNumber         StepKind = "number"
	KindText           StepKind = "text"
	KindFile           StepKind = "file"
	KindYesNo          StepKind = "yes_no"
)

// Valid reports whether k is a known step kind.
func (k StepKind) Valid() bool {
	switch k {
	case KindMultipleChoice, KindNumber, KindText, KindFile, KindYesNo:
		return true
	default:
		return false
	}
}

// Option is a labelled answer that may redirect the flow.
type Option struct {
	Label      string  `json:"label" yaml:"label"`
	NextStepID *string `json:"nextStepId" yaml:"nextStepId,omitempty"`
}

// Step is a single question in a script.
type Step struct {
	ID         string   `json:"stepId" yaml:"stepId"`
	Kind       StepKind `json:"type" yaml:"type"`
	Prompt     string   `json:"question" yaml:"question"`
	Options    []Option `json:"options,omitempty" yaml:"options,omitempty"`
	NextStepID *string  `json:"nextStepId" yaml:"nextStepId,omitempty"`
	Required   bool     `json:"required" yaml:"required"`
}

// Script is the current step list of a business together with its version.
type Script struct {
	BusinessID uuid.UUID `json:"businessId"`
	Version    int       `json:"version"`
	Steps      []Step    `json:"steps"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IsEmpty reports whether the script has no steps to walk.
func (s Script) IsEmpty() bool {
	return len(s.Steps) == 0
}

// Snapshot is an immutable, indexed view of one script version.
type Snapshot struct {
	businessID uuid.UUID
	version    int
	steps      []Step
	index      map[string]int
}

// NewSnapshot indexes steps by id. When ids repeat the first step wins.
func NewSnapshot(businessID uuid.UUID, version int, steps []Step) Snapshot {
	copied := make([]Step, len(steps))
	copy(copied, steps)

	index := make(map[string]int, len(copied))
	for i, step := range copied {
		if _, seen := index[step.ID]; !seen {
			index[step.ID] = i
		}
	}

	return Snapshot{businessID: businessID, version: version, steps: copied, index: index}
}

func (s Snapshot) BusinessID() uuid.UUID { return s.businessID }
func (s Snapshot) Version() int          { return s.version }
func (s Snapshot) Len() int              { return len(s.steps) }

// Steps returns a copy of the ordered step list.
func (s Snapshot) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// First returns the entry step.
func (s Snapshot) First() (Step, bool) {
	if len(s.steps) == 0 {
		return Step{}, false
	}
	return s.steps[0], true
}

// Step looks up a step by id.
func (s Snapshot) Step(id string) (Step, bool) {
	i, ok := s.index[id]
	if !ok {
		return Step{}, false
	}
	return s.steps[i], true
}

// ResolveNext picks the step that follows step for answer. A matching option
// decides the outcome even when it points nowhere; otherwise the step default
// applies. ok is false when the flow has no further steps.
func ResolveNext(step Step, answer string) (next string, ok bool) {
	normalized := strings.TrimSpace(answer)
	for _, opt := range step.Options {
		if strings.EqualFold(strings.TrimSpace(opt.Label), normalized) {
			return deref(opt.NextStepID)
		}
	}
	return deref(step.NextStepID)
}

// ResolveDefault ignores options and follows the step's default pointer. File
// steps branch this way.
func ResolveDefault(step Step) (next string, ok bool) {
	return deref(step.NextStepID)
}

func deref(id *string) (string, bool) {
	if id == nil {
		return "", false
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

// Warning is an advisory finding about a script graph.
type Warning struct {
	StepID  string `json:"stepId,omitempty"`
	Message string `json:"message"`
}

// Validate checks presence of the required step fields and returns advisory
// warnings for graph shapes a session can still survive: duplicate ids,
// pointers to unknown steps and the absence of any terminal step.
func Validate(steps []Step) ([]Warning, error) {
	for i, step := range steps {
		if strings.TrimSpace(step.ID) == "" {
			return nil, fmt.Errorf("step %d: stepId is required", i)
		}
		if !step.Kind.Valid() {
			return nil, fmt.Errorf("step %q: unknown type %q", step.ID, step.Kind)
		}
		if strings.TrimSpace(step.Prompt) == "" {
			return nil, fmt.Errorf("step %q: question is required", step.ID)
		}
		for j, opt := range step.Options {
			if strings.TrimSpace(opt.Label) == "" {
				return nil, fmt.Errorf("step %q option %d: label is required", step.ID, j)
			}
		}
	}

	warnings := make([]Warning, 0)
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		if seen[step.ID] {
			warnings = append(warnings, Warning{StepID: step.ID, Message: "duplicate step id; later definition is ignored"})
		}
		seen[step.ID] = true
	}

	hasTerminal := false
	for _, step := range steps {
		if next, ok := ResolveDefault(step); ok {
			if !seen[next] {
				warnings = append(warnings, Warning{StepID: step.ID, Message: fmt.Sprintf("nextStepId %q does not exist", next)})
			}
		} else {
			hasTerminal = true
		}
		for _, opt := range step.Options {
			next, ok := deref(opt.NextStepID)
			if !ok {
				hasTerminal = true
				continue
			}
			if !seen[next] {
				warnings = append(warnings, Warning{StepID: step.ID, Message: fmt.Sprintf("option %q points to missing step %q", opt.Label, next)})
			}
		}
	}
	if len(steps) > 0 && !hasTerminal {
		warnings = append(warnings, Warning{Message: "script has no terminal step; sessions cannot reach the summary"})
	}

	return warnings, nil
}
