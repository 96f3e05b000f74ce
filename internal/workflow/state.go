package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/ipp-client/internal/gate"
	"github.com/jonathan/ipp-client/internal/storage"
	"github.com/jonathan/ipp-client/internal/types"
)

// Path is the user's chosen journey.
type Path string

// Paths offered after sign-in.
const (
	PathExploration Path = "exploration"
	PathInterview   Path = "interview"
)

// ParsePath validates a path name.
func ParsePath(s string) (Path, error) {
	switch Path(strings.ToLower(strings.TrimSpace(s))) {
	case PathExploration:
		return PathExploration, nil
	case PathInterview:
		return PathInterview, nil
	default:
		return "", fmt.Errorf("unknown path %q (want exploration or interview)", s)
	}
}

// KV is the local key/value store. *storage.Store implements it.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SelectedPath returns the stored path, or "" when none was chosen.
func SelectedPath(ctx context.Context, kv KV) (Path, error) {
	raw, err := kv.Get(ctx, storage.KeySelectedPath)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return ParsePath(raw)
}

// SelectPath stores p.
func SelectPath(ctx context.Context, kv KV, p Path) error {
	if _, err := ParsePath(string(p)); err != nil {
		return err
	}
	return kv.Set(ctx, storage.KeySelectedPath, string(p))
}

// StageState is the client-local progress through the stages.
type StageState struct {
	Stage              gate.Stage        `json:"stage"`
	Selected           []string          `json:"selected,omitempty"`
	Elaborations       map[string]string `json:"elaborations,omitempty"`
	Reflections        []string          `json:"reflections,omitempty"`
	ReflectionPrompts  int               `json:"reflection_prompts,omitempty"`
	ProjectPlan        string            `json:"project_plan,omitempty"`
	InterviewResponses []string          `json:"interview_responses,omitempty"`
	SelfAssessments    []string          `json:"self_assessments,omitempty"`
	FinalReflection    string            `json:"final_reflection,omitempty"`
}

// NewStageState starts at the first stage.
func NewStageState() *StageState {
	return &StageState{Stage: gate.StageContext, Elaborations: map[string]string{}}
}

// LoadStageState reads the stored state. Missing or unreadable state starts over.
func LoadStageState(ctx context.Context, kv KV) (*StageState, error) {
	raw, err := kv.Get(ctx, storage.KeyStageState)
	if errors.Is(err, storage.ErrNotFound) {
		return NewStageState(), nil
	}
	if err != nil {
		return nil, err
	}
	st := NewStageState()
	if err := json.Unmarshal([]byte(raw), st); err != nil {
		return NewStageState(), nil
	}
	if st.Stage.Index() < 0 {
		st.Stage = gate.StageContext
	}
	if st.Elaborations == nil {
		st.Elaborations = map[string]string{}
	}
	return st, nil
}

// SaveStageState persists st.
func SaveStageState(ctx context.Context, kv KV, st *StageState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode stage state: %w", err)
	}
	return kv.Set(ctx, storage.KeyStageState, string(data))
}

// Apply copies the stage-local fields of st into in.
func (st *StageState) Apply(in gate.Inputs) gate.Inputs {
	in.SelectedItems = len(st.Selected)
	in.Reflections = st.Reflections
	in.TotalPrompts = st.ReflectionPrompts
	in.ProjectPlanReady = strings.TrimSpace(st.ProjectPlan) != ""
	in.InterviewResponses = st.InterviewResponses
	in.SelfAssessments = st.SelfAssessments
	in.FinalReflection = st.FinalReflection
	return in
}

// Advance moves to the next stage when the gate allows it.
func (st *StageState) Advance(in gate.Inputs) (gate.Decision, bool) {
	in.Stage = st.Stage
	d := gate.Evaluate(st.Apply(in))
	if !d.Allowed {
		return d, false
	}
	next, ok := st.Stage.Next()
	if !ok {
		return d, false
	}
	st.Stage = next
	return d, true
}

// Back moves to the previous stage. Going back is never gated.
func (st *StageState) Back() bool {
	prev, ok := st.Stage.Prev()
	if ok {
		st.Stage = prev
	}
	return ok
}

// WorkingSet pins the document of each type across runs. A zero id means the
// document was discarded.
type WorkingSet map[types.DocumentType]int64

// LoadWorkingSet reads the pinned documents. Missing or unreadable state pins nothing.
func LoadWorkingSet(ctx context.Context, kv KV) (WorkingSet, error) {
	raw, err := kv.Get(ctx, storage.KeyWorkingSet)
	if errors.Is(err, storage.ErrNotFound) {
		return WorkingSet{}, nil
	}
	if err != nil {
		return nil, err
	}
	ws := WorkingSet{}
	if err := json.Unmarshal([]byte(raw), &ws); err != nil {
		return WorkingSet{}, nil
	}
	return ws, nil
}

// SaveWorkingSet persists ws.
func SaveWorkingSet(ctx context.Context, kv KV, ws WorkingSet) error {
	data, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("failed to encode working set: %w", err)
	}
	return kv.Set(ctx, storage.KeyWorkingSet, string(data))
}
