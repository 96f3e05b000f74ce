// Package gate decides whether the user may leave a workflow stage.
package gate

import (
	"fmt"
	"strings"
)

// Stage is one step of the five-step guided workflow.
type Stage string

// Stages in workflow order.
const (
	StageContext    Stage = "context"
	StageExperience Stage = "experience"
	StageReflection Stage = "reflection"
	StageAction     Stage = "action"
	StageEvaluation Stage = "evaluation"
)

// Stages lists all stages in order.
var Stages = []Stage{StageContext, StageExperience, StageReflection, StageAction, StageEvaluation}

// ParseStage accepts a stage name case-insensitively.
func ParseStage(s string) (Stage, error) {
	for _, st := range Stages {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// Index returns the zero-based position of s, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the following stage; ok is false for the last stage.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i == len(Stages)-1 {
		return "", false
	}
	return Stages[i+1], true
}

// Prev returns the preceding stage; ok is false for the first stage.
func (s Stage) Prev() (Stage, bool) {
	i := s.Index()
	if i <= 0 {
		return "", false
	}
	return Stages[i-1], true
}

// Title returns the display name, e.g. "Context".
func (s Stage) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
