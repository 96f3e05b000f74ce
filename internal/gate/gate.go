package gate

import (
	"fmt"
	"strings"

	"github.com/jonathan/ipp-client/internal/types"
)

// Fixed thresholds.
const (
	MinSelectedExperiences = 3
	MinReflections         = 3
	MinInterviewResponses  = 3
	MinSelfAssessments     = 3
)

// Inputs is everything the gate looks at. Fields irrelevant to Stage are ignored.
type Inputs struct {
	Stage Stage

	// JobStatus is the status of the stage's analysis job, empty if none.
	JobStatus types.JobStatus

	// Context
	Documents []types.Document

	// Experience
	SelectedItems int

	// Reflection
	Reflections  []string
	TotalPrompts int

	// Action
	ProjectPlanReady bool

	// Evaluation
	InterviewResponses []string
	SelfAssessments    []string
	FinalReflection    string
}

// Decision is the gate outcome with the unmet requirement, if any.
type Decision struct {
	Allowed bool
	Reason  string
}

// CanAdvance reports whether the user may proceed from in.Stage.
func CanAdvance(in Inputs) bool {
	return Evaluate(in).Allowed
}

// Evaluate applies the stage policy. It is pure and deterministic.
func Evaluate(in Inputs) Decision {
	if in.JobStatus == types.JobStatusFailed {
		return deny("analysis failed; retry the analysis to continue")
	}

	switch in.Stage {
	case StageContext:
		// A resume analysis still processing does not block.
		if types.FindDocument(in.Documents, types.DocumentTypeResume) == nil {
			return deny("upload your resume to continue")
		}
	case StageExperience:
		if in.SelectedItems < MinSelectedExperiences {
			return deny(fmt.Sprintf("select at least %d experiences (%d selected)", MinSelectedExperiences, in.SelectedItems))
		}
	case StageReflection:
		need := RequiredReflections(in.TotalPrompts)
		if got := CountNonEmpty(in.Reflections); got < need {
			return deny(fmt.Sprintf("answer at least %d reflection prompts (%d answered)", need, got))
		}
	case StageAction:
		if !in.ProjectPlanReady {
			return deny("create a project plan to continue")
		}
	case StageEvaluation:
		if got := CountNonEmpty(in.InterviewResponses); got < MinInterviewResponses {
			return deny(fmt.Sprintf("answer at least %d interview questions (%d answered)", MinInterviewResponses, got))
		}
		if got := CountNonEmpty(in.SelfAssessments); got < MinSelfAssessments {
			return deny(fmt.Sprintf("complete at least %d self-assessments (%d completed)", MinSelfAssessments, got))
		}
		if strings.TrimSpace(in.FinalReflection) == "" {
			return deny("write your final reflection")
		}
	default:
		return deny(fmt.Sprintf("unknown stage %q", in.Stage))
	}

	return Decision{Allowed: true}
}

// RequiredReflections is min(MinReflections, totalPrompts).
func RequiredReflections(totalPrompts int) int {
	return max(0, min(MinReflections, totalPrompts))
}

// CountNonEmpty counts entries that are not blank after trimming.
func CountNonEmpty(values []string) int {
	n := 0
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}
