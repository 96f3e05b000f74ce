package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/ipp-client/internal/types"
)

var resumePDF = types.Document{
	ID:               1,
	DocumentType:     types.DocumentTypeResume,
	OriginalFilename: "resume.pdf",
	FileSize:         2 * 1024 * 1024,
}

func TestCanAdvance(t *testing.T) {
	three := []string{"a", "b", "c"}

	tests := []struct {
		name string
		in   Inputs
		want bool
	}{
		{
			name: "context without resume",
			in:   Inputs{Stage: StageContext},
			want: false,
		},
		{
			name: "context with only job description",
			in: Inputs{Stage: StageContext, Documents: []types.Document{
				{ID: 2, DocumentType: types.DocumentTypeJobDescription},
			}},
			want: false,
		},
		{
			name: "context with resume",
			in:   Inputs{Stage: StageContext, Documents: []types.Document{resumePDF}},
			want: true,
		},
		{
			name: "context with resume and processing analysis",
			in:   Inputs{Stage: StageContext, Documents: []types.Document{resumePDF}, JobStatus: types.JobStatusProcessing},
			want: true,
		},
		{
			name: "context with resume and failed analysis",
			in:   Inputs{Stage: StageContext, Documents: []types.Document{resumePDF}, JobStatus: types.JobStatusFailed},
			want: false,
		},
		{
			name: "experience with two selected",
			in:   Inputs{Stage: StageExperience, SelectedItems: 2},
			want: false,
		},
		{
			name: "experience with three selected",
			in:   Inputs{Stage: StageExperience, SelectedItems: 3},
			want: true,
		},
		{
			name: "experience with failed job",
			in:   Inputs{Stage: StageExperience, SelectedItems: 5, JobStatus: types.JobStatusFailed},
			want: false,
		},
		{
			name: "reflection with blank answers",
			in:   Inputs{Stage: StageReflection, Reflections: []string{"a", "  ", "b", ""}, TotalPrompts: 5},
			want: false,
		},
		{
			name: "reflection with three answers",
			in:   Inputs{Stage: StageReflection, Reflections: three, TotalPrompts: 5},
			want: true,
		},
		{
			name: "reflection with fewer prompts than threshold",
			in:   Inputs{Stage: StageReflection, Reflections: []string{"only", ""}, TotalPrompts: 2},
			want: false,
		},
		{
			name: "reflection with every prompt answered",
			in:   Inputs{Stage: StageReflection, Reflections: []string{"one", "two"}, TotalPrompts: 2},
			want: true,
		},
		{
			name: "action without plan",
			in:   Inputs{Stage: StageAction},
			want: false,
		},
		{
			name: "action with plan",
			in:   Inputs{Stage: StageAction, ProjectPlanReady: true},
			want: true,
		},
		{
			name: "evaluation with two assessments",
			in: Inputs{Stage: StageEvaluation, InterviewResponses: three,
				SelfAssessments: []string{"x", "y", " "}, FinalReflection: "done"},
			want: false,
		},
		{
			name: "evaluation with three assessments",
			in: Inputs{Stage: StageEvaluation, InterviewResponses: three,
				SelfAssessments: []string{"x", "y", "z"}, FinalReflection: "done"},
			want: true,
		},
		{
			name: "evaluation without final reflection",
			in: Inputs{Stage: StageEvaluation, InterviewResponses: three,
				SelfAssessments: three, FinalReflection: "   "},
			want: false,
		},
		{
			name: "evaluation with two interview responses",
			in: Inputs{Stage: StageEvaluation, InterviewResponses: []string{"a", "b"},
				SelfAssessments: three, FinalReflection: "done"},
			want: false,
		},
		{
			name: "unknown stage",
			in:   Inputs{Stage: "celebration"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAdvance(tt.in))
		})
	}
}

func TestEvaluate_Reasons(t *testing.T) {
	d := Evaluate(Inputs{Stage: StageExperience, SelectedItems: 2})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "at least 3")
	assert.Contains(t, d.Reason, "2 selected")

	d = Evaluate(Inputs{Stage: StageEvaluation, InterviewResponses: []string{"a", "b", "c"},
		SelfAssessments: []string{"a", "b"}, FinalReflection: "x"})
	assert.Contains(t, d.Reason, "self-assessments")

	d = Evaluate(Inputs{Stage: StageContext, Documents: []types.Document{resumePDF}})
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Reason)
}

func TestCanAdvance_Deterministic(t *testing.T) {
	in := Inputs{Stage: StageReflection, Reflections: []string{"a", "b", "c"}, TotalPrompts: 4}
	first := CanAdvance(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, CanAdvance(in))
	}
}

func TestRequiredReflections(t *testing.T) {
	assert.Equal(t, 3, RequiredReflections(8))
	assert.Equal(t, 3, RequiredReflections(3))
	assert.Equal(t, 1, RequiredReflections(1))
	assert.Equal(t, 0, RequiredReflections(0))
	assert.Equal(t, 0, RequiredReflections(-2))
}
