package types

import "math"

// ProgressStep describes one phase reported by a running analysis.
type ProgressStep struct {
	ID          string
	Label       string
	Description string
}

// ProgressSteps lists the phases in the order the backend reports them.
var ProgressSteps = []ProgressStep{
	{ID: "initializing", Label: "Initializing", Description: "Starting analysis..."},
	{ID: "analyzing_resume", Label: "Resume Analysis", Description: "Extracting your skills and experience..."},
	{ID: "analyzing_job", Label: "Job Analysis", Description: "Understanding job requirements..."},
	{ID: "finding_connections", Label: "Finding Connections", Description: "Matching your background to the role..."},
	{ID: "extracting_evidence", Label: "Extracting Evidence", Description: "Finding specific examples..."},
	{ID: "generating_summary", Label: "Creating Summary", Description: "Preparing your results..."},
	{ID: "completed", Label: "Complete", Description: "Analysis ready!"},
}

// ProgressIndex returns the index of step in ProgressSteps. An empty step maps to the
// last step for completed jobs and to the first otherwise; unknown steps return -1.
func ProgressIndex(step string, status JobStatus) int {
	if step == "" {
		if status == JobStatusCompleted {
			return len(ProgressSteps) - 1
		}
		return 0
	}
	for i, s := range ProgressSteps {
		if s.ID == step {
			return i
		}
	}
	return -1
}

// ProgressPercent converts a progress step into a percentage in [0, 100].
func ProgressPercent(step string, status JobStatus) float64 {
	idx := ProgressIndex(step, status)
	pct := float64(idx+1) / float64(len(ProgressSteps)) * 100
	return math.Max(0, math.Min(100, pct))
}
