package experience

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jonathan/ipp-client/internal/types"
)

// ItemType classifies a candidate item.
type ItemType string

// Item types.
const (
	ItemSkill      ItemType = "skill"
	ItemExperience ItemType = "experience"
	ItemConnection ItemType = "connection"
)

// Default relevance scores when the analysis does not provide one.
const (
	DefaultSkillRelevance       = 0.8
	DefaultExperienceRelevance  = 0.7
	DefaultRequirementRelevance = 0.9
	DefaultConnectionRelevance  = 0.8
)

// Item is one candidate the user may select.
type Item struct {
	ID        string             `json:"id"`
	Type      ItemType           `json:"type"`
	Title     string             `json:"title"`
	Desc      string             `json:"description"`
	Relevance float64            `json:"relevance_score"`
	Source    types.DocumentType `json:"source"`
}

// Band buckets relevance for display: high at 0.8 and above, medium at 0.6.
func (i Item) Band() string {
	switch {
	case i.Relevance >= 0.8:
		return "high"
	case i.Relevance >= 0.6:
		return "medium"
	default:
		return "low"
	}
}

// Percent is the relevance rounded to a whole percentage.
func (i Item) Percent() int {
	return int(i.Relevance*100 + 0.5)
}

// entry is an analysis list element, which the backend emits either as a bare
// string or as an object.
type entry struct {
	Text        string  `json:"-"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Position    string  `json:"position"`
	Description string  `json:"description"`
	Summary     string  `json:"summary"`
	Relevance   float64 `json:"relevance"`
	Importance  float64 `json:"importance"`
	Strength    float64 `json:"strength"`
}

func (e *entry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &e.Text)
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		// Numbers and other scalars carry nothing usable.
		return nil
	}
	type plain entry
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*e = entry(p)
	return nil
}

type resumeAnalysis struct {
	Skills      []entry `json:"skills"`
	Experiences []entry `json:"experiences"`
}

type jobAnalysis struct {
	Requirements []entry `json:"requirements"`
}

type connectionsAnalysis struct {
	Matches []entry `json:"matches"`
}

// Candidates derives the selectable items from a completed analysis, sorted by
// relevance descending. Ties keep extraction order.
func Candidates(job *types.AnalysisJob) ([]Item, error) {
	if job == nil {
		return nil, nil
	}

	var resume resumeAnalysis
	if err := decodeSection("resume_analysis", job.ResumeAnalysis, &resume); err != nil {
		return nil, err
	}
	var jobA jobAnalysis
	if err := decodeSection("job_analysis", job.JobAnalysis, &jobA); err != nil {
		return nil, err
	}
	var conn connectionsAnalysis
	if err := decodeSection("connections_analysis", job.ConnectionsAnalysis, &conn); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(resume.Skills)+len(resume.Experiences)+len(jobA.Requirements)+len(conn.Matches))

	for i, s := range resume.Skills {
		items = append(items, Item{
			ID:        fmt.Sprintf("resume-skill-%d", i),
			Type:      ItemSkill,
			Title:     firstNonEmpty(s.Name, s.Text),
			Desc:      firstNonEmpty(s.Description, "Skill from your resume"),
			Relevance: orDefault(s.Relevance, DefaultSkillRelevance),
			Source:    types.DocumentTypeResume,
		})
	}

	for i, x := range resume.Experiences {
		items = append(items, Item{
			ID:        fmt.Sprintf("resume-exp-%d", i),
			Type:      ItemExperience,
			Title:     firstNonEmpty(x.Title, x.Position, fmt.Sprintf("Experience %d", i+1)),
			Desc:      firstNonEmpty(x.Description, x.Summary, "Work experience from your resume"),
			Relevance: orDefault(x.Relevance, DefaultExperienceRelevance),
			Source:    types.DocumentTypeResume,
		})
	}

	for i, r := range jobA.Requirements {
		items = append(items, Item{
			ID:        fmt.Sprintf("job-req-%d", i),
			Type:      ItemSkill,
			Title:     firstNonEmpty(r.Name, r.Text),
			Desc:      firstNonEmpty(r.Description, "Required for the target role"),
			Relevance: orDefault(r.Importance, DefaultRequirementRelevance),
			Source:    types.DocumentTypeJobDescription,
		})
	}

	for i, m := range conn.Matches {
		items = append(items, Item{
			ID:        fmt.Sprintf("connection-%d", i),
			Type:      ItemConnection,
			Title:     firstNonEmpty(m.Title, fmt.Sprintf("Connection %d", i+1)),
			Desc:      firstNonEmpty(m.Description, m.Summary, "Connection identified by AI"),
			Relevance: orDefault(m.Strength, DefaultConnectionRelevance),
			Source:    types.DocumentTypeResume,
		})
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Relevance > items[b].Relevance
	})
	return items, nil
}

// decodeSection tolerates missing sections and sections of an unexpected shape
// (a string summary instead of an object, for instance).
func decodeSection(name string, raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return &DecodeError{Section: name, Cause: err}
	}
	return nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
