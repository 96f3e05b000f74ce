// Package connections decodes the connections analysis returned by the backend.
//
// The backend has produced two shapes over time. Decode classifies a raw payload
// against an embedded JSON Schema for each shape and returns a tagged union; Normalize
// converts either variant into a SkillAlignment. Nothing outside this package looks
// at raw payload shapes.
package connections

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version identifies which payload shape was decoded.
type Version int

// Payload versions.
const (
	VersionNone Version = iota
	VersionLegacy
	VersionEnhanced
)

func (v Version) String() string {
	switch v {
	case VersionLegacy:
		return "legacy"
	case VersionEnhanced:
		return "enhanced"
	default:
		return "none"
	}
}

// Payload is the tagged union of known payload shapes. Exactly one of Legacy and
// Enhanced is set unless Version is VersionNone.
type Payload struct {
	Version  Version
	Legacy   *LegacyPayload
	Enhanced *EnhancedPayload
}

// DirectMatch is a skill the candidate already has that the role asks for.
type DirectMatch struct {
	Skill                 string  `json:"skill"`
	JobRequirementSnippet string  `json:"job_requirement_snippet,omitempty"`
	CandidateEvidence     string  `json:"candidate_evidence"`
	RoleApplication       string  `json:"role_application"`
	ConfidenceScore       float64 `json:"confidence_score"`
	StrengthLevel         string  `json:"strength_level"`
	SourceReference       string  `json:"source_reference,omitempty"`
}

// TransferableSkill is a candidate skill that maps onto a different requirement.
type TransferableSkill struct {
	CandidateSkill        string  `json:"candidate_skill"`
	RoleRequirement       string  `json:"role_requirement"`
	TransferPathway       string  `json:"transfer_pathway"`
	DevelopmentNeeded     string  `json:"development_needed"`
	ConfidenceScore       float64 `json:"confidence_score"`
	TimelineToProficiency string  `json:"timeline_to_proficiency"`
}

// SkillGap is a requirement the candidate does not yet meet.
type SkillGap struct {
	MissingSkill                string `json:"missing_skill"`
	JobRequirementSnippet       string `json:"job_requirement_snippet,omitempty"`
	Importance                  string `json:"importance"`
	LearningPathway             string `json:"learning_pathway"`
	MitigationStrategy          string `json:"mitigation_strategy"`
	PortfolioProjectOpportunity string `json:"portfolio_project_opportunity"`
}

// SkillAlignment is the normalized view rendered by reports.
type SkillAlignment struct {
	DirectMatches      []DirectMatch       `json:"direct_matches"`
	TransferableSkills []TransferableSkill `json:"transferable_skills"`
	SkillGaps          []SkillGap          `json:"skill_gaps"`
}

// Empty reports whether all three lists are empty.
func (a *SkillAlignment) Empty() bool {
	return len(a.DirectMatches) == 0 && len(a.TransferableSkills) == 0 && len(a.SkillGaps) == 0
}

// EnhancedPayload is the skill_alignment shape.
type EnhancedPayload struct {
	SkillAlignment struct {
		DirectMatches      []DirectMatch       `json:"direct_matches"`
		TransferableSkills []TransferableSkill `json:"transferable_skills"`
		SkillGaps          []SkillGap          `json:"skill_gaps"`
	} `json:"skill_alignment"`
}

func (p *EnhancedPayload) hasLists() bool {
	a := p.SkillAlignment
	return a.DirectMatches != nil || a.TransferableSkills != nil || a.SkillGaps != nil
}

// LegacyPayload is the original connections shape.
type LegacyPayload struct {
	SkillMatches             SkillMatches           `json:"skill_matches"`
	ExperienceConnections    []ExperienceConnection `json:"experience_connections"`
	GrowthOpportunities      []string               `json:"growth_opportunities"`
	ValueAlignment           json.RawMessage        `json:"value_alignment,omitempty"`
	UniqueStrengths          []string               `json:"unique_strengths"`
	DevelopmentAreas         []string               `json:"development_areas"`
	PortfolioProjectThemes   []string               `json:"portfolio_project_themes"`
	IgnatianReflectionPoints []string               `json:"ignatian_reflection_points"`
	OverallFitScore          *float64               `json:"overall_fit_score"`
	NextStepsSuggestions     []string               `json:"next_steps_suggestions"`
}

// SkillMatch is one legacy skill match. Confidence is nil when absent or not a number.
type SkillMatch struct {
	Skill      string   `json:"skill"`
	Confidence *float64 `json:"confidence"`
	Evidence   string   `json:"evidence"`
}

// SkillMatches holds skill_matches, which is either a list of SkillMatch or an
// object mapping skill name to confidence. Object order is preserved.
type SkillMatches struct {
	Items   []SkillMatch
	FromMap bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *SkillMatches) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*m = SkillMatches{}
		return nil
	case trimmed[0] == '[':
		var items []SkillMatch
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*m = SkillMatches{Items: items}
		return nil
	case trimmed[0] == '{':
		items, err := decodeOrderedConfidences(trimmed)
		if err != nil {
			return err
		}
		*m = SkillMatches{Items: items, FromMap: true}
		return nil
	default:
		return fmt.Errorf("skill_matches: unsupported JSON %s", trimmed)
	}
}

// decodeOrderedConfidences reads {"skill": confidence, ...} keeping key order.
// Non-numeric values leave Confidence nil.
func decodeOrderedConfidences(data []byte) ([]SkillMatch, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // {
		return nil, err
	}
	var items []SkillMatch
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("skill_matches: unexpected key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		match := SkillMatch{Skill: key}
		if f, ok := value.(float64); ok {
			match.Confidence = &f
		}
		items = append(items, match)
	}
	return items, nil
}

// ExperienceConnection is one legacy experience_connections entry. The backend used
// several field names for the same idea.
type ExperienceConnection struct {
	Skill       string   `json:"skill"`
	Experience  string   `json:"experience"`
	Evidence    string   `json:"evidence"`
	Description string   `json:"description"`
	Connection  string   `json:"connection"`
	Application string   `json:"application"`
	Confidence  *float64 `json:"confidence"`
}
