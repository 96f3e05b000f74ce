package connections

import "fmt"

// Defaults applied when a legacy payload omits values.
const (
	DefaultConfidence           = 8
	DefaultConnectionConfidence = 7
	StrongThreshold             = 8

	maxExperienceConnections = 3
	maxSkillGaps             = 4
	maxFallbackStrengths     = 3
)

// Strength levels.
const (
	StrengthStrong   = "strong"
	StrengthModerate = "moderate"
)

// Gap importance by position.
var gapImportance = []string{"critical", "important"}

const gapImportanceDefault = "nice-to-have"

// Normalize converts p into a SkillAlignment. It returns nil for VersionNone.
func Normalize(p Payload) *SkillAlignment {
	switch p.Version {
	case VersionEnhanced:
		return fromEnhanced(p.Enhanced)
	case VersionLegacy:
		a, _ := fromLegacy(p.Legacy)
		return a
	default:
		return nil
	}
}

func fromEnhanced(p *EnhancedPayload) *SkillAlignment {
	a := &SkillAlignment{
		DirectMatches:      p.SkillAlignment.DirectMatches,
		TransferableSkills: p.SkillAlignment.TransferableSkills,
		SkillGaps:          p.SkillAlignment.SkillGaps,
	}
	if a.DirectMatches == nil {
		a.DirectMatches = []DirectMatch{}
	}
	if a.TransferableSkills == nil {
		a.TransferableSkills = []TransferableSkill{}
	}
	if a.SkillGaps == nil {
		a.SkillGaps = []SkillGap{}
	}
	return a
}

// fromLegacy also reports whether unique_strengths had to stand in for empty lists.
func fromLegacy(p *LegacyPayload) (*SkillAlignment, bool) {
	a := &SkillAlignment{
		DirectMatches:      []DirectMatch{},
		TransferableSkills: []TransferableSkill{},
		SkillGaps:          []SkillGap{},
	}

	for i, m := range p.SkillMatches.Items {
		a.DirectMatches = append(a.DirectMatches, skillMatchToDirect(m, i, p.SkillMatches.FromMap))
	}

	for i, c := range p.ExperienceConnections {
		if i == maxExperienceConnections {
			break
		}
		a.DirectMatches = append(a.DirectMatches, DirectMatch{
			Skill:             firstNonEmpty(c.Skill, c.Experience, fmt.Sprintf("Related Experience %d", i+1)),
			CandidateEvidence: firstNonEmpty(c.Evidence, c.Description, "Demonstrated through related experience"),
			RoleApplication:   firstNonEmpty(c.Connection, c.Application, "Transferable to this role through similar application"),
			ConfidenceScore:   confidenceOr(c.Confidence, DefaultConnectionConfidence),
			StrengthLevel:     StrengthModerate,
		})
	}

	gaps := append(append([]string{}, p.DevelopmentAreas...), p.GrowthOpportunities...)
	for i, gap := range gaps {
		if i == maxSkillGaps {
			break
		}
		project := fmt.Sprintf("Create a project demonstrating %s", gap)
		if i < len(p.PortfolioProjectThemes) && p.PortfolioProjectThemes[i] != "" {
			project = fmt.Sprintf("Build a project focusing on %s", p.PortfolioProjectThemes[i])
		}
		a.SkillGaps = append(a.SkillGaps, SkillGap{
			MissingSkill:                gap,
			Importance:                  importanceAt(i),
			LearningPathway:             fmt.Sprintf("Online courses, hands-on practice, or mentorship in %s", gap),
			MitigationStrategy:          fmt.Sprintf("Demonstrate related skills and show commitment to learning %s", gap),
			PortfolioProjectOpportunity: project,
		})
	}

	if !a.Empty() {
		return a, false
	}
	for i, s := range p.UniqueStrengths {
		if i == maxFallbackStrengths {
			break
		}
		a.DirectMatches = append(a.DirectMatches, DirectMatch{
			Skill:             s,
			CandidateEvidence: "Demonstrated through experience",
			RoleApplication:   "Valuable for this role",
			ConfidenceScore:   DefaultConfidence,
			StrengthLevel:     StrengthStrong,
		})
	}
	return a, true
}

func skillMatchToDirect(m SkillMatch, i int, fromMap bool) DirectMatch {
	evidence := firstNonEmpty(m.Evidence, "Evidence available in resume")
	if fromMap {
		evidence = "Demonstrated in previous experience"
	}
	return DirectMatch{
		Skill:             firstNonEmpty(m.Skill, fmt.Sprintf("Skill %d", i+1)),
		CandidateEvidence: evidence,
		RoleApplication:   "Directly applicable to the role requirements",
		ConfidenceScore:   confidenceOr(m.Confidence, DefaultConfidence),
		StrengthLevel:     strengthOf(m.Confidence),
	}
}

// confidenceOr treats a missing or zero confidence as absent.
func confidenceOr(c *float64, def float64) float64 {
	if c == nil || *c == 0 {
		return def
	}
	return *c
}

// strengthOf is strong only for an explicit confidence at or above the threshold; a
// defaulted confidence stays moderate.
func strengthOf(c *float64) string {
	if c != nil && *c >= StrongThreshold {
		return StrengthStrong
	}
	return StrengthModerate
}

func importanceAt(i int) string {
	if i < len(gapImportance) {
		return gapImportance[i]
	}
	return gapImportanceDefault
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
