package sandbox

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/jonathan/ipp-client/internal/types"
)

// knownSkills are the skills the scripted analysis recognizes in document text.
var knownSkills = []string{
	"Go", "Python", "Java", "JavaScript", "TypeScript", "SQL", "React", "Docker",
	"Kubernetes", "AWS", "Excel", "communication", "leadership", "teaching",
	"mentoring", "project management", "data analysis", "customer service",
	"writing", "research", "public speaking", "budgeting",
}

var skillPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(knownSkills))
	for _, s := range knownSkills {
		flags := "(?i)"
		if len(s) <= 3 {
			// Short names like Go and AWS only match with their exact case.
			flags = ""
		}
		m[s] = regexp.MustCompile(flags + `\b` + regexp.QuoteMeta(s) + `\b`)
	}
	return m
}()

var bulletLine = regexp.MustCompile(`^\s*[-*•]\s+(.{12,})$`)

func findSkills(text string) []string {
	var out []string
	for _, s := range knownSkills {
		if skillPatterns[s].MatchString(text) {
			out = append(out, s)
		}
	}
	return out
}

// bullets returns up to limit bulleted lines of text.
func bullets(text string, limit int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			out = append(out, strings.TrimSpace(m[1]))
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// advance moves rec one step along types.ProgressSteps. Reaching the final step
// completes the job; reaching failStep fails it.
func (s *Server) advance(rec *jobRecord, resume, jobDoc string) {
	if rec.job.Status.IsTerminal() {
		return
	}
	rec.step++
	step := types.ProgressSteps[rec.step]

	if s.failStep != "" && step.ID == s.failStep {
		rec.job.Status = types.JobStatusFailed
		rec.job.ProgressStep = step.ID
		rec.job.ErrorMessage = s.failMessage
		s.logger.Info("sandbox.analysis.failed", "analysis_id", rec.job.ID, "step", step.ID)
		return
	}

	rec.job.ProgressStep = step.ID
	rec.job.ProgressMessage = step.Description
	if rec.step < len(types.ProgressSteps)-1 {
		rec.job.Status = types.JobStatusProcessing
		return
	}

	s.complete(rec, resume, jobDoc)
	s.logger.Info("sandbox.analysis.completed", "analysis_id", rec.job.ID, "kind", rec.kind)
}

func (s *Server) complete(rec *jobRecord, resume, jobDoc string) {
	resumeSkills := findSkills(resume)
	experiences := bullets(resume, 5)

	resumeAnalysis := map[string]any{
		"skills":      skillEntries(resumeSkills),
		"experiences": experienceEntries(experiences),
	}
	rec.job.ResumeAnalysis = mustJSON(resumeAnalysis)

	if rec.kind == types.AnalysisResume {
		rec.job.ContextSummary = fmt.Sprintf(
			"Your resume highlights %d recognizable skills and %d experiences. Add a job description to see how they connect to a role.",
			len(resumeSkills), len(experiences))
	} else {
		jobSkills := findSkills(jobDoc)
		rec.job.JobAnalysis = mustJSON(map[string]any{
			"requirements":     jobSkills,
			"responsibilities": bullets(jobDoc, 5),
		})
		rec.job.ConnectionsAnalysis = mustJSON(connectionsFor(resumeSkills, jobSkills))

		matched := intersect(resumeSkills, jobSkills)
		rec.job.ContextSummary = fmt.Sprintf(
			"You bring %d of the %d skills this role asks for. Your experience gives you a foundation to build on the rest.",
			len(matched), len(jobSkills))
	}

	rec.job.Status = types.JobStatusCompleted
	done := types.NewTimestamp(s.clock.Now())
	rec.job.CompletedAt = &done
}

func skillEntries(skills []string) []map[string]any {
	out := make([]map[string]any, 0, len(skills))
	for _, s := range skills {
		out = append(out, map[string]any{"name": s, "description": "Mentioned in your resume"})
	}
	return out
}

func experienceEntries(lines []string) []map[string]any {
	out := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		title := l
		if i := strings.IndexAny(l, ",.;:"); i > 0 {
			title = l[:i]
		}
		out = append(out, map[string]any{"title": title, "description": l})
	}
	return out
}

func connectionsFor(resumeSkills, jobSkills []string) map[string]any {
	matched := intersect(resumeSkills, jobSkills)

	direct := make([]map[string]any, 0, len(matched))
	matches := make([]map[string]any, 0, len(matched))
	for _, s := range matched {
		direct = append(direct, map[string]any{
			"skill":                   s,
			"job_requirement_snippet": s,
			"candidate_evidence":      "Mentioned in your resume",
			"role_application":        fmt.Sprintf("Apply your %s experience directly in this role", s),
			"confidence_score":        8,
			"strength_level":          "strong",
		})
		matches = append(matches, map[string]any{
			"title":       s,
			"description": fmt.Sprintf("Your %s experience matches a stated requirement", s),
			"strength":    0.9,
		})
	}

	var gaps []string
	for _, s := range jobSkills {
		if !slices.Contains(resumeSkills, s) {
			gaps = append(gaps, s)
		}
	}

	transferable := []map[string]any{}
	for i, s := range resumeSkills {
		if slices.Contains(matched, s) || len(gaps) == 0 {
			continue
		}
		target := gaps[i%len(gaps)]
		transferable = append(transferable, map[string]any{
			"candidate_skill":         s,
			"role_requirement":        target,
			"transfer_pathway":        fmt.Sprintf("Use %s as a bridge toward %s", s, target),
			"development_needed":      fmt.Sprintf("Hands-on practice with %s", target),
			"confidence_score":        6,
			"timeline_to_proficiency": "3-6 months",
		})
	}

	skillGaps := make([]map[string]any, 0, len(gaps))
	for _, g := range gaps {
		skillGaps = append(skillGaps, map[string]any{
			"missing_skill":                 g,
			"job_requirement_snippet":       g,
			"importance":                    "important",
			"learning_pathway":              fmt.Sprintf("Take a short course on %s", g),
			"mitigation_strategy":           "Highlight related experience and your plan to learn",
			"portfolio_project_opportunity": fmt.Sprintf("Build a small project that uses %s", g),
		})
	}

	return map[string]any{
		"skill_alignment": map[string]any{
			"direct_matches":      direct,
			"transferable_skills": transferable,
			"skill_gaps":          skillGaps,
		},
		"matches": matches,
	}
}

func intersect(a, b []string) []string {
	var out []string
	for _, s := range a {
		if slices.Contains(b, s) {
			out = append(out, s)
		}
	}
	return out
}

func mustJSON(v any) json.RawMessage {
	bs, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("sandbox: marshal analysis: %v", err))
	}
	return bs
}
