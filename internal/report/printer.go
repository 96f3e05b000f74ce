// Package report renders workflow state as boxed plain-text summaries for the CLI.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/ipp-client/internal/connections"
	"github.com/jonathan/ipp-client/internal/experience"
	"github.com/jonathan/ipp-client/internal/gate"
	"github.com/jonathan/ipp-client/internal/types"
)

const (
	// boxWidth is the width of a summary box
	boxWidth = 64
	// maxItemsToShow is the number of list entries shown before "... and N more"
	maxItemsToShow = 5
)

// Printer writes summaries to out.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

//nolint:errcheck // terminal output; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads line to the box's inner width, counting runes.
func pad(line string) string {
	inner := boxWidth - 4
	n := utf8.RuneCountInString(line)
	if n > inner {
		r := []rune(line)
		return string(r[:inner-3]) + "..."
	}
	return line + strings.Repeat(" ", inner-n)
}

func moreLine(sb *strings.Builder, total, shown int) {
	if total > shown {
		fmt.Fprintf(sb, "  ... and %d more\n", total-shown)
	}
}

// PrintUser prints the signed-in profile.
func (p *Printer) PrintUser(u *types.User) {
	if u == nil {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name:   %s\n", u.Name)
	fmt.Fprintf(&sb, "Email:  %s\n", u.Email)
	if u.LastLogin != nil && !u.LastLogin.IsZero() {
		fmt.Fprintf(&sb, "Last login: %s", u.LastLogin.Format("2006-01-02 15:04"))
	}
	p.printBox("SIGNED IN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDocuments prints the working set.
func (p *Printer) PrintDocuments(docs []types.Document) {
	if len(docs) == 0 {
		p.printBox("DOCUMENTS", "No documents uploaded yet.")
		return
	}
	var sb strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&sb, "#%d  %-15s %s (%s)\n", d.ID, d.DocumentType.Label(), d.OriginalFilename, humanSize(d.FileSize))
	}
	p.printBox("DOCUMENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJob prints an analysis job's status.
func (p *Printer) PrintJob(job *types.AnalysisJob) {
	if job == nil {
		p.printBox("ANALYSIS", "No analyses found.")
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Job:      #%d\n", job.ID)
	fmt.Fprintf(&sb, "Status:   %s\n", job.Status)
	switch job.Status {
	case types.JobStatusFailed:
		msg := job.ErrorMessage
		if msg == "" {
			msg = "Analysis failed"
		}
		fmt.Fprintf(&sb, "Error:    %s\n", msg)
	default:
		fmt.Fprintf(&sb, "Progress: %.0f%%  %s\n", types.ProgressPercent(job.ProgressStep, job.Status), stepLabel(job))
		if job.ProgressMessage != "" {
			fmt.Fprintf(&sb, "          %s\n", job.ProgressMessage)
		}
	}
	if job.ContextSummary != "" {
		sb.WriteString("\n")
		sb.WriteString(wrap(job.ContextSummary, boxWidth-4))
	}
	p.printBox("ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

func stepLabel(job *types.AnalysisJob) string {
	idx := types.ProgressIndex(job.ProgressStep, job.Status)
	if idx < 0 {
		return job.ProgressStep
	}
	return types.ProgressSteps[idx].Label
}

// PrintAlignment prints the normalized connections analysis.
func (p *Printer) PrintAlignment(a *connections.SkillAlignment) {
	if a == nil || a.Empty() {
		p.printBox("SKILL ALIGNMENT", "No connections analysis available.")
		return
	}
	var sb strings.Builder

	if len(a.DirectMatches) > 0 {
		sb.WriteString("Direct matches:\n")
		count := min(len(a.DirectMatches), maxItemsToShow)
		for _, m := range a.DirectMatches[:count] {
			fmt.Fprintf(&sb, "  • %s (%.0f/10, %s)\n", m.Skill, m.ConfidenceScore, m.StrengthLevel)
		}
		moreLine(&sb, len(a.DirectMatches), count)
		sb.WriteString("\n")
	}

	if len(a.TransferableSkills) > 0 {
		sb.WriteString("Transferable skills:\n")
		count := min(len(a.TransferableSkills), maxItemsToShow)
		for _, s := range a.TransferableSkills[:count] {
			fmt.Fprintf(&sb, "  • %s → %s\n", s.CandidateSkill, s.RoleRequirement)
		}
		moreLine(&sb, len(a.TransferableSkills), count)
		sb.WriteString("\n")
	}

	if len(a.SkillGaps) > 0 {
		sb.WriteString("Growth areas:\n")
		count := min(len(a.SkillGaps), maxItemsToShow)
		for _, g := range a.SkillGaps[:count] {
			fmt.Fprintf(&sb, "  • %s [%s]\n", g.MissingSkill, g.Importance)
		}
		moreLine(&sb, len(a.SkillGaps), count)
	}

	p.printBox("SKILL ALIGNMENT", strings.TrimRight(sb.String(), "\n"))
}

// PrintItems lists experience candidates, marking selected ones.
func (p *Printer) PrintItems(items []experience.Item, sel *experience.Selection) {
	if len(items) == 0 {
		p.printBox("EXPERIENCES", "No experiences found. Complete an analysis first.")
		return
	}
	var sb strings.Builder
	for _, it := range items {
		mark := "[ ]"
		if sel != nil && sel.IsSelected(it.ID) {
			mark = "[x]"
		}
		fmt.Fprintf(&sb, "%s %-16s %3d%%  %s\n", mark, it.ID, it.Percent(), it.Title)
	}
	if sel != nil {
		fmt.Fprintf(&sb, "\nSelected: %d (need %d)", sel.Count(), gate.MinSelectedExperiences)
	}
	p.printBox("EXPERIENCES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDecision prints a gate outcome.
func (p *Printer) PrintDecision(stage gate.Stage, d gate.Decision) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Stage: %s\n", stage.Title())
	if d.Allowed {
		if next, ok := stage.Next(); ok {
			fmt.Fprintf(&sb, "Ready to continue to %s.", next.Title())
		} else {
			sb.WriteString("All stages complete.")
		}
	} else {
		fmt.Fprintf(&sb, "Not yet: %s.", d.Reason)
	}
	p.printBox("STAGE GATE", sb.String())
}

// PrintResponses prints questionnaire answers in key order.
func (p *Printer) PrintResponses(title string, r types.Responses) {
	if len(r) == 0 {
		p.printBox(title, "No responses saved.")
		return
	}
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %v\n", k, r[k])
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

func humanSize(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func wrap(text string, width int) string {
	var sb strings.Builder
	for _, para := range strings.Split(text, "\n") {
		line := 0
		for i, word := range strings.Fields(para) {
			w := utf8.RuneCountInString(word)
			if i > 0 && line+1+w > width {
				sb.WriteString("\n")
				line = 0
			} else if i > 0 {
				sb.WriteString(" ")
				line++
			}
			sb.WriteString(word)
			line += w
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
