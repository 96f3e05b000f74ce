// Package export writes workflow results to an Excel workbook.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/ipp-client/internal/connections"
	"github.com/jonathan/ipp-client/internal/experience"
	"github.com/jonathan/ipp-client/internal/gate"
	"github.com/jonathan/ipp-client/internal/types"
)

// Sheet names in workbook order.
const (
	SheetSummary     = "Summary"
	SheetDocuments   = "Documents"
	SheetAlignment   = "Skill Alignment"
	SheetExperiences = "Experiences"
)

// Report is everything a workbook summarizes. Nil fields produce empty sheets.
type Report struct {
	User        *types.User
	Stage       gate.Stage
	Documents   []types.Document
	Job         *types.AnalysisJob
	Alignment   *connections.SkillAlignment
	Items       []experience.Item
	Selection   *experience.Selection
	GeneratedAt time.Time
}

var border = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// styles are the cell styles shared by every sheet of one workbook.
type styles struct {
	title  int
	header int
	label  int
	wrap   int
}

func newStyles(f *excelize.File) (*styles, error) {
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}
	label, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}
	return &styles{title: title, header: header, label: label, wrap: wrap}, nil
}

// Workbook builds the workbook in memory. The caller closes it.
func Workbook(r Report) (*excelize.File, error) {
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}

	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create styles: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, name := range []string{SheetDocuments, SheetAlignment, SheetExperiences} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	builders := []struct {
		name  string
		build func(*excelize.File, *styles, Report) error
	}{
		{SheetSummary, summarySheet},
		{SheetDocuments, documentsSheet},
		{SheetAlignment, alignmentSheet},
		{SheetExperiences, experiencesSheet},
	}
	for _, b := range builders {
		if err := b.build(f, st, r); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create %s sheet: %w", strings.ToLower(b.name), err)
		}
	}
	return f, nil
}

// Bytes renders the workbook as xlsx bytes.
func Bytes(r Report) ([]byte, error) {
	f, err := Workbook(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile saves the workbook to path, adding the .xlsx extension when missing,
// and returns the path written.
func WriteFile(r Report, path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := Workbook(r)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", fmt.Errorf("xlsx write: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	return path, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeHeaders(f *excelize.File, st *styles, sheet string, headers []string) error {
	for i, h := range headers {
		c := cell(i+1, 1)
		if err := f.SetCellValue(sheet, c, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, c, c, st.header); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		if err := f.SetCellValue(sheet, cell(i+1, row), v); err != nil {
			return err
		}
	}
	return nil
}

func summarySheet(f *excelize.File, st *styles, r Report) error {
	sheet := SheetSummary
	_ = f.SetColWidth(sheet, "A", "A", 24)
	_ = f.SetColWidth(sheet, "B", "B", 60)

	if err := f.SetCellValue(sheet, "A1", "Career Reflection Report"); err != nil {
		return err
	}
	_ = f.SetCellStyle(sheet, "A1", "B1", st.title)
	_ = f.MergeCell(sheet, "A1", "B1")

	rows := [][2]any{{"Generated:", r.GeneratedAt.Format("2006-01-02 15:04:05")}}
	if r.User != nil {
		rows = append(rows, [2]any{"Name:", r.User.Name}, [2]any{"Email:", r.User.Email})
	}
	if r.Stage != "" {
		rows = append(rows, [2]any{"Stage:", r.Stage.Title()})
	}
	if r.Job != nil {
		rows = append(rows,
			[2]any{"Analysis:", fmt.Sprintf("#%d", r.Job.ID)},
			[2]any{"Status:", string(r.Job.Status)},
			[2]any{"Progress:", fmt.Sprintf("%.0f%%", types.ProgressPercent(r.Job.ProgressStep, r.Job.Status))},
		)
		if r.Job.ErrorMessage != "" {
			rows = append(rows, [2]any{"Error:", r.Job.ErrorMessage})
		}
	}
	if r.Selection != nil {
		rows = append(rows, [2]any{"Experiences selected:", r.Selection.Count()})
	}

	row := 3
	for _, kv := range rows {
		if err := writeRow(f, sheet, row, kv[0], kv[1]); err != nil {
			return err
		}
		_ = f.SetCellStyle(sheet, cell(1, row), cell(1, row), st.label)
		row++
	}

	if r.Job != nil && r.Job.ContextSummary != "" {
		row++
		if err := writeRow(f, sheet, row, "Summary:", r.Job.ContextSummary); err != nil {
			return err
		}
		_ = f.SetCellStyle(sheet, cell(1, row), cell(1, row), st.label)
		_ = f.SetCellStyle(sheet, cell(2, row), cell(2, row), st.wrap)
		_ = f.SetRowHeight(sheet, row, 90)
	}
	return nil
}

func documentsSheet(f *excelize.File, st *styles, r Report) error {
	sheet := SheetDocuments
	_ = f.SetColWidth(sheet, "A", "A", 8)
	_ = f.SetColWidth(sheet, "B", "B", 18)
	_ = f.SetColWidth(sheet, "C", "C", 40)
	_ = f.SetColWidth(sheet, "D", "E", 16)

	if err := writeHeaders(f, st, sheet, []string{"ID", "Type", "Filename", "Size (bytes)", "Uploaded"}); err != nil {
		return err
	}
	for i, d := range r.Documents {
		uploaded := ""
		if !d.CreatedAt.IsZero() {
			uploaded = d.CreatedAt.Format("2006-01-02")
		}
		if err := writeRow(f, sheet, i+2, d.ID, d.DocumentType.Label(), d.OriginalFilename, d.FileSize, uploaded); err != nil {
			return err
		}
	}
	return nil
}

func alignmentSheet(f *excelize.File, st *styles, r Report) error {
	sheet := SheetAlignment
	_ = f.SetColWidth(sheet, "A", "A", 16)
	_ = f.SetColWidth(sheet, "B", "C", 30)
	_ = f.SetColWidth(sheet, "D", "D", 50)
	_ = f.SetColWidth(sheet, "E", "E", 12)

	if err := writeHeaders(f, st, sheet, []string{"Category", "Skill", "Requirement", "Detail", "Score"}); err != nil {
		return err
	}
	if r.Alignment == nil {
		return nil
	}

	row := 2
	for _, m := range r.Alignment.DirectMatches {
		if err := writeRow(f, sheet, row, "Direct match", m.Skill, m.JobRequirementSnippet, m.CandidateEvidence, m.ConfidenceScore); err != nil {
			return err
		}
		row++
	}
	for _, s := range r.Alignment.TransferableSkills {
		if err := writeRow(f, sheet, row, "Transferable", s.CandidateSkill, s.RoleRequirement, s.TransferPathway, s.ConfidenceScore); err != nil {
			return err
		}
		row++
	}
	for _, g := range r.Alignment.SkillGaps {
		if err := writeRow(f, sheet, row, "Growth area", g.MissingSkill, g.JobRequirementSnippet, g.LearningPathway, g.Importance); err != nil {
			return err
		}
		row++
	}
	if row > 2 {
		_ = f.SetCellStyle(sheet, "A2", cell(5, row-1), st.wrap)
		return f.AutoFilter(sheet, fmt.Sprintf("A1:E%d", row-1), nil)
	}
	return nil
}

func experiencesSheet(f *excelize.File, st *styles, r Report) error {
	sheet := SheetExperiences
	_ = f.SetColWidth(sheet, "A", "A", 18)
	_ = f.SetColWidth(sheet, "B", "B", 12)
	_ = f.SetColWidth(sheet, "C", "C", 30)
	_ = f.SetColWidth(sheet, "D", "D", 12)
	_ = f.SetColWidth(sheet, "E", "E", 10)
	_ = f.SetColWidth(sheet, "F", "F", 50)

	if err := writeHeaders(f, st, sheet, []string{"ID", "Type", "Title", "Relevance", "Selected", "Elaboration"}); err != nil {
		return err
	}
	for i, it := range r.Items {
		selected, elaboration := "", ""
		if r.Selection != nil && r.Selection.IsSelected(it.ID) {
			selected = "yes"
			elaboration = r.Selection.Elaboration(it.ID)
		}
		if err := writeRow(f, sheet, i+2, it.ID, string(it.Type), it.Title, fmt.Sprintf("%d%%", it.Percent()), selected, elaboration); err != nil {
			return err
		}
	}
	if len(r.Items) > 0 {
		_ = f.SetCellStyle(sheet, "F2", cell(6, len(r.Items)+1), st.wrap)
	}
	return nil
}
