package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-builder/internal/analysis"
	"github.com/jonathan/resume-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer writes human-readable summaries for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	inner := boxWidth - 4
	pad := func(s string) string {
		s = truncate(s, inner)
		return s + strings.Repeat(" ", inner-utf8.RuneCountInString(s))
	}

	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func strengthMark(s analysis.Strength) string {
	switch s {
	case analysis.StrengthContextual:
		return "✓"
	case analysis.StrengthListed:
		return "~"
	default:
		return "✗"
	}
}

// PrintReport outputs the scored categories of an analysis, weakest skills first.
func (p *Printer) PrintReport(report *analysis.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Final Score: %.0f\n", report.FinalScore))
	sb.WriteString(fmt.Sprintf("Coverage:    %.0f%%\n", report.Coverage*100))

	for _, c := range report.Categories {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s  %.1f/%.0f\n", c.Name, c.Normalized, analysis.MaxNormalizedScore))
		count := min(len(c.Items), maxItemsToShow)
		for i := 0; i < count; i++ {
			item := c.Items[i]
			sb.WriteString(fmt.Sprintf("  %s %s\n", strengthMark(item.Strength), item.Skill))
		}
		if len(c.Items) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(c.Items)-maxItemsToShow))
		}
	}

	for _, note := range []analysis.ScoredNote{report.JobTitleMatch, report.EducationLevel} {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s  %.1f/%.0f\n", note.Name, note.Normalized, analysis.MaxNormalizedScore))
		if note.Explanation != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", note.Explanation))
		}
	}

	if report.Summary != "" {
		sb.WriteString("\n")
		sb.WriteString(report.Summary)
	}

	p.printBox("RESUME ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEvidence outputs where the resume supports each skill.
func (p *Printer) PrintEvidence(items []analysis.Item) {
	if len(items) == 0 {
		return
	}

	var sb strings.Builder
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%s %s (%s)\n", strengthMark(item.Strength), item.Skill, item.Strength))
		for _, ev := range item.Evidence {
			if ev.Company != "" {
				sb.WriteString(fmt.Sprintf("    %s @ %s: %s\n", ev.Role, ev.Company, ev.Text))
			} else {
				sb.WriteString(fmt.Sprintf("    %s\n", ev.Text))
			}
		}
		if i < len(items)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("SKILL EVIDENCE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResume outputs a short summary of an imported document.
func (p *Printer) PrintResume(id string, doc *types.ResumeDocument) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:     %s\n", id))
	sb.WriteString(fmt.Sprintf("Name:   %s\n", doc.PersonalInfo.Name))
	if doc.PersonalInfo.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:  %s\n", doc.PersonalInfo.Email))
	}
	sb.WriteString("\n")

	if len(doc.WorkExperience) > 0 {
		sb.WriteString("Work Experience:\n")
		count := min(len(doc.WorkExperience), maxItemsToShow)
		for i := 0; i < count; i++ {
			entry := doc.WorkExperience[i]
			sb.WriteString(fmt.Sprintf("  • %s, %s (%d bullets)\n", entry.Role, entry.Company, len(entry.Responsibilities)))
		}
		if len(doc.WorkExperience) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(doc.WorkExperience)-maxItemsToShow))
		}
	}

	if len(doc.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("Skills: %s\n", strings.Join(doc.Skills, ", ")))
	}

	p.printBox("IMPORTED RESUME", strings.TrimSuffix(sb.String(), "\n"))
}
