// Package observability provides logging, metrics, and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/jonathan/candidate-recommender/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxTextLines bounds how much resume text is shown per candidate
	maxTextLines = 15
)

// Printer handles formatted output for ranking results and verbose mode
type Printer struct {
	out       io.Writer
	useColors bool
}

// NewPrinter creates a new Printer that writes to the given writer without colors
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// WithColors returns a copy of the printer with colors switched on or off
func (p *Printer) WithColors(useColors bool) *Printer {
	return &Printer{out: p.out, useColors: useColors}
}

func (p *Printer) colorize(attr color.Attribute) func(a ...any) string {
	c := color.New(attr)
	if p.useColors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		runes := []rune(line)
		if len(runes) > boxWidth-4 {
			line = string(runes[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSections outputs the sections extracted from a document, in display order.
func (p *Printer) PrintSections(doc *types.SectionedDocument) {
	if doc == nil {
		return
	}

	title := "RESUME SECTIONS"
	if doc.Kind == types.DocumentJob {
		title = "JOB DESCRIPTION SECTIONS"
	}

	var sb strings.Builder
	for i, name := range doc.ExpectedSections() {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(string(name) + ":\n")
		text := doc.Get(name)
		if text == "" {
			sb.WriteString("  (empty)\n")
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			sb.WriteString("  " + line + "\n")
		}
	}

	p.printBox(title, strings.TrimRight(sb.String(), "\n"))
}

// PrintRanking outputs a table of the top candidates followed by their notes,
// summaries and, when showText is set, the head of each resume.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRanking(result *types.RankedCandidates, topN int, showText bool) {
	if result == nil {
		return
	}

	bold := p.colorize(color.Bold)
	green := p.colorize(color.FgGreen)

	top := result.Top(topN)
	fmt.Fprintf(p.out, "%s (%d of %d, strategy %s)\n\n",
		bold("Top candidates"), len(top), len(result.Candidates), result.Strategy)

	if len(top) > 0 {
		p.renderTable(top)
	}

	for i, c := range top {
		if c.Summary == "" && c.Notes == "" && !showText {
			continue
		}
		fmt.Fprintf(p.out, "\n%s %s\n", bold(fmt.Sprintf("%d.", i+1)), bold(c.ID))
		if c.Notes != "" {
			fmt.Fprintf(p.out, "   %s\n", c.Notes)
		}
		if c.Summary != "" {
			fmt.Fprintf(p.out, "   %s %s\n", green("Why:"), c.Summary)
		}
		if showText && c.Text != "" {
			p.printBox(c.ID, headLines(c.Text, maxTextLines))
		}
	}

	p.PrintSkipped(result.Skipped)
}

// renderTable writes one row per candidate with the overall and per-section scores
func (p *Printer) renderTable(candidates []types.CandidateResult) {
	header := []string{"#", "Candidate", "Email", "Overall"}
	for _, s := range candidates[0].PerSection {
		header = append(header, s.Label)
	}

	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		email := ""
		if c.Contact != nil {
			email = c.Contact.Email
		}
		row := []string{fmt.Sprintf("%d", i+1), c.ID, email, fmt.Sprintf("%.4f", c.Overall)}
		for _, s := range c.PerSection {
			row = append(row, fmt.Sprintf("%.4f", s.Score))
		}
		rows = append(rows, row)
	}

	table := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)
	table.Header(header)
	table.Bulk(rows) //nolint:errcheck
	table.Render()   //nolint:errcheck
}

// PrintSkipped warns about resumes left out of the ranking.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSkipped(skipped []types.SkippedResume) {
	if len(skipped) == 0 {
		return
	}
	yellow := p.colorize(color.FgYellow)

	fmt.Fprintf(p.out, "\n%s %d resume(s) skipped:\n", yellow("Warning:"), len(skipped))
	for _, s := range skipped {
		fmt.Fprintf(p.out, "  - %s (%s): %s\n", s.ID, s.Stage, s.Reason)
	}
}

// headLines returns at most n lines of text, marking the cut
func headLines(text string, n int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}
