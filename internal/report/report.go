// Package report renders benchmark reports and plans for the terminal.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/ElaineAng/db-fork/internal/bench"
	"github.com/ElaineAng/db-fork/internal/branchtree"
)

// Printer writes human-readable output. Colors are dropped when NoColor is
// set.
type Printer struct {
	w       io.Writer
	NoColor bool
}

// New returns a printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

var (
	headerStyle = color.New(color.FgCyan, color.OpBold)
	okStyle     = color.New(color.FgGreen)
	warnStyle   = color.New(color.FgYellow)
	errStyle    = color.New(color.FgRed, color.OpBold)
)

func (p *Printer) paint(s color.Style, text string) string {
	if p.NoColor {
		return text
	}
	return s.Sprint(text)
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// Header prints a boxed title.
func (p *Printer) Header(format string, args ...any) {
	title := fmt.Sprintf(format, args...)
	rule := strings.Repeat("=", runewidth.StringWidth(title)+4)
	p.printf("%s\n  %s\n%s\n", rule, p.paint(headerStyle, title), rule)
}

// Section prints a section title with an underline.
func (p *Printer) Section(title string) {
	p.printf("[%s]\n%s\n", title, strings.Repeat("-", runewidth.StringWidth(title)+2))
}

// count colors n with bad when it is non-zero.
func (p *Printer) count(n int, bad color.Style) string {
	if n == 0 {
		return p.paint(okStyle, "0")
	}
	return p.paint(bad, fmt.Sprint(n))
}

// Report prints a finished run.
func (p *Printer) Report(r *bench.Report) {
	p.Header("Benchmark Report: %s", r.Workload)

	p.printf("\n")
	p.Section("Run")
	p.printf("  Run ID:    %s\n", r.RunID)
	p.printf("  Backend:   %s\n", r.Backend)
	if r.Scenario != "" {
		p.printf("  Scenario:  %s\n", r.Scenario)
	}
	if r.Table != "" {
		p.printf("  Table:     %s\n", r.Table)
	}
	p.printf("  Started:   %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	p.printf("  Duration:  %s\n", r.Duration.Round(time.Millisecond))

	p.printf("\n")
	p.Section("Branch Tree")
	visited := fmt.Sprintf("%d of %d intended", r.VisitedNodes, r.IntendedNodes)
	if r.Pruned() > 0 {
		visited = p.paint(warnStyle, visited)
	}
	p.printf("  Visited Nodes:     %s\n", visited)
	p.printf("  Branches Created:  %d\n", r.BranchesCreated)
	p.printf("  Branch Failures:   %s\n", p.count(r.BranchFailures, errStyle))
	if r.Pruned() > 0 {
		p.printf("  Pruned Nodes:      %s\n", p.paint(warnStyle, fmt.Sprint(r.Pruned())))
	}

	p.printf("\n")
	p.Section("Rows")
	p.printf("  Inserted:          %d of %d requested\n", r.RowsInserted, r.RowsRequested)
	p.printf("  Read:              %d\n", r.RowsRead)
	p.printf("  Updated:           %d\n", r.RowsUpdated)
	p.printf("  Shortfalls:        %s\n", p.count(r.Shortfalls, warnStyle))
	p.printf("  Commit Conflicts:  %s\n", p.count(r.CommitConflicts, warnStyle))
	p.printf("  Commit Failures:   %s\n", p.count(r.CommitFailures, errStyle))

	if len(r.Phases) > 0 {
		p.printf("\n")
		p.Section("Timings (ms)")
		p.timings(r.Phases)
	}

	if len(r.Warnings) > 0 {
		p.printf("\n")
		p.Section("Warnings")
		for _, w := range r.Warnings {
			p.printf("  %s %s\n", p.paint(warnStyle, "!"), w)
		}
	}
}

var timingColumns = []string{"Phase", "Table", "Tag", "Count", "Mean", "StdDev", "P50", "P95", "P99", "CI95"}

func (p *Printer) timings(phases []bench.PhaseReport) {
	rows := [][]string{timingColumns}
	for _, ph := range phases {
		table := ph.Table
		if table == "" {
			table = "-"
		}
		for _, t := range ph.Tags {
			s := t.Summary
			rows = append(rows, []string{
				ph.Name, table, t.Tag, fmt.Sprint(s.Count),
				ms(s.Mean), ms(s.StdDev), ms(s.P50), ms(s.P95), ms(s.P99), ms(s.CI95),
			})
		}
	}

	widths := make([]int, len(timingColumns))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			// Numbers are right-aligned, names left-aligned.
			if j >= 3 {
				cells[j] = padLeft(cell, widths[j])
			} else {
				cells[j] = runewidth.FillRight(cell, widths[j])
			}
		}
		line := "  " + strings.Join(cells, "  ")
		if i == 0 {
			line = p.paint(headerStyle, line)
		}
		p.printf("%s\n", strings.TrimRight(line, " "))
	}
}

func ms(seconds float64) string {
	return fmt.Sprintf("%.3f", seconds*1000)
}

func padLeft(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}

// Plan prints the intended shape of a run. At most maxNodes branches of the
// tree are drawn.
func (p *Printer) Plan(plan *bench.Plan, maxNodes int) {
	p.Header("Benchmark Plan: %s", plan.Workload)
	p.printf("\n")

	summary := []string{
		"[ Workload ]",
		strings.Repeat("-", 12),
		fmt.Sprintf("Intended Nodes:    %d", plan.IntendedNodes),
		fmt.Sprintf("Branch Creations:  %d", plan.BranchCreations),
		fmt.Sprintf("Insert Calls:      %d", plan.InsertCalls),
	}
	if plan.SampleSize > 0 {
		summary = append(summary,
			"",
			"[ Sampling ]",
			strings.Repeat("-", 12),
			fmt.Sprintf("Sample Size:       %d per table", plan.SampleSize),
			fmt.Sprintf("Distribution:      %s", plan.Distribution),
		)
	}

	if plan.Root == nil {
		for _, line := range summary {
			p.printf("%s\n", line)
		}
		return
	}

	var tree bytes.Buffer
	_ = branchtree.Render(&tree, plan.Root, maxNodes)
	p.sideBySide(tree.String(), summary, 4)
}

// sideBySide prints two blocks of text next to each other, at least padding
// columns apart.
func (p *Printer) sideBySide(left string, right []string, padding int) {
	leftLines := strings.Split(strings.TrimRight(left, "\n"), "\n")
	leftWidth := 0
	for _, line := range leftLines {
		leftWidth = max(leftWidth, runewidth.StringWidth(line))
	}

	for i := range max(len(leftLines), len(right)) {
		var l, r string
		if i < len(leftLines) {
			l = leftLines[i]
		}
		if i < len(right) {
			r = right[i]
		}
		if r == "" {
			p.printf("%s\n", l)
			continue
		}
		p.printf("%s%s\n", runewidth.FillRight(l, leftWidth+padding), r)
	}
}
