// Package bench runs branch benchmarks against a backend.Adapter.
package bench

import (
	"fmt"
	"strings"
	"time"

	"github.com/ElaineAng/db-fork/internal/config"
	"github.com/ElaineAng/db-fork/internal/timing"
)

// Options is one resolved benchmark run.
type Options struct {
	Scenario  string
	Benchmark config.BenchmarkConfig
	// Preloaded lists tables bulk-loaded by Setup. Per-table workloads run
	// over them when Benchmark.Tables is empty.
	Preloaded []string
}

// TagSummary is the summary of one timing tag. Tag "all" is the unlabeled
// bucket.
type TagSummary struct {
	Tag string
	timing.Summary
}

// PhaseReport holds the timings of one benchmark phase.
type PhaseReport struct {
	Name  string
	Table string
	Tags  []TagSummary
}

// Tag returns the summary for tag, or the zero Summary.
func (p PhaseReport) Tag(tag string) timing.Summary {
	for _, t := range p.Tags {
		if t.Tag == tag {
			return t.Summary
		}
	}
	return timing.Summary{}
}

// Report is the outcome of a run.
type Report struct {
	RunID     string
	Scenario  string
	Workload  string
	Backend   string
	Table     string
	StartedAt time.Time
	Duration  time.Duration

	IntendedNodes   int
	VisitedNodes    int
	BranchesCreated int
	BranchFailures  int

	RowsRequested   int
	RowsInserted    int
	RowsRead        int
	RowsUpdated     int
	Shortfalls      int
	CommitConflicts int
	CommitFailures  int

	Phases   []PhaseReport
	Warnings []string
}

// Pruned is the number of intended nodes the run never visited.
func (r *Report) Pruned() int {
	return r.IntendedNodes - r.VisitedNodes
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// PreflightError is a setup problem found before any benchmark call.
type PreflightError struct {
	Check   string
	Message string
	Tables  []string
}

func (e *PreflightError) Error() string {
	if len(e.Tables) > 0 {
		return fmt.Sprintf("%s: %s (tables: %s)", e.Check, e.Message, strings.Join(e.Tables, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Check, e.Message)
}
