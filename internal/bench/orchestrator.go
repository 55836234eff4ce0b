package bench

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/ElaineAng/db-fork/internal/backend"
	"github.com/ElaineAng/db-fork/internal/branchtree"
	"github.com/ElaineAng/db-fork/internal/config"
	"github.com/ElaineAng/db-fork/internal/logger"
	"github.com/ElaineAng/db-fork/internal/population"
	"github.com/ElaineAng/db-fork/internal/sampling"
	"github.com/ElaineAng/db-fork/internal/timing"
)

// branchOnlyInserts is the number of untimed rows written at every node of a
// branch-only run, so that each branch differs from its parent.
const branchOnlyInserts = 2

// Phase names used in reports.
const (
	PhaseBranch = "branch"
	PhaseInsert = "insert"
	PhaseRead   = "read"
	PhaseUpdate = "update"
)

// phase pairs a recorder with an adapter that reports into it.
type phase struct {
	name  string
	rec   *timing.Recorder
	timed backend.Adapter
}

// Orchestrator drives one benchmark run. It owns the population cache and
// is not safe for concurrent use.
type Orchestrator struct {
	raw    backend.Adapter
	opts   Options
	bench  config.BenchmarkConfig
	cache  *population.Cache
	rng    *rand.Rand
	dist   sampling.Distribution
	logger *logger.Logger

	phases   map[string]*phase
	progress *progress
	columns  map[string][]string
	report   *Report
}

// NewOrchestrator prepares a run over adapter. The seed in opts drives table
// choice, update column choice, sampling and row generation.
func NewOrchestrator(adapter backend.Adapter, opts Options, log *logger.Logger) (*Orchestrator, error) {
	if adapter == nil {
		return nil, fmt.Errorf("backend adapter is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	b := opts.Benchmark
	if errs := config.ValidateBenchmark("benchmark", &b); len(errs) > 0 {
		return nil, errs
	}

	spec := sampling.Spec{
		Kind:  sampling.Kind(b.Sampling.Distribution.Kind),
		Alpha: b.Sampling.Distribution.Alpha,
		Beta:  b.Sampling.Distribution.Beta,
	}
	dist, err := spec.Build(rand.NewPCG(b.Seed, 0x5a4d))
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		raw:     adapter,
		opts:    opts,
		bench:   b,
		cache:   population.New(adapter, population.SeededGenerators(b.Seed)),
		rng:     rand.New(rand.NewPCG(b.Seed, 0x7e11)),
		dist:    dist,
		logger:  log.WithWorkload(b.Workload),
		phases:  make(map[string]*phase),
		columns: make(map[string][]string),
	}
	if opts.Scenario != "" {
		o.logger = o.logger.WithScenario(opts.Scenario)
	}
	return o, nil
}

// SetDistribution replaces the configured distribution, e.g. with a
// sampling.Custom one.
func (o *Orchestrator) SetDistribution(d sampling.Distribution) {
	o.dist = d
}

func (o *Orchestrator) phase(name string) *phase {
	if p, ok := o.phases[name]; ok {
		return p
	}
	rec := timing.NewRecorder()
	p := &phase{name: name, rec: rec, timed: backend.NewTimed(o.raw, rec)}
	o.phases[name] = p
	return p
}

// adapterFor returns the timed adapter of the phase when timed is set and
// the raw adapter otherwise.
func (o *Orchestrator) adapterFor(name string, timed bool) backend.Adapter {
	if timed {
		return o.phase(name).timed
	}
	return o.raw
}

// flush snapshots the phase's recorder into the report and resets it.
func (o *Orchestrator) flush(name, table string) {
	p, ok := o.phases[name]
	if !ok {
		return
	}
	pr := PhaseReport{Name: name, Table: table}
	sums := p.rec.Summaries()
	for _, tag := range p.rec.Tags() {
		pr.Tags = append(pr.Tags, TagSummary{Tag: tag, Summary: sums[tag]})
	}
	pr.Tags = append(pr.Tags, TagSummary{Tag: "all", Summary: sums[""]})
	o.report.Phases = append(o.report.Phases, pr)
	p.rec.Reset()
}

// Run executes the configured workload and returns its report. Branch
// failures, commit conflicts and insert shortfalls are recorded in the
// report; query failures abort the run.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	o.report = &Report{
		RunID:     uuid.NewString(),
		Scenario:  o.opts.Scenario,
		Workload:  o.bench.Workload,
		Backend:   o.raw.Name(),
		StartedAt: time.Now(),
	}
	o.phases = make(map[string]*phase)
	o.progress = newProgress(o.bench.ProgressInterval)

	o.logger.Infow("Starting benchmark",
		"run_id", o.report.RunID,
		"backend", o.report.Backend,
		"seed", o.bench.Seed,
	)

	var err error
	switch o.bench.Workload {
	case config.WorkloadBranchOnly, config.WorkloadBranchInsert, config.WorkloadBranchInsertRead:
		err = o.runTree(ctx)
	case config.WorkloadInsertOnly, config.WorkloadUpdateOnly, config.WorkloadReadOnly:
		err = o.runPerTable(ctx)
	default:
		err = fmt.Errorf("unknown workload %q", o.bench.Workload)
	}
	o.report.Duration = time.Since(o.report.StartedAt)
	if err != nil {
		return o.report, err
	}

	o.logger.Infow("Benchmark complete",
		"run_id", o.report.RunID,
		"duration", o.report.Duration,
		"visited_nodes", o.report.VisitedNodes,
		"intended_nodes", o.report.IntendedNodes,
		"rows_inserted", o.report.RowsInserted,
	)
	return o.report, nil
}

// runTree walks the branch tree breadth-first. Every node is connected to
// untimed, receives its writes, and then creates its children from its own
// backend ID. A child whose creation fails is not queued, which prunes its
// subtree.
func (o *Orchestrator) runTree(ctx context.Context) error {
	b := o.bench
	root, total, err := branchtree.Build(b.RootBranch, b.Depth, b.Degree)
	if err != nil {
		return err
	}
	o.report.IntendedNodes = total

	if err := o.raw.ConnectBranch(ctx, b.RootBranch); err != nil {
		return fmt.Errorf("failed to connect to root branch %s: %w", b.RootBranch, err)
	}
	table, err := o.pickTable(ctx)
	if err != nil {
		return err
	}
	o.report.Table = table

	reads := b.Workload == config.WorkloadBranchInsertRead
	if err := Preflight(ctx, o.raw, []string{table}, b.Workload, b.Sampling.SortIndex); err != nil {
		return err
	}

	inserts, timeInserts, timeBranch := b.InsertsPerBranch, b.TimeInserts, b.TimeBranchCreate
	if b.Workload == config.WorkloadBranchOnly {
		inserts, timeInserts, timeBranch = branchOnlyInserts, false, true
	}
	inserter := o.adapterFor(PhaseInsert, timeInserts)
	creator := o.adapterFor(PhaseBranch, timeBranch)

	queue := []*branchtree.Node{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		log := o.logger.WithBranch(node.Name)

		if node != root {
			if err := o.raw.ConnectBranch(ctx, node.Name); err != nil {
				return fmt.Errorf("failed to connect to branch %s: %w", node.Name, err)
			}
		}
		o.report.VisitedNodes++
		current, err := o.raw.CurrentBranch(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve branch %s: %w", node.Name, err)
		}

		if inserts > 0 {
			if _, err := o.insertRows(ctx, inserter, table, inserts); err != nil {
				return err
			}
		}
		if reads {
			if _, err := o.pointReads(ctx, o.phase(PhaseRead).timed, table); err != nil {
				return err
			}
		}

		log.Debugw("Visited branch", "depth", node.Depth, "children", len(node.Children))
		if o.progress.due() {
			o.logger.Infow("Traversal progress",
				"visited", o.report.VisitedNodes,
				"intended", o.report.IntendedNodes,
				"created", o.report.BranchesCreated,
			)
		}

		for _, child := range node.Children {
			if err := creator.CreateBranch(ctx, child.Name, current.ID); err != nil {
				o.report.BranchFailures++
				pruned := len(branchtree.BreadthFirst(child))
				hint := ""
				if errors.Is(err, backend.ErrBranchExists) {
					hint = " (left over from an earlier run, remove it with branchbench cleanup)"
				}
				o.report.warn("branch %s not created, %d nodes pruned%s: %v", child.Name, pruned, hint, err)
				log.Warnw("Branch creation failed, pruning subtree",
					"child", child.Name,
					"pruned_nodes", pruned,
					"outcome", backend.Classify(err).String(),
					"error", err,
				)
				continue
			}
			o.report.BranchesCreated++
			queue = append(queue, child)
		}
	}

	o.flush(PhaseBranch, "")
	o.flush(PhaseInsert, table)
	o.flush(PhaseRead, table)
	return nil
}

// runPerTable runs an insert, update or read phase on each target table,
// resetting the recorder between tables.
func (o *Orchestrator) runPerTable(ctx context.Context) error {
	b := o.bench
	if err := o.raw.ConnectBranch(ctx, b.RootBranch); err != nil {
		return fmt.Errorf("failed to connect to root branch %s: %w", b.RootBranch, err)
	}
	tables, err := o.targetTables(ctx)
	if err != nil {
		return err
	}
	if err := Preflight(ctx, o.raw, tables, b.Workload, b.Sampling.SortIndex); err != nil {
		return err
	}

	for _, table := range tables {
		log := o.logger.WithTable(table)
		var name string
		switch b.Workload {
		case config.WorkloadInsertOnly:
			name = PhaseInsert
			if _, err := o.insertRows(ctx, o.phase(name).timed, table, b.RowsPerTable); err != nil {
				return err
			}
			if b.VerifyPopulation {
				if err := o.verifyPopulation(ctx, table); err != nil {
					return err
				}
			}
		case config.WorkloadUpdateOnly:
			name = PhaseUpdate
			if _, err := o.updateRows(ctx, o.phase(name).timed, table); err != nil {
				return err
			}
		case config.WorkloadReadOnly:
			name = PhaseRead
			if _, err := o.pointReads(ctx, o.phase(name).timed, table); err != nil {
				return err
			}
		}
		avg := timing.Average(o.phase(name).rec.Report(""))
		log.Infow("Table benchmark complete", "phase", name, "avg_seconds", avg)
		o.flush(name, table)
	}
	return nil
}

// targetTables resolves the tables of a per-table workload: the configured
// list, else the preloaded tables, else every table.
func (o *Orchestrator) targetTables(ctx context.Context) ([]string, error) {
	if len(o.bench.Tables) > 0 {
		return o.bench.Tables, nil
	}
	if o.bench.Table != "" {
		return []string{o.bench.Table}, nil
	}
	if len(o.opts.Preloaded) > 0 {
		return o.opts.Preloaded, nil
	}
	tables, err := o.raw.AllTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	if len(tables) == 0 {
		return nil, &PreflightError{Check: "tables", Message: "database has no tables"}
	}
	return tables, nil
}

// pickTable returns the configured table, or a seeded random choice among
// all tables.
func (o *Orchestrator) pickTable(ctx context.Context) (string, error) {
	if o.bench.Table != "" {
		return o.bench.Table, nil
	}
	tables, err := o.raw.AllTables(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list tables: %w", err)
	}
	if len(tables) == 0 {
		return "", &PreflightError{Check: "tables", Message: "database has no tables"}
	}
	table := tables[o.rng.IntN(len(tables))]
	o.logger.Infow("Picked benchmark table", "table", table)
	return table, nil
}
