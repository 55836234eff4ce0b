package bench

import (
	"github.com/ElaineAng/db-fork/internal/branchtree"
	"github.com/ElaineAng/db-fork/internal/config"
	"github.com/ElaineAng/db-fork/internal/sampling"
)

// Plan is the intended shape of a run, computed without a backend.
type Plan struct {
	Workload string
	// Root is nil for workloads that do not branch.
	Root            *branchtree.Node
	IntendedNodes   int
	BranchCreations int
	// InsertCalls is per run for branch workloads and per table otherwise.
	InsertCalls int
	// SampleSize is the number of sampled keys per table for a population of
	// RowsPerTable rows.
	SampleSize   int
	Distribution string
}

// Estimate computes the plan of b.
func Estimate(b config.BenchmarkConfig) (*Plan, error) {
	if errs := config.ValidateBenchmark("benchmark", &b); len(errs) > 0 {
		return nil, errs
	}
	spec := sampling.Spec{
		Kind:  sampling.Kind(b.Sampling.Distribution.Kind),
		Alpha: b.Sampling.Distribution.Alpha,
		Beta:  b.Sampling.Distribution.Beta,
	}
	p := &Plan{Workload: b.Workload, Distribution: spec.String() + ", " + spec.Skew()}

	switch b.Workload {
	case config.WorkloadBranchOnly, config.WorkloadBranchInsert, config.WorkloadBranchInsertRead:
		root, total, err := branchtree.Build(b.RootBranch, b.Depth, b.Degree)
		if err != nil {
			return nil, err
		}
		p.Root = root
		p.IntendedNodes = total
		p.BranchCreations = total - 1
		perNode := b.InsertsPerBranch
		if b.Workload == config.WorkloadBranchOnly {
			perNode = branchOnlyInserts
		}
		p.InsertCalls = total * perNode
	case config.WorkloadInsertOnly:
		p.InsertCalls = b.RowsPerTable
	}

	switch b.Workload {
	case config.WorkloadBranchInsertRead, config.WorkloadReadOnly, config.WorkloadUpdateOnly:
		if b.RowsPerTable > 0 {
			p.SampleSize = sampling.SampleSize(b.RowsPerTable, b.Sampling.Rate, b.Sampling.Cap)
		}
	}
	return p, nil
}
