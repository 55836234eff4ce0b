package bench

import (
	"context"
	"fmt"
	"slices"

	"github.com/ElaineAng/db-fork/internal/backend"
	"github.com/ElaineAng/db-fork/internal/config"
)

// Preflight checks that every table a workload touches exists and has a
// primary key. Sampling workloads also need sortIndex inside the key, and
// update-only needs at least one non-key column. The first failed check is
// returned as a *PreflightError.
func Preflight(ctx context.Context, a backend.Adapter, tables []string, workload string, sortIndex int) error {
	existing, err := a.AllTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	var missing []string
	for _, t := range tables {
		if !slices.Contains(existing, t) {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return &PreflightError{Check: "tables", Message: "tables not found", Tables: missing}
	}

	samples := workload == config.WorkloadReadOnly ||
		workload == config.WorkloadUpdateOnly ||
		workload == config.WorkloadBranchInsertRead

	var noKey, badSort, noColumns []string
	for _, t := range tables {
		pk, err := a.PrimaryKeyColumns(ctx, t)
		if err != nil {
			return fmt.Errorf("failed to get primary key of %s: %w", t, err)
		}
		if len(pk) == 0 {
			noKey = append(noKey, t)
			continue
		}
		if samples && sortIndex >= len(pk) {
			badSort = append(badSort, t)
		}
		if workload == config.WorkloadUpdateOnly {
			cols, err := a.AllColumns(ctx, t)
			if err != nil {
				return fmt.Errorf("failed to list columns of %s: %w", t, err)
			}
			if len(cols) <= len(pk) {
				noColumns = append(noColumns, t)
			}
		}
	}

	switch {
	case len(noKey) > 0:
		return &PreflightError{Check: "primary key", Message: "tables have no primary key", Tables: noKey}
	case len(badSort) > 0:
		return &PreflightError{
			Check:   "sort index",
			Message: fmt.Sprintf("sort_index %d is outside the primary key", sortIndex),
			Tables:  badSort,
		}
	case len(noColumns) > 0:
		return &PreflightError{Check: "updatable columns", Message: "tables have no non-key columns", Tables: noColumns}
	}
	return nil
}
