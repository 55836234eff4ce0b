package bench

import (
	"context"
	"fmt"
	"slices"

	"github.com/ElaineAng/db-fork/internal/backend"
	"github.com/ElaineAng/db-fork/internal/sampling"
	"github.com/ElaineAng/db-fork/internal/sqlutil"
	"github.com/ElaineAng/db-fork/internal/types"
)

// insertAttemptFactor bounds row generation at this many attempts per
// requested row.
const insertAttemptFactor = 5

// maxUpdateColumns is the most non-key columns one update changes.
const maxUpdateColumns = 3

// ensureKeys loads the table's primary-key population on first use.
func (o *Orchestrator) ensureKeys(ctx context.Context, table string) error {
	if o.cache.Loaded(table) {
		return nil
	}
	pk, err := o.raw.PrimaryKeyColumns(ctx, table)
	if err != nil {
		return fmt.Errorf("failed to get primary key of %s: %w", table, err)
	}
	return o.cache.LoadPrimaryKeys(ctx, table, backend.KeyColumnNames(pk))
}

// insertRows writes up to n rows whose keys are new to the population
// cache, then commits once. Running out of attempts is a shortfall, not an
// error.
func (o *Orchestrator) insertRows(ctx context.Context, a backend.Adapter, table string, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	if err := o.ensureKeys(ctx, table); err != nil {
		return 0, err
	}
	gen, err := o.cache.LoadGenerator(ctx, table)
	if err != nil {
		return 0, err
	}
	o.report.RowsRequested += n

	d := a.Dialect()
	inserted := 0
	for attempt := 0; attempt < insertAttemptFactor*n && inserted < n; attempt++ {
		row := gen.GenerateRow()
		key, err := o.cache.KeyOf(table, row)
		if err != nil {
			return inserted, err
		}
		added, err := o.cache.Add(table, key)
		if err != nil {
			return inserted, err
		}
		if !added {
			continue
		}

		columns := row.Keys()
		args := make([]any, len(columns))
		for i, c := range columns {
			args[i], _ = row.Get(c)
		}
		if _, err := a.RunQuery(ctx, sqlutil.BuildInsert(d, table, columns), args...); err != nil {
			return inserted, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		inserted++
	}
	o.report.RowsInserted += inserted

	if inserted < n {
		o.report.Shortfalls++
		o.report.warn("%s: inserted %d of %d requested rows", table, inserted, n)
		o.logger.Warnw("Could not generate enough unique rows",
			"table", table,
			"requested", n,
			"inserted", inserted,
			"attempts", insertAttemptFactor*n,
		)
	}
	if inserted > 0 {
		o.commit(ctx, a, fmt.Sprintf("insert %d rows into %s", inserted, table))
	}
	return inserted, nil
}

// sample returns the sampled keys of table, sorted and skewed as
// configured. An empty population yields no keys.
func (o *Orchestrator) sample(ctx context.Context, table string) ([]types.Key, error) {
	if err := o.ensureKeys(ctx, table); err != nil {
		return nil, err
	}
	keys := o.cache.Keys(table)
	if len(keys) == 0 {
		o.report.warn("%s: no rows to sample", table)
		o.logger.Warnw("Table has no rows to sample", "table", table)
		return nil, nil
	}
	s := o.bench.Sampling
	return sampling.Select(keys, sampling.Options{
		Rate:         s.Rate,
		Cap:          s.Cap,
		Distribution: o.dist,
		SortKeyIndex: s.SortIndex,
	})
}

// pointReads issues one primary-key lookup per sampled key.
func (o *Orchestrator) pointReads(ctx context.Context, a backend.Adapter, table string) (int, error) {
	keys, err := o.sample(ctx, table)
	if err != nil {
		return 0, err
	}
	stmt := sqlutil.BuildPointSelect(a.Dialect(), table, o.cache.PrimaryKeyColumns(table))

	read := 0
	for _, k := range keys {
		if _, err := a.RunQuery(ctx, stmt, k...); err != nil {
			return read, fmt.Errorf("failed to read from %s: %w", table, err)
		}
		read++
	}
	o.report.RowsRead += read
	return read, nil
}

// updateRows rewrites 1 to 3 random non-key columns of every sampled row and
// commits once at the end.
func (o *Orchestrator) updateRows(ctx context.Context, a backend.Adapter, table string) (int, error) {
	candidates, err := o.updatableColumns(ctx, table)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, &PreflightError{Check: "updatable columns", Message: "table has no non-key columns", Tables: []string{table}}
	}
	gen, err := o.cache.LoadGenerator(ctx, table)
	if err != nil {
		return 0, err
	}
	keys, err := o.sample(ctx, table)
	if err != nil {
		return 0, err
	}

	d := a.Dialect()
	pk := o.cache.PrimaryKeyColumns(table)
	updated := 0
	for _, k := range keys {
		columns := o.pickColumns(candidates)
		args := make([]any, 0, len(columns)+len(k))
		for _, c := range columns {
			v, err := gen.GenerateValue(c)
			if err != nil {
				return updated, err
			}
			args = append(args, v)
		}
		args = append(args, k...)
		if _, err := a.RunQuery(ctx, sqlutil.BuildUpdate(d, table, columns, pk), args...); err != nil {
			return updated, fmt.Errorf("failed to update %s: %w", table, err)
		}
		updated++
	}
	o.report.RowsUpdated += updated

	if updated > 0 {
		o.commit(ctx, a, fmt.Sprintf("update %d rows in %s", updated, table))
	}
	return updated, nil
}

// pickColumns draws 1..maxUpdateColumns distinct columns, kept in table order.
func (o *Orchestrator) pickColumns(candidates []string) []string {
	k := 1 + o.rng.IntN(min(maxUpdateColumns, len(candidates)))
	idx := o.rng.Perm(len(candidates))[:k]
	slices.Sort(idx)
	cols := make([]string, k)
	for i, j := range idx {
		cols[i] = candidates[j]
	}
	return cols
}

// updatableColumns returns the table's non-key columns in table order.
func (o *Orchestrator) updatableColumns(ctx context.Context, table string) ([]string, error) {
	if err := o.ensureKeys(ctx, table); err != nil {
		return nil, err
	}
	all, ok := o.columns[table]
	if !ok {
		var err error
		all, err = o.raw.AllColumns(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
		}
		o.columns[table] = all
	}
	pk := o.cache.PrimaryKeyColumns(table)
	var out []string
	for _, c := range all {
		if !slices.Contains(pk, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// commit ends a write batch. No commit outcome stops the run.
func (o *Orchestrator) commit(ctx context.Context, a backend.Adapter, message string) {
	err := a.CommitChanges(ctx, fmt.Sprintf("branchbench %s: %s", o.report.RunID, message))
	switch backend.Classify(err) {
	case backend.OK:
	case backend.RecoverableConflict:
		o.report.CommitConflicts++
		o.logger.Warnw("Commit reported a conflict", "message", message, "error", err)
	default:
		o.report.CommitFailures++
		o.report.warn("commit %q failed: %v", message, err)
		o.logger.Errorw("Commit failed, continuing", "message", message, "error", err)
	}
}
