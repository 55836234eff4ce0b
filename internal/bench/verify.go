package bench

import (
	"context"
	"fmt"

	"github.com/ElaineAng/db-fork/internal/sqlutil"
	"github.com/ElaineAng/db-fork/internal/types"
)

// verifyPopulation compares the table's row count on the current branch
// with the cached population and warns when they differ.
func (o *Orchestrator) verifyPopulation(ctx context.Context, table string) error {
	rows, err := o.raw.RunQuery(ctx, sqlutil.BuildCount(o.raw.Dialect(), table))
	if err != nil {
		return fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return fmt.Errorf("count of %s returned no rows", table)
	}

	actual := types.ToInt64(rows[0][0])
	cached := int64(o.cache.RowCount(table))
	if actual != cached {
		o.report.warn("%s: %d rows on branch, %d in population cache", table, actual, cached)
		o.logger.Warnw("Population mismatch",
			"table", table,
			"branch_rows", actual,
			"cached_rows", cached,
		)
		return nil
	}
	o.logger.Debugw("Population verified", "table", table, "rows", actual)
	return nil
}
