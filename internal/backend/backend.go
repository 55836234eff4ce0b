// Package backend defines the contract between the benchmark driver and a
// branchable data store.
//
// Adapters hold a single active connection. ConnectBranch redirects it, so
// no two branches are ever used at the same time. Children created with
// CreateBranch must start with the same rows as their parent; the
// population cache depends on it.
package backend

import (
	"cmp"
	"context"
	"slices"

	"github.com/ElaineAng/db-fork/internal/sqlutil"
)

// Branch identifies a branch by name and by the identifier the backend
// assigned to it. For stores that address branches by name, ID equals Name.
type Branch struct {
	Name string
	ID   string
}

// PKColumn is a primary-key column and its 1-based position in the key.
type PKColumn struct {
	Name    string
	Ordinal int
}

// Adapter is implemented by each supported store.
type Adapter interface {
	// Name is a short identifier such as "dolt".
	Name() string
	Dialect() sqlutil.Dialect

	// CreateBranch forks name from the branch identified by parentID. Any
	// error means the branch does not exist and its subtree is skipped.
	CreateBranch(ctx context.Context, name, parentID string) error
	ConnectBranch(ctx context.Context, name string) error
	ListBranches(ctx context.Context) ([]Branch, error)
	CurrentBranch(ctx context.Context) (Branch, error)
	DeleteBranch(ctx context.Context, name string) error

	// RunQuery returns all result rows, or an empty slice for statements
	// without a result set.
	RunQuery(ctx context.Context, query string, args ...any) ([][]any, error)
	// CommitChanges ends a batch of writes. A clean working set yields an
	// error wrapping ErrNothingToCommit.
	CommitChanges(ctx context.Context, message string) error

	AllTables(ctx context.Context) ([]string, error)
	AllColumns(ctx context.Context, table string) ([]string, error)
	PrimaryKeyColumns(ctx context.Context, table string) ([]PKColumn, error)
	// TableDDL returns a CREATE TABLE statement with one column per line.
	TableDDL(ctx context.Context, table string) (string, error)

	BulkLoad(ctx context.Context, table, path string) error
	CreateDatabase(ctx context.Context, name string) error
	DropDatabase(ctx context.Context, name string) error
	InitializeSchema(ctx context.Context, ddl string) error

	Close() error
}

// KeyColumnNames returns the column names ordered by key position.
func KeyColumnNames(cols []PKColumn) []string {
	ordered := slices.Clone(cols)
	slices.SortStableFunc(ordered, func(a, b PKColumn) int {
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})
	names := make([]string, len(ordered))
	for i, c := range ordered {
		names[i] = c.Name
	}
	return names
}
