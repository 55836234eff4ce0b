// Package population caches per-table primary-key populations and row
// generators for the benchmark driver.
//
// The cache is branch-agnostic: keys loaded on one branch are assumed to
// exist on every branch forked from it afterwards. This holds for
// copy-on-write branching backends and is never invalidated on a branch
// switch. Callers must not write to a cached table through any path other
// than Add.
package population

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/ElaineAng/db-fork/internal/datagen"
	"github.com/ElaineAng/db-fork/internal/sqlutil"
	"github.com/ElaineAng/db-fork/internal/types"
)

// ErrNotLoaded is returned when a table's keys are used before LoadPrimaryKeys.
var ErrNotLoaded = errors.New("primary keys not loaded")

// Source is the part of a backend the cache reads from.
type Source interface {
	Dialect() sqlutil.Dialect
	RunQuery(ctx context.Context, query string, args ...any) ([][]any, error)
	TableDDL(ctx context.Context, table string) (string, error)
}

// Generator produces synthetic rows for one table.
type Generator interface {
	GenerateRow() datagen.Row
	GenerateValue(column string) (any, error)
}

// GeneratorFactory builds a generator from a table's DDL.
type GeneratorFactory func(table, ddl string) (Generator, error)

// SeededGenerators returns a factory whose generators are seeded from seed
// and the table name, so each table gets its own reproducible stream.
func SeededGenerators(seed uint64) GeneratorFactory {
	return func(table, ddl string) (Generator, error) {
		h := fnv.New64a()
		h.Write([]byte(table))
		g, err := datagen.New(ddl, seed^h.Sum64())
		if err != nil {
			return nil, err
		}
		return g, nil
	}
}

type tableKeys struct {
	columns []string
	index   map[string]struct{}
	keys    []types.Key
}

// Cache holds lazily loaded key sets and generators keyed by table name.
// It is not safe for concurrent use.
type Cache struct {
	source       Source
	newGenerator GeneratorFactory
	tables       map[string]*tableKeys
	generators   map[string]Generator
}

// New creates an empty cache reading from source.
func New(source Source, factory GeneratorFactory) *Cache {
	return &Cache{
		source:       source,
		newGenerator: factory,
		tables:       make(map[string]*tableKeys),
		generators:   make(map[string]Generator),
	}
}

// LoadPrimaryKeys scans the key columns of table on the current branch. It is
// a no-op when the table is already loaded.
func (c *Cache) LoadPrimaryKeys(ctx context.Context, table string, pkColumns []string) error {
	if _, ok := c.tables[table]; ok {
		return nil
	}
	if len(pkColumns) == 0 {
		return fmt.Errorf("table %s: no primary key columns", table)
	}

	query := sqlutil.BuildKeyScan(c.source.Dialect(), table, pkColumns)
	rows, err := c.source.RunQuery(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to scan primary keys of %s: %w", table, err)
	}

	tk := &tableKeys{
		columns: append([]string(nil), pkColumns...),
		index:   make(map[string]struct{}, len(rows)),
		keys:    make([]types.Key, 0, len(rows)),
	}
	for _, row := range rows {
		if len(row) != len(pkColumns) {
			return fmt.Errorf("table %s: key scan returned %d columns, expected %d", table, len(row), len(pkColumns))
		}
		key := types.NewKey(row...)
		s := key.String()
		if _, dup := tk.index[s]; dup {
			continue
		}
		tk.index[s] = struct{}{}
		tk.keys = append(tk.keys, key)
	}
	c.tables[table] = tk
	return nil
}

// Loaded reports whether the table's keys are cached.
func (c *Cache) Loaded(table string) bool {
	_, ok := c.tables[table]
	return ok
}

// PrimaryKeyColumns returns the key columns the table was loaded with.
func (c *Cache) PrimaryKeyColumns(table string) []string {
	tk, ok := c.tables[table]
	if !ok {
		return nil
	}
	return append([]string(nil), tk.columns...)
}

// Keys returns a copy of the cached keys in insertion order. Callers may sort
// the result freely.
func (c *Cache) Keys(table string) []types.Key {
	tk, ok := c.tables[table]
	if !ok {
		return nil
	}
	return append([]types.Key(nil), tk.keys...)
}

// RowCount is the number of cached keys, 0 for an unloaded table.
func (c *Cache) RowCount(table string) int {
	if tk, ok := c.tables[table]; ok {
		return len(tk.keys)
	}
	return 0
}

// Contains reports whether key is cached for table.
func (c *Cache) Contains(table string, key types.Key) bool {
	tk, ok := c.tables[table]
	if !ok {
		return false
	}
	_, found := tk.index[key.String()]
	return found
}

// Add records a key. It returns false without changing the cache when the key
// is already present.
func (c *Cache) Add(table string, key types.Key) (bool, error) {
	tk, ok := c.tables[table]
	if !ok {
		return false, fmt.Errorf("table %s: %w", table, ErrNotLoaded)
	}
	if len(key) != len(tk.columns) {
		return false, fmt.Errorf("table %s: key has %d values, expected %d", table, len(key), len(tk.columns))
	}
	s := key.String()
	if _, found := tk.index[s]; found {
		return false, nil
	}
	tk.index[s] = struct{}{}
	tk.keys = append(tk.keys, key)
	return true, nil
}

// KeyOf projects a generated row onto the table's primary key.
func (c *Cache) KeyOf(table string, row datagen.Row) (types.Key, error) {
	tk, ok := c.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", table, ErrNotLoaded)
	}
	values := make([]any, len(tk.columns))
	for i, col := range tk.columns {
		v, ok := row.Get(col)
		if !ok {
			return nil, fmt.Errorf("table %s: generated row has no key column %q", table, col)
		}
		values[i] = v
	}
	return types.NewKey(values...), nil
}

// LoadGenerator returns the table's generator, building it from the table DDL
// on first use.
func (c *Cache) LoadGenerator(ctx context.Context, table string) (Generator, error) {
	if g, ok := c.generators[table]; ok {
		return g, nil
	}
	ddl, err := c.source.TableDDL(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get DDL of %s: %w", table, err)
	}
	g, err := c.newGenerator(table, ddl)
	if err != nil {
		return nil, fmt.Errorf("failed to build generator for %s: %w", table, err)
	}
	c.generators[table] = g
	return g, nil
}
