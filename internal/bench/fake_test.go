package bench

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ElaineAng/db-fork/internal/backend"
	"github.com/ElaineAng/db-fork/internal/sqlutil"
	"github.com/ElaineAng/db-fork/internal/types"
)

type fakeTable struct {
	columns []backend.ColumnDef
	pk      []string
}

type fakeBranch struct {
	id   string
	rows map[string]map[string]types.Key // table -> key string -> key
}

// fakeAdapter is an in-memory copy-on-write branch store that understands
// exactly the statements the orchestrator builds.
type fakeAdapter struct {
	tables   map[string]fakeTable
	order    []string
	branches map[string]*fakeBranch
	current  string

	failCreate map[string]bool
	commitErr  error
	queryErr   error
	dbExists   bool

	calls    map[string]int
	created  [][2]string // name, parent ID
	inserts  map[string]int // per branch
	updates  []string
	commits  []string
	schema   string
	loaded   map[string]string
	database string
}

var _ backend.Adapter = (*fakeAdapter)(nil)

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		tables: map[string]fakeTable{},
		branches: map[string]*fakeBranch{
			"main": {id: "id-main", rows: map[string]map[string]types.Key{}},
		},
		current:    "main",
		failCreate: map[string]bool{},
		calls:      map[string]int{},
		inserts:    map[string]int{},
		loaded:     map[string]string{},
	}
}

func (f *fakeAdapter) addTable(name string, pk []string, cols ...backend.ColumnDef) {
	f.tables[name] = fakeTable{columns: cols, pk: pk}
	f.order = append(f.order, name)
	f.branches["main"].rows[name] = map[string]types.Key{}
}

// seed puts keys directly on main.
func (f *fakeAdapter) seed(table string, keys ...types.Key) {
	for _, k := range keys {
		f.branches["main"].rows[table][k.String()] = k
	}
}

func (f *fakeAdapter) Name() string             { return "fake" }
func (f *fakeAdapter) Dialect() sqlutil.Dialect { return sqlutil.MySQL }

func (f *fakeAdapter) CreateBranch(_ context.Context, name, parentID string) error {
	f.calls["create"]++
	if f.failCreate[name] {
		return backend.NewError("create branch "+name, nil, fmt.Errorf("injected failure"))
	}
	if _, ok := f.branches[name]; ok {
		return backend.NewError("create branch "+name, backend.ErrBranchExists, nil)
	}
	var parent *fakeBranch
	for _, b := range f.branches {
		if b.id == parentID {
			parent = b
		}
	}
	if parent == nil {
		return backend.NewError("create branch "+name, backend.ErrBranchNotFound, nil)
	}
	child := &fakeBranch{id: "id-" + name, rows: map[string]map[string]types.Key{}}
	for t, rows := range parent.rows {
		child.rows[t] = map[string]types.Key{}
		for k, v := range rows {
			child.rows[t][k] = v
		}
	}
	f.branches[name] = child
	f.created = append(f.created, [2]string{name, parentID})
	return nil
}

func (f *fakeAdapter) ConnectBranch(_ context.Context, name string) error {
	f.calls["connect"]++
	if _, ok := f.branches[name]; !ok {
		return backend.NewError("connect branch "+name, backend.ErrBranchNotFound, nil)
	}
	f.current = name
	return nil
}

func (f *fakeAdapter) ListBranches(context.Context) ([]backend.Branch, error) {
	var out []backend.Branch
	for name, b := range f.branches {
		out = append(out, backend.Branch{Name: name, ID: b.id})
	}
	slices.SortFunc(out, func(a, b backend.Branch) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (f *fakeAdapter) CurrentBranch(context.Context) (backend.Branch, error) {
	return backend.Branch{Name: f.current, ID: f.branches[f.current].id}, nil
}

func (f *fakeAdapter) DeleteBranch(_ context.Context, name string) error {
	if _, ok := f.branches[name]; !ok {
		return backend.NewError("delete branch "+name, backend.ErrBranchNotFound, nil)
	}
	delete(f.branches, name)
	return nil
}

func tableIn(query, after string) string {
	i := strings.Index(query, after+"`")
	rest := query[i+len(after)+1:]
	return rest[:strings.Index(rest, "`")]
}

func (f *fakeAdapter) RunQuery(_ context.Context, query string, args ...any) ([][]any, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	rows := f.branches[f.current].rows
	switch {
	case strings.HasPrefix(query, "INSERT INTO"):
		f.calls["insert"]++
		f.inserts[f.current]++
		table := tableIn(query, "INSERT INTO ")
		t := f.tables[table]
		var key []any
		for _, pk := range t.pk {
			for i, c := range t.columns {
				if c.Name == pk {
					key = append(key, args[i])
				}
			}
		}
		k := types.NewKey(key...)
		if _, dup := rows[table][k.String()]; dup {
			return nil, fmt.Errorf("duplicate key %v", k)
		}
		rows[table][k.String()] = k
		return [][]any{}, nil
	case strings.HasPrefix(query, "UPDATE"):
		f.calls["update"]++
		f.updates = append(f.updates, query)
		return [][]any{}, nil
	case strings.HasPrefix(query, "SELECT COUNT(*)"):
		return [][]any{{int64(len(rows[tableIn(query, "FROM ")]))}}, nil
	case strings.HasPrefix(query, "SELECT * FROM"):
		f.calls["read"]++
		return [][]any{append([]any(nil), args...)}, nil
	case strings.HasPrefix(query, "SELECT"):
		f.calls["scan"]++
		var out [][]any
		for _, k := range rows[tableIn(query, "FROM ")] {
			out = append(out, append([]any(nil), k...))
		}
		return out, nil
	}
	return nil, fmt.Errorf("fake adapter cannot run %q", query)
}

func (f *fakeAdapter) CommitChanges(_ context.Context, message string) error {
	f.calls["commit"]++
	f.commits = append(f.commits, message)
	return f.commitErr
}

func (f *fakeAdapter) AllTables(context.Context) ([]string, error) {
	return slices.Clone(f.order), nil
}

func (f *fakeAdapter) AllColumns(_ context.Context, table string) ([]string, error) {
	var out []string
	for _, c := range f.tables[table].columns {
		out = append(out, c.Name)
	}
	return out, nil
}

func (f *fakeAdapter) PrimaryKeyColumns(_ context.Context, table string) ([]backend.PKColumn, error) {
	var out []backend.PKColumn
	for i, c := range f.tables[table].pk {
		out = append(out, backend.PKColumn{Name: c, Ordinal: i + 1})
	}
	return out, nil
}

func (f *fakeAdapter) TableDDL(_ context.Context, table string) (string, error) {
	t, ok := f.tables[table]
	if !ok {
		return "", fmt.Errorf("table %q not found", table)
	}
	return backend.FormatDDL(table, t.columns), nil
}

func (f *fakeAdapter) BulkLoad(_ context.Context, table, path string) error {
	f.loaded[table] = path
	return nil
}

func (f *fakeAdapter) CreateDatabase(_ context.Context, name string) error {
	f.database = name
	if f.dbExists {
		return backend.NewError("create database "+name, backend.ErrDatabaseExists, nil)
	}
	f.dbExists = true
	return nil
}

func (f *fakeAdapter) DropDatabase(_ context.Context, name string) error {
	if !f.dbExists {
		return backend.NewError("drop database "+name, backend.ErrDatabaseNotFound, nil)
	}
	f.dbExists = false
	return nil
}

func (f *fakeAdapter) InitializeSchema(_ context.Context, ddl string) error {
	f.schema = ddl
	return nil
}

func (f *fakeAdapter) Close() error { return nil }

// itemStore returns a fake with one table: item(i_id int PK, i_name, i_price, i_data).
func itemStore() *fakeAdapter {
	f := newFakeAdapter()
	f.addTable("item", []string{"i_id"},
		backend.ColumnDef{Name: "i_id", Type: "int"},
		backend.ColumnDef{Name: "i_name", Type: "varchar(24)", Nullable: true},
		backend.ColumnDef{Name: "i_price", Type: "decimal(5,2)", Nullable: true},
		backend.ColumnDef{Name: "i_data", Type: "varchar(50)", Nullable: true},
	)
	return f
}
