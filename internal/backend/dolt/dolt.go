// Package dolt implements backend.Adapter for a Dolt SQL server reached over
// the MySQL protocol.
//
// All statements run on one pinned session. Branches are selected with
// USE `db/branch`, which scopes reads, writes and DOLT_COMMIT to that branch.
// Branch identifiers are branch names.
package dolt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/ElaineAng/db-fork/internal/backend"
	"github.com/ElaineAng/db-fork/internal/config"
	"github.com/ElaineAng/db-fork/internal/sqlutil"
	"github.com/ElaineAng/db-fork/internal/types"
)

// MySQL server error numbers the adapter translates.
const (
	errDBCreateExists = 1007
	errDBDropExists   = 1008
	errBadDB          = 1049
	errUnknown        = 1105
)

// Adapter drives a Dolt SQL server.
type Adapter struct {
	db       *sql.DB
	conn     *sql.Conn
	database string
	selected bool
}

var _ backend.Adapter = (*Adapter)(nil)

// Open connects to the server described by cfg and selects database when it
// already exists.
func Open(ctx context.Context, cfg *config.DoltConfig, database string) (*Adapter, error) {
	db, err := connectWithRetry(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to dolt at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	a, err := New(ctx, db, database)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// New wraps an open pool. It pins one session for the adapter's lifetime.
func New(ctx context.Context, db *sql.DB, database string) (*Adapter, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pin dolt session: %w", err)
	}
	a := &Adapter{db: db, conn: conn, database: database}

	if database != "" {
		err := a.use(ctx, database)
		if err != nil && !errors.Is(err, backend.ErrDatabaseNotFound) {
			conn.Close()
			return nil, err
		}
	}
	return a, nil
}

// DB exposes the pool for session-independent work such as advisory locks.
func (a *Adapter) DB() *sql.DB { return a.db }

func (a *Adapter) Name() string             { return config.BackendDolt }
func (a *Adapter) Dialect() sqlutil.Dialect { return sqlutil.MySQL }

func (a *Adapter) use(ctx context.Context, target string) error {
	stmt := "USE " + sqlutil.QuoteIdentifier(target)
	if _, err := a.conn.ExecContext(ctx, stmt); err != nil {
		if mysqlErrorNumber(err) == errBadDB {
			return backend.NewError("use "+target, backend.ErrDatabaseNotFound, err)
		}
		return backend.NewError("use "+target, nil, err)
	}
	a.selected = true
	return nil
}

// CreateBranch forks name from the branch named parentID, or from the
// active branch when parentID is empty.
func (a *Adapter) CreateBranch(ctx context.Context, name, parentID string) error {
	var err error
	if parentID == "" {
		_, err = a.conn.ExecContext(ctx, "CALL DOLT_BRANCH(?)", name)
	} else {
		_, err = a.conn.ExecContext(ctx, "CALL DOLT_BRANCH(?, ?)", name, parentID)
	}
	if err != nil {
		return backend.NewError("create branch "+name, classify(err), err)
	}
	return nil
}

// ConnectBranch points the session at name within the configured database.
func (a *Adapter) ConnectBranch(ctx context.Context, name string) error {
	if err := a.use(ctx, a.database+"/"+name); err != nil {
		var be *backend.Error
		if errors.As(err, &be) && errors.Is(err, backend.ErrDatabaseNotFound) {
			be.Kind = backend.ErrBranchNotFound
		}
		return err
	}
	return nil
}

func (a *Adapter) ListBranches(ctx context.Context) ([]backend.Branch, error) {
	rows, err := a.RunQuery(ctx, "SELECT name FROM dolt_branches ORDER BY name")
	if err != nil {
		return nil, err
	}
	branches := make([]backend.Branch, 0, len(rows))
	for _, r := range rows {
		name := asString(r[0])
		branches = append(branches, backend.Branch{Name: name, ID: name})
	}
	return branches, nil
}

func (a *Adapter) CurrentBranch(ctx context.Context) (backend.Branch, error) {
	rows, err := a.RunQuery(ctx, "SELECT active_branch()")
	if err != nil {
		return backend.Branch{}, err
	}
	if len(rows) == 0 || rows[0][0] == nil {
		return backend.Branch{}, backend.NewError("current branch", backend.ErrBranchNotFound, nil)
	}
	name := asString(rows[0][0])
	return backend.Branch{Name: name, ID: name}, nil
}

// DeleteBranch force-deletes name. It cannot be the active branch.
func (a *Adapter) DeleteBranch(ctx context.Context, name string) error {
	if _, err := a.conn.ExecContext(ctx, "CALL DOLT_BRANCH('-D', ?)", name); err != nil {
		return backend.NewError("delete branch "+name, classify(err), err)
	}
	return nil
}

func (a *Adapter) RunQuery(ctx context.Context, query string, args ...any) ([][]any, error) {
	rows, err := a.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, backend.NewError("query", classify(err), err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, backend.NewError("query", nil, err)
	}
	return result, nil
}

// CommitChanges stages every table and commits on the active branch.
func (a *Adapter) CommitChanges(ctx context.Context, message string) error {
	if _, err := a.conn.ExecContext(ctx, "CALL DOLT_COMMIT('-Am', ?)", message); err != nil {
		return backend.NewError("commit", classify(err), err)
	}
	return nil
}

func (a *Adapter) AllTables(ctx context.Context) ([]string, error) {
	rows, err := a.RunQuery(ctx, `SELECT table_name FROM information_schema.tables
WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	return firstColumn(rows), nil
}

func (a *Adapter) AllColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := a.RunQuery(ctx, `SELECT column_name FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	return firstColumn(rows), nil
}

func (a *Adapter) PrimaryKeyColumns(ctx context.Context, table string) ([]backend.PKColumn, error) {
	rows, err := a.RunQuery(ctx, `SELECT column_name, ordinal_position FROM information_schema.key_column_usage
WHERE table_schema = DATABASE() AND table_name = ? AND constraint_name = 'PRIMARY'
ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	cols := make([]backend.PKColumn, 0, len(rows))
	for _, r := range rows {
		cols = append(cols, backend.PKColumn{Name: asString(r[0]), Ordinal: int(types.ToInt64(r[1]))})
	}
	return cols, nil
}

func (a *Adapter) TableDDL(ctx context.Context, table string) (string, error) {
	rows, err := a.RunQuery(ctx, `SELECT column_name, column_type, is_nullable FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`, table)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("table %q not found", table)
	}
	cols := make([]backend.ColumnDef, len(rows))
	for i, r := range rows {
		cols[i] = backend.ColumnDef{
			Name:     asString(r[0]),
			Type:     asString(r[1]),
			Nullable: asString(r[2]) == "YES",
		}
	}
	return backend.FormatDDL(table, cols), nil
}

// BulkLoad streams a pipe-delimited file into table with LOAD DATA LOCAL.
func (a *Adapter) BulkLoad(ctx context.Context, table, path string) error {
	mysql.RegisterLocalFile(path)
	defer mysql.DeregisterLocalFile(path)

	stmt := fmt.Sprintf(
		"LOAD DATA LOCAL INFILE %s INTO TABLE %s FIELDS TERMINATED BY '|' OPTIONALLY ENCLOSED BY '\"' LINES TERMINATED BY '\\n'",
		quoteString(path), sqlutil.QuoteIdentifier(table),
	)
	if _, err := a.conn.ExecContext(ctx, stmt); err != nil {
		return backend.NewError("bulk load "+table, classify(err), err)
	}
	return nil
}

// CreateDatabase creates name and selects it. An existing database is
// selected as well and reported as backend.ErrDatabaseExists.
func (a *Adapter) CreateDatabase(ctx context.Context, name string) error {
	_, err := a.conn.ExecContext(ctx, "CREATE DATABASE "+sqlutil.QuoteIdentifier(name))
	var createErr error
	if err != nil {
		createErr = backend.NewError("create database "+name, classify(err), err)
		if backend.Classify(createErr) != backend.RecoverableConflict {
			return createErr
		}
	}
	a.database = name
	if err := a.use(ctx, name); err != nil {
		return err
	}
	return createErr
}

func (a *Adapter) DropDatabase(ctx context.Context, name string) error {
	if _, err := a.conn.ExecContext(ctx, "DROP DATABASE "+sqlutil.QuoteIdentifier(name)); err != nil {
		return backend.NewError("drop database "+name, classify(err), err)
	}
	if name == a.database {
		a.selected = false
	}
	return nil
}

// InitializeSchema runs the DDL script on the selected database.
func (a *Adapter) InitializeSchema(ctx context.Context, ddl string) error {
	if !a.selected {
		return backend.NewError("initialize schema", backend.ErrDatabaseNotFound, nil)
	}
	if _, err := a.conn.ExecContext(ctx, ddl); err != nil {
		return backend.NewError("initialize schema", classify(err), err)
	}
	return nil
}

func (a *Adapter) Close() error {
	var errs []error
	if err := a.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("session close: %w", err))
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("pool close: %w", err))
	}
	return errors.Join(errs...)
}

// classify translates Dolt server errors into backend error kinds. Dolt
// reports branch and commit conditions as generic error 1105, so those are
// recognized by message here and nowhere else.
func classify(err error) error {
	switch mysqlErrorNumber(err) {
	case errDBCreateExists:
		return backend.ErrDatabaseExists
	case errDBDropExists, errBadDB:
		return backend.ErrDatabaseNotFound
	case errUnknown:
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "nothing to commit"):
			return backend.ErrNothingToCommit
		case strings.Contains(msg, "already exists"):
			return backend.ErrBranchExists
		case strings.Contains(msg, "branch not found"):
			return backend.ErrBranchNotFound
		}
	}
	return nil
}

func quoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
