// Package neon implements backend.Adapter for a Neon project.
//
// Branch operations go through the Neon HTTP API. SQL goes over a pgx
// connection to the branch's read-write endpoint; ConnectBranch closes that
// connection and opens one to the target branch. Neon autocommits, so
// CommitChanges does nothing.
package neon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ElaineAng/db-fork/internal/backend"
	"github.com/ElaineAng/db-fork/internal/config"
	"github.com/ElaineAng/db-fork/internal/sqlutil"
	"github.com/ElaineAng/db-fork/internal/types"
)

// Postgres SQLSTATE codes the adapter translates.
const (
	sqlStateDuplicateDatabase = "42P04"
	sqlStateInvalidCatalog    = "3D000"
)

// Adapter drives one Neon project.
type Adapter struct {
	client   *Client
	database string
	role     string
	dial     dialFunc

	sess    session
	current backend.Branch
}

var _ backend.Adapter = (*Adapter)(nil)

// New returns an adapter with no open connection. Call ConnectBranch before
// running SQL.
func New(client *Client, database, role string) *Adapter {
	return &Adapter{client: client, database: database, role: role, dial: dialPgx}
}

// Open builds a client from cfg and connects to database on rootBranch. A
// missing database is not an error; the adapter is left on rootBranch
// without a connection.
func Open(ctx context.Context, cfg *config.NeonConfig, database, rootBranch string) (*Adapter, error) {
	a := New(NewClient(cfg), database, cfg.Role)
	if err := a.ConnectBranch(ctx, rootBranch); err != nil && !errors.Is(err, backend.ErrDatabaseNotFound) {
		return nil, fmt.Errorf("failed to connect to neon branch %s: %w", rootBranch, err)
	}
	return a, nil
}

func (a *Adapter) Name() string             { return config.BackendNeon }
func (a *Adapter) Dialect() sqlutil.Dialect { return sqlutil.Postgres }

// CreateBranch forks name from the branch with ID parentID.
func (a *Adapter) CreateBranch(ctx context.Context, name, parentID string) error {
	if _, err := a.client.CreateBranch(ctx, name, parentID); err != nil {
		return backend.NewError("create branch "+name, classifyAPI(err, backend.ErrBranchExists, backend.ErrBranchNotFound), err)
	}
	return nil
}

func (a *Adapter) lookupBranch(ctx context.Context, name string) (BranchInfo, error) {
	branches, err := a.client.ListBranches(ctx)
	if err != nil {
		return BranchInfo{}, err
	}
	for _, b := range branches {
		if b.Name == name {
			return b, nil
		}
	}
	return BranchInfo{}, backend.NewError("lookup branch "+name, backend.ErrBranchNotFound, nil)
}

// ConnectBranch replaces the active connection with one to name.
func (a *Adapter) ConnectBranch(ctx context.Context, name string) error {
	info, err := a.lookupBranch(ctx, name)
	if err != nil {
		return backend.NewError("connect branch "+name, classifyAPI(err, nil, backend.ErrBranchNotFound), err)
	}
	return a.connect(ctx, backend.Branch{Name: info.Name, ID: info.ID})
}

func (a *Adapter) connect(ctx context.Context, branch backend.Branch) error {
	uri, err := a.client.ConnectionURI(ctx, branch.ID, a.database, a.role)
	if err != nil {
		return backend.NewError("connect branch "+branch.Name, classifyAPI(err, nil, backend.ErrDatabaseNotFound), err)
	}
	a.closeSession(ctx)
	// The branch stays current when the database is missing, so that
	// CreateDatabase can create it there.
	a.current = branch

	sess, err := a.dial(ctx, uri)
	if err != nil {
		return backend.NewError("connect branch "+branch.Name, classify(err), err)
	}
	a.sess = sess
	return nil
}

func (a *Adapter) closeSession(ctx context.Context) error {
	if a.sess == nil {
		return nil
	}
	err := a.sess.Close(ctx)
	a.sess = nil
	return err
}

func (a *Adapter) ListBranches(ctx context.Context) ([]backend.Branch, error) {
	infos, err := a.client.ListBranches(ctx)
	if err != nil {
		return nil, backend.NewError("list branches", nil, err)
	}
	branches := make([]backend.Branch, len(infos))
	for i, b := range infos {
		branches[i] = backend.Branch{Name: b.Name, ID: b.ID}
	}
	return branches, nil
}

// CurrentBranch returns the branch of the active connection. It does not
// call the API.
func (a *Adapter) CurrentBranch(context.Context) (backend.Branch, error) {
	if a.current.ID == "" {
		return backend.Branch{}, backend.NewError("current branch", backend.ErrBranchNotFound, nil)
	}
	return a.current, nil
}

func (a *Adapter) DeleteBranch(ctx context.Context, name string) error {
	info, err := a.lookupBranch(ctx, name)
	if err != nil {
		return backend.NewError("delete branch "+name, classifyAPI(err, nil, backend.ErrBranchNotFound), err)
	}
	if err := a.client.DeleteBranch(ctx, info.ID); err != nil {
		return backend.NewError("delete branch "+name, classifyAPI(err, nil, backend.ErrBranchNotFound), err)
	}
	return nil
}

func (a *Adapter) RunQuery(ctx context.Context, query string, args ...any) ([][]any, error) {
	if a.sess == nil {
		return nil, backend.NewError("query", nil, errors.New("no branch connected"))
	}
	rows, err := a.sess.Query(ctx, query, args...)
	if err != nil {
		return nil, backend.NewError("query", classify(err), err)
	}
	return rows, nil
}

// CommitChanges is a no-op: every statement autocommits.
func (a *Adapter) CommitChanges(context.Context, string) error { return nil }

func (a *Adapter) AllTables(ctx context.Context) ([]string, error) {
	rows, err := a.RunQuery(ctx, `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	return firstColumn(rows), nil
}

func (a *Adapter) AllColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := a.RunQuery(ctx, `SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	return firstColumn(rows), nil
}

func (a *Adapter) PrimaryKeyColumns(ctx context.Context, table string) ([]backend.PKColumn, error) {
	rows, err := a.RunQuery(ctx, `SELECT kcu.column_name, kcu.ordinal_position
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_name = tc.constraint_name
 AND kcu.table_schema = tc.table_schema
 AND kcu.table_name = tc.table_name
WHERE tc.constraint_type = 'PRIMARY KEY'
  AND tc.table_schema = current_schema()
  AND tc.table_name = $1
ORDER BY kcu.ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	cols := make([]backend.PKColumn, 0, len(rows))
	for _, r := range rows {
		cols = append(cols, backend.PKColumn{Name: asString(r[0]), Ordinal: int(types.ToInt64(r[1]))})
	}
	return cols, nil
}

// TableDDL rebuilds a CREATE TABLE statement from information_schema, since
// Postgres has no SHOW CREATE TABLE.
func (a *Adapter) TableDDL(ctx context.Context, table string) (string, error) {
	rows, err := a.RunQuery(ctx, `SELECT column_name, data_type, character_maximum_length,
       numeric_precision, numeric_scale, is_nullable
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
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
			Type:     columnType(asString(r[1]), r[2], r[3], r[4]),
			Nullable: asString(r[5]) == "YES",
		}
	}
	return backend.FormatDDL(table, cols), nil
}

// columnType appends length or precision arguments to an information_schema
// data_type.
func columnType(dataType string, charLen, precision, scale any) string {
	switch {
	case charLen != nil:
		return fmt.Sprintf("%s(%d)", dataType, types.ToInt64(charLen))
	case dataType == "numeric" && precision != nil:
		return fmt.Sprintf("numeric(%d,%d)", types.ToInt64(precision), types.ToInt64(scale))
	default:
		return dataType
	}
}

// BulkLoad copies a pipe-delimited CSV file into table.
func (a *Adapter) BulkLoad(ctx context.Context, table, path string) error {
	if a.sess == nil {
		return backend.NewError("bulk load "+table, nil, errors.New("no branch connected"))
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	stmt := "COPY " + sqlutil.QuotePostgresIdentifier(table) + " FROM STDIN WITH (FORMAT csv, DELIMITER '|')"
	if err := a.sess.CopyFrom(ctx, f, stmt); err != nil {
		return backend.NewError("bulk load "+table, classify(err), err)
	}
	return nil
}

// CreateDatabase creates name on the current branch and reconnects to it. An
// existing database is connected to as well and reported as
// backend.ErrDatabaseExists.
func (a *Adapter) CreateDatabase(ctx context.Context, name string) error {
	if a.current.ID == "" {
		return backend.NewError("create database "+name, backend.ErrBranchNotFound, nil)
	}
	var createErr error
	if err := a.client.CreateDatabase(ctx, a.current.ID, name, a.role); err != nil {
		createErr = backend.NewError("create database "+name, classifyAPI(err, backend.ErrDatabaseExists, nil), err)
		if backend.Classify(createErr) != backend.RecoverableConflict {
			return createErr
		}
	}
	a.database = name
	if err := a.connect(ctx, a.current); err != nil {
		return err
	}
	return createErr
}

// DropDatabase deletes name from every branch of the project. It reports
// backend.ErrDatabaseNotFound only when no branch had it.
func (a *Adapter) DropDatabase(ctx context.Context, name string) error {
	infos, err := a.client.ListBranches(ctx)
	if err != nil {
		return backend.NewError("drop database "+name, nil, err)
	}
	if name == a.database {
		a.closeSession(ctx)
	}

	dropped := 0
	for _, b := range infos {
		err := a.client.DeleteDatabase(ctx, b.ID, name)
		if err == nil {
			dropped++
			continue
		}
		if statusOf(err) == http.StatusNotFound {
			continue
		}
		return backend.NewError("drop database "+name+" on branch "+b.Name, nil, err)
	}
	if dropped == 0 {
		return backend.NewError("drop database "+name, backend.ErrDatabaseNotFound, nil)
	}
	return nil
}

func (a *Adapter) InitializeSchema(ctx context.Context, ddl string) error {
	if a.sess == nil {
		return backend.NewError("initialize schema", backend.ErrDatabaseNotFound, nil)
	}
	if err := a.sess.Exec(ctx, ddl); err != nil {
		return backend.NewError("initialize schema", classify(err), err)
	}
	return nil
}

func (a *Adapter) Close() error {
	return a.closeSession(context.Background())
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// classifyAPI maps HTTP 409 to onConflict and 404 to onNotFound.
func classifyAPI(err error, onConflict, onNotFound error) error {
	switch statusOf(err) {
	case http.StatusConflict:
		return onConflict
	case http.StatusNotFound:
		return onNotFound
	}
	var be *backend.Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return nil
}

// classify maps Postgres SQLSTATE codes to backend error kinds.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case sqlStateDuplicateDatabase:
		return backend.ErrDatabaseExists
	case sqlStateInvalidCatalog:
		return backend.ErrDatabaseNotFound
	}
	return nil
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func firstColumn(rows [][]any) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = asString(r[0])
	}
	return out
}
