package sqlutil

import "strconv"

// Dialect captures the two syntax differences the statement builders care
// about: how identifiers are quoted and how bind parameters are written.
type Dialect interface {
	Name() string
	Quote(identifier string) string
	// Placeholder returns the bind marker for the 1-based parameter position.
	Placeholder(position int) string
}

// MySQL is the dialect of Dolt's sql-server (MySQL wire protocol).
var MySQL Dialect = mysqlDialect{}

// Postgres is the dialect of Neon and other Postgres-wire stores.
var Postgres Dialect = postgresDialect{}

type mysqlDialect struct{}

func (mysqlDialect) Name() string                  { return "mysql" }
func (mysqlDialect) Quote(identifier string) string { return QuoteIdentifier(identifier) }
func (mysqlDialect) Placeholder(int) string         { return "?" }

type postgresDialect struct{}

func (postgresDialect) Name() string                  { return "postgres" }
func (postgresDialect) Quote(identifier string) string { return QuotePostgresIdentifier(identifier) }
func (postgresDialect) Placeholder(position int) string {
	return "$" + strconv.Itoa(position)
}
