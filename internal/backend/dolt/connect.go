package dolt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/ElaineAng/db-fork/internal/config"
)

// BuildDSN constructs a MySQL DSN for a Dolt SQL server. The database is
// selected later with USE so that it can be created first.
func BuildDSN(cfg *config.DoltConfig) string {
	// Format: user:password@tcp(host:port)/?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
	)

	params := "?parseTime=true&multiStatements=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

// connectWithRetry attempts to connect with exponential backoff.
func connectWithRetry(ctx context.Context, cfg *config.DoltConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := max(cfg.Retries, 1)
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("mysql", BuildDSN(cfg))
		if err == nil {
			if pingErr := db.PingContext(ctx); pingErr == nil {
				return db, nil
			} else {
				db.Close()
				err = pingErr
			}
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

// mysqlErrorNumber returns the server error number, or 0.
func mysqlErrorNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
