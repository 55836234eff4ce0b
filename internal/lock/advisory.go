// Package lock guards a benchmark server with a named advisory lock so that
// two branchbench runs never drive it at the same time.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrLockTimeout is returned when lock acquisition times out because
// another instance is holding the lock.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Common timeout values for lock acquisition (in seconds).
const (
	// TimeoutImmediate returns immediately if lock cannot be acquired (no wait).
	TimeoutImmediate = 0

	// TimeoutShort is suitable for fast-failing duplicate run detection.
	TimeoutShort = 1

	// TimeoutInfinite waits until the lock is acquired.
	TimeoutInfinite = -1
)

// maxLockNameLen is the server's limit on lock name length.
const maxLockNameLen = 64

// AdvisoryLock is a GET_LOCK() named lock. The lock belongs to a server
// session, so the first acquisition pins one connection from the pool and
// every later call uses it. Release returns the connection.
type AdvisoryLock struct {
	db       *sql.DB
	conn     *sql.Conn
	lockName string
	held     bool
}

// NewAdvisoryLock creates a new advisory lock with the given name.
// The lock is not acquired until AcquireLock is called.
func NewAdvisoryLock(db *sql.DB, lockName string) *AdvisoryLock {
	return &AdvisoryLock{db: db, lockName: lockName}
}

// AcquireLock attempts to acquire the advisory lock with the specified timeout.
// Returns true if the lock was acquired, false if timeout was reached.
//
// GET_LOCK() returns 1 on success, 0 on timeout and NULL on error.
func (a *AdvisoryLock) AcquireLock(ctx context.Context, timeoutSeconds int) (bool, error) {
	if a.held {
		return true, nil
	}

	if a.conn == nil {
		conn, err := a.db.Conn(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to pin lock session: %w", err)
		}
		a.conn = conn
	}

	var result sql.NullInt64
	err := a.conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", a.lockName, timeoutSeconds).Scan(&result)
	if err != nil {
		a.closeConn()
		return false, fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}
	if !result.Valid {
		a.closeConn()
		return false, fmt.Errorf("GET_LOCK returned NULL for lock %q (possible database error)", a.lockName)
	}

	switch result.Int64 {
	case 1:
		a.held = true
		return true, nil
	case 0:
		a.closeConn()
		return false, nil
	default:
		a.closeConn()
		return false, fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

// ReleaseLock releases the advisory lock and its session.
// Returns true if the lock was released, false if it was not held.
//
// RELEASE_LOCK() returns 1 on release, 0 when another session owns the
// lock and NULL when no such lock exists.
func (a *AdvisoryLock) ReleaseLock(ctx context.Context) (bool, error) {
	if !a.held {
		return false, nil
	}
	defer a.closeConn()
	a.held = false

	var result sql.NullInt64
	err := a.conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", a.lockName).Scan(&result)
	if err != nil {
		return false, fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}
	if !result.Valid {
		return false, fmt.Errorf("RELEASE_LOCK returned NULL for lock %q (lock did not exist)", a.lockName)
	}

	switch result.Int64 {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected RELEASE_LOCK return value: %d", result.Int64)
	}
}

func (a *AdvisoryLock) closeConn() {
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
}

// IsHeld returns true if this lock is currently held by this instance.
func (a *AdvisoryLock) IsHeld() bool {
	return a.held
}

// LockName returns the name of the advisory lock.
func (a *AdvisoryLock) LockName() string {
	return a.lockName
}

// AcquireOrFail acquires the lock with TimeoutShort. It returns
// ErrLockTimeout if another instance is holding the lock.
func (a *AdvisoryLock) AcquireOrFail(ctx context.Context) error {
	acquired, err := a.AcquireLock(ctx, TimeoutShort)
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("%w: lock %q is held by another instance", ErrLockTimeout, a.lockName)
	}
	return nil
}

// GenerateRunLockName returns the lock name for a benchmark scenario:
// "branchbench:run:{scenario}", with unsafe characters replaced and the
// result cut to the server's length limit. An empty scenario locks the
// default run.
func GenerateRunLockName(scenario string) string {
	if scenario == "" {
		scenario = "default"
	}
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, scenario)

	name := "branchbench:run:" + sanitized
	if len(name) > maxLockNameLen {
		name = name[:maxLockNameLen]
	}
	return name
}

// NewRunLock creates the advisory lock for one benchmark scenario.
func NewRunLock(db *sql.DB, scenario string) *AdvisoryLock {
	return NewAdvisoryLock(db, GenerateRunLockName(scenario))
}

// WithLock runs fn while holding the lock and releases it however fn exits.
func (a *AdvisoryLock) WithLock(ctx context.Context, timeoutSeconds int, fn func() error) error {
	acquired, err := a.AcquireLock(ctx, timeoutSeconds)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: lock %q is held by another instance", ErrLockTimeout, a.lockName)
	}

	defer func() {
		// The run context may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = a.ReleaseLock(releaseCtx)
	}()

	return fn()
}

// WithRunLock runs fn under the scenario's lock, failing fast with
// ErrLockTimeout when another run holds it.
func WithRunLock(ctx context.Context, db *sql.DB, scenario string, fn func() error) error {
	return NewRunLock(db, scenario).WithLock(ctx, TimeoutShort, fn)
}
