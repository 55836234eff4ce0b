package backend

import (
	"context"

	"github.com/ElaineAng/db-fork/internal/timing"
)

// Timed wraps an Adapter and records the latency of the measured calls.
// Everything else passes through untimed.
type Timed struct {
	Adapter
	collector timing.Collector
}

// NewTimed returns a timing decorator around a.
func NewTimed(a Adapter, c timing.Collector) *Timed {
	return &Timed{Adapter: a, collector: c}
}

// RunQuery records execution plus fetch under timing.TagExecute.
func (t *Timed) RunQuery(ctx context.Context, query string, args ...any) ([][]any, error) {
	var rows [][]any
	err := timing.Time(t.collector, timing.TagExecute, func() error {
		var err error
		rows, err = t.Adapter.RunQuery(ctx, query, args...)
		return err
	})
	return rows, err
}

// CommitChanges records under timing.TagCommit.
func (t *Timed) CommitChanges(ctx context.Context, message string) error {
	return timing.Time(t.collector, timing.TagCommit, func() error {
		return t.Adapter.CommitChanges(ctx, message)
	})
}

// CreateBranch records under timing.TagBranchCreate.
func (t *Timed) CreateBranch(ctx context.Context, name, parentID string) error {
	return timing.Time(t.collector, timing.TagBranchCreate, func() error {
		return t.Adapter.CreateBranch(ctx, name, parentID)
	})
}

// ConnectBranch records under timing.TagConnect.
func (t *Timed) ConnectBranch(ctx context.Context, name string) error {
	return timing.Time(t.collector, timing.TagConnect, func() error {
		return t.Adapter.ConnectBranch(ctx, name)
	})
}
