package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElaineAng/db-fork/internal/backend"
	"github.com/ElaineAng/db-fork/internal/logger"
)

// branchStore implements the branch listing and deletion calls cleanup
// makes. Any other Adapter method panics on the nil embedded interface.
type branchStore struct {
	backend.Adapter
	names     []string
	connected string
	deleted   []string
	failOn    string
}

func (s *branchStore) ListBranches(context.Context) ([]backend.Branch, error) {
	out := make([]backend.Branch, len(s.names))
	for i, n := range s.names {
		out[i] = backend.Branch{Name: n, ID: n}
	}
	return out, nil
}

func (s *branchStore) ConnectBranch(_ context.Context, name string) error {
	s.connected = name
	return nil
}

func (s *branchStore) DeleteBranch(_ context.Context, name string) error {
	if name == s.failOn {
		return errors.New("branch has children")
	}
	s.deleted = append(s.deleted, name)
	return nil
}

func newBranchStore() *branchStore {
	return &branchStore{
		connected: "branch_d2_n1",
		names: []string{
			"main", "branch_d1_n1", "branch_d2_n1", "branch_d1_n2",
			"branch_d2_n2", "feature", "branch_d10_n1",
		},
	}
}

func TestCleanupBranches(t *testing.T) {
	s := newBranchStore()

	deleted, err := cleanupBranches(context.Background(), s, "main", "branch_d", false, logger.NewNop())
	require.NoError(t, err)

	want := []string{"branch_d10_n1", "branch_d2_n1", "branch_d2_n2", "branch_d1_n1", "branch_d1_n2"}
	assert.Equal(t, want, deleted)
	assert.Equal(t, want, s.deleted)
	assert.Equal(t, "main", s.connected)
}

func TestCleanupBranches_DryRun(t *testing.T) {
	s := newBranchStore()

	deleted, err := cleanupBranches(context.Background(), s, "main", "branch_d1", true, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"branch_d10_n1", "branch_d1_n1", "branch_d1_n2"}, deleted)
	assert.Empty(t, s.deleted)
	assert.Equal(t, "branch_d2_n1", s.connected, "dry run must not switch branches")
}

func TestCleanupBranches_ContinuesAfterFailure(t *testing.T) {
	s := newBranchStore()
	s.failOn = "branch_d1_n1"

	deleted, err := cleanupBranches(context.Background(), s, "main", "branch_d", false, logger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 branch(es)")
	assert.Len(t, deleted, 4)
	assert.NotContains(t, deleted, "branch_d1_n1")
}

func TestCleanupBranches_KeepsRoot(t *testing.T) {
	s := &branchStore{names: []string{"branch_d0", "branch_d1_n1"}}

	deleted, err := cleanupBranches(context.Background(), s, "branch_d0", "branch_d", false, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"branch_d1_n1"}, deleted)
}

func TestBranchDepth(t *testing.T) {
	assert.Equal(t, 2, branchDepth("branch_d2_n5"))
	assert.Equal(t, 12, branchDepth("branch_d12_n1"))
	assert.Equal(t, 0, branchDepth("main"))
	assert.Equal(t, 0, branchDepth("branch_dx"))
}
