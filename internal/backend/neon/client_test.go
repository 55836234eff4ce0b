package neon

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElaineAng/db-fork/internal/config"
)

func TestClient_CreateBranch(t *testing.T) {
	api, client := newFakeAPI(t)
	ctx := context.Background()

	b, err := client.CreateBranch(ctx, "branch_d1_n1", "br-main")
	require.NoError(t, err)
	assert.Equal(t, BranchInfo{ID: "br-branch_d1_n1", Name: "branch_d1_n1", ParentID: "br-main"}, b)

	assert.Equal(t, "POST /projects/proj-1/branches", api.requests[len(api.requests)-1])
	assert.Equal(t, []any{map[string]any{"type": "read_write"}}, api.lastBody["endpoints"])
	assert.Equal(t, map[string]any{"name": "branch_d1_n1", "parent_id": "br-main"}, api.lastBody["branch"])
}

func TestClient_CreateBranchWithoutParent(t *testing.T) {
	api, client := newFakeAPI(t)

	_, err := client.CreateBranch(context.Background(), "scratch", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "scratch"}, api.lastBody["branch"])
}

func TestClient_CreateBranchConflict(t *testing.T) {
	_, client := newFakeAPI(t)

	_, err := client.CreateBranch(context.Background(), "main", "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "branch already exists")
}

func TestClient_ListAndDeleteBranches(t *testing.T) {
	_, client := newFakeAPI(t)
	ctx := context.Background()

	_, err := client.CreateBranch(ctx, "b1", "br-main")
	require.NoError(t, err)

	branches, err := client.ListBranches(ctx)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "main", branches[0].Name)
	assert.True(t, branches[0].Default)
	assert.Equal(t, "br-main", branches[1].ParentID)

	require.NoError(t, client.DeleteBranch(ctx, "br-b1"))
	branches, err = client.ListBranches(ctx)
	require.NoError(t, err)
	assert.Len(t, branches, 1)

	err = client.DeleteBranch(ctx, "br-b1")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestClient_ConnectionURI(t *testing.T) {
	_, client := newFakeAPI(t)

	uri, err := client.ConnectionURI(context.Background(), "br-main", "benchdb", "neondb_owner")
	require.NoError(t, err)
	assert.Equal(t, "postgresql://neondb_owner@br-main.example.neon.tech/benchdb", uri)
}

func TestClient_Databases(t *testing.T) {
	api, client := newFakeAPI(t)
	ctx := context.Background()

	require.NoError(t, client.CreateDatabase(ctx, "br-main", "tpcc", "neondb_owner"))
	assert.Equal(t, map[string]any{"name": "tpcc", "owner_name": "neondb_owner"}, api.lastBody["database"])

	err := client.CreateDatabase(ctx, "br-main", "tpcc", "neondb_owner")
	assert.Equal(t, http.StatusConflict, statusOf(err))

	require.NoError(t, client.DeleteDatabase(ctx, "br-main", "tpcc"))
	assert.Equal(t, "DELETE /projects/proj-1/branches/br-main/databases/tpcc", api.requests[len(api.requests)-1])
}

func TestClient_Unauthorized(t *testing.T) {
	_, client := newFakeAPI(t)
	client.apiKey = "wrong"

	_, err := client.ListBranches(context.Background())
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestNewClient_AddsTrailingSlash(t *testing.T) {
	c := NewClient(&config.NeonConfig{APIBaseURL: "https://console.neon.tech/api/v2", ProjectID: "p"})
	assert.Equal(t, "https://console.neon.tech/api/v2/", c.baseURL)
	assert.Equal(t, "projects/p/branches/br%2Fx", c.projectPath("branches", "br/x"))
}
