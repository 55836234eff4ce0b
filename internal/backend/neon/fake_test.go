package neon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ElaineAng/db-fork/internal/config"
)

const testProject = "proj-1"

// fakeAPI is an in-memory Neon control plane.
type fakeAPI struct {
	mu        sync.Mutex
	branches  []BranchInfo
	databases map[string]map[string]bool // branch ID -> database names
	requests  []string
	lastBody  map[string]any
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	f := &fakeAPI{
		branches:  []BranchInfo{{ID: "br-main", Name: "main", Default: true}},
		databases: map[string]map[string]bool{"br-main": {"benchdb": true}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects/{project}/branches", f.listBranches)
	mux.HandleFunc("POST /projects/{project}/branches", f.createBranch)
	mux.HandleFunc("DELETE /projects/{project}/branches/{branch}", f.deleteBranch)
	mux.HandleFunc("GET /projects/{project}/connection_uri", f.connectionURI)
	mux.HandleFunc("POST /projects/{project}/branches/{branch}/databases", f.createDatabase)
	mux.HandleFunc("DELETE /projects/{project}/branches/{branch}/databases/{db}", f.deleteDatabase)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/projects/"+testProject+"/") {
			http.NotFound(w, r)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.lastBody = nil
		if r.Body != nil {
			body, _ := io.ReadAll(r.Body)
			if len(body) > 0 {
				_ = json.Unmarshal(body, &f.lastBody)
				r.Body = io.NopCloser(strings.NewReader(string(body)))
			}
		}
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(&config.NeonConfig{
		APIKey:     "test-key",
		APIBaseURL: srv.URL,
		ProjectID:  testProject,
		Role:       "neondb_owner",
		Timeout:    5 * time.Second,
	})
	return f, client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) find(id string) int {
	for i, b := range f.branches {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeAPI) listBranches(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"branches": f.branches})
}

func (f *fakeAPI) createBranch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Branch struct {
			Name     string `json:"name"`
			ParentID string `json:"parent_id"`
		} `json:"branch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.branches {
		if b.Name == req.Branch.Name {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "branch already exists"})
			return
		}
	}
	parent := req.Branch.ParentID
	if parent == "" {
		parent = "br-main"
	}
	if f.find(parent) < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "parent not found"})
		return
	}
	b := BranchInfo{ID: "br-" + req.Branch.Name, Name: req.Branch.Name, ParentID: parent}
	f.branches = append(f.branches, b)
	f.databases[b.ID] = map[string]bool{}
	for db := range f.databases[parent] {
		f.databases[b.ID][db] = true
	}
	writeJSON(w, http.StatusCreated, map[string]any{"branch": b})
}

func (f *fakeAPI) deleteBranch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(r.PathValue("branch"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}
	f.branches = append(f.branches[:i], f.branches[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (f *fakeAPI) connectionURI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.find(q.Get("branch_id")) < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "branch not found"})
		return
	}
	uri := fmt.Sprintf("postgresql://%s@%s.example.neon.tech/%s", q.Get("role_name"), q.Get("branch_id"), q.Get("database_name"))
	writeJSON(w, http.StatusOK, map[string]string{"uri": uri})
}

func (f *fakeAPI) createDatabase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Database struct {
			Name  string `json:"name"`
			Owner string `json:"owner_name"`
		} `json:"database"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	dbs, ok := f.databases[r.PathValue("branch")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "branch not found"})
		return
	}
	if dbs[req.Database.Name] {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "database already exists"})
		return
	}
	dbs[req.Database.Name] = true
	writeJSON(w, http.StatusCreated, map[string]any{"database": req.Database})
}

func (f *fakeAPI) deleteDatabase(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dbs := f.databases[r.PathValue("branch")]
	name := r.PathValue("db")
	if !dbs[name] {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "database not found"})
		return
	}
	delete(dbs, name)
	writeJSON(w, http.StatusOK, map[string]any{})
}

// fakeSession records the statements sent to one connection.
type fakeSession struct {
	uri     string
	closed  bool
	queries []string
	args    [][]any
	results map[string][][]any
	err     error
	execs   []string
	copySQL string
	copied  string
}

func (s *fakeSession) Query(_ context.Context, query string, args ...any) ([][]any, error) {
	s.queries = append(s.queries, query)
	s.args = append(s.args, args)
	if s.err != nil {
		return nil, s.err
	}
	if rows, ok := s.results[resultKey(query, args...)]; ok {
		return rows, nil
	}
	return [][]any{}, nil
}

// resultKey indexes canned results by statement and bound arguments.
func resultKey(query string, args ...any) string {
	return query + "\x00" + fmt.Sprint([]any(args))
}

func (s *fakeSession) Exec(_ context.Context, script string) error {
	s.execs = append(s.execs, script)
	return s.err
}

func (s *fakeSession) CopyFrom(_ context.Context, r io.Reader, copySQL string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.copySQL = copySQL
	s.copied = string(b)
	return s.err
}

func (s *fakeSession) Close(context.Context) error {
	s.closed = true
	return nil
}

// newTestAdapter returns an adapter whose connections are fakeSessions.
func newTestAdapter(t *testing.T) (*Adapter, *fakeAPI, *[]*fakeSession) {
	t.Helper()
	api, client := newFakeAPI(t)
	a := New(client, "benchdb", "neondb_owner")
	var sessions []*fakeSession
	a.dial = func(_ context.Context, uri string) (session, error) {
		s := &fakeSession{uri: uri, results: map[string][][]any{}}
		sessions = append(sessions, s)
		return s, nil
	}
	return a, api, &sessions
}
