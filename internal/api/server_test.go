package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floworkhq/flowork/pkg/flowork"
	"github.com/floworkhq/flowork/pkg/flowork/llm"
	"github.com/floworkhq/flowork/pkg/flowork/storage"
)

// testServer wires a full server around a temp file store and a
// scripted model client.
func testServer(t *testing.T, client llm.Client) (*Server, storage.Store) {
	t.Helper()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	compiler := flowork.NewCompiler(client, flowork.WithLogger(logger))
	cache := flowork.NewGraphCache(compiler)

	return NewServer(store, nil, cache, logger), store
}

// do performs a request against the server's handler and decodes the
// JSON response into out (when non-nil).
func do(t *testing.T, s *Server, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

// savedWorkflow stores a one-node workflow and returns it.
func savedWorkflow(t *testing.T, store storage.Store) *flowork.Workflow {
	t.Helper()
	w := flowork.NewWorkflow("greeter", "says hello")
	w.AddNode(flowork.NewNode("greet", "Say hello to {input_text}"))
	require.NoError(t, store.Save(w))
	return w
}

// TestHealth tests the health endpoint.
func TestHealth(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})

	var resp map[string]string
	rec := do(t, s, http.MethodGet, "/api/health", nil, &resp)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp["status"])
}

// TestCreateWorkflow tests POST /api/workflows.
func TestCreateWorkflow(t *testing.T) {
	s, store := testServer(t, &llm.MockClient{})

	body := map[string]any{"name": "new flow", "description": "created via API"}
	var created flowork.Workflow
	rec := do(t, s, http.MethodPost, "/api/workflows", body, &created)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "new flow", created.Name)

	stored, err := store.Load(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new flow", stored.Name)
}

// TestCreateWorkflow_Invalid tests request validation.
func TestCreateWorkflow_Invalid(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})

	rec := do(t, s, http.MethodPost, "/api/workflows", map[string]any{"name": "  "}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/workflows", bytes.NewReader([]byte("{nope")))
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// TestCreateWorkflow_DanglingTarget tests structural validation on
// create.
func TestCreateWorkflow_DanglingTarget(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})

	body := map[string]any{
		"name": "broken",
		"nodes": []map[string]any{{
			"id":     "a",
			"name":   "A",
			"prompt": "p",
			"routing_rules": map[string]any{
				"default_target": "missing-node",
			},
		}},
	}
	var resp map[string]string
	rec := do(t, s, http.MethodPost, "/api/workflows", body, &resp)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "routing target not found")
}

// TestGetWorkflow tests GET /api/workflows/{id}.
func TestGetWorkflow(t *testing.T) {
	s, store := testServer(t, &llm.MockClient{})
	w := savedWorkflow(t, store)

	var got flowork.Workflow
	rec := do(t, s, http.MethodGet, "/api/workflows/"+w.ID, nil, &got)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, w.ID, got.ID)

	rec = do(t, s, http.MethodGet, "/api/workflows/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestListWorkflows tests GET /api/workflows.
func TestListWorkflows(t *testing.T) {
	s, store := testServer(t, &llm.MockClient{})
	savedWorkflow(t, store)
	savedWorkflow(t, store)

	var resp struct {
		Workflows []storage.Metadata `json:"workflows"`
	}
	rec := do(t, s, http.MethodGet, "/api/workflows", nil, &resp)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Workflows, 2)
}

// TestUpdateWorkflow tests PUT /api/workflows/{id}.
func TestUpdateWorkflow(t *testing.T) {
	s, store := testServer(t, &llm.MockClient{})
	w := savedWorkflow(t, store)

	w.Name = "renamed"
	var updated flowork.Workflow
	rec := do(t, s, http.MethodPut, "/api/workflows/"+w.ID, w, &updated)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "renamed", updated.Name)

	rec = do(t, s, http.MethodPut, "/api/workflows/missing", w, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestDeleteWorkflow tests DELETE /api/workflows/{id}.
func TestDeleteWorkflow(t *testing.T) {
	s, store := testServer(t, &llm.MockClient{})
	w := savedWorkflow(t, store)

	rec := do(t, s, http.MethodDelete, "/api/workflows/"+w.ID, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/workflows/"+w.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestExecuteWorkflow tests POST /api/workflows/{id}/execute.
func TestExecuteWorkflow(t *testing.T) {
	client := &llm.MockClient{Responses: []string{"hello world ROUTING_KEY: __DEFAULT__"}}
	s, store := testServer(t, client)
	w := savedWorkflow(t, store)

	var resp struct {
		State   *flowork.ExecutionState `json:"state"`
		Trace   []flowork.Step          `json:"trace"`
		Summary flowork.Summary         `json:"summary"`
	}
	rec := do(t, s, http.MethodPost, "/api/workflows/"+w.ID+"/execute",
		map[string]string{"input": "world"}, &resp)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Trace, 1)
	assert.Equal(t, "END", resp.Trace[0].Target)
	assert.Equal(t, "hello world", resp.Summary.FinalOutput)
	assert.False(t, resp.Summary.HasError)
}

// TestExecuteWorkflow_EmptyInput tests input validation.
func TestExecuteWorkflow_EmptyInput(t *testing.T) {
	s, store := testServer(t, &llm.MockClient{})
	w := savedWorkflow(t, store)

	var resp map[string]string
	rec := do(t, s, http.MethodPost, "/api/workflows/"+w.ID+"/execute",
		map[string]string{"input": "   "}, &resp)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "input is required")
}

// TestExecuteWorkflow_EmptyWorkflow tests executing a workflow with no
// nodes.
func TestExecuteWorkflow_EmptyWorkflow(t *testing.T) {
	s, store := testServer(t, &llm.MockClient{})
	w := flowork.NewWorkflow("empty", "")
	require.NoError(t, store.Save(w))

	var resp map[string]string
	rec := do(t, s, http.MethodPost, "/api/workflows/"+w.ID+"/execute",
		map[string]string{"input": "go"}, &resp)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "no nodes")
}

// TestExecuteWorkflow_Missing tests executing an unknown workflow.
func TestExecuteWorkflow_Missing(t *testing.T) {
	s, _ := testServer(t, &llm.MockClient{})

	rec := do(t, s, http.MethodPost, "/api/workflows/nope/execute",
		map[string]string{"input": "go"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestTemplates tests the template routes against a populated catalog.
func TestTemplates(t *testing.T) {
	dir := t.TempDir()
	tpl := flowork.NewWorkflow("Sample Template", "bundled")
	tpl.AddNode(flowork.NewNode("step", "do {input_text}"))
	data, err := json.Marshal(tpl)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, tpl.ID+".json"), data, 0o644))

	catalog, err := storage.NewCatalog(dir)
	require.NoError(t, err)

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := flowork.NewGraphCache(flowork.NewCompiler(&llm.MockClient{}, flowork.WithLogger(logger)))
	s := NewServer(store, catalog, cache, logger)

	var listResp struct {
		Templates []storage.Metadata `json:"templates"`
	}
	rec := do(t, s, http.MethodGet, "/api/templates", nil, &listResp)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, listResp.Templates, 1)

	var got flowork.Workflow
	rec = do(t, s, http.MethodGet, "/api/templates/"+tpl.ID, nil, &got)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sample Template", got.Name)

	rec = do(t, s, http.MethodGet, "/api/templates/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
