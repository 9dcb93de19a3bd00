package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/floworkhq/flowork/pkg/flowork"
)

// executeRequest is the body of POST /api/workflows/{id}/execute.
type executeRequest struct {
	Input string `json:"input"`
}

// executeResponse carries the final state, the routing trace, and a
// summary of the run.
type executeResponse struct {
	State   *flowork.ExecutionState `json:"state"`
	Trace   []flowork.Step          `json:"trace"`
	Summary flowork.Summary         `json:"summary"`
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListMetadata()
	if err != nil {
		s.storeError(w, "list workflows", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": list})
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var wf flowork.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		writeError(w, http.StatusBadRequest, "invalid workflow JSON")
		return
	}
	if strings.TrimSpace(wf.Name) == "" {
		writeError(w, http.StatusBadRequest, "workflow name is required")
		return
	}
	if wf.ID == "" {
		created := flowork.NewWorkflow(wf.Name, wf.Description)
		created.Nodes = wf.Nodes
		created.Metadata = wf.Metadata
		wf = *created
	}

	if err := wf.Validate(); err != nil {
		// A brand-new workflow may legitimately have no nodes yet.
		if !errors.Is(err, flowork.ErrNoNodes) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := s.store.Save(&wf); err != nil {
		s.storeError(w, "create workflow", err)
		return
	}
	s.logger.Info("workflow created", slog.String("workflow_id", wf.ID))
	writeJSON(w, http.StatusCreated, &wf)
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.store.Load(chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, "get workflow", err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (s *Server) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	exists, err := s.store.Exists(id)
	if err != nil {
		s.storeError(w, "update workflow", err)
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}

	var wf flowork.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		writeError(w, http.StatusBadRequest, "invalid workflow JSON")
		return
	}
	wf.ID = id

	if err := wf.Validate(); err != nil && !errors.Is(err, flowork.ErrNoNodes) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.Save(&wf); err != nil {
		s.storeError(w, "update workflow", err)
		return
	}
	s.cache.Invalidate(id)
	writeJSON(w, http.StatusOK, &wf)
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(id); err != nil {
		s.storeError(w, "delete workflow", err)
		return
	}
	s.cache.Invalidate(id)
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	wf, err := s.store.Load(id)
	if err != nil {
		s.storeError(w, "execute workflow", err)
		return
	}

	graph, err := s.cache.Get(wf)
	if err != nil {
		var ce *flowork.CompileError
		if errors.As(err, &ce) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.storeError(w, "compile workflow", err)
		return
	}

	state, steps, err := graph.Run(r.Context(), req.Input)
	if err != nil {
		s.storeError(w, "run workflow", err)
		return
	}

	writeJSON(w, http.StatusOK, executeResponse{
		State:   state,
		Trace:   steps,
		Summary: flowork.Summarize(state),
	})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"templates": s.templates.List()})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.templates.Load(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}
