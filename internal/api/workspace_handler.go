package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wardenhq/warden/internal/api/middleware"
	"github.com/wardenhq/warden/internal/core"
	"github.com/wardenhq/warden/internal/orchestrator"
)

// ListWorkspaces lists the caller's workspaces, optionally filtered by status.
func (a *API) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	var status *core.WorkspaceStatus
	if s := r.URL.Query().Get("status"); s != "" {
		v := core.WorkspaceStatus(s)
		status = &v
	}

	workspaces, err := a.orch.ListWorkspaces(r.Context(), identity, status)
	if err != nil {
		WriteError(w, err)
		return
	}
	if workspaces == nil {
		workspaces = []core.Workspace{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"workspaces": workspaces})
}

// CreateWorkspace creates a new workspace. Provisioning is asynchronous; the
// returned workspace is in creating status and carries no connection info yet.
func (a *API) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	var req orchestrator.CreateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrInvalidInput, "invalid request body"))
		return
	}

	ws, err := a.orch.CreateWorkspace(r.Context(), identity, req)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ws)
}

// GetWorkspace gets a single workspace by id.
func (a *API) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	id := chi.URLParam(r, "workspace_id")

	ws, err := a.orch.GetWorkspace(r.Context(), identity, id)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ws)
}

// DeleteWorkspace requests workspace teardown (async).
func (a *API) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.orch.DeleteWorkspace)
}

// StartWorkspace requests a stopped workspace be started (async).
func (a *API) StartWorkspace(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.orch.StartWorkspace)
}

// StopWorkspace requests a running workspace be stopped (async).
func (a *API) StopWorkspace(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.orch.StopWorkspace)
}

// RestartWorkspace requests a workspace restart (async).
func (a *API) RestartWorkspace(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.orch.RestartWorkspace)
}

// transition is shared by the four async lifecycle endpoints. 202 tells the
// caller the intent was recorded, not that the provider has acted on it.
func (a *API) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, identity, id string) (core.Workspace, error)) {
	identity := middleware.GetIdentity(r)
	id := chi.URLParam(r, "workspace_id")

	ws, err := fn(r.Context(), identity, id)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, ws)
}
