package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wardenhq/warden/internal/api/middleware"
	"github.com/wardenhq/warden/internal/core"
	"github.com/wardenhq/warden/internal/orchestrator"
)

// ListOperations lists the caller's operation history. Filterable by
// workspace_id, type, and status query parameters.
func (a *API) ListOperations(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	var filters orchestrator.OperationFilters
	if v := r.URL.Query().Get("workspace_id"); v != "" {
		filters.WorkspaceID = &v
	}
	if v := r.URL.Query().Get("type"); v != "" {
		t := core.OperationType(v)
		filters.Type = &t
	}
	if v := r.URL.Query().Get("status"); v != "" {
		s := core.OperationStatus(v)
		filters.Status = &s
	}

	ops, err := a.orch.GetOperations(r.Context(), identity, filters)
	if err != nil {
		WriteError(w, err)
		return
	}
	if ops == nil {
		ops = []core.Operation{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"operations": ops})
}

// GetOperation gets a single operation by id.
func (a *API) GetOperation(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	id := chi.URLParam(r, "operation_id")

	op, err := a.orch.GetOperation(r.Context(), identity, id)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, op)
}
