package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wardenhq/warden/internal/api/middleware"
	"github.com/wardenhq/warden/internal/core"
	"github.com/wardenhq/warden/internal/orchestrator"
)

// ListSnapshots lists snapshots of a workspace.
func (a *API) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	workspaceID := chi.URLParam(r, "workspace_id")

	snapshots, err := a.orch.ListSnapshots(r.Context(), identity, workspaceID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if snapshots == nil {
		snapshots = []core.Snapshot{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"snapshots": snapshots})
}

// CreateSnapshot records a snapshot of a workspace. The volume capture runs
// asynchronously through the operation ledger.
func (a *API) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	workspaceID := chi.URLParam(r, "workspace_id")

	var req orchestrator.CreateSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrInvalidInput, "invalid request body"))
		return
	}

	snap, err := a.orch.CreateSnapshot(r.Context(), identity, workspaceID, req)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, snap)
}

// RestoreSnapshot rolls a workspace back to a snapshot (async).
func (a *API) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	workspaceID := chi.URLParam(r, "workspace_id")
	snapshotID := chi.URLParam(r, "snapshot_id")

	op, err := a.orch.RestoreSnapshot(r.Context(), identity, workspaceID, snapshotID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, op)
}
