package core

import (
	"encoding/json"
	"time"
)

type WorkspaceStatus string

const (
	WorkspaceCreating WorkspaceStatus = "creating"
	WorkspaceRunning  WorkspaceStatus = "running"
	WorkspaceStopped  WorkspaceStatus = "stopped"
	WorkspaceDeleting WorkspaceStatus = "deleting"
	WorkspaceDeleted  WorkspaceStatus = "deleted"
	WorkspaceError    WorkspaceStatus = "error"
)

type Workspace struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Owner          string          `json:"owner"`
	Status         WorkspaceStatus `json:"status"`
	Provider       string          `json:"provider"`
	Config         json.RawMessage `json:"config"`
	ProviderID     *string         `json:"provider_id,omitempty"`
	ConnectionInfo json.RawMessage `json:"connection_info,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
}

// Expired reports whether the workspace TTL deadline has passed. Workspaces
// that are already on their way out are not considered expired again.
func (w *Workspace) Expired(now time.Time) bool {
	if w.ExpiresAt == nil {
		return false
	}
	if w.Status == WorkspaceDeleting || w.Status == WorkspaceDeleted {
		return false
	}
	return !w.ExpiresAt.After(now)
}
