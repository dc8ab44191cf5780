package core

import "time"

// Snapshot is a point-in-time capture of a workspace's backing volume. It has
// an independent lifetime: deleting the workspace does not invalidate
// snapshots that were already exported.
type Snapshot struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
