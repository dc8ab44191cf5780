package core

import (
	"encoding/json"
	"time"
)

type OperationType string

const (
	OpCreate          OperationType = "create"
	OpDelete          OperationType = "delete"
	OpStart           OperationType = "start"
	OpStop            OperationType = "stop"
	OpRestart         OperationType = "restart"
	OpRebuild         OperationType = "rebuild"
	OpSnapshot        OperationType = "snapshot"
	OpSnapshotRestore OperationType = "snapshot_restore"
)

type OperationStatus string

const (
	OperationPending OperationStatus = "pending"
	OperationRunning OperationStatus = "running"
	OperationSuccess OperationStatus = "success"
	OperationFailed  OperationStatus = "failed"
)

// Operation is one audited lifecycle action against a workspace. Rows are
// append-mostly: created pending, updated at most twice (running, then a
// terminal status), never deleted.
type Operation struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspace_id"`
	Type        OperationType   `json:"operation_type"`
	Status      OperationStatus `json:"status"`
	Params      json.RawMessage `json:"params,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       *string         `json:"error,omitempty"`
}

// OperationParams is the structured form of Operation.Params. Only snapshot
// operations carry anything today.
type OperationParams struct {
	SnapshotID string `json:"snapshot_id,omitempty"`
}

// IsTerminal returns true if the operation is in a final state.
func (o *Operation) IsTerminal() bool {
	return o.Status == OperationSuccess || o.Status == OperationFailed
}
