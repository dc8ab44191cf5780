package orchestrator

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/core"
	"github.com/wardenhq/warden/internal/store"
)

type CreateSnapshotRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// CreateSnapshot records the snapshot row and its snapshot operation in one
// transaction. The backing volume capture runs asynchronously like every
// other mutation, keeping request latency independent of provider cost.
func (o *Orchestrator) CreateSnapshot(ctx context.Context, identity, workspaceID string, req CreateSnapshotRequest) (core.Snapshot, error) {
	if req.Name == "" {
		return core.Snapshot{}, core.NewAppError(core.ErrInvalidInput, "name is required")
	}

	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return core.Snapshot{}, o.internal("failed to create snapshot", err)
	}
	defer tx.Rollback(ctx)
	qtx := o.queries.WithTx(tx)

	ws, err := qtx.GetWorkspaceForUpdate(ctx, workspaceID)
	if err != nil {
		if store.IsNotFound(err) {
			return core.Snapshot{}, core.Errorf(core.ErrNotFound, "workspace %s not found", workspaceID)
		}
		return core.Snapshot{}, o.internal("failed to create snapshot", err)
	}
	if err := authorizeOwner(identity, ws); err != nil {
		return core.Snapshot{}, err
	}
	if ws.Status != core.WorkspaceRunning && ws.Status != core.WorkspaceStopped {
		return core.Snapshot{}, core.Errorf(core.ErrInvalidState,
			"workspace %s must be running or stopped to snapshot, is %s", ws.ID, ws.Status)
	}

	snap := core.Snapshot{
		ID:          core.NewID(),
		WorkspaceID: ws.ID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := qtx.InsertSnapshot(ctx, &snap); err != nil {
		return core.Snapshot{}, o.internal("failed to create snapshot", err)
	}

	if err := o.openSnapshotOp(ctx, qtx, ws.ID, core.OpSnapshot, snap.ID); err != nil {
		return core.Snapshot{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return core.Snapshot{}, o.internal("failed to create snapshot", err)
	}

	o.log.Info("snapshot requested",
		zap.String("workspace_id", ws.ID),
		zap.String("snapshot_id", snap.ID),
	)
	return snap, nil
}

func (o *Orchestrator) ListSnapshots(ctx context.Context, identity, workspaceID string) ([]core.Snapshot, error) {
	if _, err := o.GetWorkspace(ctx, identity, workspaceID); err != nil {
		return nil, err
	}
	out, err := o.queries.ListSnapshots(ctx, workspaceID)
	if err != nil {
		return nil, o.internal("failed to list snapshots", err)
	}
	return out, nil
}

// RestoreSnapshot opens a snapshot_restore operation. The snapshot must
// belong to the target workspace; snapshots survive their workspace, but
// restoring needs a live target.
func (o *Orchestrator) RestoreSnapshot(ctx context.Context, identity, workspaceID, snapshotID string) (core.Operation, error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return core.Operation{}, o.internal("failed to restore snapshot", err)
	}
	defer tx.Rollback(ctx)
	qtx := o.queries.WithTx(tx)

	ws, err := qtx.GetWorkspaceForUpdate(ctx, workspaceID)
	if err != nil {
		if store.IsNotFound(err) {
			return core.Operation{}, core.Errorf(core.ErrNotFound, "workspace %s not found", workspaceID)
		}
		return core.Operation{}, o.internal("failed to restore snapshot", err)
	}
	if err := authorizeOwner(identity, ws); err != nil {
		return core.Operation{}, err
	}
	if err := checkTransition(ws, core.OpSnapshotRestore); err != nil {
		return core.Operation{}, err
	}

	snap, err := qtx.GetSnapshot(ctx, snapshotID)
	if err != nil {
		if store.IsNotFound(err) {
			return core.Operation{}, core.Errorf(core.ErrNotFound, "snapshot %s not found", snapshotID)
		}
		return core.Operation{}, o.internal("failed to restore snapshot", err)
	}
	if snap.WorkspaceID != ws.ID {
		return core.Operation{}, core.Errorf(core.ErrInvalidInput,
			"snapshot %s does not belong to workspace %s", snapshotID, ws.ID)
	}

	params, _ := json.Marshal(core.OperationParams{SnapshotID: snap.ID})
	op := core.Operation{
		ID:          core.NewID(),
		WorkspaceID: ws.ID,
		Type:        core.OpSnapshotRestore,
		Status:      core.OperationPending,
		Params:      params,
	}
	if err := qtx.InsertOperation(ctx, &op); err != nil {
		if store.IsUniqueViolation(err) {
			return core.Operation{}, core.Errorf(core.ErrInvalidState,
				"operation already in progress for workspace %s", ws.ID)
		}
		return core.Operation{}, o.internal("failed to restore snapshot", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return core.Operation{}, o.internal("failed to restore snapshot", err)
	}

	o.log.Info("snapshot restore requested",
		zap.String("workspace_id", ws.ID),
		zap.String("snapshot_id", snap.ID),
		zap.String("operation_id", op.ID),
	)
	return op, nil
}

func (o *Orchestrator) openSnapshotOp(ctx context.Context, qtx *store.Queries, workspaceID string, opType core.OperationType, snapshotID string) error {
	params, _ := json.Marshal(core.OperationParams{SnapshotID: snapshotID})
	op := core.Operation{
		ID:          core.NewID(),
		WorkspaceID: workspaceID,
		Type:        opType,
		Status:      core.OperationPending,
		Params:      params,
	}
	if err := qtx.InsertOperation(ctx, &op); err != nil {
		if store.IsUniqueViolation(err) {
			return core.Errorf(core.ErrInvalidState,
				"operation already in progress for workspace %s", workspaceID)
		}
		return o.internal("failed to create snapshot", err)
	}
	return nil
}
