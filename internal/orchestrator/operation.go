package orchestrator

import (
	"context"

	"github.com/wardenhq/warden/internal/core"
	"github.com/wardenhq/warden/internal/store"
)

type OperationFilters struct {
	WorkspaceID *string
	Type        *core.OperationType
	Status      *core.OperationStatus
}

// GetOperations lists the audit trail. With an explicit workspace the caller
// must own it; without one the query is scoped to the caller's workspaces in
// SQL.
func (o *Orchestrator) GetOperations(ctx context.Context, identity string, filters OperationFilters) ([]core.Operation, error) {
	params := store.ListOperationsParams{
		Type:   filters.Type,
		Status: filters.Status,
	}
	if filters.WorkspaceID != nil {
		if _, err := o.GetWorkspace(ctx, identity, *filters.WorkspaceID); err != nil {
			return nil, err
		}
		params.WorkspaceID = filters.WorkspaceID
	} else {
		params.Owner = &identity
	}

	out, err := o.queries.ListOperations(ctx, params)
	if err != nil {
		return nil, o.internal("failed to list operations", err)
	}
	return out, nil
}

func (o *Orchestrator) GetOperation(ctx context.Context, identity, id string) (core.Operation, error) {
	op, err := o.queries.GetOperation(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return core.Operation{}, core.Errorf(core.ErrNotFound, "operation %s not found", id)
		}
		return core.Operation{}, o.internal("failed to load operation", err)
	}

	ws, err := o.queries.GetWorkspace(ctx, op.WorkspaceID)
	if err != nil {
		return core.Operation{}, o.internal("failed to load operation", err)
	}
	if err := authorizeOwner(identity, ws); err != nil {
		return core.Operation{}, err
	}
	return op, nil
}
