package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wardenhq/warden/internal/core"
	"github.com/wardenhq/warden/internal/observability"
	"github.com/wardenhq/warden/internal/store"
)

type CreateWorkspaceRequest struct {
	Name       string          `json:"name"`
	Provider   string          `json:"provider,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
	TTLSeconds *int64          `json:"ttl_seconds,omitempty"`
}

const maxNameLength = 128

func (r *CreateWorkspaceRequest) validate() error {
	if r.Name == "" {
		return core.NewAppError(core.ErrInvalidInput, "name is required")
	}
	if len(r.Name) > maxNameLength {
		return core.Errorf(core.ErrInvalidInput, "name exceeds %d characters", maxNameLength)
	}
	if r.Provider != "" && !knownProviders[r.Provider] {
		return core.Errorf(core.ErrInvalidInput, "unknown provider %q", r.Provider)
	}
	if len(r.Config) > 0 {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(r.Config, &obj); err != nil {
			return core.NewAppError(core.ErrInvalidInput, "config must be a JSON object")
		}
	}
	if r.TTLSeconds != nil && *r.TTLSeconds <= 0 {
		return core.NewAppError(core.ErrInvalidInput, "ttl_seconds must be positive")
	}
	return nil
}

// CreateWorkspace records a new workspace in creating status together with
// its pending create operation in one transaction. The caller becomes the
// owner; provisioning itself happens asynchronously.
func (o *Orchestrator) CreateWorkspace(ctx context.Context, owner string, req CreateWorkspaceRequest) (core.Workspace, error) {
	if err := req.validate(); err != nil {
		return core.Workspace{}, err
	}

	provider := req.Provider
	if provider == "" {
		provider = DefaultProvider
	}
	config := req.Config
	if len(config) == 0 {
		config = []byte("{}")
	}

	ws := core.Workspace{
		ID:       core.NewID(),
		Name:     req.Name,
		Owner:    owner,
		Status:   core.WorkspaceCreating,
		Provider: provider,
		Config:   config,
	}
	if req.TTLSeconds != nil {
		expires := time.Now().Add(time.Duration(*req.TTLSeconds) * time.Second)
		ws.ExpiresAt = &expires
	}

	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return core.Workspace{}, o.internal("failed to create workspace", err)
	}
	defer tx.Rollback(ctx)
	qtx := o.queries.WithTx(tx)

	if err := qtx.InsertWorkspace(ctx, &ws); err != nil {
		return core.Workspace{}, o.internal("failed to create workspace", err)
	}
	op := core.Operation{
		ID:          core.NewID(),
		WorkspaceID: ws.ID,
		Type:        core.OpCreate,
		Status:      core.OperationPending,
	}
	if err := qtx.InsertOperation(ctx, &op); err != nil {
		return core.Workspace{}, o.internal("failed to create workspace", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return core.Workspace{}, o.internal("failed to create workspace", err)
	}

	o.log.Info("workspace created",
		zap.String("workspace_id", ws.ID),
		zap.String("owner", owner),
		zap.String("provider", provider),
		zap.String("operation_id", op.ID),
	)
	return ws, nil
}

func (o *Orchestrator) GetWorkspace(ctx context.Context, identity, id string) (core.Workspace, error) {
	ws, err := o.queries.GetWorkspace(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return core.Workspace{}, core.Errorf(core.ErrNotFound, "workspace %s not found", id)
		}
		return core.Workspace{}, o.internal("failed to load workspace", err)
	}
	if err := authorizeOwner(identity, ws); err != nil {
		return core.Workspace{}, err
	}
	return ws, nil
}

// ListWorkspaces returns the identity's workspaces, newest first. Listing is
// owner-scoped by construction, so there is no per-row authorization.
func (o *Orchestrator) ListWorkspaces(ctx context.Context, identity string, status *core.WorkspaceStatus) ([]core.Workspace, error) {
	out, err := o.queries.ListWorkspaces(ctx, store.ListWorkspacesParams{
		Owner:  &identity,
		Status: status,
	})
	if err != nil {
		return nil, o.internal("failed to list workspaces", err)
	}
	return out, nil
}

func (o *Orchestrator) DeleteWorkspace(ctx context.Context, identity, id string) (core.Workspace, error) {
	return o.transition(ctx, identity, id, core.OpDelete)
}

func (o *Orchestrator) StartWorkspace(ctx context.Context, identity, id string) (core.Workspace, error) {
	return o.transition(ctx, identity, id, core.OpStart)
}

func (o *Orchestrator) StopWorkspace(ctx context.Context, identity, id string) (core.Workspace, error) {
	return o.transition(ctx, identity, id, core.OpStop)
}

func (o *Orchestrator) RestartWorkspace(ctx context.Context, identity, id string) (core.Workspace, error) {
	return o.transition(ctx, identity, id, core.OpRestart)
}

// GetExpiredWorkspaces is the janitor's feed: workspaces past their TTL that
// are not already on their way out.
func (o *Orchestrator) GetExpiredWorkspaces(ctx context.Context) ([]core.Workspace, error) {
	out, err := o.queries.ListExpiredWorkspaces(ctx)
	if err != nil {
		return nil, o.internal("failed to list expired workspaces", err)
	}
	return out, nil
}

// transition runs the check-then-act sequence for a lifecycle operation
// inside one transaction: lock the row, authorize, open the pending
// operation, optimistically move the workspace status. The partial unique
// index turns a concurrent operation into an InvalidState error instead of a
// lost update.
func (o *Orchestrator) transition(ctx context.Context, identity, id string, opType core.OperationType) (core.Workspace, error) {
	failMsg := fmt.Sprintf("failed to open %s operation", opType)

	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return core.Workspace{}, o.internal(failMsg, err)
	}
	defer tx.Rollback(ctx)
	qtx := o.queries.WithTx(tx)

	ws, err := qtx.GetWorkspaceForUpdate(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return core.Workspace{}, core.Errorf(core.ErrNotFound, "workspace %s not found", id)
		}
		return core.Workspace{}, o.internal(failMsg, err)
	}
	if err := authorizeOwner(identity, ws); err != nil {
		return core.Workspace{}, err
	}
	if err := checkTransition(ws, opType); err != nil {
		return core.Workspace{}, err
	}

	op := core.Operation{
		ID:          core.NewID(),
		WorkspaceID: ws.ID,
		Type:        opType,
		Status:      core.OperationPending,
	}
	if err := qtx.InsertOperation(ctx, &op); err != nil {
		if store.IsUniqueViolation(err) {
			return core.Workspace{}, core.Errorf(core.ErrInvalidState,
				"operation already in progress for workspace %s", ws.ID)
		}
		return core.Workspace{}, o.internal(failMsg, err)
	}

	if opType == core.OpDelete && ws.Status != core.WorkspaceDeleting {
		err := qtx.UpdateWorkspaceStatus(ctx, store.UpdateWorkspaceStatusParams{
			ID:     ws.ID,
			Status: core.WorkspaceDeleting,
		})
		if err != nil {
			return core.Workspace{}, o.internal(failMsg, err)
		}
		observability.WorkspaceStateTransitions.
			WithLabelValues(string(ws.Status), string(core.WorkspaceDeleting)).Inc()
		ws.Status = core.WorkspaceDeleting
	}

	if err := tx.Commit(ctx); err != nil {
		return core.Workspace{}, o.internal(failMsg, err)
	}

	o.log.Info("operation opened",
		zap.String("workspace_id", ws.ID),
		zap.String("operation_id", op.ID),
		zap.String("operation_type", string(opType)),
	)
	return ws, nil
}

// checkTransition rejects operations that can never make sense for the
// current status. Anything subtler is left to the ledger's exclusivity rule:
// re-issuing start or create intent on an error workspace is deliberately
// allowed so callers can retry.
func checkTransition(ws core.Workspace, opType core.OperationType) error {
	switch ws.Status {
	case core.WorkspaceDeleted:
		return core.Errorf(core.ErrInvalidState, "workspace %s is deleted", ws.ID)
	case core.WorkspaceDeleting:
		if opType != core.OpDelete {
			return core.Errorf(core.ErrInvalidState, "workspace %s is being deleted", ws.ID)
		}
	}
	return nil
}
