// Package reconciler drives pending operations to completion against the
// provisioner backend. It is the only component that waits on provisioning,
// which can take minutes; the API path never does.
package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wardenhq/warden/internal/core"
	"github.com/wardenhq/warden/internal/observability"
	"github.com/wardenhq/warden/internal/provisioner"
	"github.com/wardenhq/warden/internal/store"
)

const batchSize = 50

type Reconciler struct {
	queries *store.Queries
	backend provisioner.Backend
	cfg     Config
	log     *zap.Logger
}

func New(pool *pgxpool.Pool, backend provisioner.Backend, cfg Config, log *zap.Logger) *Reconciler {
	return &Reconciler{
		queries: store.New(pool),
		backend: backend,
		cfg:     cfg,
		log:     log,
	}
}

func (r *Reconciler) Run(ctx context.Context) {
	r.log.Info("reconciler started", zap.Duration("interval", r.cfg.Interval))
	r.FailInterrupted(ctx)
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler stopping")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// FailInterrupted fails operations left running by a previous process, e.g.
// after a crash mid-provision. A running row that never completes would hold
// its workspace's exclusivity slot forever, since only pending rows are ever
// picked up again.
func (r *Reconciler) FailInterrupted(ctx context.Context) {
	n, err := r.queries.FailInterruptedOperations(ctx, "interrupted by shutdown")
	if err != nil {
		r.log.Error("failed to clean up interrupted operations", zap.Error(err))
		return
	}
	if n > 0 {
		r.log.Warn("failed operations interrupted by a previous run", zap.Int64("count", n))
	}
}

// Tick processes one batch of pending operations. Distinct workspaces run
// concurrently up to the parallelism bound; the ledger guarantees there is
// never more than one live operation per workspace in the batch.
func (r *Reconciler) Tick(ctx context.Context) {
	ops, err := r.queries.ListPendingOperations(ctx, batchSize)
	if err != nil {
		r.log.Error("failed to list pending operations", zap.Error(err))
		return
	}
	observability.PendingOperations.Set(float64(len(ops)))
	if len(ops) == 0 {
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(r.cfg.Parallelism)
	for _, op := range ops {
		g.Go(func() error {
			r.process(ctx, op)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Reconciler) process(ctx context.Context, op core.Operation) {
	log := observability.OperationLogger(r.log, op.ID, op.WorkspaceID, string(op.Type))

	started, err := r.queries.StartOperation(ctx, op.ID)
	if err != nil {
		log.Error("failed to start operation", zap.Error(err))
		return
	}
	if !started {
		// Another reconciler instance got there first.
		return
	}
	log.Info("operation running")

	// Once the operation is running, its terminal bookkeeping must land even
	// when shutdown has already cancelled ctx; abandoning the row at running
	// would block the workspace until the next restart's cleanup.
	doneCtx := context.WithoutCancel(ctx)

	ws, err := r.queries.GetWorkspace(ctx, op.WorkspaceID)
	if err != nil {
		r.completeFailed(doneCtx, op, nil, fmt.Errorf("load workspace: %w", err), log)
		return
	}

	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, r.cfg.ProvisionTimeout)
	defer cancel()

	instance, err := r.execute(opCtx, op, ws)
	observability.OperationDuration.WithLabelValues(string(op.Type)).Observe(time.Since(start).Seconds())

	if err != nil {
		// Backends that shell out flatten the context error, so consult the
		// operation context as well.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			observability.ProvisionTimeoutsTotal.Inc()
			err = fmt.Errorf("provisioner timed out after %s", r.cfg.ProvisionTimeout)
		}
		r.completeFailed(doneCtx, op, &ws, err, log)
		return
	}
	r.completeSuccess(doneCtx, op, ws, instance, log)
}

func (r *Reconciler) execute(ctx context.Context, op core.Operation, ws core.Workspace) (*provisioner.Instance, error) {
	switch op.Type {
	case core.OpCreate:
		return r.backend.Create(ctx, ws)
	case core.OpStart:
		return r.backend.Start(ctx, ws)
	case core.OpRestart:
		return r.backend.Restart(ctx, ws)
	case core.OpStop:
		return nil, r.backend.Stop(ctx, ws)
	case core.OpDelete:
		return nil, r.backend.Destroy(ctx, ws)
	case core.OpRebuild:
		if err := r.backend.Destroy(ctx, ws); err != nil {
			return nil, err
		}
		return r.backend.Create(ctx, ws)
	case core.OpSnapshot:
		snap, err := r.snapshotForOp(ctx, op)
		if err != nil {
			return nil, err
		}
		return nil, r.backend.Snapshot(ctx, ws, snap)
	case core.OpSnapshotRestore:
		snap, err := r.snapshotForOp(ctx, op)
		if err != nil {
			return nil, err
		}
		return r.backend.Restore(ctx, ws, snap)
	default:
		return nil, fmt.Errorf("unknown operation type %q", op.Type)
	}
}

func (r *Reconciler) snapshotForOp(ctx context.Context, op core.Operation) (core.Snapshot, error) {
	var params core.OperationParams
	if err := json.Unmarshal(op.Params, &params); err != nil {
		return core.Snapshot{}, fmt.Errorf("parse operation params: %w", err)
	}
	snap, err := r.queries.GetSnapshot(ctx, params.SnapshotID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load snapshot %s: %w", params.SnapshotID, err)
	}
	return snap, nil
}

// stableStatus maps a succeeded operation to the workspace status it leaves
// behind. Snapshot capture does not move the workspace at all.
func stableStatus(opType core.OperationType) (core.WorkspaceStatus, bool) {
	switch opType {
	case core.OpCreate, core.OpStart, core.OpRestart, core.OpRebuild, core.OpSnapshotRestore:
		return core.WorkspaceRunning, true
	case core.OpStop:
		return core.WorkspaceStopped, true
	case core.OpDelete:
		return core.WorkspaceDeleted, true
	}
	return "", false
}

func (r *Reconciler) completeSuccess(ctx context.Context, op core.Operation, ws core.Workspace, instance *provisioner.Instance, log *zap.Logger) {
	if next, ok := stableStatus(op.Type); ok {
		params := store.UpdateWorkspaceStatusParams{ID: ws.ID, Status: next}
		if instance != nil {
			params.ProviderID = &instance.ID
			params.ConnectionInfo = instance.ConnectionInfo
		}
		if err := r.queries.UpdateWorkspaceStatus(ctx, params); err != nil {
			log.Error("failed to update workspace status", zap.Error(err))
		} else if ws.Status != next {
			observability.WorkspaceStateTransitions.
				WithLabelValues(string(ws.Status), string(next)).Inc()
		}
	}

	err := r.queries.CompleteOperation(ctx, store.CompleteOperationParams{
		ID:     op.ID,
		Status: core.OperationSuccess,
	})
	if err != nil {
		log.Error("failed to complete operation", zap.Error(err))
		return
	}
	observability.OperationsTotal.WithLabelValues(string(op.Type), string(core.OperationSuccess)).Inc()
	log.Info("operation succeeded")
}

// completeFailed records the backend error on the operation and moves the
// workspace to error. Delete failures leave the status alone so the delete
// can be retried. ws is nil when the workspace could not even be loaded.
func (r *Reconciler) completeFailed(ctx context.Context, op core.Operation, ws *core.Workspace, opErr error, log *zap.Logger) {
	msg := opErr.Error()
	err := r.queries.CompleteOperation(ctx, store.CompleteOperationParams{
		ID:     op.ID,
		Status: core.OperationFailed,
		Error:  &msg,
	})
	if err != nil {
		log.Error("failed to record operation failure", zap.Error(err))
	}

	if ws != nil && op.Type != core.OpDelete {
		err := r.queries.UpdateWorkspaceStatus(ctx, store.UpdateWorkspaceStatusParams{
			ID:           ws.ID,
			Status:       core.WorkspaceError,
			ErrorMessage: &msg,
		})
		if err != nil {
			log.Error("failed to update workspace status", zap.Error(err))
		} else if ws.Status != core.WorkspaceError {
			observability.WorkspaceStateTransitions.
				WithLabelValues(string(ws.Status), string(core.WorkspaceError)).Inc()
		}
	}

	observability.OperationsTotal.WithLabelValues(string(op.Type), string(core.OperationFailed)).Inc()
	log.Error("operation failed", zap.Error(opErr))
}
