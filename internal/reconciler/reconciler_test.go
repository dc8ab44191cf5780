package reconciler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardenhq/warden/internal/core"
	"github.com/wardenhq/warden/internal/provisioner"
	"github.com/wardenhq/warden/internal/reconciler"
	"github.com/wardenhq/warden/internal/store"
	"github.com/wardenhq/warden/internal/store/storetest"
)

// stubBackend records calls and answers with canned results, so the tests
// exercise the reconciliation logic without a container runtime.
type stubBackend struct {
	mu       sync.Mutex
	calls    []string
	failWith error
	block    bool
	onCall   func()
}

func (s *stubBackend) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	if s.onCall != nil {
		s.onCall()
	}
}

func (s *stubBackend) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubBackend) instance(ctx context.Context, ws core.Workspace) (*provisioner.Instance, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.failWith != nil {
		return nil, s.failWith
	}
	return &provisioner.Instance{
		ID:             "inst-" + ws.ID,
		ConnectionInfo: json.RawMessage(`{"host":"10.0.0.5","port":22}`),
	}, nil
}

func (s *stubBackend) Create(ctx context.Context, ws core.Workspace) (*provisioner.Instance, error) {
	s.record("create")
	return s.instance(ctx, ws)
}

func (s *stubBackend) Start(ctx context.Context, ws core.Workspace) (*provisioner.Instance, error) {
	s.record("start")
	return s.instance(ctx, ws)
}

func (s *stubBackend) Restart(ctx context.Context, ws core.Workspace) (*provisioner.Instance, error) {
	s.record("restart")
	return s.instance(ctx, ws)
}

func (s *stubBackend) Stop(ctx context.Context, ws core.Workspace) error {
	s.record("stop")
	return s.failWith
}

func (s *stubBackend) Destroy(ctx context.Context, ws core.Workspace) error {
	s.record("destroy")
	return s.failWith
}

func (s *stubBackend) Snapshot(ctx context.Context, ws core.Workspace, snap core.Snapshot) error {
	s.record("snapshot")
	return s.failWith
}

func (s *stubBackend) Restore(ctx context.Context, ws core.Workspace, snap core.Snapshot) (*provisioner.Instance, error) {
	s.record("restore")
	return s.instance(ctx, ws)
}

func newReconciler(pool *pgxpool.Pool, backend provisioner.Backend, timeout time.Duration) *reconciler.Reconciler {
	cfg := reconciler.Config{Interval: time.Second, Parallelism: 2, ProvisionTimeout: timeout}
	return reconciler.New(pool, backend, cfg, zap.NewNop())
}

func insertWorkspace(t *testing.T, q *store.Queries, status core.WorkspaceStatus) core.Workspace {
	t.Helper()
	ws := core.Workspace{
		ID:       core.NewID(),
		Name:     "ws-" + core.NewID()[:8],
		Owner:    "alice",
		Status:   status,
		Provider: "docker",
		Config:   json.RawMessage(`{}`),
	}
	if err := q.InsertWorkspace(context.Background(), &ws); err != nil {
		t.Fatalf("insert workspace: %v", err)
	}
	return ws
}

func insertOperation(t *testing.T, q *store.Queries, workspaceID string, opType core.OperationType, params json.RawMessage) core.Operation {
	t.Helper()
	op := core.Operation{
		ID:          core.NewID(),
		WorkspaceID: workspaceID,
		Type:        opType,
		Status:      core.OperationPending,
		Params:      params,
	}
	if err := q.InsertOperation(context.Background(), &op); err != nil {
		t.Fatalf("insert operation: %v", err)
	}
	return op
}

func TestReconcilerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pool := storetest.NewPool(t)
	q := store.New(pool)
	ctx := context.Background()

	t.Run("CreateMovesWorkspaceToRunning", func(t *testing.T) {
		backend := &stubBackend{}
		r := newReconciler(pool, backend, time.Minute)
		ws := insertWorkspace(t, q, core.WorkspaceCreating)
		op := insertOperation(t, q, ws.ID, core.OpCreate, nil)

		r.Tick(ctx)

		got, err := q.GetOperation(ctx, op.ID)
		if err != nil {
			t.Fatalf("get operation: %v", err)
		}
		if got.Status != core.OperationSuccess {
			t.Fatalf("operation status = %s, want success (error=%v)", got.Status, got.Error)
		}
		if got.StartedAt == nil || got.CompletedAt == nil {
			t.Fatal("expected started_at and completed_at to be set")
		}
		if got.CompletedAt.Before(*got.StartedAt) {
			t.Errorf("completed_at %v before started_at %v", got.CompletedAt, got.StartedAt)
		}

		updated, err := q.GetWorkspace(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get workspace: %v", err)
		}
		if updated.Status != core.WorkspaceRunning {
			t.Errorf("workspace status = %s, want running", updated.Status)
		}
		if updated.ProviderID == nil || *updated.ProviderID != "inst-"+ws.ID {
			t.Errorf("provider_id = %v, want inst-%s", updated.ProviderID, ws.ID)
		}
		if updated.ConnectionInfo == nil {
			t.Error("expected connection_info to be recorded")
		}
		if calls := backend.Calls(); len(calls) != 1 || calls[0] != "create" {
			t.Errorf("backend calls = %v, want [create]", calls)
		}
	})

	t.Run("BackendFailureMovesWorkspaceToError", func(t *testing.T) {
		backend := &stubBackend{failWith: errors.New("image pull failed")}
		r := newReconciler(pool, backend, time.Minute)
		ws := insertWorkspace(t, q, core.WorkspaceCreating)
		op := insertOperation(t, q, ws.ID, core.OpCreate, nil)

		r.Tick(ctx)

		got, err := q.GetOperation(ctx, op.ID)
		if err != nil {
			t.Fatalf("get operation: %v", err)
		}
		if got.Status != core.OperationFailed {
			t.Fatalf("operation status = %s, want failed", got.Status)
		}
		if got.Error == nil || !strings.Contains(*got.Error, "image pull failed") {
			t.Errorf("operation error = %v, want backend message", got.Error)
		}

		updated, err := q.GetWorkspace(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get workspace: %v", err)
		}
		if updated.Status != core.WorkspaceError {
			t.Errorf("workspace status = %s, want error", updated.Status)
		}
		if updated.ErrorMessage == nil || !strings.Contains(*updated.ErrorMessage, "image pull failed") {
			t.Errorf("workspace error_message = %v, want backend message", updated.ErrorMessage)
		}
	})

	t.Run("DeleteSuccessSoftDeletes", func(t *testing.T) {
		backend := &stubBackend{}
		r := newReconciler(pool, backend, time.Minute)
		ws := insertWorkspace(t, q, core.WorkspaceDeleting)
		insertOperation(t, q, ws.ID, core.OpDelete, nil)

		r.Tick(ctx)

		updated, err := q.GetWorkspace(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get workspace: %v", err)
		}
		if updated.Status != core.WorkspaceDeleted {
			t.Errorf("workspace status = %s, want deleted", updated.Status)
		}
		if calls := backend.Calls(); len(calls) != 1 || calls[0] != "destroy" {
			t.Errorf("backend calls = %v, want [destroy]", calls)
		}
	})

	t.Run("DeleteFailureKeepsStatus", func(t *testing.T) {
		backend := &stubBackend{failWith: errors.New("runtime unavailable")}
		r := newReconciler(pool, backend, time.Minute)
		ws := insertWorkspace(t, q, core.WorkspaceDeleting)
		op := insertOperation(t, q, ws.ID, core.OpDelete, nil)

		r.Tick(ctx)

		got, err := q.GetOperation(ctx, op.ID)
		if err != nil {
			t.Fatalf("get operation: %v", err)
		}
		if got.Status != core.OperationFailed {
			t.Fatalf("operation status = %s, want failed", got.Status)
		}

		// Status stays deleting so the delete can be retried later.
		updated, err := q.GetWorkspace(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get workspace: %v", err)
		}
		if updated.Status != core.WorkspaceDeleting {
			t.Errorf("workspace status = %s, want deleting", updated.Status)
		}
	})

	t.Run("SnapshotKeepsWorkspaceStatus", func(t *testing.T) {
		backend := &stubBackend{}
		r := newReconciler(pool, backend, time.Minute)
		ws := insertWorkspace(t, q, core.WorkspaceRunning)
		snap := core.Snapshot{ID: core.NewID(), WorkspaceID: ws.ID, Name: "pre-upgrade"}
		if err := q.InsertSnapshot(ctx, &snap); err != nil {
			t.Fatalf("insert snapshot: %v", err)
		}
		params, _ := json.Marshal(core.OperationParams{SnapshotID: snap.ID})
		op := insertOperation(t, q, ws.ID, core.OpSnapshot, params)

		r.Tick(ctx)

		got, err := q.GetOperation(ctx, op.ID)
		if err != nil {
			t.Fatalf("get operation: %v", err)
		}
		if got.Status != core.OperationSuccess {
			t.Fatalf("operation status = %s, want success (error=%v)", got.Status, got.Error)
		}

		updated, err := q.GetWorkspace(ctx, ws.ID)
		if err != nil {
			t.Fatalf("get workspace: %v", err)
		}
		if updated.Status != core.WorkspaceRunning {
			t.Errorf("workspace status = %s, want running", updated.Status)
		}
		if calls := backend.Calls(); len(calls) != 1 || calls[0] != "snapshot" {
			t.Errorf("backend calls = %v, want [snapshot]", calls)
		}
	})

	t.Run("RestoreWithMissingSnapshotFails", func(t *testing.T) {
		backend := &stubBackend{}
		r := newReconciler(pool, backend, time.Minute)
		ws := insertWorkspace(t, q, core.WorkspaceRunning)
		params, _ := json.Marshal(core.OperationParams{SnapshotID: core.NewID()})
		op := insertOperation(t, q, ws.ID, core.OpSnapshotRestore, params)

		r.Tick(ctx)

		got, err := q.GetOperation(ctx, op.ID)
		if err != nil {
			t.Fatalf("get operation: %v", err)
		}
		if got.Status != core.OperationFailed {
			t.Fatalf("operation status = %s, want failed", got.Status)
		}
		if len(backend.Calls()) != 0 {
			t.Errorf("backend calls = %v, want none", backend.Calls())
		}
	})

	t.Run("ProvisionTimeoutFailsOperation", func(t *testing.T) {
		backend := &stubBackend{block: true}
		r := newReconciler(pool, backend, 50*time.Millisecond)
		ws := insertWorkspace(t, q, core.WorkspaceCreating)
		op := insertOperation(t, q, ws.ID, core.OpCreate, nil)

		r.Tick(ctx)

		got, err := q.GetOperation(ctx, op.ID)
		if err != nil {
			t.Fatalf("get operation: %v", err)
		}
		if got.Status != core.OperationFailed {
			t.Fatalf("operation status = %s, want failed", got.Status)
		}
		if got.Error == nil || !strings.Contains(*got.Error, "timed out") {
			t.Errorf("operation error = %v, want timeout message", got.Error)
		}
	})

	t.Run("ShutdownMidOperationStillReleasesWorkspace", func(t *testing.T) {
		// The backend cancels the parent context as soon as it is called,
		// standing in for SIGTERM arriving while a provision is in flight.
		tickCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		backend := &stubBackend{block: true, onCall: cancel}
		r := newReconciler(pool, backend, time.Minute)
		ws := insertWorkspace(t, q, core.WorkspaceCreating)
		op := insertOperation(t, q, ws.ID, core.OpCreate, nil)

		r.Tick(tickCtx)

		got, err := q.GetOperation(ctx, op.ID)
		if err != nil {
			t.Fatalf("get operation: %v", err)
		}
		if got.Status != core.OperationFailed {
			t.Fatalf("operation status = %s, want failed (a stuck running row blocks the workspace)", got.Status)
		}
		if got.Error == nil {
			t.Error("expected an error message on the interrupted operation")
		}

		// The exclusivity slot must be free again.
		retry := core.Operation{
			ID:          core.NewID(),
			WorkspaceID: ws.ID,
			Type:        core.OpCreate,
			Status:      core.OperationPending,
		}
		if err := q.InsertOperation(ctx, &retry); err != nil {
			t.Fatalf("workspace still blocked after interrupted operation: %v", err)
		}
	})

	t.Run("FailInterruptedCleansStaleRunning", func(t *testing.T) {
		backend := &stubBackend{}
		r := newReconciler(pool, backend, time.Minute)
		ws := insertWorkspace(t, q, core.WorkspaceDeleting)
		op := insertOperation(t, q, ws.ID, core.OpDelete, nil)
		// Simulate a previous process that died after claiming the operation.
		if _, err := q.StartOperation(ctx, op.ID); err != nil {
			t.Fatalf("start operation: %v", err)
		}

		r.FailInterrupted(ctx)

		got, err := q.GetOperation(ctx, op.ID)
		if err != nil {
			t.Fatalf("get operation: %v", err)
		}
		if got.Status != core.OperationFailed {
			t.Fatalf("operation status = %s, want failed", got.Status)
		}
		if got.Error == nil || !strings.Contains(*got.Error, "interrupted") {
			t.Errorf("operation error = %v, want interrupted message", got.Error)
		}

		// The delete can now be reissued.
		retry := core.Operation{
			ID:          core.NewID(),
			WorkspaceID: ws.ID,
			Type:        core.OpDelete,
			Status:      core.OperationPending,
		}
		if err := q.InsertOperation(ctx, &retry); err != nil {
			t.Fatalf("workspace still blocked after cleanup: %v", err)
		}
	})

	t.Run("TickProcessesMultipleWorkspaces", func(t *testing.T) {
		backend := &stubBackend{}
		r := newReconciler(pool, backend, time.Minute)
		var ops []core.Operation
		for i := 0; i < 3; i++ {
			ws := insertWorkspace(t, q, core.WorkspaceCreating)
			ops = append(ops, insertOperation(t, q, ws.ID, core.OpCreate, nil))
		}

		r.Tick(ctx)

		for i, op := range ops {
			got, err := q.GetOperation(ctx, op.ID)
			if err != nil {
				t.Fatalf("get operation %d: %v", i, err)
			}
			if got.Status != core.OperationSuccess {
				t.Errorf("operation %d status = %s, want success", i, got.Status)
			}
		}
	})
}

// Exercised indirectly everywhere, but the mapping itself is load-bearing
// enough to pin down.
func TestStableStatusViaTick(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pool := storetest.NewPool(t)
	q := store.New(pool)
	ctx := context.Background()

	cases := []struct {
		opType core.OperationType
		from   core.WorkspaceStatus
		want   core.WorkspaceStatus
	}{
		{core.OpStart, core.WorkspaceStopped, core.WorkspaceRunning},
		{core.OpStop, core.WorkspaceRunning, core.WorkspaceStopped},
		{core.OpRestart, core.WorkspaceRunning, core.WorkspaceRunning},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_from_%s", tc.opType, tc.from), func(t *testing.T) {
			backend := &stubBackend{}
			r := newReconciler(pool, backend, time.Minute)
			ws := insertWorkspace(t, q, tc.from)
			insertOperation(t, q, ws.ID, tc.opType, nil)

			r.Tick(ctx)

			updated, err := q.GetWorkspace(ctx, ws.ID)
			if err != nil {
				t.Fatalf("get workspace: %v", err)
			}
			if updated.Status != tc.want {
				t.Errorf("workspace status = %s, want %s", updated.Status, tc.want)
			}
		})
	}
}
