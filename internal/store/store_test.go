package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/wardenhq/warden/internal/core"
	"github.com/wardenhq/warden/internal/store"
	"github.com/wardenhq/warden/internal/store/storetest"
)

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := storetest.NewPool(t)
	queries := store.New(pool)

	ws := &core.Workspace{
		ID:       core.NewID(),
		Name:     "dev1",
		Owner:    "alice",
		Status:   core.WorkspaceCreating,
		Provider: "docker",
		Config:   []byte(`{"image":"ubuntu:24.04"}`),
	}

	t.Run("InsertWorkspace", func(t *testing.T) {
		if err := queries.InsertWorkspace(ctx, ws); err != nil {
			t.Fatalf("failed to insert workspace: %s", err)
		}
		if ws.CreatedAt.IsZero() || ws.UpdatedAt.IsZero() {
			t.Error("expected DB-assigned timestamps")
		}
	})

	t.Run("GetWorkspace", func(t *testing.T) {
		got, err := queries.GetWorkspace(ctx, ws.ID)
		if err != nil {
			t.Fatalf("failed to get workspace: %s", err)
		}
		if got.Owner != "alice" {
			t.Errorf("expected owner alice, got %s", got.Owner)
		}
		if got.Status != core.WorkspaceCreating {
			t.Errorf("expected status creating, got %s", got.Status)
		}
	})

	t.Run("GetWorkspaceNotFound", func(t *testing.T) {
		_, err := queries.GetWorkspace(ctx, "no-such-id")
		if !store.IsNotFound(err) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})

	opID := core.NewID()

	t.Run("InsertOperation", func(t *testing.T) {
		op := &core.Operation{
			ID:          opID,
			WorkspaceID: ws.ID,
			Type:        core.OpCreate,
			Status:      core.OperationPending,
		}
		if err := queries.InsertOperation(ctx, op); err != nil {
			t.Fatalf("failed to insert operation: %s", err)
		}
	})

	t.Run("SecondActiveOperationRejected", func(t *testing.T) {
		op := &core.Operation{
			ID:          core.NewID(),
			WorkspaceID: ws.ID,
			Type:        core.OpStop,
			Status:      core.OperationPending,
		}
		err := queries.InsertOperation(ctx, op)
		if err == nil {
			t.Fatal("expected unique violation for second active operation")
		}
		if !store.IsUniqueViolation(err) {
			t.Errorf("expected unique violation, got %v", err)
		}
	})

	t.Run("StartAndCompleteOperation", func(t *testing.T) {
		started, err := queries.StartOperation(ctx, opID)
		if err != nil || !started {
			t.Fatalf("failed to start operation: started=%v err=%s", started, err)
		}

		// A second start must lose the race.
		started, err = queries.StartOperation(ctx, opID)
		if err != nil {
			t.Fatalf("second start errored: %s", err)
		}
		if started {
			t.Error("operation started twice")
		}

		err = queries.CompleteOperation(ctx, store.CompleteOperationParams{
			ID:     opID,
			Status: core.OperationSuccess,
		})
		if err != nil {
			t.Fatalf("failed to complete operation: %s", err)
		}

		op, err := queries.GetOperation(ctx, opID)
		if err != nil {
			t.Fatalf("failed to get operation: %s", err)
		}
		if op.Status != core.OperationSuccess {
			t.Errorf("expected success, got %s", op.Status)
		}
		if op.StartedAt == nil || op.CompletedAt == nil {
			t.Fatal("expected started_at and completed_at to be set")
		}
		if op.StartedAt.After(*op.CompletedAt) {
			t.Error("started_at after completed_at")
		}
	})

	t.Run("CompleteNonRunningOperationRejected", func(t *testing.T) {
		err := queries.CompleteOperation(ctx, store.CompleteOperationParams{
			ID:     opID,
			Status: core.OperationFailed,
		})
		if err == nil {
			t.Fatal("expected error completing a terminal operation")
		}
	})

	t.Run("CompleteWithIllegalStatusRejected", func(t *testing.T) {
		err := queries.CompleteOperation(ctx, store.CompleteOperationParams{
			ID:     opID,
			Status: core.OperationPending,
		})
		if err == nil {
			t.Fatal("expected error for non-terminal target status")
		}
	})

	t.Run("ListExpiredWorkspaces", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		expired := &core.Workspace{
			ID:        core.NewID(),
			Name:      "old",
			Owner:     "alice",
			Status:    core.WorkspaceRunning,
			Provider:  "docker",
			Config:    []byte(`{}`),
			ExpiresAt: &past,
		}
		if err := queries.InsertWorkspace(ctx, expired); err != nil {
			t.Fatalf("failed to insert workspace: %s", err)
		}

		got, err := queries.ListExpiredWorkspaces(ctx)
		if err != nil {
			t.Fatalf("failed to list expired: %s", err)
		}
		if len(got) != 1 || got[0].ID != expired.ID {
			t.Fatalf("expected exactly the expired workspace, got %d rows", len(got))
		}

		// Once deleting, it must drop out of the expired set.
		err = queries.UpdateWorkspaceStatus(ctx, store.UpdateWorkspaceStatusParams{
			ID: expired.ID, Status: core.WorkspaceDeleting,
		})
		if err != nil {
			t.Fatalf("failed to update status: %s", err)
		}
		got, err = queries.ListExpiredWorkspaces(ctx)
		if err != nil {
			t.Fatalf("failed to list expired: %s", err)
		}
		if len(got) != 0 {
			t.Errorf("deleting workspace still listed as expired")
		}
	})

	t.Run("SnapshotRoundTrip", func(t *testing.T) {
		desc := "before upgrade"
		snap := &core.Snapshot{
			ID:          core.NewID(),
			WorkspaceID: ws.ID,
			Name:        "pre-upgrade",
			Description: &desc,
		}
		if err := queries.InsertSnapshot(ctx, snap); err != nil {
			t.Fatalf("failed to insert snapshot: %s", err)
		}

		list, err := queries.ListSnapshots(ctx, ws.ID)
		if err != nil {
			t.Fatalf("failed to list snapshots: %s", err)
		}
		if len(list) != 1 || list[0].Name != "pre-upgrade" {
			t.Fatalf("unexpected snapshot list: %+v", list)
		}
	})
}
