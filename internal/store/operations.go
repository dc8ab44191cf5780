package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wardenhq/warden/internal/core"
)

const operationColumns = `id, workspace_id, operation_type, status, params, created_at, started_at, completed_at, error`

func scanOperation(row pgx.Row) (core.Operation, error) {
	var op core.Operation
	err := row.Scan(
		&op.ID, &op.WorkspaceID, &op.Type, &op.Status, &op.Params,
		&op.CreatedAt, &op.StartedAt, &op.CompletedAt, &op.Error,
	)
	return op, err
}

// InsertOperation opens a new pending operation. The partial unique index on
// (workspace_id) rejects the insert with a unique violation when another
// pending or running operation exists for the same workspace.
func (q *Queries) InsertOperation(ctx context.Context, op *core.Operation) error {
	params := op.Params
	if params == nil {
		params = []byte("{}")
	}
	return q.db.QueryRow(ctx, `
		INSERT INTO operations (id, workspace_id, operation_type, status, params)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		op.ID, op.WorkspaceID, op.Type, op.Status, params,
	).Scan(&op.CreatedAt)
}

func (q *Queries) GetOperation(ctx context.Context, id string) (core.Operation, error) {
	row := q.db.QueryRow(ctx, `SELECT `+operationColumns+` FROM operations WHERE id = $1`, id)
	return scanOperation(row)
}

type ListOperationsParams struct {
	WorkspaceID *string
	Type        *core.OperationType
	Status      *core.OperationStatus
	// Owner restricts results to operations on workspaces owned by this
	// identity. Used when listing without an explicit workspace.
	Owner *string
}

func (q *Queries) ListOperations(ctx context.Context, params ListOperationsParams) ([]core.Operation, error) {
	query := `SELECT o.id, o.workspace_id, o.operation_type, o.status, o.params, o.created_at, o.started_at, o.completed_at, o.error FROM operations o`
	args := []any{}
	if params.Owner != nil {
		args = append(args, *params.Owner)
		query += fmt.Sprintf(" JOIN workspaces w ON w.id = o.workspace_id AND w.owner = $%d", len(args))
	}
	query += " WHERE 1=1"
	if params.WorkspaceID != nil {
		args = append(args, *params.WorkspaceID)
		query += fmt.Sprintf(" AND o.workspace_id = $%d", len(args))
	}
	if params.Type != nil {
		args = append(args, *params.Type)
		query += fmt.Sprintf(" AND o.operation_type = $%d", len(args))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		query += fmt.Sprintf(" AND o.status = $%d", len(args))
	}
	query += " ORDER BY o.created_at DESC"

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

// ListPendingOperations returns pending operations oldest-first so per
// workspace intent is executed in the order it was recorded.
func (q *Queries) ListPendingOperations(ctx context.Context, limit int32) ([]core.Operation, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+operationColumns+`
		FROM operations
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

// StartOperation transitions pending -> running and stamps started_at.
// Returns false when the operation was not pending, which means another
// reconciler already picked it up.
func (q *Queries) StartOperation(ctx context.Context, id string) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE operations
		SET status = 'running', started_at = now()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

type CompleteOperationParams struct {
	ID     string
	Status core.OperationStatus
	Error  *string
}

// CompleteOperation transitions running -> success|failed and stamps
// completed_at. Any other transition is illegal and reported as an error.
func (q *Queries) CompleteOperation(ctx context.Context, params CompleteOperationParams) error {
	if params.Status != core.OperationSuccess && params.Status != core.OperationFailed {
		return fmt.Errorf("illegal terminal status %q", params.Status)
	}
	tag, err := q.db.Exec(ctx, `
		UPDATE operations
		SET status = $2, completed_at = now(), error = $3
		WHERE id = $1 AND status = 'running'`,
		params.ID, params.Status, params.Error)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("operation %s is not running", params.ID)
	}
	return nil
}

// FailInterruptedOperations fails every running operation in one sweep. Only
// called at startup, before the first tick, when no operation can legitimately
// be running.
func (q *Queries) FailInterruptedOperations(ctx context.Context, reason string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE operations
		SET status = 'failed', completed_at = now(), error = $1
		WHERE status = 'running'`, reason)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) CountPendingOperations(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM operations WHERE status = 'pending'`).Scan(&n)
	return n, err
}
