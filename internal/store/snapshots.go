package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/wardenhq/warden/internal/core"
)

const snapshotColumns = `id, workspace_id, name, description, created_at`

func scanSnapshot(row pgx.Row) (core.Snapshot, error) {
	var s core.Snapshot
	err := row.Scan(&s.ID, &s.WorkspaceID, &s.Name, &s.Description, &s.CreatedAt)
	return s, err
}

func (q *Queries) InsertSnapshot(ctx context.Context, s *core.Snapshot) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO snapshots (id, workspace_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		s.ID, s.WorkspaceID, s.Name, s.Description,
	).Scan(&s.CreatedAt)
}

func (q *Queries) GetSnapshot(ctx context.Context, id string) (core.Snapshot, error) {
	row := q.db.QueryRow(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE id = $1`, id)
	return scanSnapshot(row)
}

func (q *Queries) ListSnapshots(ctx context.Context, workspaceID string) ([]core.Snapshot, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE workspace_id = $1
		ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
