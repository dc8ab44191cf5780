package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wardenhq/warden/internal/core"
)

const workspaceColumns = `id, name, owner, status, provider, config, provider_id, connection_info, error_message, created_at, updated_at, expires_at`

func scanWorkspace(row pgx.Row) (core.Workspace, error) {
	var ws core.Workspace
	err := row.Scan(
		&ws.ID, &ws.Name, &ws.Owner, &ws.Status, &ws.Provider, &ws.Config,
		&ws.ProviderID, &ws.ConnectionInfo, &ws.ErrorMessage,
		&ws.CreatedAt, &ws.UpdatedAt, &ws.ExpiresAt,
	)
	return ws, err
}

// InsertWorkspace persists a new workspace and fills in the DB-assigned
// timestamps.
func (q *Queries) InsertWorkspace(ctx context.Context, ws *core.Workspace) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO workspaces (id, name, owner, status, provider, config, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		ws.ID, ws.Name, ws.Owner, ws.Status, ws.Provider, ws.Config, ws.ExpiresAt,
	).Scan(&ws.CreatedAt, &ws.UpdatedAt)
}

func (q *Queries) GetWorkspace(ctx context.Context, id string) (core.Workspace, error) {
	row := q.db.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id)
	return scanWorkspace(row)
}

// GetWorkspaceForUpdate locks the workspace row for the duration of the
// surrounding transaction, serializing check-then-act transitions.
func (q *Queries) GetWorkspaceForUpdate(ctx context.Context, id string) (core.Workspace, error) {
	row := q.db.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1 FOR UPDATE`, id)
	return scanWorkspace(row)
}

type ListWorkspacesParams struct {
	Owner  *string
	Status *core.WorkspaceStatus
}

func (q *Queries) ListWorkspaces(ctx context.Context, params ListWorkspacesParams) ([]core.Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE 1=1`
	args := []any{}
	if params.Owner != nil {
		args = append(args, *params.Owner)
		query += fmt.Sprintf(" AND owner = $%d", len(args))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

type UpdateWorkspaceStatusParams struct {
	ID             string
	Status         core.WorkspaceStatus
	ProviderID     *string
	ConnectionInfo json.RawMessage
	ErrorMessage   *string
}

// UpdateWorkspaceStatus moves a workspace to a new status. Provider identity
// and connection info are sticky: passing nil keeps the stored value, so a
// stop does not wipe out what create recorded. The error message is written
// as given, clearing it on successful transitions.
func (q *Queries) UpdateWorkspaceStatus(ctx context.Context, params UpdateWorkspaceStatusParams) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE workspaces
		SET status = $2,
		    updated_at = now(),
		    provider_id = COALESCE($3, provider_id),
		    connection_info = COALESCE($4, connection_info),
		    error_message = $5
		WHERE id = $1`,
		params.ID, params.Status, params.ProviderID, params.ConnectionInfo, params.ErrorMessage,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListExpiredWorkspaces returns workspaces past their TTL deadline that are
// not already being torn down.
func (q *Queries) ListExpiredWorkspaces(ctx context.Context) ([]core.Workspace, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+workspaceColumns+`
		FROM workspaces
		WHERE expires_at IS NOT NULL
		  AND expires_at <= now()
		  AND status NOT IN ('deleting', 'deleted')
		ORDER BY expires_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}
