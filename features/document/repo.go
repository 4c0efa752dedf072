package document

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, doc *Document) error {
	query := `INSERT INTO documents (workspace_id, user_id, name, source_type, status, page_count)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		doc.WorkspaceID, doc.UserID, doc.Name, doc.SourceType, doc.Status, doc.PageCount,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
}

func (r *PostgresRepo) Get(ctx context.Context, userID, id string) (*Document, error) {
	doc := &Document{}
	query := `SELECT id, workspace_id, user_id, name, source_type, status, page_count, created_at, updated_at
		FROM documents WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&doc.ID, &doc.WorkspaceID, &doc.UserID, &doc.Name, &doc.SourceType,
		&doc.Status, &doc.PageCount, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *PostgresRepo) ListByWorkspace(ctx context.Context, userID, workspaceID string) ([]Document, error) {
	query := `SELECT id, workspace_id, user_id, name, source_type, status, page_count, created_at, updated_at
		FROM documents WHERE workspace_id = $1 AND user_id = $2 AND deleted_at IS NULL
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(
			&doc.ID, &doc.WorkspaceID, &doc.UserID, &doc.Name, &doc.SourceType,
			&doc.Status, &doc.PageCount, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) SoftDelete(ctx context.Context, userID, id string) error {
	query := `UPDATE documents SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepo) Count(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM documents WHERE user_id = $1 AND deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}
