package chunk

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const fetchColumns = `c.id, c.document_id, d.name, c.workspace_id, c.user_id, c.chunk_index,
	c.content, c.embedding::text, c.token_count, COALESCE(c.page_number, 0), c.start_char, c.end_char, c.chunk_type`

func (r *PostgresRepo) Fetch(ctx context.Context, scope Scope) ([]Chunk, error) {
	query := `SELECT ` + fetchColumns + `
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.user_id = $1 AND c.is_active`
	args := []interface{}{scope.UserID}

	if scope.WorkspaceID != "" {
		args = append(args, scope.WorkspaceID)
		query += fmt.Sprintf(" AND c.workspace_id = $%d", len(args))
	}
	if scope.DocumentID != "" {
		args = append(args, scope.DocumentID)
		query += fmt.Sprintf(" AND c.document_id = $%d", len(args))
	}
	query += ` ORDER BY c.document_id, c.chunk_index`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return chunks, nil
}

func scanChunk(rows *sql.Rows) (Chunk, error) {
	var c Chunk
	var raw sql.NullString
	if err := rows.Scan(&c.ID, &c.DocumentID, &c.FileName, &c.WorkspaceID, &c.UserID, &c.ChunkIndex,
		&c.Content, &raw, &c.TokenCount, &c.PageNumber, &c.StartChar, &c.EndChar, &c.Type); err != nil {
		return Chunk{}, err
	}
	c.IsActive = true
	if raw.Valid {
		var vec pgvector.Vector
		if err := vec.Scan(raw.String); err != nil {
			return Chunk{}, err
		}
		c.Embedding = vec.Slice()
	}
	return c, nil
}

func (r *PostgresRepo) Insert(ctx context.Context, chunks []Chunk) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks
		(document_id, workspace_id, user_id, chunk_index, content, token_count, page_number, start_char, end_char, chunk_type)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, 0), $8, $9, $10) RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		var id string
		if err := stmt.QueryRowContext(ctx, c.DocumentID, c.WorkspaceID, c.UserID, c.ChunkIndex,
			c.Content, c.TokenCount, c.PageNumber, c.StartChar, c.EndChar, c.Type).Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return ids, nil
}

func (r *PostgresRepo) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	query := `UPDATE chunks SET embedding = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, pgvector.NewVector(embedding), id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (r *PostgresRepo) DeactivateByDocument(ctx context.Context, documentID, userID string) error {
	query := `UPDATE chunks SET is_active = FALSE WHERE document_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, documentID, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (r *PostgresRepo) CountActive(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM chunks WHERE user_id = $1 AND is_active`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return count, nil
}
