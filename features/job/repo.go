package job

import (
	"context"
	"database/sql"
	"encoding/json"
)

type Repository interface {
	Create(ctx context.Context, userID, documentID string, chunksTotal int, payload json.RawMessage) (string, error)
	Get(ctx context.Context, userID, id string) (*Job, error)
	List(ctx context.Context, userID string) ([]Job, error)
	Reset(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, userID string) (map[string]int, error)

	// Worker-side progression; not scoped by user because results arrive
	// from the queue, which only ever carries ids this service minted.
	RecordChunkDone(ctx context.Context, jobID string) (done, total int, err error)
	MarkSucceeded(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID, reason string) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, userID, documentID string, chunksTotal int, payload json.RawMessage) (string, error) {
	var id string
	query := `INSERT INTO ingest_jobs (user_id, document_id, chunks_total, payload) VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, userID, documentID, chunksTotal, []byte(payload)).Scan(&id)
	return id, err
}

func (r *PostgresRepo) Get(ctx context.Context, userID, id string) (*Job, error) {
	j := &Job{}
	var payload []byte
	query := `SELECT id, document_id, user_id, status, chunks_total, chunks_done, error, payload, created_at, updated_at
		FROM ingest_jobs WHERE id = $1 AND user_id = $2`
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&j.ID, &j.DocumentID, &j.UserID, &j.Status, &j.ChunksTotal, &j.ChunksDone,
		&j.Error, &payload, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Payload = json.RawMessage(payload)
	return j, nil
}

func (r *PostgresRepo) List(ctx context.Context, userID string) ([]Job, error) {
	query := `SELECT id, document_id, user_id, status, chunks_total, chunks_done, error, created_at, updated_at
		FROM ingest_jobs WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(
			&j.ID, &j.DocumentID, &j.UserID, &j.Status, &j.ChunksTotal, &j.ChunksDone,
			&j.Error, &j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Reset returns a job to pending with zeroed progress, ahead of a retry.
func (r *PostgresRepo) Reset(ctx context.Context, id string) error {
	query := `UPDATE ingest_jobs SET status = $1, chunks_done = 0, error = '', updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, StatusPending, id)
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

func (r *PostgresRepo) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM ingest_jobs WHERE user_id = $1 GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

// RecordChunkDone bumps progress and flips a pending job to running in the
// same statement, so the observable state never skips the running phase.
func (r *PostgresRepo) RecordChunkDone(ctx context.Context, jobID string) (int, int, error) {
	var done, total int
	query := `UPDATE ingest_jobs
		SET chunks_done = chunks_done + 1,
		    status = CASE WHEN status = 'pending' THEN 'running' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING chunks_done, chunks_total`
	err := r.db.QueryRowContext(ctx, query, jobID).Scan(&done, &total)
	return done, total, err
}

func (r *PostgresRepo) MarkSucceeded(ctx context.Context, jobID string) error {
	return r.finish(ctx, jobID, StatusSucceeded, "", "ready")
}

func (r *PostgresRepo) MarkFailed(ctx context.Context, jobID, reason string) error {
	return r.finish(ctx, jobID, StatusFailed, reason, "failed")
}

// finish closes the job and mirrors the outcome onto the owning document's
// status, in one transaction.
func (r *PostgresRepo) finish(ctx context.Context, jobID, status, reason, docStatus string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var documentID string
	err = tx.QueryRowContext(ctx,
		`UPDATE ingest_jobs SET status = $1, error = $2, updated_at = NOW() WHERE id = $3 RETURNING document_id`,
		status, reason, jobID,
	).Scan(&documentID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2`,
		docStatus, documentID,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}
