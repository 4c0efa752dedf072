package document_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhall/apps/backend/features/document"
)

func TestPostgresRepo_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO documents (workspace_id, user_id, name, source_type, status, page_count)`)).
		WithArgs("ws1", "u1", "bio.pdf", "file", document.StatusProcessing, 12).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("doc1", now, now))

	repo := document.NewPostgresRepo(db)
	doc := &document.Document{
		WorkspaceID: "ws1", UserID: "u1", Name: "bio.pdf",
		SourceType: "file", Status: document.StatusProcessing, PageCount: 12,
	}
	err = repo.Save(context.Background(), doc)

	assert.NoError(t, err)
	assert.Equal(t, "doc1", doc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_ListByWorkspace_ExcludesDeleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "workspace_id", "user_id", "name", "source_type", "status", "page_count", "created_at", "updated_at"}).
		AddRow("doc1", "ws1", "u1", "bio.pdf", "file", "ready", 12, now, now)
	mock.ExpectQuery(`FROM documents WHERE workspace_id = \$1 AND user_id = \$2 AND deleted_at IS NULL`).
		WithArgs("ws1", "u1").
		WillReturnRows(rows)

	repo := document.NewPostgresRepo(db)
	docs, err := repo.ListByWorkspace(context.Background(), "u1", "ws1")

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "bio.pdf", docs[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_SoftDelete_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE documents SET deleted_at = NOW\(\)`).
		WithArgs("missing", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := document.NewPostgresRepo(db)
	err = repo.SoftDelete(context.Background(), "u1", "missing")

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
