package chunk_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"studyhall/apps/backend/internal/chunk"
	"studyhall/apps/backend/internal/testutils"
)

func TestPostgresRepo_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	ctx := context.Background()
	repo := chunk.NewPostgresRepo(suite.DB)

	const userID = "user-1"

	var workspaceID string
	require.NoError(t, suite.DB.QueryRowContext(ctx,
		`INSERT INTO workspaces (user_id, name) VALUES ($1, 'Algorithms') RETURNING id`,
		userID).Scan(&workspaceID))

	var documentID string
	require.NoError(t, suite.DB.QueryRowContext(ctx,
		`INSERT INTO documents (workspace_id, user_id, name) VALUES ($1, $2, 'lecture.pdf') RETURNING id`,
		workspaceID, userID).Scan(&documentID))

	ids, err := repo.Insert(ctx, []chunk.Chunk{
		{DocumentID: documentID, WorkspaceID: workspaceID, UserID: userID, ChunkIndex: 0,
			Content: "Graphs are sets of vertices and edges.", TokenCount: 9, PageNumber: 1,
			StartChar: 0, EndChar: 38, Type: "prose"},
		{DocumentID: documentID, WorkspaceID: workspaceID, UserID: userID, ChunkIndex: 1,
			Content: "Dijkstra finds shortest paths.", TokenCount: 7, PageNumber: 2,
			StartChar: 40, EndChar: 70, Type: "prose"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	// Fresh chunks carry no embedding yet.
	got, err := repo.Fetch(ctx, chunk.FileScope(userID, workspaceID, documentID))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "lecture.pdf", got[0].FileName)
	require.Equal(t, 0, got[0].ChunkIndex)
	require.Nil(t, got[0].Embedding)

	embedding := make([]float32, 768)
	embedding[0] = 0.5
	embedding[1] = -0.25
	require.NoError(t, repo.SetEmbedding(ctx, ids[0], embedding))

	got, err = repo.Fetch(ctx, chunk.WorkspaceScope(userID, workspaceID))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, got[0].Embedding, 768)
	require.InDelta(t, 0.5, got[0].Embedding[0], 1e-6)
	require.Nil(t, got[1].Embedding)

	// Other users never see these chunks.
	got, err = repo.Fetch(ctx, chunk.AllWorkspacesScope("someone-else"))
	require.NoError(t, err)
	require.Empty(t, got)

	count, err := repo.CountActive(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, repo.DeactivateByDocument(ctx, documentID, userID))

	got, err = repo.Fetch(ctx, chunk.FileScope(userID, workspaceID, documentID))
	require.NoError(t, err)
	require.Empty(t, got)

	count, err = repo.CountActive(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}
