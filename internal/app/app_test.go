package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhall/apps/backend/internal/app"
	"studyhall/apps/backend/internal/config"
	"studyhall/apps/backend/internal/retrieval"
)

type stubAI struct{}

func (stubAI) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (stubAI) Generate(ctx context.Context, messages []retrieval.Message, opts retrieval.GenerateOptions) (*retrieval.GenerateResult, error) {
	return &retrieval.GenerateResult{Text: "ok"}, nil
}

type stubPublisher struct{}

func (stubPublisher) Publish(topic string, body []byte) error { return nil }

func newApp(t *testing.T) *app.App {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		ContextBudgetChars: 100000,
		ChatTopK:           5,
		CrossWorkspaceTopK: 8,
		ChunkMaxTokens:     512,
		ServerPort:         8081,
		QueryLogPath:       filepath.Join(t.TempDir(), "query.log"),
	}

	a, err := app.New(cfg, db, stubAI{}, stubPublisher{})
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	a := newApp(t)

	assert.NotNil(t, a.Handler)
	assert.NotNil(t, a.EmbedConsumer)
	assert.NotNil(t, a.ResultConsumer)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	a.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_ProtectedRoutesRequireIdentity(t *testing.T) {
	a := newApp(t)

	req := httptest.NewRequest(http.MethodGet, "/workspaces", nil)
	w := httptest.NewRecorder()
	a.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}
