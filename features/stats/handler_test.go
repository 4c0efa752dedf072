package stats_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studyhall/apps/backend/features/stats"
	"studyhall/apps/backend/internal/middleware"
)

type MockCounter struct{ mock.Mock }

func (m *MockCounter) Count(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockCounter) CountActive(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockJobCounter struct{ mock.Mock }

func (m *MockJobCounter) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func TestHandler_GetStats(t *testing.T) {
	ws := new(MockCounter)
	docs := new(MockCounter)
	chunks := new(MockCounter)
	jobs := new(MockJobCounter)
	handler := stats.NewHandler(ws, docs, chunks, jobs)

	ws.On("Count", mock.Anything, "u1").Return(2, nil)
	docs.On("Count", mock.Anything, "u1").Return(7, nil)
	chunks.On("CountActive", mock.Anything, "u1").Return(310, nil)
	jobs.On("CountByStatus", mock.Anything, "u1").Return(map[string]int{"succeeded": 6, "running": 1}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	handler.GetStats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data stats.StatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Workspaces)
	assert.Equal(t, 7, resp.Data.Documents)
	assert.Equal(t, 310, resp.Data.ActiveChunks)
	assert.Equal(t, 1, resp.Data.Jobs["running"])
}

func TestHandler_GetStats_CounterFailure(t *testing.T) {
	ws := new(MockCounter)
	docs := new(MockCounter)
	chunks := new(MockCounter)
	jobs := new(MockJobCounter)
	handler := stats.NewHandler(ws, docs, chunks, jobs)

	ws.On("Count", mock.Anything, "u1").Return(0, errors.New("db down"))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	handler.GetStats(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
