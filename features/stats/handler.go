package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"studyhall/apps/backend/internal/middleware"
)

type WorkspaceCounter interface {
	Count(ctx context.Context, userID string) (int, error)
}

type DocumentCounter interface {
	Count(ctx context.Context, userID string) (int, error)
}

type ChunkCounter interface {
	CountActive(ctx context.Context, userID string) (int, error)
}

type JobCounter interface {
	CountByStatus(ctx context.Context, userID string) (map[string]int, error)
}

type Handler struct {
	workspaces WorkspaceCounter
	documents  DocumentCounter
	chunks     ChunkCounter
	jobs       JobCounter
}

func NewHandler(w WorkspaceCounter, d DocumentCounter, c ChunkCounter, j JobCounter) *Handler {
	return &Handler{workspaces: w, documents: d, chunks: c, jobs: j}
}

type StatsResponse struct {
	Workspaces   int            `json:"workspaces"`
	Documents    int            `json:"documents"`
	ActiveChunks int            `json:"active_chunks"`
	Jobs         map[string]int `json:"jobs"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	wsCount, err := h.workspaces.Count(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count workspaces", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count workspaces", http.StatusInternalServerError)
		return
	}

	docCount, err := h.documents.Count(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count documents", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count documents", http.StatusInternalServerError)
		return
	}

	chunkCount, err := h.chunks.CountActive(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	jobCounts, err := h.jobs.CountByStatus(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count jobs", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count jobs", http.StatusInternalServerError)
		return
	}
	if jobCounts == nil {
		jobCounts = map[string]int{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": StatsResponse{
			Workspaces:   wsCount,
			Documents:    docCount,
			ActiveChunks: chunkCount,
			Jobs:         jobCounts,
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
