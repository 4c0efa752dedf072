package material

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"studyhall/apps/backend/internal/middleware"
	"studyhall/apps/backend/internal/retrieval"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// Generate builds a study artifact (exam, quiz, flashcards, notes) from the
// full corpus of a workspace or a single document.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		WorkspaceID string `json:"workspace_id"`
		DocumentID  string `json:"document_id,omitempty"`
		Kind        string `json:"kind"`
		Count       int    `json:"count,omitempty"`
		Difficulty  string `json:"difficulty,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(ctx, w, "BAD_REQUEST", "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if body.WorkspaceID == "" {
		h.writeError(ctx, w, "BAD_REQUEST", "workspace_id is required", http.StatusBadRequest)
		return
	}

	res, err := h.service.Generate(ctx, Request{
		UserID:      middleware.GetUserID(ctx),
		WorkspaceID: body.WorkspaceID,
		DocumentID:  body.DocumentID,
		Kind:        body.Kind,
		Count:       body.Count,
		Difficulty:  body.Difficulty,
	})
	if err != nil {
		if errors.Is(err, ErrUnknownKind) {
			h.writeError(ctx, w, "BAD_REQUEST", err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(ctx, "material generation failed", "kind", body.Kind, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, retrieval.ErrProvider) {
			status = http.StatusBadGateway
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if encErr := json.NewEncoder(w).Encode(res); encErr != nil {
			slog.ErrorContext(ctx, "failed to encode response", "error", encErr)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
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
