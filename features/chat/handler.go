package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"studyhall/apps/backend/internal/middleware"
	"studyhall/apps/backend/internal/retrieval"
)

// ChatService is the slice of the retrieval engine this handler needs.
type ChatService interface {
	ChatFile(ctx context.Context, req retrieval.ChatRequest) (*retrieval.Result, error)
	ChatWorkspace(ctx context.Context, req retrieval.ChatRequest) (*retrieval.Result, error)
	ChatAllWorkspaces(ctx context.Context, req retrieval.ChatRequest) (*retrieval.Result, error)
}

type Handler struct {
	service ChatService
}

func NewHandler(s ChatService) *Handler {
	return &Handler{service: s}
}

type chatBody struct {
	WorkspaceID string              `json:"workspace_id,omitempty"`
	DocumentID  string              `json:"document_id,omitempty"`
	Question    string              `json:"question"`
	History     []retrieval.Message `json:"history,omitempty"`
	Mode        string              `json:"mode,omitempty"`
	ContextOnly bool                `json:"context_only,omitempty"`
}

// Chat answers a question against the narrowest scope the body names:
// a document, a workspace, or everything the user owns.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body chatBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(ctx, w, "BAD_REQUEST", "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if body.Question == "" {
		h.writeError(ctx, w, "BAD_REQUEST", "question is required", http.StatusBadRequest)
		return
	}
	if body.DocumentID != "" && body.WorkspaceID == "" {
		h.writeError(ctx, w, "BAD_REQUEST", "workspace_id is required when document_id is set", http.StatusBadRequest)
		return
	}

	req := retrieval.ChatRequest{
		UserID:      middleware.GetUserID(ctx),
		WorkspaceID: body.WorkspaceID,
		DocumentID:  body.DocumentID,
		Question:    body.Question,
		History:     body.History,
		Mode:        retrieval.ParseMode(body.Mode),
		ContextOnly: body.ContextOnly,
	}

	var res *retrieval.Result
	var err error
	switch {
	case body.DocumentID != "":
		res, err = h.service.ChatFile(ctx, req)
	case body.WorkspaceID != "":
		res, err = h.service.ChatWorkspace(ctx, req)
	default:
		res, err = h.service.ChatAllWorkspaces(ctx, req)
	}

	status := http.StatusOK
	if err != nil {
		// The failure Result is still the response body; only the status
		// reflects where the pipeline broke.
		slog.ErrorContext(ctx, "chat request failed", "error", err)
		switch {
		case errors.Is(err, retrieval.ErrProvider):
			status = http.StatusBadGateway
		default:
			status = http.StatusInternalServerError
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
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
