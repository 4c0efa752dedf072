package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"studyhall/apps/backend/internal/config"
	"studyhall/apps/backend/internal/middleware"
)

const embedMaxAttempts = 5

type EmbedConsumer struct {
	embedder  Embedder
	store     EmbeddingWriter
	publisher Publisher
}

func NewEmbedConsumer(e Embedder, s EmbeddingWriter, p Publisher) *EmbedConsumer {
	return &EmbedConsumer{
		embedder:  e,
		store:     s,
		publisher: p,
	}
}

func (h *EmbedConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload ChunkEmbedPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}
	if payload.ChunkID == "" || payload.JobID == "" {
		slog.Error("missing required fields, dropping", "chunk_id", payload.ChunkID, "job_id", payload.JobID)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	// Contextual string: prefix the raw chunk with where it came from, so
	// the vector carries document identity as well as content.
	contextual := fmt.Sprintf("File: %s", payload.FileName)
	if payload.PageNumber > 0 {
		contextual += fmt.Sprintf("\nPage: %d", payload.PageNumber)
	}
	contextual += fmt.Sprintf("\n---\n%s", payload.Content)

	embedCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	vector, err := h.embedder.Embed(embedCtx, contextual)
	if err != nil {
		if m.Attempts >= embedMaxAttempts {
			slog.ErrorContext(ctx, "embedding failed permanently", "error", err, "chunk_id", payload.ChunkID, "attempts", m.Attempts)
			return h.publishResult(ctx, payload, false, err.Error())
		}
		slog.ErrorContext(ctx, "embedding failed", "error", err, "chunk_id", payload.ChunkID, "attempts", m.Attempts)
		return err // Retry
	}

	if err := h.store.SetEmbedding(embedCtx, payload.ChunkID, vector); err != nil {
		slog.ErrorContext(ctx, "store embedding failed", "error", err, "chunk_id", payload.ChunkID)
		return err // Retry
	}

	slog.InfoContext(ctx, "chunk embedded", "chunk_id", payload.ChunkID, "chunk_index", payload.ChunkIndex, "dimensions", len(vector))
	return h.publishResult(ctx, payload, true, "")
}

func (h *EmbedConsumer) publishResult(ctx context.Context, payload ChunkEmbedPayload, success bool, errMsg string) error {
	result := ChunkEmbedResult{
		JobID:         payload.JobID,
		ChunkID:       payload.ChunkID,
		ChunkIndex:    payload.ChunkIndex,
		Success:       success,
		Error:         errMsg,
		CorrelationID: payload.CorrelationID,
	}
	body, err := json.Marshal(result)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal embed result", "error", err)
		return nil
	}
	if err := h.publisher.Publish(config.TopicIngestResult, body); err != nil {
		slog.ErrorContext(ctx, "failed to publish embed result", "error", err)
		return err // Durable: fail if publish fails
	}
	return nil
}
