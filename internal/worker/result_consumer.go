package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"studyhall/apps/backend/internal/middleware"
)

// ResultConsumer folds per-chunk embed results into ingest job state.
// One failed chunk fails the whole job; the final successful chunk
// completes it.
type ResultConsumer struct {
	jobs JobTracker
}

func NewResultConsumer(j JobTracker) *ResultConsumer {
	return &ResultConsumer{jobs: j}
}

func (h *ResultConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var result ChunkEmbedResult
	err := json.Unmarshal(m.Body, &result)

	correlationID := result.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	if err != nil {
		slog.ErrorContext(ctx, "invalid message format", "error", err)
		return nil // Don't retry invalid messages
	}
	if result.JobID == "" {
		slog.ErrorContext(ctx, "missing job id, dropping", "chunk_id", result.ChunkID)
		return nil
	}

	if !result.Success {
		slog.ErrorContext(ctx, "chunk embedding failed", "job_id", result.JobID, "chunk_id", result.ChunkID, "error", result.Error)
		if err := h.jobs.MarkFailed(ctx, result.JobID, result.Error); err != nil {
			slog.ErrorContext(ctx, "failed to mark job failed", "error", err, "job_id", result.JobID)
			return err
		}
		return nil
	}

	done, total, err := h.jobs.RecordChunkDone(ctx, result.JobID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to record chunk progress", "error", err, "job_id", result.JobID)
		return err
	}

	if done >= total {
		slog.InfoContext(ctx, "ingest job completed", "job_id", result.JobID, "chunks", total)
		if err := h.jobs.MarkSucceeded(ctx, result.JobID); err != nil {
			slog.ErrorContext(ctx, "failed to mark job succeeded", "error", err, "job_id", result.JobID)
			return err
		}
	}
	return nil
}
