package worker

import (
	"context"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type EmbeddingWriter interface {
	SetEmbedding(ctx context.Context, chunkID string, embedding []float32) error
}

type Publisher interface {
	Publish(topic string, body []byte) error
}

// JobTracker advances an ingest job as chunk results arrive.
// RecordChunkDone moves a pending job to running and returns the progress
// counters so the caller can detect completion.
type JobTracker interface {
	RecordChunkDone(ctx context.Context, jobID string) (done, total int, err error)
	MarkSucceeded(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID, reason string) error
}
