package job

import (
	"encoding/json"
	"time"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Job tracks one document's embedding run. It moves pending -> running on
// the first chunk result and ends at succeeded or failed; a failed job keeps
// its original task payload so it can be retried verbatim.
type Job struct {
	ID          string          `json:"id"`
	DocumentID  string          `json:"document_id"`
	UserID      string          `json:"-"`
	Status      string          `json:"status"`
	ChunksTotal int             `json:"chunks_total"`
	ChunksDone  int             `json:"chunks_done"`
	Error       string          `json:"error,omitempty"`
	Payload     json.RawMessage `json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
