package worker

// ChunkEmbedPayload is one embedding task on the ingest.embed topic:
// a single stored chunk waiting for its vector.
type ChunkEmbedPayload struct {
	JobID       string `json:"job_id"`
	ChunkID     string `json:"chunk_id"`
	DocumentID  string `json:"document_id"`
	WorkspaceID string `json:"workspace_id"`
	UserID      string `json:"user_id"`
	FileName    string `json:"file_name"`

	ChunkIndex int    `json:"chunk_index"`
	PageNumber int    `json:"page_number,omitempty"`
	Content    string `json:"content"`

	CorrelationID string `json:"correlation_id"`
}

// ChunkEmbedResult is the per-chunk outcome on the ingest.result topic.
type ChunkEmbedResult struct {
	JobID      string `json:"job_id"`
	ChunkID    string `json:"chunk_id"`
	ChunkIndex int    `json:"chunk_index"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`

	CorrelationID string `json:"correlation_id"`
}
