package chunk

import (
	"context"
	"errors"
)

// ErrStorageUnavailable wraps backing-store failures so callers can distinguish
// infrastructure faults from an empty corpus (which is never an error).
var ErrStorageUnavailable = errors.New("chunk storage unavailable")

// Chunk is a persisted segment of a source document. Embedding is nil until the
// background ingestion pipeline has processed it; such chunks are invisible to
// ranking but still count as part of the corpus.
type Chunk struct {
	ID          string  `json:"id"`
	DocumentID  string  `json:"document_id"`
	FileName    string  `json:"file_name"`
	WorkspaceID string  `json:"workspace_id"`
	UserID      string  `json:"-"`
	ChunkIndex  int     `json:"chunk_index"`
	Content     string  `json:"content"`
	Embedding   []float32 `json:"-"`
	TokenCount  int     `json:"token_count"`
	PageNumber  int     `json:"page_number,omitempty"`
	StartChar   int     `json:"start_char"`
	EndChar     int     `json:"end_char"`
	Type        string  `json:"type,omitempty"`
	IsActive    bool    `json:"-"`
}

// Scope selects the breadth of a fetch: a single document, a single workspace,
// or everything the user owns. The user id is always required; it is the
// authorization boundary and is enforced in the repository, not upstream.
type Scope struct {
	UserID      string
	WorkspaceID string
	DocumentID  string
}

func FileScope(userID, workspaceID, documentID string) Scope {
	return Scope{UserID: userID, WorkspaceID: workspaceID, DocumentID: documentID}
}

func WorkspaceScope(userID, workspaceID string) Scope {
	return Scope{UserID: userID, WorkspaceID: workspaceID}
}

func AllWorkspacesScope(userID string) Scope {
	return Scope{UserID: userID}
}

type Repository interface {
	// Fetch returns active chunks for the scope, ordered by document then
	// chunk_index. An empty result is not an error.
	Fetch(ctx context.Context, scope Scope) ([]Chunk, error)

	// Insert persists freshly chunked, not-yet-embedded segments.
	Insert(ctx context.Context, chunks []Chunk) ([]string, error)

	// SetEmbedding attaches the vector computed by the ingestion worker.
	SetEmbedding(ctx context.Context, id string, embedding []float32) error

	// DeactivateByDocument soft-removes a document's chunks from query
	// visibility. Idempotent; physical deletion is a separate concern.
	DeactivateByDocument(ctx context.Context, documentID, userID string) error

	CountActive(ctx context.Context, userID string) (int, error)
}
