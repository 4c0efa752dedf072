package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"studyhall/apps/backend/internal/chunk"
	"studyhall/apps/backend/internal/config"
	"studyhall/apps/backend/internal/middleware"
	"studyhall/apps/backend/internal/text"
	"studyhall/apps/backend/internal/worker"
)

var (
	ErrEmptyDocument = errors.New("document has no extractable text")
	ErrNameRequired  = errors.New("document name is required")
)

const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

type Document struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"-"`
	Name        string    `json:"name"`
	SourceType  string    `json:"source_type"`
	Status      string    `json:"status"`
	PageCount   int       `json:"page_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, doc *Document) error
	Get(ctx context.Context, userID, id string) (*Document, error)
	ListByWorkspace(ctx context.Context, userID, workspaceID string) ([]Document, error)
	SoftDelete(ctx context.Context, userID, id string) error
	Count(ctx context.Context, userID string) (int, error)
}

type ChunkWriter interface {
	Insert(ctx context.Context, chunks []chunk.Chunk) ([]string, error)
	DeactivateByDocument(ctx context.Context, documentID, userID string) error
}

type JobCreator interface {
	Create(ctx context.Context, userID, documentID string, chunksTotal int, payload json.RawMessage) (string, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo    Repository
	chunks  ChunkWriter
	jobs    JobCreator
	pub     EventPublisher
	chunker *text.Chunker
}

func NewService(repo Repository, chunks ChunkWriter, jobs JobCreator, pub EventPublisher, chunker *text.Chunker) *Service {
	return &Service{repo: repo, chunks: chunks, jobs: jobs, pub: pub, chunker: chunker}
}

// Register stores the document's extracted text as chunks, opens an ingest
// job to track embedding progress, and publishes one embed task per chunk.
// The document is immediately usable in the full-corpus path; it joins
// similarity ranking chunk by chunk as the worker fills in vectors.
func (s *Service) Register(ctx context.Context, userID, workspaceID, name, body string) (*Document, string, error) {
	if name == "" {
		return nil, "", ErrNameRequired
	}

	pieces := s.chunker.Chunk(body)
	if len(pieces) == 0 {
		return nil, "", ErrEmptyDocument
	}

	pageCount := 0
	for _, p := range pieces {
		if p.PageNumber > pageCount {
			pageCount = p.PageNumber
		}
	}

	doc := &Document{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Name:        name,
		SourceType:  "file",
		Status:      StatusProcessing,
		PageCount:   pageCount,
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, "", err
	}

	records := make([]chunk.Chunk, len(pieces))
	for i, p := range pieces {
		records[i] = chunk.Chunk{
			DocumentID:  doc.ID,
			WorkspaceID: workspaceID,
			UserID:      userID,
			ChunkIndex:  i,
			Content:     p.Content,
			TokenCount:  p.TokenCount,
			PageNumber:  p.PageNumber,
			StartChar:   p.StartChar,
			EndChar:     p.EndChar,
			Type:        string(p.Type),
		}
	}
	ids, err := s.chunks.Insert(ctx, records)
	if err != nil {
		return nil, "", err
	}

	correlationID := middleware.GetCorrelationID(ctx)
	tasks := make([]worker.ChunkEmbedPayload, len(ids))
	for i, id := range ids {
		tasks[i] = worker.ChunkEmbedPayload{
			ChunkID:       id,
			DocumentID:    doc.ID,
			WorkspaceID:   workspaceID,
			UserID:        userID,
			FileName:      name,
			ChunkIndex:    records[i].ChunkIndex,
			PageNumber:    records[i].PageNumber,
			Content:       records[i].Content,
			CorrelationID: correlationID,
		}
	}

	// The task list doubles as the job payload so a failed job can be
	// republished as-is.
	payload, err := json.Marshal(tasks)
	if err != nil {
		return nil, "", fmt.Errorf("marshal job payload: %w", err)
	}
	jobID, err := s.jobs.Create(ctx, userID, doc.ID, len(tasks), payload)
	if err != nil {
		return nil, "", err
	}

	for i := range tasks {
		tasks[i].JobID = jobID
		taskBody, err := json.Marshal(tasks[i])
		if err != nil {
			slog.ErrorContext(ctx, "failed to marshal embed task", "error", err, "chunk_id", tasks[i].ChunkID)
			continue
		}
		if err := s.pub.Publish(config.TopicIngestEmbed, taskBody); err != nil {
			return doc, jobID, fmt.Errorf("publish embed task: %w", err)
		}
	}

	slog.InfoContext(ctx, "document registered", "document_id", doc.ID, "job_id", jobID, "chunks", len(tasks))
	return doc, jobID, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Document, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) ListByWorkspace(ctx context.Context, userID, workspaceID string) ([]Document, error) {
	return s.repo.ListByWorkspace(ctx, userID, workspaceID)
}

// Delete soft-removes the document and its chunks from query visibility.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.chunks.DeactivateByDocument(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, userID, id)
}
