package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"studyhall/apps/backend/internal/config"
	"studyhall/apps/backend/internal/middleware"
	"studyhall/apps/backend/internal/worker"
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo Repository
	pub  EventPublisher
}

func NewService(repo Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

func (s *Service) List(ctx context.Context, userID string) ([]Job, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Job, error) {
	return s.repo.Get(ctx, userID, id)
}

// Retry re-runs a failed job by resetting its counters and republishing the
// stored embed tasks.
func (s *Service) Retry(ctx context.Context, userID, id string) error {
	j, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if j.Status != StatusFailed {
		return fmt.Errorf("job %s is %s, only failed jobs can be retried", id, j.Status)
	}

	var tasks []worker.ChunkEmbedPayload
	if err := json.Unmarshal(j.Payload, &tasks); err != nil {
		return fmt.Errorf("corrupt job payload: %w", err)
	}

	if err := s.repo.Reset(ctx, id); err != nil {
		return err
	}

	correlationID := middleware.GetCorrelationID(ctx)
	for i := range tasks {
		tasks[i].JobID = j.ID
		tasks[i].CorrelationID = correlationID
		body, err := json.Marshal(tasks[i])
		if err != nil {
			slog.ErrorContext(ctx, "failed to marshal embed task", "error", err, "chunk_id", tasks[i].ChunkID)
			continue
		}
		if err := s.pub.Publish(config.TopicIngestEmbed, body); err != nil {
			return fmt.Errorf("publish embed task: %w", err)
		}
	}

	slog.InfoContext(ctx, "job retried", "job_id", id, "tasks", len(tasks))
	return nil
}

func (s *Service) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	return s.repo.CountByStatus(ctx, userID)
}
