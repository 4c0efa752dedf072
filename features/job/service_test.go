package job_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studyhall/apps/backend/features/job"
	"studyhall/apps/backend/internal/config"
	"studyhall/apps/backend/internal/worker"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) Create(ctx context.Context, userID, documentID string, chunksTotal int, payload json.RawMessage) (string, error) {
	args := m.Called(ctx, userID, documentID, chunksTotal, payload)
	return args.String(0), args.Error(1)
}

func (m *MockRepo) Get(ctx context.Context, userID, id string) (*job.Job, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

func (m *MockRepo) List(ctx context.Context, userID string) ([]job.Job, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.Job), args.Error(1)
}

func (m *MockRepo) Reset(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepo) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockRepo) RecordChunkDone(ctx context.Context, jobID string) (int, int, error) {
	args := m.Called(ctx, jobID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockRepo) MarkSucceeded(ctx context.Context, jobID string) error {
	return m.Called(ctx, jobID).Error(0)
}

func (m *MockRepo) MarkFailed(ctx context.Context, jobID, reason string) error {
	return m.Called(ctx, jobID, reason).Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(topic string, body []byte) error {
	return m.Called(topic, body).Error(0)
}

func failedJob(t *testing.T) *job.Job {
	t.Helper()
	tasks := []worker.ChunkEmbedPayload{
		{ChunkID: "c1", DocumentID: "doc1", Content: "first"},
		{ChunkID: "c2", DocumentID: "doc1", Content: "second"},
	}
	payload, err := json.Marshal(tasks)
	require.NoError(t, err)
	return &job.Job{ID: "job1", DocumentID: "doc1", Status: job.StatusFailed, ChunksTotal: 2, Payload: payload}
}

func TestService_Retry(t *testing.T) {
	repo := new(MockRepo)
	pub := new(MockPublisher)
	svc := job.NewService(repo, pub)

	repo.On("Get", mock.Anything, "u1", "job1").Return(failedJob(t), nil)
	repo.On("Reset", mock.Anything, "job1").Return(nil)

	var published []worker.ChunkEmbedPayload
	pub.On("Publish", config.TopicIngestEmbed, mock.Anything).
		Run(func(args mock.Arguments) {
			var p worker.ChunkEmbedPayload
			require.NoError(t, json.Unmarshal(args.Get(1).([]byte), &p))
			published = append(published, p)
		}).
		Return(nil).Twice()

	err := svc.Retry(context.Background(), "u1", "job1")

	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, "job1", published[0].JobID, "republished tasks carry the job id")
	assert.Equal(t, "c2", published[1].ChunkID)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestService_Retry_OnlyFailedJobs(t *testing.T) {
	repo := new(MockRepo)
	pub := new(MockPublisher)
	svc := job.NewService(repo, pub)

	repo.On("Get", mock.Anything, "u1", "job1").Return(&job.Job{ID: "job1", Status: job.StatusRunning}, nil)

	err := svc.Retry(context.Background(), "u1", "job1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "only failed jobs")
	repo.AssertNotCalled(t, "Reset")
	pub.AssertNotCalled(t, "Publish")
}

func TestService_Retry_CorruptPayload(t *testing.T) {
	repo := new(MockRepo)
	pub := new(MockPublisher)
	svc := job.NewService(repo, pub)

	repo.On("Get", mock.Anything, "u1", "job1").Return(&job.Job{
		ID: "job1", Status: job.StatusFailed, Payload: json.RawMessage(`{not json`),
	}, nil)

	err := svc.Retry(context.Background(), "u1", "job1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt job payload")
	repo.AssertNotCalled(t, "Reset", "a job with an unusable payload keeps its failed state")
}
