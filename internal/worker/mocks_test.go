package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockEmbeddingWriter struct{ mock.Mock }

func (m *MockEmbeddingWriter) SetEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	return m.Called(ctx, chunkID, embedding).Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(topic string, body []byte) error {
	return m.Called(topic, body).Error(0)
}

type MockJobTracker struct{ mock.Mock }

func (m *MockJobTracker) RecordChunkDone(ctx context.Context, jobID string) (int, int, error) {
	args := m.Called(ctx, jobID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockJobTracker) MarkSucceeded(ctx context.Context, jobID string) error {
	return m.Called(ctx, jobID).Error(0)
}

func (m *MockJobTracker) MarkFailed(ctx context.Context, jobID, reason string) error {
	return m.Called(ctx, jobID, reason).Error(0)
}
