package worker_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studyhall/apps/backend/internal/worker"
)

func resultMessage(t *testing.T, result worker.ChunkEmbedResult) *nsq.Message {
	t.Helper()
	body, err := json.Marshal(result)
	require.NoError(t, err)
	return &nsq.Message{Body: body}
}

func TestResultConsumer_ProgressWithoutCompletion(t *testing.T) {
	j := new(MockJobTracker)
	consumer := worker.NewResultConsumer(j)

	j.On("RecordChunkDone", mock.Anything, "job1").Return(3, 10, nil)

	err := consumer.HandleMessage(resultMessage(t, worker.ChunkEmbedResult{JobID: "job1", ChunkID: "c3", Success: true}))
	assert.NoError(t, err)
	j.AssertExpectations(t)
	j.AssertNotCalled(t, "MarkSucceeded")
}

func TestResultConsumer_FinalChunkCompletesJob(t *testing.T) {
	j := new(MockJobTracker)
	consumer := worker.NewResultConsumer(j)

	j.On("RecordChunkDone", mock.Anything, "job1").Return(10, 10, nil)
	j.On("MarkSucceeded", mock.Anything, "job1").Return(nil)

	err := consumer.HandleMessage(resultMessage(t, worker.ChunkEmbedResult{JobID: "job1", ChunkID: "c10", Success: true}))
	assert.NoError(t, err)
	j.AssertExpectations(t)
}

func TestResultConsumer_FailureFailsJob(t *testing.T) {
	j := new(MockJobTracker)
	consumer := worker.NewResultConsumer(j)

	j.On("MarkFailed", mock.Anything, "job1", "quota exhausted").Return(nil)

	err := consumer.HandleMessage(resultMessage(t, worker.ChunkEmbedResult{JobID: "job1", ChunkID: "c2", Success: false, Error: "quota exhausted"}))
	assert.NoError(t, err)
	j.AssertExpectations(t)
	j.AssertNotCalled(t, "RecordChunkDone")
}

func TestResultConsumer_TrackerErrorRequeues(t *testing.T) {
	j := new(MockJobTracker)
	consumer := worker.NewResultConsumer(j)

	j.On("RecordChunkDone", mock.Anything, "job1").Return(0, 0, errors.New("db down"))

	err := consumer.HandleMessage(resultMessage(t, worker.ChunkEmbedResult{JobID: "job1", Success: true}))
	assert.Error(t, err)
}

func TestResultConsumer_PoisonPill(t *testing.T) {
	j := new(MockJobTracker)
	consumer := worker.NewResultConsumer(j)

	assert.NoError(t, consumer.HandleMessage(&nsq.Message{Body: []byte("not json")}))
	assert.NoError(t, consumer.HandleMessage(&nsq.Message{Body: nil}))
	assert.NoError(t, consumer.HandleMessage(resultMessage(t, worker.ChunkEmbedResult{Success: true})))
	j.AssertNotCalled(t, "RecordChunkDone")
	j.AssertNotCalled(t, "MarkFailed")
}
