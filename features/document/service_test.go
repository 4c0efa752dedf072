package document_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studyhall/apps/backend/features/document"
	"studyhall/apps/backend/internal/chunk"
	"studyhall/apps/backend/internal/config"
	"studyhall/apps/backend/internal/text"
	"studyhall/apps/backend/internal/worker"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) Save(ctx context.Context, doc *document.Document) error {
	args := m.Called(ctx, doc)
	if args.Error(0) == nil {
		doc.ID = "doc1"
	}
	return args.Error(0)
}

func (m *MockRepo) Get(ctx context.Context, userID, id string) (*document.Document, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockRepo) ListByWorkspace(ctx context.Context, userID, workspaceID string) ([]document.Document, error) {
	args := m.Called(ctx, userID, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Document), args.Error(1)
}

func (m *MockRepo) SoftDelete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockRepo) Count(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockChunkWriter struct{ mock.Mock }

func (m *MockChunkWriter) Insert(ctx context.Context, chunks []chunk.Chunk) ([]string, error) {
	args := m.Called(ctx, chunks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockChunkWriter) DeactivateByDocument(ctx context.Context, documentID, userID string) error {
	return m.Called(ctx, documentID, userID).Error(0)
}

type MockJobCreator struct{ mock.Mock }

func (m *MockJobCreator) Create(ctx context.Context, userID, documentID string, chunksTotal int, payload json.RawMessage) (string, error) {
	args := m.Called(ctx, userID, documentID, chunksTotal, payload)
	return args.String(0), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(topic string, body []byte) error {
	return m.Called(topic, body).Error(0)
}

func newService(repo *MockRepo, cw *MockChunkWriter, jc *MockJobCreator, pub *MockPublisher) *document.Service {
	return document.NewService(repo, cw, jc, pub, text.NewChunker(512))
}

func TestService_Register(t *testing.T) {
	repo := new(MockRepo)
	cw := new(MockChunkWriter)
	jc := new(MockJobCreator)
	pub := new(MockPublisher)
	svc := newService(repo, cw, jc, pub)

	body := "Photosynthesis converts light into chemical energy.\fRespiration releases that energy again."

	repo.On("Save", mock.Anything, mock.MatchedBy(func(doc *document.Document) bool {
		return doc.UserID == "u1" && doc.WorkspaceID == "ws1" &&
			doc.Name == "bio.pdf" && doc.Status == document.StatusProcessing && doc.PageCount == 2
	})).Return(nil)

	cw.On("Insert", mock.Anything, mock.MatchedBy(func(chunks []chunk.Chunk) bool {
		return len(chunks) == 2 && chunks[0].DocumentID == "doc1" &&
			chunks[0].ChunkIndex == 0 && chunks[1].PageNumber == 2
	})).Return([]string{"c1", "c2"}, nil)

	jc.On("Create", mock.Anything, "u1", "doc1", 2, mock.Anything).Return("job1", nil)

	var published []worker.ChunkEmbedPayload
	pub.On("Publish", config.TopicIngestEmbed, mock.Anything).
		Run(func(args mock.Arguments) {
			var p worker.ChunkEmbedPayload
			require.NoError(t, json.Unmarshal(args.Get(1).([]byte), &p))
			published = append(published, p)
		}).
		Return(nil).Twice()

	doc, jobID, err := svc.Register(context.Background(), "u1", "ws1", "bio.pdf", body)

	require.NoError(t, err)
	assert.Equal(t, "doc1", doc.ID)
	assert.Equal(t, "job1", jobID)

	require.Len(t, published, 2)
	assert.Equal(t, "job1", published[0].JobID)
	assert.Equal(t, "c1", published[0].ChunkID)
	assert.Equal(t, "c2", published[1].ChunkID)
	assert.Equal(t, "bio.pdf", published[1].FileName)

	repo.AssertExpectations(t)
	cw.AssertExpectations(t)
	jc.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestService_Register_EmptyText(t *testing.T) {
	repo := new(MockRepo)
	cw := new(MockChunkWriter)
	jc := new(MockJobCreator)
	pub := new(MockPublisher)
	svc := newService(repo, cw, jc, pub)

	_, _, err := svc.Register(context.Background(), "u1", "ws1", "empty.pdf", "   \n\n ")
	assert.ErrorIs(t, err, document.ErrEmptyDocument)

	_, _, err = svc.Register(context.Background(), "u1", "ws1", "", "content here")
	assert.ErrorIs(t, err, document.ErrNameRequired)

	repo.AssertNotCalled(t, "Save")
}

func TestService_Register_InsertFailure(t *testing.T) {
	repo := new(MockRepo)
	cw := new(MockChunkWriter)
	jc := new(MockJobCreator)
	pub := new(MockPublisher)
	svc := newService(repo, cw, jc, pub)

	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	cw.On("Insert", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, _, err := svc.Register(context.Background(), "u1", "ws1", "bio.pdf", "some content here")
	assert.Error(t, err)
	pub.AssertNotCalled(t, "Publish")
}

func TestService_Delete(t *testing.T) {
	repo := new(MockRepo)
	cw := new(MockChunkWriter)
	jc := new(MockJobCreator)
	pub := new(MockPublisher)
	svc := newService(repo, cw, jc, pub)

	cw.On("DeactivateByDocument", mock.Anything, "doc1", "u1").Return(nil)
	repo.On("SoftDelete", mock.Anything, "u1", "doc1").Return(nil)

	err := svc.Delete(context.Background(), "u1", "doc1")
	assert.NoError(t, err)
	cw.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestService_Delete_ChunksFirst(t *testing.T) {
	repo := new(MockRepo)
	cw := new(MockChunkWriter)
	jc := new(MockJobCreator)
	pub := new(MockPublisher)
	svc := newService(repo, cw, jc, pub)

	cw.On("DeactivateByDocument", mock.Anything, "doc1", "u1").Return(errors.New("db down"))

	err := svc.Delete(context.Background(), "u1", "doc1")
	assert.Error(t, err)
	repo.AssertNotCalled(t, "SoftDelete", "document stays visible if its chunks could not be hidden")
}
