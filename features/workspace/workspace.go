package workspace

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNameRequired = errors.New("workspace name is required")

type Workspace struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, ws *Workspace) error
	Get(ctx context.Context, userID, id string) (*Workspace, error)
	List(ctx context.Context, userID string) ([]Workspace, error)
	Rename(ctx context.Context, userID, id, name string) error
	Delete(ctx context.Context, userID, id string) error
	Count(ctx context.Context, userID string) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, userID, name string) (*Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	ws := &Workspace{UserID: userID, Name: name}
	if err := s.repo.Save(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Workspace, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string) ([]Workspace, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Rename(ctx context.Context, userID, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	return s.repo.Rename(ctx, userID, id, name)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
