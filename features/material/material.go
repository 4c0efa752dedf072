package material

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studyhall/apps/backend/internal/retrieval"
)

var ErrUnknownKind = errors.New("unknown material kind")

// Generator is the full-corpus side of the retrieval engine.
type Generator interface {
	GenerateMaterial(ctx context.Context, req retrieval.MaterialRequest) (*retrieval.Result, error)
}

type Request struct {
	UserID      string
	WorkspaceID string
	DocumentID  string
	Kind        string
	Count       int
	Difficulty  string
}

type Service struct {
	generator Generator
}

func NewService(g Generator) *Service {
	return &Service{generator: g}
}

func (s *Service) Generate(ctx context.Context, req Request) (*retrieval.Result, error) {
	instructions, err := buildInstructions(req.Kind, req.Count, req.Difficulty)
	if err != nil {
		return nil, err
	}

	return s.generator.GenerateMaterial(ctx, retrieval.MaterialRequest{
		UserID:       req.UserID,
		WorkspaceID:  req.WorkspaceID,
		DocumentID:   req.DocumentID,
		Hint:         req.Kind,
		Instructions: instructions,
	})
}

// buildInstructions turns a material kind into the generation directive.
// Counts and difficulty have kind-specific defaults.
func buildInstructions(kind string, count int, difficulty string) (string, error) {
	difficulty = strings.TrimSpace(difficulty)
	if difficulty == "" {
		difficulty = "mixed"
	}

	switch kind {
	case retrieval.HintExam:
		if count <= 0 {
			count = 10
		}
		return fmt.Sprintf(
			"Write a practice exam with %d questions at %s difficulty. "+
				"Mix multiple-choice, short-answer, and one essay question. "+
				"Number every question and provide an answer key at the end, citing the source of each answer.",
			count, difficulty), nil
	case retrieval.HintQuiz:
		if count <= 0 {
			count = 5
		}
		return fmt.Sprintf(
			"Write a %d-question quiz at %s difficulty. "+
				"Use multiple-choice questions with four options each. "+
				"List the correct answers at the end with the source of each.",
			count, difficulty), nil
	case retrieval.HintFlashcards:
		if count <= 0 {
			count = 20
		}
		return fmt.Sprintf(
			"Create %d flashcards covering the key terms and concepts. "+
				"Format each card as 'Front:' and 'Back:' lines, and cite the source on the back.",
			count), nil
	case retrieval.HintNotes:
		return "Write structured study notes summarizing the material. " +
			"Organize by topic with headings and bullet points, keep formulas and definitions verbatim, " +
			"and cite the source of each section.", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
