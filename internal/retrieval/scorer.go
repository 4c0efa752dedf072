package retrieval

import "strings"

// RelevanceScorer decides whether a chunk is worth pulling into a
// budget-constrained context on top of the structural sample. The keyword
// implementation below is a heuristic carried over from the reference
// behavior; it has no measured precision/recall, so it stays behind this
// interface where a better strategy can replace it.
type RelevanceScorer interface {
	Relevant(content string) bool
}

// Generation-type hints recognized by the keyword scorer.
const (
	HintExam       = "exam"
	HintQuiz       = "quiz"
	HintFlashcards = "flashcards"
	HintNotes      = "notes"
)

type keywordScorer struct {
	keywords []string
}

func (s keywordScorer) Relevant(content string) bool {
	lower := strings.ToLower(content)
	for _, kw := range s.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ScorerForHint returns the keyword scorer for a generation-type hint, or nil
// when the hint carries no keyword filter.
func ScorerForHint(hint string) RelevanceScorer {
	switch hint {
	case HintExam, HintQuiz:
		return keywordScorer{keywords: []string{"example", "definition", "formula", "theorem"}}
	case HintFlashcards:
		return keywordScorer{keywords: []string{"definition", "key term", "fundamental"}}
	default:
		return nil
	}
}
