package retrieval

import (
	"fmt"
	"strings"

	"studyhall/apps/backend/internal/chunk"
)

// AssembledContext is the budget-constrained, de-duplicated chunk selection
// for one generation call. The chunk order here defines citation numbering;
// Text carries the matching [SOURCE n] labels.
type AssembledContext struct {
	Chunks    []chunk.Chunk
	Text      string
	Truncated bool
}

// Assembler guarantees the context text handed to the generation provider
// never exceeds the configured character budget.
type Assembler struct {
	budget        int
	scorerForHint func(hint string) RelevanceScorer
}

func NewAssembler(budget int) *Assembler {
	return &Assembler{budget: budget, scorerForHint: ScorerForHint}
}

// WithScorer overrides the relevance strategy used for generation-type hints.
func (a *Assembler) WithScorer(fn func(hint string) RelevanceScorer) *Assembler {
	a.scorerForHint = fn
	return a
}

const (
	midSampleMax    = 5
	keywordExtraMax = 3
)

// AssembleCorpus selects chunks for the full-corpus generation path.
// When everything fits the budget the corpus is returned verbatim; otherwise
// structural sampling keeps the first and last chunk as intro/conclusion
// anchors, takes even strides through the middle two quartiles, and adds up to
// three keyword-relevant chunks for the generation-type hint.
func (a *Assembler) AssembleCorpus(chunks []chunk.Chunk, hint string) AssembledContext {
	if len(chunks) == 0 {
		return AssembledContext{}
	}

	text, _ := renderContext(chunks)
	if len(text) <= a.budget {
		return AssembledContext{Chunks: chunks, Text: text}
	}

	selected := a.sample(chunks, hint)
	if len(selected) == 0 {
		selected = fallbackSlice(chunks)
	}
	selected = dedupe(selected)

	return a.finish(selected)
}

// AssembleRanked builds context from an already-ranked top-K set. Sampling is
// skipped; only the truncation guard applies.
func (a *Assembler) AssembleRanked(ranked []RankedChunk) AssembledContext {
	if len(ranked) == 0 {
		return AssembledContext{}
	}

	selected := make([]chunk.Chunk, 0, len(ranked))
	for _, rc := range ranked {
		selected = append(selected, rc.Chunk)
	}
	selected = dedupe(selected)

	return a.finish(selected)
}

// finish renders the selection and enforces the budget. When truncation cuts
// the text, chunks whose [SOURCE n] label fell past the cut are dropped from
// the selection too: a source the model never saw must not be citable.
func (a *Assembler) finish(selected []chunk.Chunk) AssembledContext {
	rendered, labelEnds := renderContext(selected)
	text, truncated := truncateAtBoundary(rendered, a.budget)
	if truncated {
		keep := 0
		for keep < len(selected) && labelEnds[keep] <= len(text) {
			keep++
		}
		selected = selected[:keep]
	}
	return AssembledContext{Chunks: selected, Text: text, Truncated: truncated}
}

func (a *Assembler) sample(chunks []chunk.Chunk, hint string) []chunk.Chunk {
	n := len(chunks)
	selected := []chunk.Chunk{chunks[0]}

	// Even strides through the middle 50% (quartile 0.25-0.75).
	lo, hi := n/4, (3*n)/4
	if hi > lo {
		count := hi - lo
		picks := midSampleMax
		if count < picks {
			picks = count
		}
		stride := count / picks
		if stride == 0 {
			stride = 1
		}
		for i := 0; i < picks; i++ {
			selected = append(selected, chunks[lo+i*stride])
		}
	}

	if scorer := a.scorerForHint(hint); scorer != nil {
		extras := 0
		for _, c := range chunks {
			if extras >= keywordExtraMax {
				break
			}
			if scorer.Relevant(c.Content) {
				selected = append(selected, c)
				extras++
			}
		}
	}

	selected = append(selected, chunks[n-1])
	return selected
}

// fallbackSlice guarantees non-empty output for a non-empty corpus: the first
// 30% plus the last 20% by document order.
func fallbackSlice(chunks []chunk.Chunk) []chunk.Chunk {
	n := len(chunks)
	head := (n * 3) / 10
	tail := n / 5
	if head == 0 {
		head = 1
	}
	if tail == 0 {
		tail = 1
	}

	var out []chunk.Chunk
	out = append(out, chunks[:head]...)
	out = append(out, chunks[n-tail:]...)
	return out
}

func dedupe(chunks []chunk.Chunk) []chunk.Chunk {
	seen := make(map[string]bool, len(chunks))
	out := make([]chunk.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// renderContext concatenates chunk text with [SOURCE n] labels. The n here is
// the 1-based position that CitationTracker assigns; the two must never
// diverge, since the generation model cites by this number. The second return
// value records where each chunk's label ends in the rendered text, so
// truncation can tell which sources survived the cut.
func renderContext(chunks []chunk.Chunk) (string, []int) {
	var b strings.Builder
	labelEnds := make([]int, len(chunks))
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(sourceLabel(i+1, c))
		labelEnds[i] = b.Len()
		b.WriteString("\n")
		b.WriteString(c.Content)
	}
	return b.String(), labelEnds
}

func sourceLabel(index int, c chunk.Chunk) string {
	if c.PageNumber > 0 {
		return fmt.Sprintf("[SOURCE %d] %s (page %d)", index, c.FileName, c.PageNumber)
	}
	return fmt.Sprintf("[SOURCE %d] %s", index, c.FileName)
}

var sentenceBoundaries = []string{"\n\n", ".\n", ". ", "! ", "?\n"}

// truncateAtBoundary enforces the character budget, preferring the last
// sentence or paragraph boundary within the first 90% of the budget before
// falling back to a word boundary.
func truncateAtBoundary(text string, budget int) (string, bool) {
	if len(text) <= budget {
		return text, false
	}

	window := text[:(budget*9)/10]
	cut := -1
	for _, b := range sentenceBoundaries {
		if i := strings.LastIndex(window, b); i >= 0 && i+len(b) > cut {
			cut = i + len(b)
		}
	}

	if cut <= 0 {
		word := text[:budget]
		if i := strings.LastIndexByte(word, ' '); i > 0 {
			cut = i
		} else {
			cut = budget
		}
	}

	return text[:cut], true
}
