package retrieval

import (
	"math"
	"sort"

	"studyhall/apps/backend/internal/chunk"
)

// RankedChunk pairs a chunk with its cosine similarity against the query vector.
// Produced transiently per request, never persisted.
type RankedChunk struct {
	chunk.Chunk
	Similarity float64
}

// CosineSimilarity returns dot(a,b)/(|a|*|b|). A zero-norm vector scores 0
// rather than producing NaN; an unembedded chunk is a normal condition while
// ingestion is in flight, not a crash path.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every candidate that has an embedding and returns at most topK
// results, best first. Ties break on ascending chunk index so ordering is
// reproducible across runs.
func Rank(query []float32, candidates []chunk.Chunk, topK int) []RankedChunk {
	if topK <= 0 {
		return nil
	}

	ranked := make([]RankedChunk, 0, len(candidates))
	for _, c := range candidates {
		if c.Embedding == nil {
			continue
		}
		ranked = append(ranked, RankedChunk{Chunk: c, Similarity: CosineSimilarity(query, c.Embedding)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		return ranked[i].ChunkIndex < ranked[j].ChunkIndex
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
