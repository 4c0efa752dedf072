package retrieval

// Citation maps a [SOURCE n] tag back to the originating chunk and span so the
// UI can resolve a cited number to a document position. Similarity is set only
// when the assembled chunks came from the ranked path.
type Citation struct {
	Index      int      `json:"index"`
	ChunkID    string   `json:"chunk_id"`
	FileID     string   `json:"file_id"`
	FileName   string   `json:"file_name"`
	PageNumber int      `json:"page_number,omitempty"`
	StartChar  int      `json:"start_char"`
	EndChar    int      `json:"end_char"`
	Similarity *float64 `json:"similarity,omitempty"`
	Content    string   `json:"content"`
}

// BuildCitations assigns 1-based indices matching the assembled chunk order
// exactly. similarities may be nil (unranked structural-sampling path).
func BuildCitations(assembled AssembledContext, similarities map[string]float64) []Citation {
	citations := make([]Citation, 0, len(assembled.Chunks))
	for i, c := range assembled.Chunks {
		cit := Citation{
			Index:      i + 1,
			ChunkID:    c.ID,
			FileID:     c.DocumentID,
			FileName:   c.FileName,
			PageNumber: c.PageNumber,
			StartChar:  c.StartChar,
			EndChar:    c.EndChar,
			Content:    c.Content,
		}
		if similarities != nil {
			if score, ok := similarities[c.ID]; ok {
				s := score
				cit.Similarity = &s
			}
		}
		citations = append(citations, cit)
	}
	return citations
}
