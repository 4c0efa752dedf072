package text

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

type ChunkType string

const (
	ChunkTypeProse   ChunkType = "prose"
	ChunkTypeHeading ChunkType = "heading"
	ChunkTypeList    ChunkType = "list"
)

// Chunk is one retrievable slice of a document. StartChar and EndChar are
// byte offsets into the original extracted text, so a chunk can always be
// traced back to its exact place in the source.
type Chunk struct {
	Content    string
	TokenCount int
	PageNumber int
	StartChar  int
	EndChar    int
	Type       ChunkType
}

type Chunker struct {
	maxTokens int
	enc       *tiktoken.Tiktoken
}

// NewChunker builds a chunker with a per-chunk token budget. Token counts
// use the cl100k_base encoding; if the encoding cannot be loaded the
// chunker falls back to a chars/4 estimate.
func NewChunker(maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.Warn("tiktoken encoding unavailable, using character estimate", "error", err)
		enc = nil
	}
	return &Chunker{maxTokens: maxTokens, enc: enc}
}

func (c *Chunker) CountTokens(s string) int {
	if c.enc != nil {
		return len(c.enc.Encode(s, nil, nil))
	}
	return (len(s) + 3) / 4
}

// span is a half-open [start, end) byte range in the original text.
type span struct {
	start, end int
}

// Chunk splits extracted document text into chunks. Pages are delimited by
// form feeds (the convention of PDF text extractors); within a page the
// split order is paragraphs, then sentences, then words, packing adjacent
// units until the token budget is reached.
func (c *Chunker) Chunk(text string) []Chunk {
	var out []Chunk
	for i, page := range splitSpans(text, "\f", 0) {
		out = append(out, c.chunkPage(text, page, i+1)...)
	}

	kept := out[:0]
	for _, ch := range out {
		if !isNoise(ch.Content) {
			kept = append(kept, ch)
		}
	}
	return kept
}

func (c *Chunker) chunkPage(full string, page span, pageNo int) []Chunk {
	paras := splitSpans(full[page.start:page.end], "\n\n", page.start)
	return c.pack(full, paras, pageNo, c.splitParagraph)
}

// pack greedily merges adjacent units into chunks without crossing the
// token budget. Units that alone exceed the budget are handed to split,
// which breaks them into finer units.
func (c *Chunker) pack(full string, units []span, pageNo int, split func(string, span, int) []Chunk) []Chunk {
	var out []Chunk
	var open []span
	openTokens := 0

	flush := func() {
		if len(open) == 0 {
			return
		}
		s, e := open[0].start, open[len(open)-1].end
		content := full[s:e]
		out = append(out, Chunk{
			Content:    content,
			TokenCount: c.CountTokens(content),
			PageNumber: pageNo,
			StartChar:  s,
			EndChar:    e,
			Type:       classify(content),
		})
		open = open[:0]
		openTokens = 0
	}

	for _, u := range units {
		tokens := c.CountTokens(full[u.start:u.end])
		if tokens > c.maxTokens {
			flush()
			if split != nil {
				out = append(out, split(full, u, pageNo)...)
			}
			continue
		}
		if openTokens+tokens > c.maxTokens {
			flush()
		}
		open = append(open, u)
		openTokens += tokens
	}
	flush()
	return out
}

var sentenceEndRe = regexp.MustCompile(`[.!?]["')\]]?(\s+|\z)`)

func (c *Chunker) splitParagraph(full string, para span, pageNo int) []Chunk {
	sentences := sentenceSpans(full, para)
	return c.pack(full, sentences, pageNo, c.splitSentence)
}

// splitSentence is the last resort for a single sentence over budget:
// break on whitespace.
func (c *Chunker) splitSentence(full string, sent span, pageNo int) []Chunk {
	words := fieldSpans(full, sent)
	return c.pack(full, words, pageNo, nil)
}

func sentenceSpans(full string, s span) []span {
	text := full[s.start:s.end]
	var out []span
	last := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		sp := trimSpan(full, span{s.start + last, s.start + loc[1]})
		if sp.start < sp.end {
			out = append(out, sp)
		}
		last = loc[1]
	}
	if last < len(text) {
		sp := trimSpan(full, span{s.start + last, s.end})
		if sp.start < sp.end {
			out = append(out, sp)
		}
	}
	return out
}

func fieldSpans(full string, s span) []span {
	var out []span
	start := -1
	for i := s.start; i < s.end; i++ {
		isSpace := unicode.IsSpace(rune(full[i]))
		if !isSpace && start < 0 {
			start = i
		}
		if isSpace && start >= 0 {
			out = append(out, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, span{start, s.end})
	}
	return out
}

// splitSpans cuts s on sep, returning trimmed non-empty ranges offset by
// base into the original text.
func splitSpans(s, sep string, base int) []span {
	var out []span
	pos := 0
	for pos <= len(s) {
		idx := strings.Index(s[pos:], sep)
		end := len(s)
		if idx >= 0 {
			end = pos + idx
		}
		sp := trimSpanStr(s, span{pos, end}, base)
		if sp.start < sp.end {
			out = append(out, sp)
		}
		if idx < 0 {
			break
		}
		pos = end + len(sep)
	}
	return out
}

func trimSpanStr(s string, sp span, base int) span {
	for sp.start < sp.end && unicode.IsSpace(rune(s[sp.start])) {
		sp.start++
	}
	for sp.end > sp.start && unicode.IsSpace(rune(s[sp.end-1])) {
		sp.end--
	}
	return span{sp.start + base, sp.end + base}
}

func trimSpan(full string, sp span) span {
	return trimSpanStr(full, sp, 0)
}

var listItemRe = regexp.MustCompile(`^\s*([-*•]|\d+[.)])\s+`)

func classify(content string) ChunkType {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) == 1 {
		line := strings.TrimSpace(lines[0])
		if len(line) < 80 && !strings.HasSuffix(line, ".") && strings.Count(line, " ") <= 8 {
			return ChunkTypeHeading
		}
		return ChunkTypeProse
	}

	listLines := 0
	for _, l := range lines {
		if listItemRe.MatchString(l) {
			listLines++
		}
	}
	if listLines*2 > len(lines) {
		return ChunkTypeList
	}
	return ChunkTypeProse
}

var pageArtifactRe = regexp.MustCompile(`(?i)^(page\s+)?\d+(\s*(of|/)\s*\d+)?$`)

// isNoise drops extraction artifacts: bare page numbers and fragments too
// short to carry meaning. Conservative on purpose; a borderline chunk is
// cheaper to keep than a useful one is to lose.
func isNoise(content string) bool {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < 4 {
		return true
	}
	return pageArtifactRe.MatchString(trimmed)
}
