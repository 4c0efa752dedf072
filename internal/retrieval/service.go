package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"studyhall/apps/backend/internal/chunk"
	"studyhall/apps/backend/internal/middleware"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type GenerateOptions struct {
	MaxTokens   int
	Temperature float32
}

type GenerateResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	Model            string
	Provider         string
}

type Generator interface {
	Generate(ctx context.Context, messages []Message, opts GenerateOptions) (*GenerateResult, error)
}

type ChunkFetcher interface {
	Fetch(ctx context.Context, scope chunk.Scope) ([]chunk.Chunk, error)
}

type Options struct {
	Budget             int
	ChatTopK           int
	CrossWorkspaceTopK int
	EmbedTimeout       time.Duration
	GenerateTimeout    time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Budget <= 0 {
		out.Budget = 100000
	}
	if out.ChatTopK <= 0 {
		out.ChatTopK = 5
	}
	if out.CrossWorkspaceTopK <= 0 {
		out.CrossWorkspaceTopK = 8
	}
	if out.EmbedTimeout <= 0 {
		out.EmbedTimeout = 30 * time.Second
	}
	if out.GenerateTimeout <= 0 {
		out.GenerateTimeout = 120 * time.Second
	}
	return out
}

// Service orchestrates one retrieval-augmented generation request:
// embed query, fetch candidates, rank (or skip for bulk generation),
// assemble a budgeted context, number citations, compose the prompt,
// and call the generation provider. No state survives a request.
type Service struct {
	embedder  Embedder
	generator Generator
	chunks    ChunkFetcher
	assembler *Assembler
	logger    *QueryLogger
	opts      Options
}

func NewService(e Embedder, g Generator, cf ChunkFetcher, l *QueryLogger, opts Options) *Service {
	resolved := opts.withDefaults()
	return &Service{
		embedder:  e,
		generator: g,
		chunks:    cf,
		assembler: NewAssembler(resolved.Budget),
		logger:    l,
		opts:      resolved,
	}
}

type ChatRequest struct {
	UserID      string
	WorkspaceID string
	DocumentID  string
	Question    string
	History     []Message
	Mode        Mode
	ContextOnly bool
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type ResultContext struct {
	SourceCitations []Citation `json:"sourceCitations"`
	RelevantChunks  int        `json:"relevantChunks"`
}

type Result struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Context  ResultContext `json:"context"`
	Usage    Usage         `json:"usage"`
	Model    string        `json:"model,omitempty"`
	Provider string        `json:"provider,omitempty"`
}

// ChatFile answers a question against a single document.
func (s *Service) ChatFile(ctx context.Context, req ChatRequest) (*Result, error) {
	scope := chunk.FileScope(req.UserID, req.WorkspaceID, req.DocumentID)
	return s.chat(ctx, scope, "file", s.opts.ChatTopK, req)
}

// ChatWorkspace answers a question against every document in one workspace.
func (s *Service) ChatWorkspace(ctx context.Context, req ChatRequest) (*Result, error) {
	scope := chunk.WorkspaceScope(req.UserID, req.WorkspaceID)
	return s.chat(ctx, scope, "workspace", s.opts.ChatTopK, req)
}

// ChatAllWorkspaces answers a question against everything the user owns.
func (s *Service) ChatAllWorkspaces(ctx context.Context, req ChatRequest) (*Result, error) {
	scope := chunk.AllWorkspacesScope(req.UserID)
	return s.chat(ctx, scope, "all_workspaces", s.opts.CrossWorkspaceTopK, req)
}

func (s *Service) chat(ctx context.Context, scope chunk.Scope, scopeName string, topK int, req ChatRequest) (*Result, error) {
	start := time.Now()

	embedCtx, cancel := context.WithTimeout(ctx, s.opts.EmbedTimeout)
	queryVec, err := s.embedder.Embed(embedCtx, req.Question)
	cancel()
	if err != nil {
		slog.ErrorContext(ctx, "query embedding failed", "scope", scopeName, "error", err)
		return failure(FailureMessage), fmt.Errorf("%w: embed query: %v", ErrRetrieval, err)
	}

	candidates, err := s.chunks.Fetch(ctx, scope)
	if err != nil {
		slog.ErrorContext(ctx, "chunk fetch failed", "scope", scopeName, "error", err)
		return failure(FailureMessage), fmt.Errorf("%w: fetch candidates: %v", ErrRetrieval, err)
	}

	ranked := Rank(queryVec, candidates, topK)
	if len(ranked) == 0 {
		// Empty corpus (or nothing embedded yet) is a designed branch,
		// not an error.
		return s.chatWithoutCorpus(ctx, scopeName, req, start)
	}

	assembled := s.assembler.AssembleRanked(ranked)

	similarities := make(map[string]float64, len(ranked))
	for _, rc := range ranked {
		similarities[rc.ID] = rc.Similarity
	}
	citations := BuildCitations(assembled, similarities)

	messages := composeChatMessages(Instructions(req.Mode, req.ContextOnly), assembled.Text, req.History, req.Question)

	genCtx, cancel := context.WithTimeout(ctx, s.opts.GenerateTimeout)
	gen, err := s.generator.Generate(genCtx, messages, GenerateOptions{MaxTokens: 2048, Temperature: 0.7})
	cancel()
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "scope", scopeName, "error", err)
		return failure(err.Error()), fmt.Errorf("%w: %v", ErrProvider, err)
	}

	cited := citedIndices(gen.Text, len(citations))
	if len(cited) == 0 {
		// Diagnostics only. The model's citation compliance cannot be
		// mechanically enforced.
		slog.InfoContext(ctx, "answer contains no source citations", "scope", scopeName, "citations_available", len(citations))
	}

	s.logQuery(ctx, QueryLogEntry{
		Scope:         scopeName,
		Query:         req.Question,
		ChunksUsed:    len(assembled.Chunks),
		Citations:     len(citations),
		CitedInAnswer: len(cited),
		Truncated:     assembled.Truncated,
		Duration:      time.Since(start),
	})

	return &Result{
		Success:  true,
		Message:  gen.Text,
		Context:  ResultContext{SourceCitations: citations, RelevantChunks: len(assembled.Chunks)},
		Usage:    Usage{PromptTokens: gen.PromptTokens, CompletionTokens: gen.CompletionTokens},
		Model:    gen.Model,
		Provider: gen.Provider,
	}, nil
}

// chatWithoutCorpus handles the no-corpus branch: answer from general
// knowledge, or return the fixed refusal verbatim in context-only mode.
func (s *Service) chatWithoutCorpus(ctx context.Context, scopeName string, req ChatRequest, start time.Time) (*Result, error) {
	if req.ContextOnly {
		s.logQuery(ctx, QueryLogEntry{
			Scope:    scopeName,
			Query:    req.Question,
			Duration: time.Since(start),
		})
		return &Result{
			Success: true,
			Message: ContextOnlyRefusal,
			Context: ResultContext{SourceCitations: []Citation{}},
		}, nil
	}

	messages := composeChatMessages(Instructions(req.Mode, false), "", req.History, req.Question)

	genCtx, cancel := context.WithTimeout(ctx, s.opts.GenerateTimeout)
	gen, err := s.generator.Generate(genCtx, messages, GenerateOptions{MaxTokens: 2048, Temperature: 0.7})
	cancel()
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "scope", scopeName, "error", err)
		return failure(err.Error()), fmt.Errorf("%w: %v", ErrProvider, err)
	}

	s.logQuery(ctx, QueryLogEntry{
		Scope:    scopeName,
		Query:    req.Question,
		Duration: time.Since(start),
	})

	return &Result{
		Success:  true,
		Message:  gen.Text,
		Context:  ResultContext{SourceCitations: []Citation{}},
		Usage:    Usage{PromptTokens: gen.PromptTokens, CompletionTokens: gen.CompletionTokens},
		Model:    gen.Model,
		Provider: gen.Provider,
	}, nil
}

type MaterialRequest struct {
	UserID      string
	WorkspaceID string
	DocumentID  string
	// Hint selects the keyword-relevance filter applied during sampling
	// (exam, quiz, flashcards, notes).
	Hint string
	// Instructions is the material-specific generation directive built by the
	// caller (question counts, format, difficulty).
	Instructions string
}

// GenerateMaterial runs the full-corpus path: no query embedding, no ranking.
// Bulk generation flows want broad coverage rather than query-focused
// relevance, so the assembler sees the raw corpus and samples structurally
// when it exceeds the budget.
func (s *Service) GenerateMaterial(ctx context.Context, req MaterialRequest) (*Result, error) {
	start := time.Now()

	scope := chunk.WorkspaceScope(req.UserID, req.WorkspaceID)
	if req.DocumentID != "" {
		scope = chunk.FileScope(req.UserID, req.WorkspaceID, req.DocumentID)
	}

	corpus, err := s.chunks.Fetch(ctx, scope)
	if err != nil {
		slog.ErrorContext(ctx, "chunk fetch failed", "hint", req.Hint, "error", err)
		return failure(FailureMessage), fmt.Errorf("%w: fetch corpus: %v", ErrRetrieval, err)
	}

	if len(corpus) == 0 {
		return &Result{
			Success: false,
			Message: "No source material found. Upload documents to this workspace first.",
			Context: ResultContext{SourceCitations: []Citation{}},
		}, nil
	}

	assembled := s.assembler.AssembleCorpus(corpus, req.Hint)
	citations := BuildCitations(assembled, nil)
	messages := composeMaterialMessages(req.Instructions, assembled.Text)

	genCtx, cancel := context.WithTimeout(ctx, s.opts.GenerateTimeout)
	gen, err := s.generator.Generate(genCtx, messages, GenerateOptions{MaxTokens: 8192, Temperature: 0.3})
	cancel()
	if err != nil {
		slog.ErrorContext(ctx, "material generation failed", "hint", req.Hint, "error", err)
		return failure(err.Error()), fmt.Errorf("%w: %v", ErrProvider, err)
	}

	s.logQuery(ctx, QueryLogEntry{
		Scope:      "material:" + req.Hint,
		ChunksUsed: len(assembled.Chunks),
		Citations:  len(citations),
		Truncated:  assembled.Truncated,
		Duration:   time.Since(start),
	})

	return &Result{
		Success:  true,
		Message:  gen.Text,
		Context:  ResultContext{SourceCitations: citations, RelevantChunks: len(assembled.Chunks)},
		Usage:    Usage{PromptTokens: gen.PromptTokens, CompletionTokens: gen.CompletionTokens},
		Model:    gen.Model,
		Provider: gen.Provider,
	}, nil
}

func (s *Service) logQuery(ctx context.Context, entry QueryLogEntry) {
	if s.logger == nil {
		return
	}
	entry.CorrelationID = middleware.GetCorrelationID(ctx)
	s.logger.Log(entry)
}

func failure(message string) *Result {
	return &Result{
		Success: false,
		Message: message,
		Context: ResultContext{SourceCitations: []Citation{}},
	}
}

var sourceTagRe = regexp.MustCompile(`(?i)\[source\s+(\d+)\]`)

// citedIndices extracts the distinct, in-range [SOURCE n] tags from an answer.
func citedIndices(answer string, max int) []int {
	matches := sourceTagRe.FindAllStringSubmatch(answer, -1)
	seen := make(map[int]bool, len(matches))
	var indices []int
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > max || seen[n] {
			continue
		}
		seen[n] = true
		indices = append(indices, n)
	}
	return indices
}
