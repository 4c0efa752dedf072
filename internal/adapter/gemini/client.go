package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"studyhall/apps/backend/internal/retrieval"
)

// Client wraps one genai connection and serves both sides of the retrieval
// loop: query/chunk embedding and answer generation.
type Client struct {
	client    *genai.Client
	embedName string
	genName   string
}

func NewClient(ctx context.Context, apiKey, embedModel, genModel string, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, embedName: embedModel, genName: genModel}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "embedding content", "model", c.embedName, "length", len(text))

	em := c.client.EmbeddingModel(c.embedName)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding received")
	}
	return res.Embedding.Values, nil
}

// Generate maps the role-tagged message list onto a genai chat session:
// the system message becomes the model's system instruction, prior turns
// become chat history, and the final message is sent as the live turn.
func (c *Client) Generate(ctx context.Context, messages []retrieval.Message, opts retrieval.GenerateOptions) (*retrieval.GenerateResult, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages to generate from")
	}

	model := c.client.GenerativeModel(c.genName)
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	model.SetTemperature(opts.Temperature)

	turns := messages
	if turns[0].Role == retrieval.RoleSystem {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(turns[0].Content)}}
		turns = turns[1:]
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("no user message to generate from")
	}

	session := model.StartChat()
	for _, m := range turns[:len(turns)-1] {
		session.History = append(session.History, &genai.Content{
			Role:  genaiRole(m.Role),
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	last := turns[len(turns)-1]
	resp, err := session.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return nil, err
	}

	text := responseText(resp)
	if text == "" {
		return nil, fmt.Errorf("empty generation response")
	}

	result := &retrieval.GenerateResult{
		Text:     text,
		Model:    c.genName,
		Provider: "gemini",
	}
	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}

func genaiRole(r retrieval.Role) string {
	if r == retrieval.RoleAssistant {
		return "model"
	}
	return "user"
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}
