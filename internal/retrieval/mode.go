package retrieval

import "strings"

// Mode selects the response style for a conversation. Pure configuration,
// recreated per request.
type Mode string

const (
	ModeFocused  Mode = "focused"
	ModeRegular  Mode = "regular"
	ModeSocratic Mode = "socratic"
	ModeDeeper   Mode = "deeper"
)

// ContextOnlyRefusal is the exact string the assistant must return when
// context-only mode is active and no relevant material exists. Callers compare
// against it verbatim, so it must never change casually.
const ContextOnlyRefusal = "I couldn't find relevant information in your uploaded documents to answer this question."

// ParseMode maps a request string onto a known mode, defaulting to regular.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeFocused:
		return ModeFocused
	case ModeSocratic:
		return ModeSocratic
	case ModeDeeper:
		return ModeDeeper
	default:
		return ModeRegular
	}
}

// Instructions renders the style directive block for the system prompt.
func Instructions(mode Mode, contextOnly bool) string {
	var b strings.Builder

	switch mode {
	case ModeFocused:
		b.WriteString("Answer briefly and directly. No elaboration, no background, no tangents.")
	case ModeSocratic:
		b.WriteString("Favor guiding questions over direct answers. Lead the student toward the answer step by step rather than stating it outright.")
	case ModeDeeper:
		b.WriteString("Explain exhaustively. Include background, underlying principles, and multiple worked examples.")
	default:
		b.WriteString("Answer in a balanced, conversational tone with enough detail to be useful.")
	}

	if contextOnly {
		b.WriteString("\n\nUse ONLY the provided source material. Do not draw on outside knowledge. ")
		b.WriteString("If the sources do not contain the answer, respond exactly with: ")
		b.WriteString(`"` + ContextOnlyRefusal + `"`)
	}

	return b.String()
}
