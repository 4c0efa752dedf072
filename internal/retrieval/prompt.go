package retrieval

// Role is the typed message role, so role handling stays exhaustive instead
// of stringly duck-typed.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func SystemMessage(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func UserMessage(content string) Message      { return Message{Role: RoleUser, Content: content} }
func AssistantMessage(content string) Message { return Message{Role: RoleAssistant, Content: content} }

const citationDirective = "When you use information from a source, cite it inline with its tag, e.g. [SOURCE 2]."

// composeChatMessages builds the generation call: style instructions plus the
// assembled, [SOURCE n]-tagged context as the system message, then the prior
// turn history verbatim, then the current question.
func composeChatMessages(instructions, contextText string, history []Message, question string) []Message {
	system := instructions
	if contextText != "" {
		system += "\n\nSource material from the student's documents:\n\n" + contextText + "\n\n" + citationDirective
	} else {
		system += "\n\nNo source material is available for this question."
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, SystemMessage(system))
	messages = append(messages, history...)
	messages = append(messages, UserMessage(question))
	return messages
}

// composeMaterialMessages builds the full-corpus generation call used for
// study artifacts (exams, quizzes, notes, flashcards).
func composeMaterialMessages(instructions, contextText string) []Message {
	system := "You create study materials grounded strictly in the provided source material.\n\n" +
		"Source material:\n\n" + contextText + "\n\n" + citationDirective
	return []Message{
		SystemMessage(system),
		UserMessage(instructions),
	}
}
