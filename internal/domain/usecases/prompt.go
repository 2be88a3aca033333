package usecases

import (
	"strings"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
)

// NotInContextPhrase is what the model is told to answer when the context is insufficient.
const NotInContextPhrase = "I don't know based on the provided documents."

// BuildContext joins chunk contents in ranked order, separated by blank lines.
func BuildContext(sources []entities.ScoredChunk) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = s.Chunk.Content
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt creates the grounded-answer prompt.
func BuildPrompt(question, context string) string {
	var sb strings.Builder
	sb.WriteString("You are an academic assistant. Answer the question using ONLY the context below.\n")
	sb.WriteString("If the answer is not in the context, say \"" + NotInContextPhrase + "\"\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(context)
	sb.WriteString("\n\nQuestion:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}

// DisabledAnswer is the placeholder returned when no completion service can be used.
func DisabledAnswer(reason string) string {
	if reason == "" {
		reason = "not configured"
	}
	return "LLM is disabled (" + reason + ")"
}
