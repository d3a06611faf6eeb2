package prompt

import (
	"strings"

	"rag-chatbot-be/pkg/vectorstore"
)

// ContextBuilder assembles the system prompt for a chat turn, injecting
// retrieved chunks as reference context.
type ContextBuilder struct {
	results   []vectorstore.SearchResult
	maxLength int
}

// NewContextBuilder creates a builder. maxLength caps the context block in
// runes; 0 means no cap.
func NewContextBuilder(results []vectorstore.SearchResult, maxLength int) *ContextBuilder {
	return &ContextBuilder{
		results:   results,
		maxLength: maxLength,
	}
}

// Build produces the full system prompt.
func (b *ContextBuilder) Build() string {
	var prompt strings.Builder

	b.writeRole(&prompt)
	b.writeGuidelines(&prompt)
	b.writeContext(&prompt)

	return prompt.String()
}

func (b *ContextBuilder) writeRole(prompt *strings.Builder) {
	prompt.WriteString("You are a helpful, knowledgeable AI assistant. You provide accurate, thoughtful, and engaging responses to user questions. You are friendly but professional, and you aim to be as helpful as possible.\n")
}

func (b *ContextBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("\nGuidelines:\n")
	prompt.WriteString("- Provide clear, well-structured responses\n")
	prompt.WriteString("- If you're not sure about something, say so\n")
	prompt.WriteString("- Use formatting (markdown) to make responses more readable\n")
	prompt.WriteString("- Be conversational but informative\n")
	prompt.WriteString("- If relevant context is provided, use it to enhance your responses\n")
}

func (b *ContextBuilder) writeContext(prompt *strings.Builder) {
	contextBlock := b.ContextBlock()
	if contextBlock == "" {
		return
	}

	prompt.WriteString("\nRELEVANT CONTEXT:\n")
	prompt.WriteString("The following context may be relevant to the user's question:\n")
	prompt.WriteString(contextBlock)
	prompt.WriteString("\nUse this context to inform your response when relevant, but don't mention that you're using provided context unless it's directly relevant to cite sources.\n")
}

// ContextBlock concatenates retrieved chunk texts, truncated to maxLength.
func (b *ContextBuilder) ContextBlock() string {
	if len(b.results) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, res := range b.results {
		text := strings.TrimSpace(res.Record.Text)
		if text == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	block := strings.TrimSpace(sb.String())
	if b.maxLength > 0 {
		runes := []rune(block)
		if len(runes) > b.maxLength {
			block = string(runes[:b.maxLength])
		}
	}
	return block
}
