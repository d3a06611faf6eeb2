package prompt

import (
	"strings"
	"testing"

	"rag-chatbot-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
)

func result(text string) vectorstore.SearchResult {
	return vectorstore.SearchResult{Record: vectorstore.Record{Text: text}}
}

func TestBuildWithoutContext(t *testing.T) {
	b := NewContextBuilder(nil, 0)
	prompt := b.Build()

	assert.Contains(t, prompt, "You are a helpful, knowledgeable AI assistant.")
	assert.Contains(t, prompt, "Guidelines:")
	assert.NotContains(t, prompt, "RELEVANT CONTEXT:")
}

func TestBuildWithContext(t *testing.T) {
	b := NewContextBuilder([]vectorstore.SearchResult{
		result("The warranty period is two years."),
		result("Returns are accepted within 30 days."),
	}, 0)
	prompt := b.Build()

	assert.Contains(t, prompt, "RELEVANT CONTEXT:")
	assert.Contains(t, prompt, "The warranty period is two years.")
	assert.Contains(t, prompt, "Returns are accepted within 30 days.")

	// Role and guidelines come before the context block.
	assert.Less(t,
		strings.Index(prompt, "Guidelines:"),
		strings.Index(prompt, "RELEVANT CONTEXT:"),
	)
}

func TestContextBlockJoinsChunks(t *testing.T) {
	b := NewContextBuilder([]vectorstore.SearchResult{
		result("  first chunk  "),
		result(""),
		result("second chunk"),
	}, 0)

	assert.Equal(t, "first chunk\n\nsecond chunk", b.ContextBlock())
}

func TestContextBlockTruncation(t *testing.T) {
	long := strings.Repeat("x", 100)
	b := NewContextBuilder([]vectorstore.SearchResult{result(long)}, 40)

	block := b.ContextBlock()
	assert.Len(t, []rune(block), 40)
}

func TestContextBlockTruncationMultibyte(t *testing.T) {
	long := strings.Repeat("é", 100)
	b := NewContextBuilder([]vectorstore.SearchResult{result(long)}, 10)

	block := b.ContextBlock()
	assert.Len(t, []rune(block), 10)
	assert.Equal(t, strings.Repeat("é", 10), block)
}

func TestContextBlockEmptyResults(t *testing.T) {
	b := NewContextBuilder([]vectorstore.SearchResult{result("   "), result("")}, 0)
	assert.Equal(t, "", b.ContextBlock())
}
