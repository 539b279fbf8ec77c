package completion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateShape(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	msgs := []Message{{Role: "user", Content: "tell me about rate limiting"}}

	resp := g.Generate(msgs, "", 20, 150)

	assert.Equal(t, "chat.completion", resp.Object)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "gpt-3.5-turbo", resp.Model)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "assistant", resp.Choices[0].Message.Role)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.NotEmpty(t, resp.Choices[0].Message.Content)
	assert.Equal(t, 20, resp.Usage.PromptTokens)
	assert.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	assert.LessOrEqual(t, resp.Usage.CompletionTokens, 150)
}

func TestGenerateRespectsModelOverride(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	resp := g.Generate([]Message{{Role: "user", Content: "hi"}}, "gpt-4", 5, 150)
	assert.Equal(t, "gpt-4", resp.Model)
}

func TestGenerateEmptyMessagesFallback(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	resp := g.Generate(nil, "", 0, 150)
	assert.Contains(t, resp.Choices[0].Message.Content, "mock AI assistant")
}

func TestGenerateCapsOutputAtMaxTokens(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	resp := g.Generate([]Message{{Role: "user", Content: "hi"}}, "", 5, 10)
	assert.LessOrEqual(t, resp.Usage.CompletionTokens, 10)
}

func TestGenerateStreamEventOrdering(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	msgs := []Message{{Role: "user", Content: "explain sliding windows"}}

	chunks := g.GenerateStream(msgs, "", 15, 150)
	require.GreaterOrEqual(t, len(chunks), 3)

	first := chunks[0]
	assert.Equal(t, "assistant", first.Choices[0].Delta.Role)
	assert.Empty(t, first.Choices[0].Delta.Content)
	assert.Nil(t, first.Choices[0].FinishReason)
	assert.Nil(t, first.Usage)

	for _, c := range chunks[1 : len(chunks)-1] {
		assert.NotEmpty(t, c.Choices[0].Delta.Content)
		assert.Nil(t, c.Choices[0].FinishReason)
	}

	last := chunks[len(chunks)-1]
	require.NotNil(t, last.Choices[0].FinishReason)
	assert.Equal(t, "stop", *last.Choices[0].FinishReason)
	require.NotNil(t, last.Usage)
	assert.Equal(t, 15, last.Usage.PromptTokens)

	ids := map[string]bool{}
	for _, c := range chunks {
		ids[c.ID] = true
		assert.Equal(t, "chat.completion.chunk", c.Object)
	}
	assert.Len(t, ids, 1, "all chunks in a stream share one id")
}

func TestSplitIntoChunksNonEmpty(t *testing.T) {
	body := strings.Repeat("word ", 40)
	chunks := splitIntoChunks(body)
	assert.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplitIntoChunksEmptyInput(t *testing.T) {
	assert.Nil(t, splitIntoChunks(""))
}
