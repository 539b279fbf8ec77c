/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L3
Logic:       Completion Generator (C5). Produces a synthetic
             chat-completion response or a chunked stream of SSE
             deltas, content synthesized from a template + filler
             sentence bank, output length sampled from a clamped
             Gaussian around a configured average.
Root Cause:  Sprint task — mock completion generator.
Context:     The source generator samples output tokens from a
             normal distribution but the admission charge fixed
             at the request's max_tokens (worst case); completion_
             tokens in the response reflects what was actually
             produced, which may be below the charge.
Suitability: L3 — content shape is fully specified by SPEC_FULL
             §4.5; the prose itself is unspecified filler.
──────────────────────────────────────────────────────────────
*/

package completion

import (
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Config bounds and targets the synthetic output length.
type Config struct {
	MinOutputTokens int
	MaxOutputTokens int
	AvgOutputTokens int
	ModelName       string
}

// DefaultConfig matches the reference generator's defaults.
func DefaultConfig() Config {
	return Config{
		MinOutputTokens: 50,
		MaxOutputTokens: 500,
		AvgOutputTokens: 150,
		ModelName:       "gpt-3.5-turbo",
	}
}

var responseTemplates = []string{
	"I understand you're asking about: %s. Let me provide a comprehensive response...",
	"Based on your question regarding %s, here's my analysis...",
	"Regarding %s, I can share the following insights...",
	"Let me help you with your question about %s...",
}

var fillerSentences = []string{
	"This is an important consideration in modern applications.",
	"The implications are significant for system design.",
	"Multiple factors should be taken into account.",
	"This approach offers several advantages.",
	"Let me elaborate on this point further.",
	"The technical details are quite fascinating.",
	"This represents a common challenge in the field.",
	"Understanding these concepts is crucial for success.",
}

// Generator synthesizes completion bodies. It draws from the
// package-level math/rand source, which is safe for concurrent use.
type Generator struct {
	cfg Config
}

// NewGenerator builds a Generator with the given config.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// lastUserContent returns the content of the most recent message, or
// the empty string if there are none.
func lastUserContent(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].Content
}

func truncateTopic(content string) string {
	if utf8.RuneCountInString(content) > 50 {
		r := []rune(content)
		return string(r[:50]) + "..."
	}
	return content
}

// sampleOutputTokens draws from a normal distribution around the
// configured average, clamped to [min, max].
func (g *Generator) sampleOutputTokens() int {
	stdDev := float64(g.cfg.MaxOutputTokens-g.cfg.MinOutputTokens) / 6
	sample := rand.NormFloat64()*stdDev + float64(g.cfg.AvgOutputTokens)
	tokens := int(sample)
	if tokens < g.cfg.MinOutputTokens {
		tokens = g.cfg.MinOutputTokens
	}
	if tokens > g.cfg.MaxOutputTokens {
		tokens = g.cfg.MaxOutputTokens
	}
	return tokens
}

// content builds the response prose targeting approximately
// targetTokens*0.75 words, via template + filler-sentence bank.
func (g *Generator) content(messages []Message, targetTokens int) string {
	if len(messages) == 0 {
		return "Hello! I'm a mock AI assistant. How can I help you today?"
	}

	topic := truncateTopic(lastUserContent(messages))
	template := responseTemplates[rand.Intn(len(responseTemplates))]
	base := strings.Replace(template, "%s", topic, 1)

	targetWords := int(float64(targetTokens) * 0.75)
	words := strings.Fields(base)
	remaining := targetWords - len(words)

	var filler []string
	fillerWordCount := 0
	for remaining > 0 && fillerWordCount < remaining {
		s := fillerSentences[rand.Intn(len(fillerSentences))]
		filler = append(filler, s)
		fillerWordCount += len(strings.Fields(s))
	}

	full := base
	if len(filler) > 0 {
		full += " " + strings.Join(filler, " ")
	}

	allWords := strings.Fields(full)
	if len(allWords) > targetWords && targetWords > 0 {
		allWords = allWords[:targetWords]
	}
	return strings.Join(allWords, " ")
}

// splitIntoChunks breaks content into groups of len(words)/n words, with n
// drawn from 5..10 and capped at the word count. Leftover words form one
// or more extra groups, so the result can hold more than n groups.
func splitIntoChunks(content string) []string {
	words := strings.Fields(content)
	if len(words) == 0 {
		return nil
	}

	numChunks := 5 + rand.Intn(6) // 5..10
	if numChunks > len(words) {
		numChunks = len(words)
	}
	wordsPerChunk := len(words) / numChunks
	if wordsPerChunk < 1 {
		wordsPerChunk = 1
	}

	var chunks []string
	for i := 0; i < len(words); i += wordsPerChunk {
		end := i + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// Generate produces a one-shot chat.completion Response.
func (g *Generator) Generate(messages []Message, model string, promptTokens, maxTokens int) Response {
	if model == "" {
		model = g.cfg.ModelName
	}

	outputTokens := g.sampleOutputTokens()
	if outputTokens > maxTokens {
		outputTokens = maxTokens
	}

	return Response{
		ID:      "mock_req_" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []Choice{{
			Index: 0,
			Message: Message{
				Role:    "assistant",
				Content: g.content(messages, outputTokens),
			},
			FinishReason: "stop",
		}},
		Usage: Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: outputTokens,
			TotalTokens:      promptTokens + outputTokens,
		},
	}
}

// GenerateStream produces the ordered sequence of streaming chunks:
// one role-delta, N content-deltas, one terminal usage-carrying chunk.
// The literal "data: [DONE]\n\n" sentinel is the caller's (C6's)
// responsibility to emit after the last chunk.
func (g *Generator) GenerateStream(messages []Message, model string, promptTokens, maxTokens int) []Chunk {
	if model == "" {
		model = g.cfg.ModelName
	}

	outputTokens := g.sampleOutputTokens()
	if outputTokens > maxTokens {
		outputTokens = maxTokens
	}

	id := "mock_req_" + uuid.NewString()
	created := time.Now().Unix()
	body := g.content(messages, outputTokens)
	chunks := splitIntoChunks(body)

	events := make([]Chunk, 0, len(chunks)+2)

	events = append(events, Chunk{
		ID: id, Object: "chat.completion.chunk", Created: created, Model: model,
		Choices: []ChunkChoice{{Index: 0, Delta: Delta{Role: "assistant"}, FinishReason: nil}},
	})

	for _, c := range chunks {
		events = append(events, Chunk{
			ID: id, Object: "chat.completion.chunk", Created: created, Model: model,
			Choices: []ChunkChoice{{Index: 0, Delta: Delta{Content: c}, FinishReason: nil}},
		})
	}

	stop := "stop"
	events = append(events, Chunk{
		ID: id, Object: "chat.completion.chunk", Created: created, Model: model,
		Choices: []ChunkChoice{{Index: 0, Delta: Delta{}, FinishReason: &stop}},
		Usage: &Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: outputTokens,
			TotalTokens:      promptTokens + outputTokens,
		},
	})

	return events
}
