package answer

import (
	"context"
	"fmt"
	"strings"

	"docuquery/internal/ai"
	"docuquery/internal/index"
)

// NoInformationAnswer is returned when the tenant's corpus has nothing
// relevant; the generation model is not called with empty context.
const NoInformationAnswer = "I could not find any relevant information in your company's documents to answer that question."

const systemPrompt = "You are a helpful assistant for answering questions about company documents. " +
	"Answer the user's question based only on the following context. " +
	"If the context does not contain enough information, say so. Do not make up facts."

// Embedder turns a query into a vector in the index's embedding space.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces the final answer text, batched or streamed.
type Generator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
	StreamComplete(ctx context.Context, messages []ai.ChatMessage, onChunk func(string) error) (string, error)
}

// Answerer embeds a tenant-scoped query, retrieves the nearest chunks, and
// asks the generation model to answer from them alone.
type Answerer struct {
	embedder     Embedder
	generator    Generator
	idx          index.VectorIndex
	topK         int
	contextLimit int
}

func New(embedder Embedder, generator Generator, idx index.VectorIndex, topK, contextCharLimit int) *Answerer {
	if topK <= 0 {
		topK = 5
	}
	if contextCharLimit <= 0 {
		contextCharLimit = 8000
	}
	return &Answerer{
		embedder:     embedder,
		generator:    generator,
		idx:          idx,
		topK:         topK,
		contextLimit: contextCharLimit,
	}
}

// Answer returns one completed answer string.
func (a *Answerer) Answer(ctx context.Context, companyID uint, query string) (string, error) {
	messages, empty, err := a.prepare(ctx, companyID, query)
	if err != nil {
		return "", err
	}
	if empty {
		return NoInformationAnswer, nil
	}

	text, err := a.generator.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate answer failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// AnswerStream returns a stream of answer fragments in generation order.
// Cancelling ctx stops generation promptly and closes the stream.
func (a *Answerer) AnswerStream(ctx context.Context, companyID uint, query string) *Stream {
	s := newStream()

	go func() {
		defer s.finish()

		messages, empty, err := a.prepare(ctx, companyID, query)
		if err != nil {
			s.setErr(err)
			return
		}
		if empty {
			s.send(ctx, NoInformationAnswer)
			return
		}

		_, err = a.generator.StreamComplete(ctx, messages, func(fragment string) error {
			return s.send(ctx, fragment)
		})
		if err != nil {
			s.setErr(fmt.Errorf("stream answer failed: %w", err))
		}
	}()

	return s
}

// prepare embeds the query, searches the tenant's slice of the index, and
// assembles the prompt. empty reports a corpus with no matches.
func (a *Answerer) prepare(ctx context.Context, companyID uint, query string) (messages []ai.ChatMessage, empty bool, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false, fmt.Errorf("query is empty")
	}

	vector, err := a.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, false, fmt.Errorf("embed query failed: %w", err)
	}

	matches, err := a.idx.Search(ctx, companyID, vector, a.topK)
	if err != nil {
		return nil, false, fmt.Errorf("search index failed: %w", err)
	}
	if len(matches) == 0 {
		return nil, true, nil
	}

	contextBlock := a.buildContext(matches)
	userContent := "Context:\n" + contextBlock + "\n\nQuestion: " + query + "\n\nAnswer:"

	return []ai.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userContent},
	}, false, nil
}

// buildContext concatenates retrieved chunk texts in similarity-descending
// order, dropping the lowest-ranked chunks once the character budget would
// be exceeded. The best match is always included, truncated if oversized.
func (a *Answerer) buildContext(matches []index.Match) string {
	var sb strings.Builder
	for i, m := range matches {
		text := m.Entry.Text
		if i == 0 && len(text) > a.contextLimit {
			text = text[:a.contextLimit]
		}
		if i > 0 && sb.Len()+len(text) > a.contextLimit {
			break
		}
		sb.WriteString("---\n")
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	sb.WriteString("---")
	return sb.String()
}
