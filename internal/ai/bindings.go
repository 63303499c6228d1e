package ai

import "context"

// Embedder binds the shared HTTP client to one embedding model so callers
// hold an explicit dependency instead of passing config everywhere.
type Embedder struct {
	client *OpenAICompatibleClient
	cfg    EmbeddingConfig
}

func NewEmbedder(client *OpenAICompatibleClient, cfg EmbeddingConfig) *Embedder {
	return &Embedder{client: client, cfg: cfg}
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return e.client.EmbedDocuments(ctx, e.cfg, texts)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.client.EmbedQuery(ctx, e.cfg, text)
}

// Generator binds the shared HTTP client to one chat model.
type Generator struct {
	client *OpenAICompatibleClient
	cfg    ChatConfig
}

func NewGenerator(client *OpenAICompatibleClient, cfg ChatConfig) *Generator {
	return &Generator{client: client, cfg: cfg}
}

func (g *Generator) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	return g.client.Complete(ctx, g.cfg, messages)
}

func (g *Generator) StreamComplete(ctx context.Context, messages []ChatMessage, onChunk func(string) error) (string, error) {
	return g.client.StreamComplete(ctx, g.cfg, messages, onChunk)
}
