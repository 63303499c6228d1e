package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	inputTypeDocument = "search_document"
	inputTypeQuery    = "search_query"

	defaultEmbedBatchSize = 10
)

// EmbeddingConfig holds API settings for text embedding (OpenAI-compatible).
// Providers with asymmetric embedding models distinguish stored documents
// from queries via input_type; both modes share one vector space.
type EmbeddingConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	BatchSize int
}

// EmbedQuery returns the embedding vector for a single retrieval query.
func (c *OpenAICompatibleClient) EmbedQuery(ctx context.Context, cfg EmbeddingConfig, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("embedding input is empty")
	}

	vectors, err := c.embed(ctx, cfg, []string{text}, inputTypeQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return vectors[0], nil
}

// EmbedDocuments returns embeddings for the given chunk texts in input order.
// The call sub-batches internally to respect provider batch limits, but is one
// logical operation: any sub-batch failure fails the whole call.
func (c *OpenAICompatibleClient) EmbedDocuments(ctx context.Context, cfg EmbeddingConfig, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batched, err := c.embed(ctx, cfg, texts[i:end], inputTypeDocument)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batched...)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(texts), len(vectors))
	}
	return vectors, nil
}

func (c *OpenAICompatibleClient) embed(ctx context.Context, cfg EmbeddingConfig, texts []string, inputType string) ([][]float32, error) {
	resp, err := c.post(ctx, cfg.BaseURL, "/embeddings", cfg.APIKey, map[string]interface{}{
		"model":      cfg.Model,
		"input":      texts,
		"input_type": inputType,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding json failed: %w", err)
	}
	result := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		result[i] = parsed.Data[i].Embedding
	}
	return result, nil
}
