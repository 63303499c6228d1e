package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embedRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	InputType string   `json:"input_type"`
}

// embedServer echoes one vector per input, [len(text)], so tests can verify
// text-to-vector order across sub-batches.
type embedServer struct {
	mu       sync.Mutex
	requests []embedRequest
	auth     []string
	failFrom int
}

func (s *embedServer) handler(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.auth = append(s.auth, r.Header.Get("Authorization"))
	n := len(s.requests)
	s.mu.Unlock()

	if s.failFrom > 0 && n >= s.failFrom {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
		return
	}

	type item struct {
		Embedding []float32 `json:"embedding"`
	}
	data := make([]item, len(req.Input))
	for i, text := range req.Input {
		data[i] = item{Embedding: []float32{float32(len(text))}}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func newEmbedFixture(t *testing.T, failFrom int) (*embedServer, EmbeddingConfig) {
	t.Helper()
	srv := &embedServer{failFrom: failFrom}
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	t.Cleanup(ts.Close)

	return srv, EmbeddingConfig{
		BaseURL:   ts.URL,
		APIKey:    "test-key",
		Model:     "embed-v3",
		BatchSize: 10,
	}
}

func TestEmbedDocumentsSubBatchesInOrder(t *testing.T) {
	srv, cfg := newEmbedFixture(t, 0)
	client := NewOpenAICompatibleClient()

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %03d padded to length %03d", i, i)
	}

	vectors, err := client.EmbedDocuments(context.Background(), cfg, texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	// One vector per text, in input order.
	for i, text := range texts {
		require.Len(t, vectors[i], 1)
		assert.Equal(t, float32(len(text)), vectors[i][0], "vector %d out of order", i)
	}

	require.Len(t, srv.requests, 3)
	assert.Len(t, srv.requests[0].Input, 10)
	assert.Len(t, srv.requests[1].Input, 10)
	assert.Len(t, srv.requests[2].Input, 5)
	for _, req := range srv.requests {
		assert.Equal(t, "search_document", req.InputType)
		assert.Equal(t, "embed-v3", req.Model)
	}
	for _, auth := range srv.auth {
		assert.Equal(t, "Bearer test-key", auth)
	}
}

func TestEmbedDocumentsMidBatchFailureAborts(t *testing.T) {
	srv, cfg := newEmbedFixture(t, 2)
	client := NewOpenAICompatibleClient()

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}

	vectors, err := client.EmbedDocuments(context.Background(), cfg, texts)
	require.Error(t, err)
	assert.Nil(t, vectors)
	assert.Len(t, srv.requests, 2, "remaining sub-batches are not sent")
}

func TestEmbedDocumentsEmptyInput(t *testing.T) {
	srv, cfg := newEmbedFixture(t, 0)
	client := NewOpenAICompatibleClient()

	vectors, err := client.EmbedDocuments(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Empty(t, srv.requests)
}

func TestEmbedQueryUsesQueryInputType(t *testing.T) {
	srv, cfg := newEmbedFixture(t, 0)
	client := NewOpenAICompatibleClient()

	vector, err := client.EmbedQuery(context.Background(), cfg, "  how many vacation days?  ")
	require.NoError(t, err)

	require.Len(t, srv.requests, 1)
	assert.Equal(t, "search_query", srv.requests[0].InputType)
	assert.Equal(t, []string{"how many vacation days?"}, srv.requests[0].Input)
	assert.Equal(t, []float32{float32(len("how many vacation days?"))}, vector)
}

func TestEmbedQueryEmptyInput(t *testing.T) {
	srv, cfg := newEmbedFixture(t, 0)
	client := NewOpenAICompatibleClient()

	_, err := client.EmbedQuery(context.Background(), cfg, "   ")
	require.Error(t, err)
	assert.Empty(t, srv.requests)
}

func TestEmbedDocumentsCountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"embedding":[1.0]}]}`)
	}))
	t.Cleanup(ts.Close)

	client := NewOpenAICompatibleClient()
	cfg := EmbeddingConfig{BaseURL: ts.URL, Model: "embed-v3", BatchSize: 10}

	_, err := client.EmbedDocuments(context.Background(), cfg, []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}
