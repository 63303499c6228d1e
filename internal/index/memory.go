package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-memory vector index using brute-force cosine similarity.
// Safe for concurrent upserts, searches, and deletes.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if len(e.Embedding) == 0 {
			return fmt.Errorf("entry %s has no embedding", e.ChunkID)
		}
		if m.dimension == 0 {
			m.dimension = len(e.Embedding)
		}
		if len(e.Embedding) != m.dimension {
			return fmt.Errorf("entry %s has dimension %d, index has %d: %w",
				e.ChunkID, len(e.Embedding), m.dimension, ErrDimensionMismatch)
		}
	}
	for _, e := range entries {
		m.entries[e.ChunkID] = e
	}
	return nil
}

func (m *Memory) Search(ctx context.Context, companyID uint, vector []float32, topK int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyQueryVector
	}
	if topK <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// Tenant filter runs before ranking so foreign entries never compete
	// for topK slots.
	matches := make([]Match, 0, topK)
	for _, e := range m.entries {
		if e.CompanyID != companyID {
			continue
		}
		matches = append(matches, Match{Entry: e, Score: cosineSimilarity(vector, e.Embedding)})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *Memory) DeleteByDocument(ctx context.Context, documentID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.entries {
		if e.DocumentID == documentID {
			delete(m.entries, id)
		}
	}
	return nil
}

// Len reports the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
