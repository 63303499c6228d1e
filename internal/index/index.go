package index

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is returned when an entry's embedding length does
	// not match the dimension the index was first written with. All entries
	// in one index share one embedding model; mixing dimensions corrupts
	// ranking and requires re-ingesting everything.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	ErrEmptyQueryVector = errors.New("query vector is empty")
)

// Entry is one indexed chunk with the metadata needed for tenant-scoped
// retrieval and per-document deletion.
type Entry struct {
	ChunkID       string
	DocumentID    uint
	CompanyID     uint
	Filename      string
	SequenceIndex int
	Text          string
	Embedding     []float32
}

// Match is a search hit with its similarity score.
type Match struct {
	Entry Entry
	Score float32
}

// VectorIndex is a tenant-partitioned store of embedded chunks. The company
// filter is part of the search contract itself: there is no way to search
// without naming a tenant, and foreign-tenant entries are excluded before
// ranking so they can never exhaust topK.
type VectorIndex interface {
	// Upsert adds or replaces all entries by ChunkID.
	Upsert(ctx context.Context, entries []Entry) error
	// Search returns at most topK entries owned by companyID, ordered by
	// cosine similarity descending.
	Search(ctx context.Context, companyID uint, vector []float32, topK int) ([]Match, error)
	// DeleteByDocument removes every entry for documentID. Deleting a
	// never-ingested document is a no-op.
	DeleteByDocument(ctx context.Context, documentID uint) error
}

// ChunkID derives the globally unique chunk identifier from the document id
// and the chunk's position within it.
func ChunkID(documentID uint, sequenceIndex int) string {
	return fmt.Sprintf("%d_%d", documentID, sequenceIndex)
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
