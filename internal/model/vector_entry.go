package model

import (
	"encoding/json"
	"time"
)

// VectorEntry is one indexed chunk: its text, its embedding, and the
// identity metadata needed for tenant-scoped retrieval and per-document
// deletion. Embedding is stored as a JSON array of float32 for portability.
type VectorEntry struct {
	ChunkID       string    `gorm:"primaryKey;size:64" json:"chunk_id"`
	DocumentID    uint      `gorm:"not null;index" json:"document_id"`
	CompanyID     uint      `gorm:"not null;index" json:"company_id"`
	Filename      string    `gorm:"size:256" json:"filename"`
	SequenceIndex int       `gorm:"not null" json:"sequence_index"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	Embedding     string    `gorm:"type:mediumtext" json:"-"` // JSON array of float32
	CreatedAt     time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (e *VectorEntry) EmbeddingVector() []float32 {
	if e.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(e.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (e *VectorEntry) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		e.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	e.Embedding = string(b)
}
