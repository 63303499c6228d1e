package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"docuquery/internal/model"
)

// MySQL persists vector entries as rows and ranks candidates in process.
// The tenant filter is a WHERE predicate, so only the requesting company's
// rows are ever loaded for scoring.
type MySQL struct {
	db *gorm.DB

	mu        sync.Mutex
	dimension int
}

func NewMySQL(db *gorm.DB) *MySQL {
	return &MySQL{db: db}
}

func (s *MySQL) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]model.VectorEntry, len(entries))
	for i, e := range entries {
		if len(e.Embedding) == 0 {
			return fmt.Errorf("entry %s has no embedding", e.ChunkID)
		}
		if err := s.checkDimension(ctx, len(e.Embedding)); err != nil {
			return fmt.Errorf("entry %s: %w", e.ChunkID, err)
		}
		rows[i] = model.VectorEntry{
			ChunkID:       e.ChunkID,
			DocumentID:    e.DocumentID,
			CompanyID:     e.CompanyID,
			Filename:      e.Filename,
			SequenceIndex: e.SequenceIndex,
			Text:          e.Text,
		}
		rows[i].SetEmbedding(e.Embedding)
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert vector entries failed: %w", err)
	}
	return nil
}

func (s *MySQL) Search(ctx context.Context, companyID uint, vector []float32, topK int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyQueryVector
	}
	if topK <= 0 {
		return nil, nil
	}

	var rows []model.VectorEntry
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load vector entries failed: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for i := range rows {
		entry := Entry{
			ChunkID:       rows[i].ChunkID,
			DocumentID:    rows[i].DocumentID,
			CompanyID:     rows[i].CompanyID,
			Filename:      rows[i].Filename,
			SequenceIndex: rows[i].SequenceIndex,
			Text:          rows[i].Text,
			Embedding:     rows[i].EmbeddingVector(),
		}
		matches = append(matches, Match{Entry: entry, Score: cosineSimilarity(vector, entry.Embedding)})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *MySQL) DeleteByDocument(ctx context.Context, documentID uint) error {
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&model.VectorEntry{}).Error
	if err != nil {
		return fmt.Errorf("delete vector entries by document failed: %w", err)
	}
	return nil
}

// checkDimension pins the index dimension on first use, reading it from an
// existing row if the table is already populated.
func (s *MySQL) checkDimension(ctx context.Context, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension == 0 {
		var row model.VectorEntry
		err := s.db.WithContext(ctx).Select("embedding").Limit(1).Find(&row).Error
		if err != nil {
			return fmt.Errorf("read existing dimension failed: %w", err)
		}
		if stored := row.EmbeddingVector(); len(stored) > 0 {
			s.dimension = len(stored)
		}
	}
	if s.dimension == 0 {
		s.dimension = dim
		return nil
	}
	if dim != s.dimension {
		return fmt.Errorf("got dimension %d, index has %d: %w", dim, s.dimension, ErrDimensionMismatch)
	}
	return nil
}
