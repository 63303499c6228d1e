package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docuquery/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByIDAndCompanyID(id, companyID uint) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("id = ? AND company_id = ?", id, companyID).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document failed: %w", err)
	}
	return &doc, nil
}

// ListByCompanyID returns documents without their stored file bytes.
func (r *DocumentRepository) ListByCompanyID(companyID uint) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.
		Select("id", "company_id", "filename", "content_type", "file_size", "source_url", "status", "uploaded_at").
		Where("company_id = ?", companyID).
		Order("uploaded_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) UpdateStatus(id uint, status string) error {
	err := r.db.Model(&model.Document{}).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		return fmt.Errorf("update document status failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) DeleteByIDAndCompanyID(id, companyID uint) error {
	err := r.db.Where("id = ? AND company_id = ?", id, companyID).Delete(&model.Document{}).Error
	if err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}
