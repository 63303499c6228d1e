package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docuquery/internal/model"
)

type UserQueryRepository struct {
	db *gorm.DB
}

func NewUserQueryRepository(db *gorm.DB) *UserQueryRepository {
	return &UserQueryRepository{db: db}
}

func (r *UserQueryRepository) Create(q *model.UserQuery) error {
	if err := r.db.Create(q).Error; err != nil {
		return fmt.Errorf("create user query failed: %w", err)
	}
	return nil
}

func (r *UserQueryRepository) ListByUserID(userID uint, limit int) ([]model.UserQuery, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var queries []model.UserQuery
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&queries).Error
	if err != nil {
		return nil, fmt.Errorf("list user queries failed: %w", err)
	}
	return queries, nil
}
