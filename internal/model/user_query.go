package model

import "time"

// UserQuery records one answered question for audit and history.
type UserQuery struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	CompanyID    uint      `gorm:"not null;index" json:"company_id"`
	QueryText    string    `gorm:"type:text;not null" json:"query_text"`
	ResponseText string    `gorm:"type:text" json:"response_text"`
	CreatedAt    time.Time `json:"created_at"`
}
