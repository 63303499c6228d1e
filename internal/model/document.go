package model

import "time"

const (
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

// Document holds an uploaded source file and its ingestion lifecycle status.
// The raw bytes are kept so a document can be downloaded or re-ingested later.
type Document struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CompanyID   uint      `gorm:"not null;index" json:"company_id"`
	Filename    string    `gorm:"size:256;not null" json:"filename"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	FileSize    int64     `json:"file_size"`
	FileData    []byte    `gorm:"type:longblob" json:"-"`
	SourceURL   string    `gorm:"size:512" json:"source_url,omitempty"`
	Status      string    `gorm:"size:16;not null;default:processing;index" json:"status"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}
