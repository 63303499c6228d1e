package pipeline

// IngestJob is the work item for one document ingestion run. The source
// bytes sit in a temp file owned by the run; the processor removes it on
// every exit path.
type IngestJob struct {
	DocumentID  uint   `json:"document_id"`
	CompanyID   uint   `json:"company_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	TempPath    string `json:"temp_path"`
}

// DeleteJob removes every vector entry for one document. Idempotent.
type DeleteJob struct {
	DocumentID uint `json:"document_id"`
}
