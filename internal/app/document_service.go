package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docuquery/internal/cache"
	"docuquery/internal/model"
	"docuquery/internal/pipeline"
	"docuquery/internal/repository"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrEmptyFile        = errors.New("file is empty")
	ErrFileTooLarge     = errors.New("file too large")
	ErrFetchURL         = errors.New("fetch url failed")
	ErrIngestEnqueue    = errors.New("ingestion could not be scheduled")
)

type DocumentService struct {
	docRepo     *repository.DocumentRepository
	trigger     *pipeline.Trigger
	answerCache *cache.AnswerCache
	httpClient  *http.Client
	tempDir     string
	maxUpload   int64
}

type UploadInput struct {
	CompanyID   uint
	Filename    string
	ContentType string
	Data        []byte
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	trigger *pipeline.Trigger,
	answerCache *cache.AnswerCache,
	tempDir string,
	maxUpload int64,
) *DocumentService {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &DocumentService{
		docRepo:     docRepo,
		trigger:     trigger,
		answerCache: answerCache,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		tempDir:     tempDir,
		maxUpload:   maxUpload,
	}
}

// Upload accepts document bytes, records the document as processing, and
// schedules the asynchronous ingestion run. It returns as soon as the job is
// enqueued; callers learn the outcome through the document status.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*model.Document, error) {
	if input.CompanyID == 0 || strings.TrimSpace(input.Filename) == "" {
		return nil, ErrInvalidInput
	}
	if len(input.Data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(input.Data)) > s.maxUpload {
		return nil, ErrFileTooLarge
	}

	doc := &model.Document{
		CompanyID:   input.CompanyID,
		Filename:    input.Filename,
		ContentType: input.ContentType,
		FileSize:    int64(len(input.Data)),
		FileData:    input.Data,
		Status:      model.DocumentStatusProcessing,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	if err := s.enqueueIngest(ctx, doc, input.Data); err != nil {
		return nil, err
	}

	s.invalidateAnswers(ctx, input.CompanyID)
	return doc, nil
}

// UploadURL fetches a document from the given URL and ingests it like an
// uploaded file. The filename is derived from the URL path.
func (s *DocumentService) UploadURL(ctx context.Context, companyID uint, rawURL string) (*model.Document, error) {
	if companyID == 0 || strings.TrimSpace(rawURL) == "" {
		return nil, ErrInvalidInput
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, ErrInvalidInput
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchURL, err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrFetchURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchURL, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.maxUpload {
		return nil, ErrFileTooLarge
	}

	filename := path.Base(parsed.Path)
	if filename == "" || filename == "/" || filename == "." {
		filename = "url_doc_" + uuid.NewString()
	}

	doc := &model.Document{
		CompanyID:   companyID,
		Filename:    filename,
		ContentType: resp.Header.Get("Content-Type"),
		FileSize:    int64(len(data)),
		FileData:    data,
		SourceURL:   rawURL,
		Status:      model.DocumentStatusProcessing,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	if err := s.enqueueIngest(ctx, doc, data); err != nil {
		return nil, err
	}

	s.invalidateAnswers(ctx, companyID)
	return doc, nil
}

func (s *DocumentService) List(companyID uint) ([]model.Document, error) {
	if companyID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docRepo.ListByCompanyID(companyID)
}

// Download returns the document including its stored bytes.
func (s *DocumentService) Download(companyID, documentID uint) (*model.Document, error) {
	if companyID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndCompanyID(documentID, companyID)
	if err != nil {
		return nil, err
	}
	if doc == nil || len(doc.FileData) == 0 {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// Delete removes the document row and schedules removal of its vector
// entries. The vector deletion is idempotent, so retried jobs are harmless.
func (s *DocumentService) Delete(ctx context.Context, companyID, documentID uint) error {
	if companyID == 0 || documentID == 0 {
		return ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndCompanyID(documentID, companyID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := s.docRepo.DeleteByIDAndCompanyID(documentID, companyID); err != nil {
		return err
	}
	if err := s.trigger.EnqueueDelete(ctx, pipeline.DeleteJob{DocumentID: documentID}); err != nil {
		return err
	}

	s.invalidateAnswers(ctx, companyID)
	return nil
}

// Reingest re-runs the ingestion pipeline from the stored bytes, for
// documents that failed or whose parsing has since improved. The run itself
// clears any previous entries before indexing.
func (s *DocumentService) Reingest(ctx context.Context, companyID, documentID uint) (*model.Document, error) {
	if companyID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndCompanyID(documentID, companyID)
	if err != nil {
		return nil, err
	}
	if doc == nil || len(doc.FileData) == 0 {
		return nil, ErrDocumentNotFound
	}

	if err := s.docRepo.UpdateStatus(doc.ID, model.DocumentStatusProcessing); err != nil {
		return nil, err
	}
	doc.Status = model.DocumentStatusProcessing

	if err := s.enqueueIngest(ctx, doc, doc.FileData); err != nil {
		return nil, err
	}

	s.invalidateAnswers(ctx, companyID)
	return doc, nil
}

func (s *DocumentService) enqueueIngest(ctx context.Context, doc *model.Document, data []byte) error {
	tempPath, err := s.writeTemp(doc.ID, doc.Filename, data)
	if err != nil {
		s.markFailed(doc.ID)
		return err
	}

	job := pipeline.IngestJob{
		DocumentID:  doc.ID,
		CompanyID:   doc.CompanyID,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		TempPath:    tempPath,
	}
	if err := s.trigger.EnqueueIngest(ctx, job); err != nil {
		_ = os.Remove(tempPath)
		s.markFailed(doc.ID)
		return fmt.Errorf("%w: %v", ErrIngestEnqueue, err)
	}
	return nil
}

func (s *DocumentService) writeTemp(documentID uint, filename string, data []byte) (string, error) {
	safeName := strings.ReplaceAll(filepath.Base(filename), string(os.PathSeparator), "_")
	tempPath := filepath.Join(s.tempDir, fmt.Sprintf("doc_%d_%s_%s", documentID, uuid.NewString(), safeName))
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write temp file failed: %w", err)
	}
	return tempPath, nil
}

func (s *DocumentService) markFailed(documentID uint) {
	if err := s.docRepo.UpdateStatus(documentID, model.DocumentStatusFailed); err != nil {
		log.Printf("document %d: record failed status failed: %v", documentID, err)
	}
}

func (s *DocumentService) invalidateAnswers(ctx context.Context, companyID uint) {
	if s.answerCache == nil {
		return
	}
	if err := s.answerCache.InvalidateCompany(ctx, companyID); err != nil {
		log.Printf("invalidate answer cache for company %d failed: %v", companyID, err)
	}
}
