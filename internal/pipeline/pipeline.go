package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"docuquery/internal/index"
	"docuquery/internal/model"
	"docuquery/internal/pkg/chunk"
	"docuquery/internal/pkg/extract"
)

// Embedder turns a batch of chunk texts into vectors, one logical call.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// StatusRecorder notifies the metadata store of a document's lifecycle
// transition (processing -> completed | failed).
type StatusRecorder interface {
	UpdateStatus(documentID uint, status string) error
}

// Processor runs one document through extract -> chunk -> embed -> index.
type Processor struct {
	chunker  *chunk.Chunker
	embedder Embedder
	idx      index.VectorIndex
	statuses StatusRecorder
}

func NewProcessor(chunker *chunk.Chunker, embedder Embedder, idx index.VectorIndex, statuses StatusRecorder) *Processor {
	return &Processor{
		chunker:  chunker,
		embedder: embedder,
		idx:      idx,
		statuses: statuses,
	}
}

// Process executes one ingestion run. On any failure the document is marked
// failed and no vector entries remain for it; an empty extraction result is
// terminal but successful. The temp file is removed on every exit path.
func (p *Processor) Process(ctx context.Context, job IngestJob) error {
	defer func() {
		if job.TempPath == "" {
			return
		}
		if err := os.Remove(job.TempPath); err != nil && !os.IsNotExist(err) {
			log.Printf("remove temp file %s failed: %v", job.TempPath, err)
		}
	}()

	data, err := os.ReadFile(job.TempPath)
	if err != nil {
		return p.fail(job, fmt.Errorf("read temp file failed: %w", err))
	}

	text, err := extract.Extract(data, job.Filename, job.ContentType)
	if err != nil {
		return p.fail(job, fmt.Errorf("extract text failed: %w", err))
	}

	if strings.TrimSpace(text) == "" {
		// An empty or unparsable source is a valid terminal state, not a
		// failure; retrying it would produce the same nothing.
		log.Printf("document %d: no text extracted, completing with zero chunks", job.DocumentID)
		return p.complete(job)
	}

	chunks := p.chunker.Split(text)

	vectors, err := p.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return p.fail(job, fmt.Errorf("embed chunks failed: %w", err))
	}
	if len(vectors) != len(chunks) {
		return p.fail(job, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vectors)))
	}

	entries := make([]index.Entry, len(chunks))
	for i := range chunks {
		entries[i] = index.Entry{
			ChunkID:       index.ChunkID(job.DocumentID, i),
			DocumentID:    job.DocumentID,
			CompanyID:     job.CompanyID,
			Filename:      job.Filename,
			SequenceIndex: i,
			Text:          chunks[i],
			Embedding:     vectors[i],
		}
	}

	// Clear any entries from a previous run so re-ingestion never leaves
	// stale chunks under the same document id.
	if err := p.idx.DeleteByDocument(ctx, job.DocumentID); err != nil {
		return p.fail(job, fmt.Errorf("clear previous entries failed: %w", err))
	}

	if err := p.idx.Upsert(ctx, entries); err != nil {
		// Remove anything a partial batch write may have left behind.
		if cleanupErr := p.idx.DeleteByDocument(ctx, job.DocumentID); cleanupErr != nil {
			log.Printf("document %d: cleanup after failed upsert failed: %v", job.DocumentID, cleanupErr)
		}
		return p.fail(job, fmt.Errorf("index chunks failed: %w", err))
	}

	log.Printf("document %d: indexed %d chunks", job.DocumentID, len(entries))
	return p.complete(job)
}

// Delete removes a document's vector entries. Deleting a never-ingested
// document is a no-op.
func (p *Processor) Delete(ctx context.Context, job DeleteJob) error {
	if err := p.idx.DeleteByDocument(ctx, job.DocumentID); err != nil {
		return fmt.Errorf("delete document %d vectors failed: %w", job.DocumentID, err)
	}
	return nil
}

func (p *Processor) complete(job IngestJob) error {
	if err := p.statuses.UpdateStatus(job.DocumentID, model.DocumentStatusCompleted); err != nil {
		log.Printf("document %d: record completed status failed: %v", job.DocumentID, err)
	}
	return nil
}

func (p *Processor) fail(job IngestJob, cause error) error {
	log.Printf("document %d: ingestion failed: %v", job.DocumentID, cause)
	if err := p.statuses.UpdateStatus(job.DocumentID, model.DocumentStatusFailed); err != nil {
		log.Printf("document %d: record failed status failed: %v", job.DocumentID, err)
	}
	return cause
}
