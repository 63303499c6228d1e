package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuquery/internal/index"
	"docuquery/internal/model"
	"docuquery/internal/pkg/chunk"
)

type fakeEmbedder struct {
	fail  bool
	calls int
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embedding provider rate limited")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), float32(i), 1}
	}
	return vectors, nil
}

type fakeStatuses struct {
	mu       sync.Mutex
	statuses map[uint][]string
}

func newFakeStatuses() *fakeStatuses {
	return &fakeStatuses{statuses: make(map[uint][]string)}
}

func (f *fakeStatuses) UpdateStatus(documentID uint, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[documentID] = append(f.statuses[documentID], status)
	return nil
}

func (f *fakeStatuses) last(documentID uint) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	transitions := f.statuses[documentID]
	if len(transitions) == 0 {
		return ""
	}
	return transitions[len(transitions)-1]
}

type failingIndex struct {
	index.VectorIndex
	failUpsert bool
	deletes    int
}

func (f *failingIndex) Upsert(ctx context.Context, entries []index.Entry) error {
	if f.failUpsert {
		return errors.New("store unavailable")
	}
	return f.VectorIndex.Upsert(ctx, entries)
}

func (f *failingIndex) DeleteByDocument(ctx context.Context, documentID uint) error {
	f.deletes++
	return f.VectorIndex.DeleteByDocument(ctx, documentID)
}

func writeTempDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestChunker(t *testing.T) *chunk.Chunker {
	t.Helper()
	c, err := chunk.New(40, 8)
	require.NoError(t, err)
	return c
}

func TestProcessIndexesAllChunks(t *testing.T) {
	ctx := context.Background()
	chunker := newTestChunker(t)
	mem := index.NewMemory()
	statuses := newFakeStatuses()
	p := NewProcessor(chunker, &fakeEmbedder{}, mem, statuses)

	text := "Alpha section about vacations.\n\nBeta section about remote work.\n\nGamma section about equipment policy."
	expected := chunker.Split(text)
	require.GreaterOrEqual(t, len(expected), 3)

	tempPath := writeTempDoc(t, "policy.txt", text)
	job := IngestJob{DocumentID: 11, CompanyID: 3, Filename: "policy.txt", ContentType: "text/plain", TempPath: tempPath}

	require.NoError(t, p.Process(ctx, job))

	assert.Equal(t, model.DocumentStatusCompleted, statuses.last(11))
	assert.Equal(t, len(expected), mem.Len())

	// Every entry carries the tenant, the document, and a contiguous
	// sequence index with a distinct chunk id.
	matches, err := mem.Search(ctx, 3, []float32{1, 0, 1}, 100)
	require.NoError(t, err)
	require.Len(t, matches, len(expected))

	seen := make(map[string]bool)
	bySeq := make(map[int]string)
	for _, m := range matches {
		e := m.Entry
		assert.Equal(t, uint(11), e.DocumentID)
		assert.Equal(t, uint(3), e.CompanyID)
		assert.Equal(t, index.ChunkID(11, e.SequenceIndex), e.ChunkID)
		assert.False(t, seen[e.ChunkID], "duplicate chunk id %s", e.ChunkID)
		seen[e.ChunkID] = true
		bySeq[e.SequenceIndex] = e.Text
	}
	for i, want := range expected {
		assert.Equal(t, want, bySeq[i], "chunk %d content", i)
	}

	_, statErr := os.Stat(tempPath)
	assert.True(t, os.IsNotExist(statErr), "temp file should be removed")
}

func TestProcessEmptyTextCompletesWithoutEntries(t *testing.T) {
	ctx := context.Background()
	mem := index.NewMemory()
	statuses := newFakeStatuses()
	embedder := &fakeEmbedder{}
	p := NewProcessor(newTestChunker(t), embedder, mem, statuses)

	tempPath := writeTempDoc(t, "blank.txt", "   \n\t  ")
	job := IngestJob{DocumentID: 5, CompanyID: 1, Filename: "blank.txt", TempPath: tempPath}

	require.NoError(t, p.Process(ctx, job))

	assert.Equal(t, model.DocumentStatusCompleted, statuses.last(5))
	assert.Equal(t, 0, mem.Len())
	assert.Equal(t, 0, embedder.calls)

	_, statErr := os.Stat(tempPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestProcessEmbedFailureLeavesNoEntries(t *testing.T) {
	ctx := context.Background()
	mem := index.NewMemory()
	statuses := newFakeStatuses()
	p := NewProcessor(newTestChunker(t), &fakeEmbedder{fail: true}, mem, statuses)

	tempPath := writeTempDoc(t, "doc.txt", "Some content that would have produced chunks for the index.")
	job := IngestJob{DocumentID: 7, CompanyID: 2, Filename: "doc.txt", TempPath: tempPath}

	err := p.Process(ctx, job)
	require.Error(t, err)

	assert.Equal(t, model.DocumentStatusFailed, statuses.last(7))
	assert.Equal(t, 0, mem.Len())

	_, statErr := os.Stat(tempPath)
	assert.True(t, os.IsNotExist(statErr), "temp file removed on failure path too")
}

func TestProcessUpsertFailureCleansUp(t *testing.T) {
	ctx := context.Background()
	idx := &failingIndex{VectorIndex: index.NewMemory(), failUpsert: true}
	statuses := newFakeStatuses()
	p := NewProcessor(newTestChunker(t), &fakeEmbedder{}, idx, statuses)

	tempPath := writeTempDoc(t, "doc.txt", "Content long enough to chunk and embed before the store fails.")
	job := IngestJob{DocumentID: 9, CompanyID: 2, Filename: "doc.txt", TempPath: tempPath}

	err := p.Process(ctx, job)
	require.Error(t, err)

	assert.Equal(t, model.DocumentStatusFailed, statuses.last(9))
	assert.GreaterOrEqual(t, idx.deletes, 1, "cleanup delete should run after failed upsert")
}

func TestProcessMissingTempFileFails(t *testing.T) {
	ctx := context.Background()
	statuses := newFakeStatuses()
	p := NewProcessor(newTestChunker(t), &fakeEmbedder{}, index.NewMemory(), statuses)

	job := IngestJob{DocumentID: 4, CompanyID: 1, Filename: "gone.txt", TempPath: filepath.Join(t.TempDir(), "missing")}
	require.Error(t, p.Process(ctx, job))
	assert.Equal(t, model.DocumentStatusFailed, statuses.last(4))
}

func TestReingestReplacesPreviousEntries(t *testing.T) {
	ctx := context.Background()
	chunker := newTestChunker(t)
	mem := index.NewMemory()
	statuses := newFakeStatuses()
	p := NewProcessor(chunker, &fakeEmbedder{}, mem, statuses)

	long := "First version of the document.\n\nIt has several paragraphs.\n\nEnough to produce multiple chunks for the index."
	job := IngestJob{DocumentID: 20, CompanyID: 6, Filename: "v.txt", TempPath: writeTempDoc(t, "v1.txt", long)}
	require.NoError(t, p.Process(ctx, job))
	require.Equal(t, len(chunker.Split(long)), mem.Len())

	short := "Second version, much shorter."
	job.TempPath = writeTempDoc(t, "v2.txt", short)
	require.NoError(t, p.Process(ctx, job))

	// No stale chunks from the longer first version remain.
	assert.Equal(t, len(chunker.Split(short)), mem.Len())
}

func TestDeleteJobIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := index.NewMemory()
	p := NewProcessor(newTestChunker(t), &fakeEmbedder{}, mem, newFakeStatuses())

	require.NoError(t, mem.Upsert(ctx, []index.Entry{{
		ChunkID:    index.ChunkID(30, 0),
		DocumentID: 30,
		CompanyID:  1,
		Text:       "to be deleted",
		Embedding:  []float32{1},
	}}))

	require.NoError(t, p.Delete(ctx, DeleteJob{DocumentID: 30}))
	assert.Equal(t, 0, mem.Len())
	require.NoError(t, p.Delete(ctx, DeleteJob{DocumentID: 30}))
	require.NoError(t, p.Delete(ctx, DeleteJob{DocumentID: 12345}))
}

type enqueueRecorder struct {
	mu    sync.Mutex
	tasks map[string][]any
}

func (r *enqueueRecorder) Publish(ctx context.Context, queueName string, task any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tasks == nil {
		r.tasks = make(map[string][]any)
	}
	r.tasks[queueName] = append(r.tasks[queueName], task)
	return nil
}

func TestTriggerRoutesJobsToQueues(t *testing.T) {
	rec := &enqueueRecorder{}
	trigger := NewTrigger(rec, "q.ingest", "q.delete")

	require.NoError(t, trigger.EnqueueIngest(context.Background(), IngestJob{DocumentID: 1}))
	require.NoError(t, trigger.EnqueueDelete(context.Background(), DeleteJob{DocumentID: 2}))

	require.Len(t, rec.tasks["q.ingest"], 1)
	require.Len(t, rec.tasks["q.delete"], 1)
	assert.Equal(t, IngestJob{DocumentID: 1}, rec.tasks["q.ingest"][0])
	assert.Equal(t, DeleteJob{DocumentID: 2}, rec.tasks["q.delete"][0])
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, queueName string, task any) error {
	return fmt.Errorf("broker down")
}

func TestTriggerPropagatesPublishError(t *testing.T) {
	trigger := NewTrigger(failingPublisher{}, "q.ingest", "q.delete")
	assert.Error(t, trigger.EnqueueIngest(context.Background(), IngestJob{DocumentID: 1}))
	assert.Error(t, trigger.EnqueueDelete(context.Background(), DeleteJob{DocumentID: 1}))
}
