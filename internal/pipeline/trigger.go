package pipeline

import (
	"context"
	"fmt"
)

// Publisher delivers a JSON-encoded work item to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queueName string, task any) error
}

// Trigger is the fire-and-forget entry point for background ingestion and
// deletion: callers get an ack once the job is enqueued, the worker does the
// rest.
type Trigger struct {
	publisher   Publisher
	ingestQueue string
	deleteQueue string
}

func NewTrigger(publisher Publisher, ingestQueue, deleteQueue string) *Trigger {
	return &Trigger{
		publisher:   publisher,
		ingestQueue: ingestQueue,
		deleteQueue: deleteQueue,
	}
}

func (t *Trigger) EnqueueIngest(ctx context.Context, job IngestJob) error {
	if err := t.publisher.Publish(ctx, t.ingestQueue, job); err != nil {
		return fmt.Errorf("enqueue ingest job failed: %w", err)
	}
	return nil
}

func (t *Trigger) EnqueueDelete(ctx context.Context, job DeleteJob) error {
	if err := t.publisher.Publish(ctx, t.deleteQueue, job); err != nil {
		return fmt.Errorf("enqueue delete job failed: %w", err)
	}
	return nil
}
