package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Worker consumes ingest and delete jobs from their queues and runs them
// through the Processor. Jobs for different documents run independently.
type Worker struct {
	conn        *amqp.Connection
	processor   *Processor
	ingestQueue string
	deleteQueue string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(conn *amqp.Connection, processor *Processor, ingestQueue, deleteQueue string) *Worker {
	return &Worker{
		conn:        conn,
		processor:   processor,
		ingestQueue: ingestQueue,
		deleteQueue: deleteQueue,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	if err := w.consume(workerCtx, w.ingestQueue, w.handleIngest); err != nil {
		cancel()
		return err
	}
	if err := w.consume(workerCtx, w.deleteQueue, w.handleDelete); err != nil {
		cancel()
		return err
	}
	return nil
}

func (w *Worker) consume(ctx context.Context, queueName string, handle func(context.Context, []byte) error) error {
	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := handle(ctx, d.Body); err != nil {
					log.Printf("worker handle %s job failed: %v", queueName, err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *Worker) handleIngest(ctx context.Context, body []byte) error {
	var job IngestJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("decode ingest job failed: %w", err)
	}
	return w.processor.Process(ctx, job)
}

func (w *Worker) handleDelete(ctx context.Context, body []byte) error {
	var job DeleteJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("decode delete job failed: %w", err)
	}
	return w.processor.Delete(ctx, job)
}

func (w *Worker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
