package classifier

import (
	"context"
	"discovery-tracker-api/internal/worker"
	"fmt"
)

// DocumentData is the slice of the document layer the queue needs: the
// extracted text going in and the verdict going back out.
type DocumentData interface {
	CleanText(ctx context.Context, documentID string) (string, error)
	SetClassification(ctx context.Context, documentID, classification string, subClassification map[string]string, label string) error
}

// Queue records a task per enqueued document and runs the classification on
// the shared worker pool. It implements the document layer's
// ClassificationQueue.
type Queue struct {
	repository Repository
	client     *Client
	documents  DocumentData
	pool       *worker.Pool
}

func NewQueue(repository Repository, client *Client, documents DocumentData, pool *worker.Pool) *Queue {
	return &Queue{
		repository: repository,
		client:     client,
		documents:  documents,
		pool:       pool,
	}
}

// Enqueue persists a QUEUED task and schedules the classification run. The
// task record survives a dropped job so the sweep can retry later.
func (q *Queue) Enqueue(ctx context.Context, documentID string) error {
	task, err := q.repository.Add(ctx, documentID)
	if err != nil {
		return err
	}

	q.pool.Submit(func(ctx context.Context) error {
		return q.process(ctx, task)
	})
	return nil
}

func (q *Queue) process(ctx context.Context, task *Task) error {
	if err := q.repository.SetStatus(ctx, task.ID, StatusProcessing, ""); err != nil {
		return err
	}

	text, err := q.documents.CleanText(ctx, task.DocumentID)
	if err != nil {
		return q.fail(ctx, task, fmt.Errorf("fetch text: %w", err))
	}
	if text == "" {
		return q.fail(ctx, task, fmt.Errorf("document %s has no extracted text", task.DocumentID))
	}

	result, err := q.client.Classify(ctx, text)
	if err != nil {
		return q.fail(ctx, task, fmt.Errorf("classify: %w", err))
	}

	if err := q.documents.SetClassification(ctx, task.DocumentID, result.Classification, result.SubFields, result.Label); err != nil {
		return q.fail(ctx, task, fmt.Errorf("store verdict: %w", err))
	}

	return q.repository.SetResult(ctx, task.ID, *result)
}

func (q *Queue) fail(ctx context.Context, task *Task, cause error) error {
	if err := q.repository.SetStatus(ctx, task.ID, StatusFailed, cause.Error()); err != nil {
		return err
	}
	return cause
}
