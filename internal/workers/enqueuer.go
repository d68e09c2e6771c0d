// internal/workers/enqueuer.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// TaskClient is the part of *asynq.Client the enqueuer uses
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer publishes background tasks through asynq
type Enqueuer struct {
	client TaskClient
	logger *slog.Logger
}

var _ ports.TaskEnqueuer = (*Enqueuer)(nil)

// NewEnqueuer creates an enqueuer on client
func NewEnqueuer(client TaskClient, logger *slog.Logger) *Enqueuer {
	return &Enqueuer{
		client: client,
		logger: logger.With(slog.String("component", "enqueuer")),
	}
}

// EnqueueSaleCommitted schedules the follow-up for sale. A duplicate task
// id means the follow-up is already queued and is not an error.
func (e *Enqueuer) EnqueueSaleCommitted(ctx context.Context, sale *domain.Sale) error {
	task, err := NewSaleCommittedTask(sale)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task)
}

// EnqueueDailyReport schedules the spreadsheet for day
func (e *Enqueuer) EnqueueDailyReport(ctx context.Context, day string) error {
	task, err := NewDailyReportTask(day)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task)
}

func (e *Enqueuer) enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			e.logger.DebugContext(ctx, "task already queued", slog.String("type", task.Type()))
			return nil
		}
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}

	e.logger.DebugContext(ctx, "task enqueued",
		slog.String("type", task.Type()),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))
	return nil
}
