package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chaintrack/backend/internal/model"
	"github.com/chaintrack/backend/internal/sqs"
)

// TaskLister is the outbox-table surface the worker polls.
type TaskLister interface {
	ListPending(ctx context.Context, limit int) ([]*model.ReconcileTask, error)
	UpdateStatus(ctx context.Context, taskID uuid.UUID, status model.TaskStatus) error
}

// TaskPublisher relays one reconcile task to the queue.
type TaskPublisher interface {
	PublishReconcileTask(ctx context.Context, msg sqs.ReconcileMessage) error
}

// OutboxWorker polls the reconcile_tasks table and relays pending tasks to SQS
type OutboxWorker struct {
	taskRepo  TaskLister
	publisher TaskPublisher
	interval  time.Duration
	stopChan  chan struct{}
}

// NewOutboxWorker creates a new OutboxWorker
func NewOutboxWorker(taskRepo TaskLister, publisher TaskPublisher, interval time.Duration) *OutboxWorker {
	return &OutboxWorker{
		taskRepo:  taskRepo,
		publisher: publisher,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start begins relaying tasks from the outbox
func (w *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker stopped by context")
			return
		case <-w.stopChan:
			slog.Info("Outbox worker stopped")
			return
		case <-ticker.C:
			w.processTasks(ctx)
		}
	}
}

// Stop stops the outbox worker
func (w *OutboxWorker) Stop() {
	close(w.stopChan)
}

// processTasks retrieves and relays pending reconcile tasks
func (w *OutboxWorker) processTasks(ctx context.Context) {
	tasks, err := w.taskRepo.ListPending(ctx, 100)
	if err != nil {
		slog.Error("Failed to retrieve pending reconcile tasks", slog.Any("err", err))
		return
	}

	if len(tasks) == 0 {
		return
	}

	slog.Info("Relaying pending reconcile tasks", slog.Int("count", len(tasks)))

	for _, task := range tasks {
		msg := sqs.ReconcileMessage{
			TaskID:   task.ID.String(),
			Action:   string(task.Action),
			LedgerID: task.LedgerID,
			Attempts: task.Attempts,
		}

		if err := w.publisher.PublishReconcileTask(ctx, msg); err != nil {
			slog.Error("Failed to relay reconcile task",
				slog.String("task_id", task.ID.String()),
				slog.String("action", string(task.Action)),
				slog.Any("err", err))

			// Mark task as failed; it stays visible for operators, and a later
			// ListPending run will not pick it up again
			if updateErr := w.taskRepo.UpdateStatus(ctx, task.ID, model.TaskStatusFailed); updateErr != nil {
				slog.Error("Failed to update reconcile task status to failed",
					slog.String("task_id", task.ID.String()),
					slog.Any("err", updateErr))
			}
		} else {
			if updateErr := w.taskRepo.UpdateStatus(ctx, task.ID, model.TaskStatusProcessed); updateErr != nil {
				slog.Error("Failed to update reconcile task status to processed",
					slog.String("task_id", task.ID.String()),
					slog.Any("err", updateErr))
			} else {
				slog.Info("Reconcile task relayed",
					slog.String("task_id", task.ID.String()),
					slog.String("action", string(task.Action)))
			}
		}
	}
}
