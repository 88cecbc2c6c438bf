package service

import "context"

// ProcessTasks exposes one outbox poll cycle for testing.
func (w *OutboxWorker) ProcessTasks(ctx context.Context) {
	w.processTasks(ctx)
}
