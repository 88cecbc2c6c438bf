package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of a reconcile task in the outbox table.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has been recorded but not yet relayed
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusProcessed indicates the task has been relayed to the queue
	TaskStatusProcessed TaskStatus = "processed"
	// TaskStatusFailed indicates relaying the task has failed
	TaskStatusFailed TaskStatus = "failed"
)

// TaskAction names the mirror write that failed and has to be replayed.
type TaskAction string

const (
	// TaskMirrorCreate replays the document write of a registered product.
	TaskMirrorCreate TaskAction = "mirror_create"
	// TaskMirrorTransfer replays the owner/status update after a transfer.
	TaskMirrorTransfer TaskAction = "mirror_transfer"
	// TaskMirrorUpdate replays the field/hash update after an edit.
	TaskMirrorUpdate TaskAction = "mirror_update"
)

// ReconcileTask is a durable record of a document-store write that failed after
// the corresponding ledger write had already committed. Tasks carry only the
// ledger id; the worker re-reads the authoritative ledger state on replay, so
// processing a task twice is harmless.
type ReconcileTask struct {
	ID          uuid.UUID
	Action      TaskAction
	LedgerID    string
	Status      TaskStatus
	Attempts    int
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// InitMeta initializes the task metadata including ID and timestamps.
func (t *ReconcileTask) InitMeta() {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
}
