package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chaintrack/backend/internal/metrics"
	"github.com/chaintrack/backend/internal/model"
	"github.com/chaintrack/backend/internal/sqs"
	"github.com/chaintrack/backend/internal/store"
)

// Reconciler replays failed mirror writes. It treats the ledger as the source
// of truth: every replay re-reads the current on-chain state and upserts the
// document from it, so a task processed twice converges to the same document.
type Reconciler struct {
	ledger LedgerClient
	docs   DocumentStore
}

func NewReconciler(ledgerClient LedgerClient, docs DocumentStore) *Reconciler {
	return &Reconciler{
		ledger: ledgerClient,
		docs:   docs,
	}
}

// HandleReconcileTask re-reads the ledger record named by the task and writes
// it into the document store. A returned error leaves the message on the queue
// for redelivery; the ledger does not record descriptions, so a document
// created here carries an empty one until an operator edits it.
func (r *Reconciler) HandleReconcileTask(ctx context.Context, msg sqs.ReconcileMessage) error {
	record, err := r.ledger.GetProduct(ctx, msg.LedgerID)
	if err != nil {
		return fmt.Errorf("reconcile read of ledger id %s failed: %w", msg.LedgerID, err)
	}

	doc, err := r.docs.GetByLedgerID(ctx, msg.LedgerID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		product := &model.Product{
			LedgerID:     record.ID,
			Name:         record.Name,
			Manufacturer: record.Manufacturer,
			Origin:       record.Origin,
			Status:       model.ProductStatus(record.Status),
			OwnerAddress: record.Owner,
			DataHash:     record.DataHash,
		}
		product.InitMeta()
		if _, err := r.docs.Create(ctx, product); err != nil {
			return fmt.Errorf("reconcile create of ledger id %s failed: %w", msg.LedgerID, err)
		}
	case err != nil:
		return fmt.Errorf("reconcile lookup of ledger id %s failed: %w", msg.LedgerID, err)
	default:
		partial := store.Partial{
			Name:         &record.Name,
			Manufacturer: &record.Manufacturer,
			Origin:       &record.Origin,
			OwnerAddress: &record.Owner,
			DataHash:     &record.DataHash,
		}
		// shipping statuses live only in the store; only a transfer replay
		// may overwrite them
		if msg.Action == string(model.TaskMirrorTransfer) {
			status := string(model.StatusTransferred)
			partial.Status = &status
		}
		if err := r.docs.Update(ctx, doc.DocumentID, partial); err != nil {
			return fmt.Errorf("reconcile update of ledger id %s failed: %w", msg.LedgerID, err)
		}
	}

	metrics.ReconcileTasksReplayed.Inc()
	slog.Info("Reconcile task replayed",
		slog.String("task_id", msg.TaskID),
		slog.String("action", msg.Action),
		slog.String("ledger_id", msg.LedgerID))
	return nil
}
