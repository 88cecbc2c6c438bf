package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chaintrack/backend/internal/model"
	"github.com/google/uuid"
)

const taskColumns = "id, action, ledger_id, status, attempts, created_at, processed_at"

// TaskRepository persists reconcile tasks, the durable outbox for mirror
// writes that failed after their ledger write committed.
type TaskRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewTaskRepository creates a new TaskRepository instance.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *TaskRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// WithinTransaction executes a function within a database transaction.
func (r *TaskRepository) WithinTransaction(ctx context.Context, fn func(repo *TaskRepository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txRepo := &TaskRepository{
		db:  r.db,
		txn: tx,
	}

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Create records a new reconcile task.
func (r *TaskRepository) Create(ctx context.Context, task *model.ReconcileTask) error {
	if task.ID == uuid.Nil {
		task.InitMeta()
	}

	query := `INSERT INTO reconcile_tasks (id, action, ledger_id, status, attempts, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, task.ID, task.Action, task.LedgerID, task.Status, task.Attempts, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert reconcile task: %w", err)
	}

	return nil
}

// ListPending returns up to limit pending tasks, oldest first.
func (r *TaskRepository) ListPending(ctx context.Context, limit int) ([]*model.ReconcileTask, error) {
	query := `SELECT ` + taskColumns + ` FROM reconcile_tasks WHERE status = $1 ORDER BY created_at ASC LIMIT $2`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, model.TaskStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconcile tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.ReconcileTask
	for rows.Next() {
		var task model.ReconcileTask
		err := rows.Scan(&task.ID, &task.Action, &task.LedgerID, &task.Status, &task.Attempts, &task.CreatedAt, &task.ProcessedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reconcile task: %w", err)
		}
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tasks, nil
}

// UpdateStatus transitions a task and stamps the processing time.
func (r *TaskRepository) UpdateStatus(ctx context.Context, taskID uuid.UUID, status model.TaskStatus) error {
	query := `UPDATE reconcile_tasks SET status = $1, attempts = attempts + 1, processed_at = $2 WHERE id = $3`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, status, time.Now(), taskID)
	if err != nil {
		return fmt.Errorf("failed to update reconcile task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("reconcile task %s: %w", taskID, ErrNotFound)
	}

	return nil
}
