package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/chaintrack/backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskRows = []string{"id", "action", "ledger_id", "status", "attempts", "created_at", "processed_at"}

func TestTaskRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepository(db)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		task := &model.ReconcileTask{
			Action:   model.TaskMirrorCreate,
			LedgerID: "1",
		}

		mock.ExpectPrepare("INSERT INTO reconcile_tasks").
			ExpectExec().
			WithArgs(sqlmock.AnyArg(), string(model.TaskMirrorCreate), "1",
				string(model.TaskStatusPending), 0, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Create(ctx, task)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, model.TaskStatusPending, task.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTaskRepository_ListPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepository(db)
	ctx := context.Background()

	t.Run("returns pending tasks oldest first", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows(taskRows).
			AddRow(uuid.New(), "mirror_create", "1", "pending", 0, now.Add(-time.Hour), nil).
			AddRow(uuid.New(), "mirror_transfer", "2", "pending", 1, now, nil)

		mock.ExpectPrepare("SELECT (.+) FROM reconcile_tasks WHERE status = \\$1 ORDER BY created_at ASC LIMIT \\$2").
			ExpectQuery().
			WithArgs(string(model.TaskStatusPending), 100).
			WillReturnRows(rows)

		tasks, err := repo.ListPending(ctx, 100)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, model.TaskMirrorCreate, tasks[0].Action)
		assert.Equal(t, "2", tasks[1].LedgerID)
		assert.Nil(t, tasks[0].ProcessedAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTaskRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepository(db)
	ctx := context.Background()
	taskID := uuid.New()

	t.Run("marks processed and bumps attempts", func(t *testing.T) {
		mock.ExpectPrepare("UPDATE reconcile_tasks SET status = \\$1, attempts = attempts \\+ 1, processed_at = \\$2 WHERE id = \\$3").
			ExpectExec().
			WithArgs(string(model.TaskStatusProcessed), sqlmock.AnyArg(), taskID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, taskID, model.TaskStatusProcessed)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing task", func(t *testing.T) {
		mock.ExpectPrepare("UPDATE reconcile_tasks SET").
			ExpectExec().
			WithArgs(string(model.TaskStatusFailed), sqlmock.AnyArg(), taskID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(ctx, taskID, model.TaskStatusFailed)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTaskRepository_WithinTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTaskRepository(db)
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectPrepare("INSERT INTO reconcile_tasks").
			ExpectExec().
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.WithinTransaction(ctx, func(txRepo *TaskRepository) error {
			return txRepo.Create(ctx, &model.ReconcileTask{Action: model.TaskMirrorUpdate, LedgerID: "5"})
		})
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		wantErr := errors.New("boom")
		err := repo.WithinTransaction(ctx, func(txRepo *TaskRepository) error {
			return wantErr
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, wantErr)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
