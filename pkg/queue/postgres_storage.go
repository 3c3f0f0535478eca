package queue

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/metafields/pkg/pg"
)

// Migrations holds the goose migrations for the queue tables.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const taskColumns = `id, queue, task_name, payload, status, priority, retry_count, max_retries,
	scheduled_at, locked_until, locked_by, processed_at, error, created_at`

// PostgresStorage implements EnqueuerRepository and WorkerRepository on
// PostgreSQL. Claims use FOR UPDATE SKIP LOCKED so several workers can poll
// the same queue.
type PostgresStorage struct {
	db           pg.DBTX
	retryBackoff time.Duration
}

// NewPostgresStorage creates a storage over db, usually a *pgxpool.Pool.
// Passing a pgx.Tx makes CreateTask part of the caller's transaction.
func NewPostgresStorage(db pg.DBTX, retryBackoff time.Duration) *PostgresStorage {
	if retryBackoff < 0 {
		retryBackoff = 0
	}
	return &PostgresStorage{db: db, retryBackoff: retryBackoff}
}

func (s *PostgresStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO queue_tasks (id, queue, task_name, payload, status, priority,
			retry_count, max_retries, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		task.ID, task.Queue, task.TaskName, task.Payload, string(task.Status), int16(task.Priority),
		int16(task.RetryCount), int16(task.MaxRetries), task.ScheduledAt, task.CreatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrTaskExists, task.ID)
	}
	return err
}

func (s *PostgresStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	now := time.Now()
	row := s.db.QueryRow(ctx, `
		UPDATE queue_tasks SET status = 'processing', locked_until = $3, locked_by = $2
		WHERE id = (
			SELECT id FROM queue_tasks
			WHERE queue = ANY($1)
			  AND ((status = 'pending' AND scheduled_at <= $4)
			    OR (status = 'processing' AND locked_until < $4))
			ORDER BY priority DESC, scheduled_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING `+taskColumns,
		queues, workerID, now.Add(lockDuration), now,
	)

	task, err := scanTask(row)
	if pg.IsNotFoundError(err) {
		return nil, ErrNoTaskToClaim
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *PostgresStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE queue_tasks
		SET status = 'completed', processed_at = now(), locked_until = NULL, locked_by = NULL
		WHERE id = $1 AND status = 'processing'`, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return nil
}

func (s *PostgresStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE queue_tasks
		SET retry_count  = retry_count + 1,
		    error        = $2,
		    locked_until = NULL,
		    locked_by    = NULL,
		    status       = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END,
		    scheduled_at = CASE WHEN retry_count + 1 >= max_retries THEN scheduled_at
		                        ELSE $3::timestamptz + ((retry_count + 1) * $4::bigint) * interval '1 microsecond' END
		WHERE id = $1 AND status = 'processing'`,
		taskID, errorMsg, time.Now(), s.retryBackoff.Microseconds())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return nil
}

func (s *PostgresStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		WITH moved AS (
			DELETE FROM queue_tasks WHERE id = $1
			RETURNING id, queue, task_name, payload, priority, coalesce(error, '') AS error, retry_count
		)
		INSERT INTO queue_tasks_dlq (id, task_id, queue, task_name, payload, priority, error, retry_count, failed_at)
		SELECT $2, id, queue, task_name, payload, priority, error, retry_count, now() FROM moved`,
		taskID, uuid.New())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return nil
}

func scanTask(row pgx.Row) (*Task, error) {
	var (
		t                             Task
		status                        string
		priority, retries, maxRetries int16
	)
	if err := row.Scan(
		&t.ID, &t.Queue, &t.TaskName, &t.Payload, &status, &priority, &retries, &maxRetries,
		&t.ScheduledAt, &t.LockedUntil, &t.LockedBy, &t.ProcessedAt, &t.Error, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	t.Status = TaskStatus(status)
	t.Priority = Priority(priority)
	t.RetryCount = int8(retries)
	t.MaxRetries = int8(maxRetries)
	return &t, nil
}
