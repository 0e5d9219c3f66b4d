package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mhutter/taskmill/internal/engine"
	"github.com/mhutter/taskmill/internal/platform/logger"
	"github.com/mhutter/taskmill/internal/store"
)

// maxSummaryLen caps the result and error summaries written to the activity
// record so a pathological error string cannot bloat the table.
const maxSummaryLen = 1000

// TaskQueueStore implements the engine.TaskQueue and
// engine.StaleClaimReleaser interfaces on PostgreSQL.
type TaskQueueStore struct {
	db store.DBTX

	// sqlDB is the root handle used to open transactions. It is nil for a
	// store returned by WithTx, whose queries already run inside one.
	sqlDB *sql.DB
}

// NewTaskQueueStore creates a TaskQueueStore on the given database handle.
func NewTaskQueueStore(db *sql.DB) *TaskQueueStore {
	return &TaskQueueStore{db: db, sqlDB: db}
}

// WithTx returns a store bound to the given transaction. Queries issued
// through the returned store run inside tx; committing or rolling back
// remains the caller's responsibility.
func (s *TaskQueueStore) WithTx(tx *sql.Tx) *TaskQueueStore {
	return &TaskQueueStore{db: tx}
}

// Enqueue makes a task visible to workers. It is the submission primitive
// used by hosts; the engine itself never enqueues.
func (s *TaskQueueStore) Enqueue(ctx context.Context, task *engine.Task) error {
	log := logger.FromContext(ctx)

	enqueuedAt := task.EnqueuedAt
	if enqueuedAt.IsZero() {
		enqueuedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tasks (id, type, subject, submitter, payload, enqueued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Type,
		task.Subject,
		nullString(task.Submitter),
		task.Payload,
		enqueuedAt,
	)
	if err != nil {
		log.Error("failed to enqueue task",
			"task_id", task.ID,
			"task_type", task.Type,
			"error", err)
		return fmt.Errorf("failed to enqueue task: %w", MapError(err))
	}

	return nil
}

// Peek atomically claims the oldest unclaimed task for the calling worker.
// FOR UPDATE SKIP LOCKED makes the claim exclusive under concurrent callers:
// a row being claimed by one worker is invisible to the inner select of
// every other worker.
func (s *TaskQueueStore) Peek(ctx context.Context, identity engine.WorkerIdentity) (*engine.Task, error) {
	query := `
		UPDATE tasks
		SET claimed_by = $1, claimed_at = now()
		WHERE id = (
			SELECT id FROM tasks
			WHERE claimed_by IS NULL
			ORDER BY enqueued_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, type, subject, submitter, payload, enqueued_at, claimed_by
	`

	var (
		task      engine.Task
		submitter sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, identity.UUID).Scan(
		&task.ID,
		&task.Type,
		&task.Subject,
		&submitter,
		&task.Payload,
		&task.EnqueuedAt,
		&task.ClaimedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim task: %w", MapError(err))
	}

	task.Submitter = submitter.String
	return &task, nil
}

// Remove finalizes a claimed task: inside one transaction it writes the
// activity record and deletes the pending row. The activity record is
// durable before Remove returns. Removing a task that has already been
// finalized, or whose claim has been released and re-assigned to another
// worker, is a no-op.
func (s *TaskQueueStore) Remove(
	ctx context.Context,
	task *engine.Task,
	status engine.Status,
	result *engine.TaskResult,
	taskErr error,
) error {
	resultSummary := ""
	if result != nil {
		resultSummary = truncate(result.Summary, maxSummaryLen)
	}
	errorSummary := ""
	if taskErr != nil {
		errorSummary = truncate(taskErr.Error(), maxSummaryLen)
	}

	if s.sqlDB == nil {
		// Already bound to a transaction via WithTx.
		return s.finalize(ctx, task, status, resultSummary, errorSummary)
	}

	return store.RunInTransaction(ctx, s.sqlDB, func(ctx context.Context, tx *sql.Tx) error {
		return s.WithTx(tx).finalize(ctx, task, status, resultSummary, errorSummary)
	})
}

// finalize deletes the pending row and writes the activity record through
// s.db. The delete is guarded by the claimant so a worker whose claim was
// released by the cleanup sweep cannot finalize the task out from under the
// worker that re-claimed it.
func (s *TaskQueueStore) finalize(
	ctx context.Context,
	task *engine.Task,
	status engine.Status,
	resultSummary, errorSummary string,
) error {
	log := logger.FromContext(ctx)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND claimed_by = $2`,
		task.ID, task.ClaimedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to remove task from pending set: %w", MapError(err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Already finalized, or released and re-claimed by another
		// worker; do not write a second activity record.
		log.Warn("task no longer held under this claim, skipping activity record",
			"task_id", task.ID,
			"claimed_by", task.ClaimedBy)
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO task_activity
			(id, task_id, task_type, subject, submitter, status,
			 result_summary, error_summary, enqueued_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.New(),
		task.ID,
		task.Type,
		task.Subject,
		nullString(task.Submitter),
		string(status),
		nullString(resultSummary),
		nullString(errorSummary),
		task.EnqueuedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write activity record: %w", MapError(err))
	}

	return nil
}

// ReleaseStaleClaims returns tasks claimed longer ago than olderThan to the
// pending set. It backs the periodic cleanup sweep that recovers tasks
// orphaned by a crashed worker.
func (s *TaskQueueStore) ReleaseStaleClaims(ctx context.Context, olderThan time.Duration) (int, error) {
	query := `
		UPDATE tasks
		SET claimed_by = NULL, claimed_at = NULL
		WHERE claimed_by IS NOT NULL AND claimed_at < $1
	`
	res, err := s.db.ExecContext(ctx, query, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to release stale claims: %w", MapError(err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

// PendingCount returns the number of unclaimed tasks.
func (s *TaskQueueStore) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE claimed_by IS NULL`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending tasks: %w", err)
	}
	return count, nil
}

// ActivityForTask returns the activity records written for a task, oldest
// first.
func (s *TaskQueueStore) ActivityForTask(ctx context.Context, taskID uuid.UUID) ([]engine.ActivityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, task_type, subject, submitter, status,
		       result_summary, error_summary, enqueued_at, finished_at
		FROM task_activity
		WHERE task_id = $1
		ORDER BY finished_at ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []engine.ActivityRecord
	for rows.Next() {
		var (
			record        engine.ActivityRecord
			submitter     sql.NullString
			resultSummary sql.NullString
			errorSummary  sql.NullString
			status        string
		)
		if err := rows.Scan(
			&record.ID,
			&record.TaskID,
			&record.TaskType,
			&record.Subject,
			&submitter,
			&status,
			&resultSummary,
			&errorSummary,
			&record.EnqueuedAt,
			&record.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		record.Submitter = submitter.String
		record.ResultSummary = resultSummary.String
		record.ErrorSummary = errorSummary.String
		record.Status = engine.Status(status)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return records, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
