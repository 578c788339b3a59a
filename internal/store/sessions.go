package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/p-blackswan/kanban-board/internal/models"
)

// SessionMutator receives the task and its current session (nil when none
// exists yet) and returns the session to persist. Changes it makes to the
// task are written in the same transaction.
type SessionMutator func(task *models.Task, sess *models.QASession) (*models.QASession, error)

func getSession(ctx context.Context, q queryer, taskID string) (*models.QASession, error) {
	sess := &models.QASession{}
	var answers string
	var startedAt, updatedAt int64
	var completedAt sql.NullInt64

	err := q.QueryRowContext(ctx, `
	SELECT id, task_id, category, status, current_step, progress, answers,
	       started_at, completed_at, updated_at
	FROM qa_sessions WHERE task_id = ?
	`, taskID).Scan(
		&sess.ID, &sess.TaskID, &sess.Category, &sess.Status, &sess.CurrentStep, &sess.Progress,
		&answers, &startedAt, &completedAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get qa session: %w", err)
	}

	if err := json.Unmarshal([]byte(answers), &sess.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode session answers: %w", err)
	}
	if sess.Answers == nil {
		sess.Answers = []models.SessionAnswer{}
	}
	sess.StartedAt = fromMs(startedAt)
	sess.CompletedAt = fromNullMs(completedAt)
	sess.UpdatedAt = fromMs(updatedAt)
	return sess, nil
}

func writeSession(ctx context.Context, q queryer, sess *models.QASession) error {
	if sess.Answers == nil {
		sess.Answers = []models.SessionAnswer{}
	}
	answers, err := encodeJSON(sess.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode session answers: %w", err)
	}

	_, err = q.ExecContext(ctx, `
	INSERT INTO qa_sessions (
		task_id, id, category, status, current_step, progress, answers,
		started_at, completed_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(task_id) DO UPDATE SET
		category = excluded.category,
		status = excluded.status,
		current_step = excluded.current_step,
		progress = excluded.progress,
		answers = excluded.answers,
		completed_at = excluded.completed_at,
		updated_at = excluded.updated_at
	`,
		sess.TaskID, sess.ID, string(sess.Category), string(sess.Status), sess.CurrentStep, sess.Progress,
		answers, sess.StartedAt.UnixMilli(), toNullMs(sess.CompletedAt), sess.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save qa session: %w", err)
	}
	return nil
}

// GetSession returns the Q&A session of a task, or nil when none exists.
func (s *Store) GetSession(ctx context.Context, taskID string) (*models.QASession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getSession(ctx, s.db, taskID)
}

// UpdateSession loads a task and its session, applies fn and persists both
// in one transaction. The task's version is bumped. Returns ErrNotFound when
// the task does not exist.
func (s *Store) UpdateSession(ctx context.Context, taskID string, fn SessionMutator) (*models.QASession, *models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		savedSess *models.QASession
		savedTask *models.Task
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		task, err := getTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrNotFound
		}
		sess, err := getSession(ctx, tx, taskID)
		if err != nil {
			return err
		}

		next, err := fn(task, sess)
		if err != nil {
			return err
		}

		now := fromMs(s.nowMs())
		if next != nil {
			next.TaskID = taskID
			next.UpdatedAt = now
			if err := writeSession(ctx, tx, next); err != nil {
				return err
			}
		}

		task.Version++
		task.UpdatedAt = now
		if err := writeTask(ctx, tx, task); err != nil {
			return err
		}

		savedSess, savedTask = next, task
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return savedSess, savedTask, nil
}
