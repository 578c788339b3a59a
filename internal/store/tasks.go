package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	kerrors "github.com/p-blackswan/kanban-board/internal/errors"
	"github.com/p-blackswan/kanban-board/internal/models"
)

const taskColumns = `id, project_id, title, status, feature_list, design_document, prd, prototype,
	refs, qa_answers, revisions, is_archived, version, created_at, updated_at`

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	t := &models.Task{}
	var design, prd, prototype sql.NullString
	var refs, answers, revisions string
	var archived int
	var createdAt, updatedAt int64

	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Status, &t.FeatureList,
		&design, &prd, &prototype,
		&refs, &answers, &revisions, &archived, &t.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.DesignDocument = fromNullString(design)
	t.PRD = fromNullString(prd)
	t.Prototype = fromNullString(prototype)
	t.IsArchived = archived != 0
	t.CreatedAt = fromMs(createdAt)
	t.UpdatedAt = fromMs(updatedAt)

	if err := json.Unmarshal([]byte(refs), &t.References); err != nil {
		return nil, fmt.Errorf("failed to decode references: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &t.QAAnswers); err != nil {
		return nil, fmt.Errorf("failed to decode qa answers: %w", err)
	}
	if err := json.Unmarshal([]byte(revisions), &t.Revisions); err != nil {
		return nil, fmt.Errorf("failed to decode revisions: %w", err)
	}
	normalizeTask(t)
	return t, nil
}

// normalizeTask keeps list fields non-nil so they encode as [].
func normalizeTask(t *models.Task) {
	if t.References == nil {
		t.References = []string{}
	}
	if t.QAAnswers == nil {
		t.QAAnswers = []models.QAAnswer{}
	}
	if t.Revisions == nil {
		t.Revisions = []models.Revision{}
	}
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func getTask(ctx context.Context, q queryer, id string) (*models.Task, error) {
	t, err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

func writeTask(ctx context.Context, q queryer, t *models.Task) error {
	normalizeTask(t)
	refs, err := encodeJSON(t.References)
	if err != nil {
		return fmt.Errorf("failed to encode references: %w", err)
	}
	answers, err := encodeJSON(t.QAAnswers)
	if err != nil {
		return fmt.Errorf("failed to encode qa answers: %w", err)
	}
	revisions, err := encodeJSON(t.Revisions)
	if err != nil {
		return fmt.Errorf("failed to encode revisions: %w", err)
	}

	archived := 0
	if t.IsArchived {
		archived = 1
	}

	_, err = q.ExecContext(ctx, `
	INSERT INTO tasks (`+taskColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		status = excluded.status,
		feature_list = excluded.feature_list,
		design_document = excluded.design_document,
		prd = excluded.prd,
		prototype = excluded.prototype,
		refs = excluded.refs,
		qa_answers = excluded.qa_answers,
		revisions = excluded.revisions,
		is_archived = excluded.is_archived,
		version = excluded.version,
		updated_at = excluded.updated_at
	`,
		t.ID, t.ProjectID, t.Title, string(t.Status), t.FeatureList,
		toNullString(t.DesignDocument), toNullString(t.PRD), toNullString(t.Prototype),
		refs, answers, revisions, archived, t.Version,
		t.CreatedAt.UnixMilli(), t.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// CreateTask inserts a new task in the featurelist column of a project.
func (s *Store) CreateTask(ctx context.Context, projectID string, in models.CreateTaskInput) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := fromMs(s.nowMs())
	t := &models.Task{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Title:       in.Title,
		Status:      models.StatusFeatureList,
		FeatureList: in.FeatureList,
		References:  append([]string{}, in.References...),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := writeTask(ctx, s.db, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTask retrieves a task by ID
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTask(ctx, s.db, id)
}

// ListTasks returns the tasks of a project in creation order.
func (s *Store) ListTasks(ctx context.Context, projectID string, includeArchived bool) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ?`
	if !includeArchived {
		query += ` AND is_archived = 0`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies mutate to the stored task and writes it back in one
// transaction, bumping version and updated_at. A positive expectedVersion
// that does not match the stored version fails with VERSION_CONFLICT.
// An error returned by mutate aborts the write and is returned as is.
func (s *Store) UpdateTask(ctx context.Context, id string, expectedVersion int64, mutate func(t *models.Task) error) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated *models.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrNotFound
		}
		if expectedVersion > 0 && t.Version != expectedVersion {
			return kerrors.VersionConflict(expectedVersion, t.Version)
		}
		if err := mutate(t); err != nil {
			return err
		}
		t.ID = id
		t.Version++
		t.UpdatedAt = fromMs(s.nowMs())
		if err := writeTask(ctx, tx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes a task together with its session and generation history.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
