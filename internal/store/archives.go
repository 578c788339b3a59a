package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/p-blackswan/kanban-board/internal/models"
)

func scanArchive(row scanner) (*models.Archive, error) {
	a := &models.Archive{}
	var snapshot string
	var archivedAt int64
	if err := row.Scan(&a.ID, &a.TaskID, &a.ProjectID, &snapshot, &archivedAt); err != nil {
		return nil, err
	}
	a.Task = &models.Task{}
	if err := json.Unmarshal([]byte(snapshot), a.Task); err != nil {
		return nil, fmt.Errorf("failed to decode archive snapshot: %w", err)
	}
	normalizeTask(a.Task)
	a.ArchivedAt = fromMs(archivedAt)
	return a, nil
}

// ArchiveTask snapshots a task into the archive and hides it from the board.
// check may reject the task (for example when it is not finished); its error
// is returned unchanged and nothing is written.
func (s *Store) ArchiveTask(ctx context.Context, taskID string, check func(t *models.Task) error) (*models.Archive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var archive *models.Archive
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := getTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrNotFound
		}
		if check != nil {
			if err := check(t); err != nil {
				return err
			}
		}

		now := fromMs(s.nowMs())
		t.IsArchived = true
		t.Version++
		t.UpdatedAt = now
		if err := writeTask(ctx, tx, t); err != nil {
			return err
		}

		snapshot, err := encodeJSON(t)
		if err != nil {
			return fmt.Errorf("failed to encode archive snapshot: %w", err)
		}
		a := &models.Archive{
			ID:         uuid.New().String(),
			TaskID:     t.ID,
			ProjectID:  t.ProjectID,
			Task:       t,
			ArchivedAt: now,
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO archives (id, task_id, project_id, snapshot, archived_at) VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.TaskID, a.ProjectID, snapshot, now.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to save archive: %w", err)
		}
		archive = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return archive, nil
}

// ListArchives returns the archives of a project, oldest first.
func (s *Store) ListArchives(ctx context.Context, projectID string) ([]*models.Archive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, task_id, project_id, snapshot, archived_at
	FROM archives WHERE project_id = ? ORDER BY archived_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}
	defer rows.Close()

	archives := []*models.Archive{}
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan archive: %w", err)
		}
		archives = append(archives, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating archives: %w", err)
	}
	return archives, nil
}

// GetArchive retrieves an archive of a project by ID
func (s *Store) GetArchive(ctx context.Context, projectID, archiveID string) (*models.Archive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := scanArchive(s.db.QueryRowContext(ctx, `
	SELECT id, task_id, project_id, snapshot, archived_at
	FROM archives WHERE project_id = ? AND id = ?
	`, projectID, archiveID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archive: %w", err)
	}
	return a, nil
}

// RestoreArchive puts an archived task back on the board and removes the
// archive. A task deleted since archiving is re-created from the snapshot.
func (s *Store) RestoreArchive(ctx context.Context, projectID, archiveID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var restored *models.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		a, err := scanArchive(tx.QueryRowContext(ctx, `
		SELECT id, task_id, project_id, snapshot, archived_at
		FROM archives WHERE project_id = ? AND id = ?
		`, projectID, archiveID))
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get archive: %w", err)
		}

		t, err := getTask(ctx, tx, a.TaskID)
		if err != nil {
			return err
		}
		if t == nil {
			t = a.Task
		}
		t.IsArchived = false
		t.Version++
		t.UpdatedAt = fromMs(s.nowMs())
		if err := writeTask(ctx, tx, t); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM archives WHERE id = ?`, archiveID); err != nil {
			return fmt.Errorf("failed to delete archive: %w", err)
		}
		restored = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// DeleteArchive removes an archive for good. The hidden task row goes with
// it unless the task is back on the board.
func (s *Store) DeleteArchive(ctx context.Context, projectID, archiveID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var taskID string
		err := tx.QueryRowContext(ctx,
			`SELECT task_id FROM archives WHERE project_id = ? AND id = ?`, projectID, archiveID,
		).Scan(&taskID)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get archive: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM archives WHERE id = ?`, archiveID); err != nil {
			return fmt.Errorf("failed to delete archive: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND is_archived = 1`, taskID); err != nil {
			return fmt.Errorf("failed to delete archived task: %w", err)
		}
		return nil
	})
}
