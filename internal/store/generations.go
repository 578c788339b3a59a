package store

import (
	"context"
	"fmt"

	"github.com/p-blackswan/kanban-board/internal/models"
)

// RecordGeneration appends an entry to a task's generation history.
func (s *Store) RecordGeneration(ctx context.Context, rec *models.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowMs()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (task_id, document_type, generator, created_at) VALUES (?, ?, ?, ?)`,
		rec.TaskID, string(rec.DocumentType), rec.Generator, now,
	)
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get generation id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = fromMs(now)
	return nil
}

// ListGenerations returns a task's generation history, oldest first.
func (s *Store) ListGenerations(ctx context.Context, taskID string) ([]*models.GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, task_id, document_type, generator, created_at
	FROM generations WHERE task_id = ? ORDER BY created_at ASC, id ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	records := []*models.GenerationRecord{}
	for rows.Next() {
		r := &models.GenerationRecord{}
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.TaskID, &r.DocumentType, &r.Generator, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		r.CreatedAt = fromMs(createdAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generations: %w", err)
	}
	return records, nil
}
