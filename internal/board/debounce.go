package board

import (
	"context"
	"time"

	"github.com/p-blackswan/kanban-board/internal/models"
)

type pendingEdit struct {
	patch models.TaskPatch
	timer *time.Timer
}

// QueueContentUpdate applies patch locally and schedules a save once no
// further edit for the task arrives within the debounce period. Successive
// patches for a task are merged; each task has a single timer.
// Saves are last-writer-wins on the backend.
func (s *Store) QueueContentUpdate(taskID string, patch models.TaskPatch) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	i := s.indexLocked(taskID)
	if i < 0 || patch.IsEmpty() {
		s.mu.Unlock()
		return nil
	}

	local := s.tasks[i].Clone()
	patch.Apply(local)
	s.tasks[i] = local

	p, ok := s.pending[taskID]
	if ok {
		if p.timer.Stop() {
			s.wg.Done()
		}
		p.patch = p.patch.Merge(patch)
	} else {
		p = &pendingEdit{patch: patch}
		s.pending[taskID] = p
	}
	s.wg.Add(1)
	p.timer = time.AfterFunc(s.debounce, func() {
		defer s.wg.Done()
		s.flush(taskID)
	})
	s.mu.Unlock()
	s.notify()
	return nil
}

// HasPendingEdit reports whether a content save for the task is scheduled.
func (s *Store) HasPendingEdit(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[taskID]
	return ok
}

func (s *Store) flush(taskID string) {
	s.mu.Lock()
	p, ok := s.pending[taskID]
	if !ok || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.pending, taskID)
	patch := p.patch
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, s.flushTimeout)
	defer cancel()

	updated, err := s.api.UpdateTask(ctx, taskID, patch, 0)

	s.mu.Lock()
	if err != nil {
		s.err = errMessage(err)
		s.logger.Warn().Err(err).Str("task_id", taskID).Msg("Content save failed")
	} else {
		s.replaceLocked(updated)
	}
	s.mu.Unlock()
	s.notify()
}

// FlushPending sends every queued edit now instead of waiting for its timer.
func (s *Store) FlushPending() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.pending))
	for id, p := range s.pending {
		if p.timer.Stop() {
			s.wg.Done()
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.flush(id)
	}
}

// Close cancels queued edits that have not fired yet and waits for saves in flight.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, p := range s.pending {
		if p.timer.Stop() {
			s.wg.Done()
		}
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
