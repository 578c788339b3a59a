package tasks

import (
	"context"
	"errors"

	kerrors "github.com/p-blackswan/kanban-board/internal/errors"
	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/store"
)

// ArchiveTask moves a finished task off the board. Only prototype tasks qualify.
func (s *Service) ArchiveTask(ctx context.Context, taskID string) (*models.Archive, error) {
	a, err := s.store.ArchiveTask(ctx, taskID, func(t *models.Task) error {
		if t.IsArchived {
			return kerrors.New(kerrors.CodeInvalidStatus, "Task is already archived").
				WithDetails(kerrors.Details{Field: "status", CurrentStatus: string(t.Status)})
		}
		if t.Status != models.StatusPrototype {
			return kerrors.New(kerrors.CodeInvalidStatus, "Only prototype tasks can be archived").
				WithDetails(kerrors.Details{Field: "status", Value: string(t.Status), CurrentStatus: string(t.Status)})
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err, taskID)
	}
	s.logger.Info().Str("task_id", taskID).Str("archive_id", a.ID).Msg("Task archived")
	return a, nil
}

// ListArchives returns the archives of a project.
func (s *Service) ListArchives(ctx context.Context, projectID string) ([]*models.Archive, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListArchives(ctx, projectID)
}

// GetArchive returns one archive of a project.
func (s *Service) GetArchive(ctx context.Context, projectID, archiveID string) (*models.Archive, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	a, err := s.store.GetArchive(ctx, projectID, archiveID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, kerrors.ArchiveNotFound(archiveID)
	}
	return a, nil
}

// RestoreArchive puts an archived task back on the board.
func (s *Service) RestoreArchive(ctx context.Context, projectID, archiveID string) (*models.Task, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	t, err := s.store.RestoreArchive(ctx, projectID, archiveID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, kerrors.ArchiveNotFound(archiveID)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("task_id", t.ID).Str("archive_id", archiveID).Msg("Archive restored")
	return t, nil
}

// DeleteArchive drops an archive without restoring it.
func (s *Service) DeleteArchive(ctx context.Context, projectID, archiveID string) error {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return err
	}
	err := s.store.DeleteArchive(ctx, projectID, archiveID)
	if errors.Is(err, store.ErrNotFound) {
		return kerrors.ArchiveNotFound(archiveID)
	}
	return err
}
