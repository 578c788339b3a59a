// Package tasks implements project and task operations on top of the store:
// CRUD, status moves, document generation, archiving and completed-document queries.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	kerrors "github.com/p-blackswan/kanban-board/internal/errors"
	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/pipeline"
	"github.com/p-blackswan/kanban-board/internal/qa"
	"github.com/p-blackswan/kanban-board/internal/store"
)

// Recorder receives task lifecycle events. *metrics.Metrics implements it.
type Recorder interface {
	RecordTransition(from, to string)
	RecordGeneration(document, generator string)
}

type nopRecorder struct{}

func (nopRecorder) RecordTransition(string, string) {}
func (nopRecorder) RecordGeneration(string, string) {}

// Service is the task service.
type Service struct {
	store     *store.Store
	generator pipeline.Generator
	recorder  Recorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a task service. A nil generator selects the placeholder generator.
func NewService(s *store.Store, gen pipeline.Generator, logger zerolog.Logger) *Service {
	if gen == nil {
		gen = pipeline.NewPlaceholderGenerator()
	}
	return &Service{
		store:     s,
		generator: gen,
		recorder:  nopRecorder{},
		logger:    logger.With().Str("component", "tasks").Logger(),
		now:       time.Now,
	}
}

// SetRecorder installs a lifecycle event recorder.
func (s *Service) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	s.recorder = r
}

// notFound converts store.ErrNotFound into TASK_NOT_FOUND.
func notFound(err error, taskID string) error {
	if errors.Is(err, store.ErrNotFound) {
		return kerrors.TaskNotFound(taskID)
	}
	return err
}

// --- projects ---

// ListProjects returns all projects.
func (s *Service) ListProjects(ctx context.Context) ([]*models.Project, error) {
	return s.store.ListProjects(ctx)
}

// CreateProject creates a project. Name is required.
func (s *Service) CreateProject(ctx context.Context, in models.CreateProjectInput) (*models.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, kerrors.MissingField("name")
	}
	p, err := s.store.CreateProject(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("project_id", p.ID).Str("name", p.Name).Msg("Project created")
	return p, nil
}

// GetProject returns a project or PROJECT_NOT_FOUND.
func (s *Service) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, kerrors.ProjectNotFound(projectID)
	}
	return p, nil
}

// --- tasks ---

// ListTasks returns the board tasks of a project, archived tasks excluded.
func (s *Service) ListTasks(ctx context.Context, projectID string) ([]*models.Task, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx, projectID, false)
}

// CreateTask adds a task to the featurelist column of a project.
func (s *Service) CreateTask(ctx context.Context, projectID string, in models.CreateTaskInput) (*models.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, kerrors.MissingField("title")
	}
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	t, err := s.store.CreateTask(ctx, projectID, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("task_id", t.ID).Str("project_id", projectID).Msg("Task created")
	return t, nil
}

// GetTask returns a task or TASK_NOT_FOUND.
func (s *Service) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, kerrors.TaskNotFound(taskID)
	}
	return t, nil
}

// UpdateTask applies a content patch. A positive expectedVersion turns a
// concurrent modification into VERSION_CONFLICT; zero means last writer wins.
func (s *Service) UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch, expectedVersion int64) (*models.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, kerrors.MissingField("title")
	}
	t, err := s.store.UpdateTask(ctx, taskID, expectedVersion, func(t *models.Task) error {
		patch.Apply(t)
		return nil
	})
	if err != nil {
		return nil, notFound(err, taskID)
	}
	return t, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return notFound(err, taskID)
	}
	s.logger.Info().Str("task_id", taskID).Msg("Task deleted")
	return nil
}

// ParseStatus validates a raw status value from a request.
func ParseStatus(field, raw string) (models.TaskStatus, error) {
	if raw == "" {
		return "", kerrors.MissingField(field)
	}
	if !models.IsValidTaskStatus(raw) {
		return "", kerrors.InvalidStatus(raw, pipeline.StatusNames())
	}
	return models.TaskStatus(raw), nil
}

// UpdateStatus moves a task to another column without generating content.
func (s *Service) UpdateStatus(ctx context.Context, taskID, rawStatus string) (*models.Task, error) {
	status, err := ParseStatus("status", rawStatus)
	if err != nil {
		return nil, err
	}

	var from models.TaskStatus
	t, err := s.store.UpdateTask(ctx, taskID, 0, func(t *models.Task) error {
		from = t.Status
		t.Status = status
		return nil
	})
	if err != nil {
		return nil, notFound(err, taskID)
	}
	if from != status {
		s.recorder.RecordTransition(string(from), string(status))
		s.logger.Info().Str("task_id", taskID).Str("from", string(from)).Str("to", string(status)).Msg("Task status updated")
	}
	return t, nil
}

// TriggerAI generates the document for targetStatus and moves the task there.
// PRD needs a design document and a prototype needs a PRD. Targets without
// a document only change the status.
func (s *Service) TriggerAI(ctx context.Context, taskID, rawTarget string) (*models.Task, error) {
	target, err := ParseStatus("targetStatus", rawTarget)
	if err != nil {
		return nil, err
	}

	var (
		from      models.TaskStatus
		generated *pipeline.Document
	)
	t, err := s.store.UpdateTask(ctx, taskID, 0, func(t *models.Task) error {
		from = t.Status
		if err := pipeline.CheckPrerequisite(t, target); err != nil {
			return err
		}
		if target == models.StatusFeatureList {
			t.Status = target
			return nil
		}
		doc, err := s.generator.Generate(ctx, pipeline.Request{Task: t, Target: target})
		if err != nil {
			return fmt.Errorf("generate %s: %w", target, err)
		}
		s.applyDocument(t, doc)
		generated = &doc
		return nil
	})
	if err != nil {
		return nil, notFound(err, taskID)
	}

	s.afterGeneration(ctx, t, from, generated)
	return t, nil
}

// GenerateDesign produces the design document from the task's Q&A answers,
// moves the task to design and completes its session in one transaction.
func (s *Service) GenerateDesign(ctx context.Context, taskID string) (*models.Task, error) {
	var (
		from models.TaskStatus
		doc  pipeline.Document
	)
	_, t, err := s.store.UpdateSession(ctx, taskID, func(t *models.Task, sess *models.QASession) (*models.QASession, error) {
		from = t.Status
		var err error
		doc, err = s.generator.Generate(ctx, pipeline.Request{Task: t, Target: models.StatusDesign, Answers: t.QAAnswers})
		if err != nil {
			return nil, fmt.Errorf("generate design: %w", err)
		}
		s.applyDocument(t, doc)
		if sess != nil {
			qa.Complete(sess, s.now().UTC())
		}
		return sess, nil
	})
	if err != nil {
		return nil, notFound(err, taskID)
	}

	s.afterGeneration(ctx, t, from, &doc)
	return t, nil
}

// applyDocument stores a generated document, keeping the replaced content as a revision.
func (s *Service) applyDocument(t *models.Task, doc pipeline.Document) {
	var previous *string
	switch doc.Type {
	case models.DocDesign:
		previous = t.DesignDocument
	case models.DocPRD:
		previous = t.PRD
	case models.DocPrototype:
		previous = t.Prototype
	}
	if previous != nil && *previous != "" {
		version := 1
		for _, r := range t.Revisions {
			if r.DocumentType == doc.Type && r.Version >= version {
				version = r.Version + 1
			}
		}
		t.Revisions = append(t.Revisions, models.Revision{
			ID:           uuid.New().String(),
			DocumentType: doc.Type,
			Content:      *previous,
			Version:      version,
			CreatedAt:    s.now().UTC(),
		})
	}
	doc.Apply(t)
}

func (s *Service) afterGeneration(ctx context.Context, t *models.Task, from models.TaskStatus, doc *pipeline.Document) {
	if from != t.Status {
		s.recorder.RecordTransition(string(from), string(t.Status))
	}
	if doc == nil {
		return
	}
	s.recorder.RecordGeneration(string(doc.Type), s.generator.Name())
	rec := &models.GenerationRecord{TaskID: t.ID, DocumentType: doc.Type, Generator: s.generator.Name()}
	if err := s.store.RecordGeneration(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("task_id", t.ID).Msg("Failed to record generation history")
	}
	s.logger.Info().Str("task_id", t.ID).Str("document", string(doc.Type)).Msg("Document generated")
}

// Generations returns the generation history of a task.
func (s *Service) Generations(ctx context.Context, taskID string) ([]*models.GenerationRecord, error) {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.store.ListGenerations(ctx, taskID)
}
