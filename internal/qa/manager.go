// Package qa manages the questionnaire session a task completes before its
// design document can be generated.
package qa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	kerrors "github.com/p-blackswan/kanban-board/internal/errors"
	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/questions"
	"github.com/p-blackswan/kanban-board/internal/store"
)

// SessionStore is the persistence the manager needs.
type SessionStore interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	GetSession(ctx context.Context, taskID string) (*models.QASession, error)
	UpdateSession(ctx context.Context, taskID string, fn store.SessionMutator) (*models.QASession, *models.Task, error)
}

// TemplateSource resolves the questionnaire of a category.
type TemplateSource interface {
	LoadTemplate(ctx context.Context, category models.Category) *models.QuestionTemplate
}

// SaveInput is the body of a session save.
type SaveInput struct {
	Category    string                 `json:"category"`
	Answers     []models.SessionAnswer `json:"answers"`
	CurrentStep *int                   `json:"currentStep,omitempty"`
	IsComplete  bool                   `json:"isComplete"`
}

// SaveResult is returned by Save.
type SaveResult struct {
	SessionID string            `json:"sessionId"`
	Session   *models.QASession `json:"session"`
}

// Manager implements session save and lookup.
type Manager struct {
	store     SessionStore
	templates TemplateSource
	logger    zerolog.Logger
	now       func() time.Time
}

// NewManager creates a session manager.
func NewManager(s SessionStore, templates TemplateSource, logger zerolog.Logger) *Manager {
	return &Manager{
		store:     s,
		templates: templates,
		logger:    logger.With().Str("component", "qa").Logger(),
		now:       time.Now,
	}
}

// ValidateCategory checks a raw category value without touching storage.
func ValidateCategory(raw string) (models.Category, error) {
	if raw == "" {
		return "", kerrors.MissingField("category")
	}
	if !models.IsValidCategory(raw) {
		return "", kerrors.InvalidCategory(raw, questions.CategoryIDs())
	}
	return models.Category(raw), nil
}

// Save records the answers of a task's session, creating the session on
// first use, and copies them onto the task in the same transaction.
// Completion is sticky: once completed, later saves keep the session completed.
func (m *Manager) Save(ctx context.Context, taskID string, in SaveInput) (*SaveResult, error) {
	category, err := ValidateCategory(in.Category)
	if err != nil {
		return nil, err
	}
	for _, a := range in.Answers {
		if a.QuestionID == "" {
			return nil, kerrors.MissingField("questionId")
		}
	}

	tmpl := m.templates.LoadTemplate(ctx, category)
	now := m.now().UTC()

	answers := make([]models.SessionAnswer, len(in.Answers))
	for i, a := range in.Answers {
		if a.AnsweredAt == nil {
			at := now
			a.AnsweredAt = &at
		}
		answers[i] = a
	}

	sess, _, err := m.store.UpdateSession(ctx, taskID, func(task *models.Task, cur *models.QASession) (*models.QASession, error) {
		if cur == nil {
			cur = &models.QASession{
				ID:          uuid.New().String(),
				TaskID:      taskID,
				Status:      models.SessionInProgress,
				CurrentStep: 0,
				StartedAt:   now,
			}
			m.logger.Info().Str("task_id", taskID).Str("category", string(category)).Msg("Q&A session started")
		}

		cur.Category = category
		cur.Answers = answers
		if in.CurrentStep != nil {
			cur.CurrentStep = *in.CurrentStep
		}
		if in.IsComplete {
			Complete(cur, now)
		}
		cur.Progress = Progress(tmpl, cur.Answers)

		task.QAAnswers = TaskAnswers(tmpl, category, answers)
		return cur, nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, kerrors.TaskNotFound(taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("save qa session: %w", err)
	}

	return &SaveResult{SessionID: sess.ID, Session: sess}, nil
}

// Get returns the session of a task, or nil when the task has none.
func (m *Manager) Get(ctx context.Context, taskID string) (*models.QASession, error) {
	task, err := m.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, kerrors.TaskNotFound(taskID)
	}
	sess, err := m.store.GetSession(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get qa session: %w", err)
	}
	return sess, nil
}

// Complete marks a session completed. The first completion time is kept.
func Complete(sess *models.QASession, now time.Time) {
	sess.Status = models.SessionCompleted
	if sess.CompletedAt == nil {
		at := now
		sess.CompletedAt = &at
	}
}

// Progress returns the percentage of template questions that have an answer.
func Progress(tmpl *models.QuestionTemplate, answers []models.SessionAnswer) int {
	if tmpl == nil || len(tmpl.Questions) == 0 {
		return 0
	}
	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		if a.Answer != "" {
			answered[a.QuestionID] = true
		}
	}
	n := 0
	for _, q := range tmpl.Questions {
		if answered[q.ID] {
			n++
		}
	}
	return n * 100 / len(tmpl.Questions)
}

// MissingRequired returns the ids of required questions without an answer.
func MissingRequired(tmpl *models.QuestionTemplate, answers []models.SessionAnswer) []string {
	sess := models.QASession{Answers: answers}
	var missing []string
	for _, q := range tmpl.Questions {
		if !q.Required {
			continue
		}
		if _, ok := sess.Answer(q.ID); !ok {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// TaskAnswers converts session answers into the task's copy, resolving
// question text from the template when possible.
func TaskAnswers(tmpl *models.QuestionTemplate, category models.Category, answers []models.SessionAnswer) []models.QAAnswer {
	out := make([]models.QAAnswer, 0, len(answers))
	for _, a := range answers {
		qa := models.QAAnswer{
			QuestionID: a.QuestionID,
			Category:   category,
			Answer:     a.Answer,
			AnsweredAt: a.AnsweredAt,
		}
		if tmpl != nil {
			if q, ok := tmpl.Question(a.QuestionID); ok {
				qa.Question = q.Text
			}
		}
		out = append(out, qa)
	}
	return out
}
