package qa

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/p-blackswan/kanban-board/internal/errors"
	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/questions"
	"github.com/p-blackswan/kanban-board/internal/store"
)

type fallbackTemplates struct{}

func (fallbackTemplates) LoadTemplate(_ context.Context, c models.Category) *models.QuestionTemplate {
	return questions.Fallback(c)
}

// countingStore fails the test if any storage method is reached.
type countingStore struct {
	calls int
}

func (c *countingStore) GetTask(context.Context, string) (*models.Task, error) {
	c.calls++
	return nil, nil
}

func (c *countingStore) GetSession(context.Context, string) (*models.QASession, error) {
	c.calls++
	return nil, nil
}

func (c *countingStore) UpdateSession(context.Context, string, store.SessionMutator) (*models.QASession, *models.Task, error) {
	c.calls++
	return nil, nil, store.ErrNotFound
}

func newManager(t *testing.T) (*Manager, *store.Store, *models.Task) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "kanban.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	p, err := s.CreateProject(ctx, models.CreateProjectInput{Name: "p"})
	require.NoError(t, err)
	task, err := s.CreateTask(ctx, p.ID, models.CreateTaskInput{Title: "Trading post"})
	require.NoError(t, err)

	return NewManager(s, fallbackTemplates{}, zerolog.Nop()), s, task
}

func answer(id, text string) models.SessionAnswer {
	return models.SessionAnswer{QuestionID: id, Answer: text}
}

func TestSave_ValidatesCategoryBeforeStorage(t *testing.T) {
	spy := &countingStore{}
	m := NewManager(spy, fallbackTemplates{}, zerolog.Nop())

	_, err := m.Save(context.Background(), "any", SaveInput{})
	apiErr, ok := kerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, kerrors.CodeMissingRequiredField, apiErr.Code)
	assert.Equal(t, "Category is required", apiErr.Message)
	assert.Equal(t, "category", apiErr.Details.Field)

	_, err = m.Save(context.Background(), "any", SaveInput{Category: "weapons"})
	apiErr, ok = kerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, kerrors.CodeInvalidCategory, apiErr.Code)
	assert.Equal(t, "Invalid category: weapons", apiErr.Message)

	assert.Zero(t, spy.calls)
}

func TestSave_UnknownTask(t *testing.T) {
	m, _, _ := newManager(t)
	_, err := m.Save(context.Background(), "missing", SaveInput{Category: "economy"})
	assert.True(t, kerrors.HasCode(err, kerrors.CodeTaskNotFound))
}

func TestSave_CreatesSessionAndCopiesAnswers(t *testing.T) {
	m, s, task := newManager(t)
	ctx := context.Background()

	res, err := m.Save(ctx, task.ID, SaveInput{
		Category: "economy",
		Answers:  []models.SessionAnswer{answer("economy-fallback-1", "Grow food")},
	})
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, res.SessionID)
	assert.Equal(t, models.SessionInProgress, res.Session.Status)
	assert.Equal(t, 0, res.Session.CurrentStep)
	assert.Equal(t, 33, res.Session.Progress)
	assert.Nil(t, res.Session.CompletedAt)
	require.NotNil(t, res.Session.Answers[0].AnsweredAt)

	stored, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, stored.QAAnswers, 1)
	assert.Equal(t, "What is the main goal of this system?", stored.QAAnswers[0].Question)
	assert.Equal(t, models.CategoryEconomy, stored.QAAnswers[0].Category)
}

func TestSave_CompletesOnSecondCall(t *testing.T) {
	m, _, task := newManager(t)
	ctx := context.Background()

	step := 2
	first, err := m.Save(ctx, task.ID, SaveInput{Category: "growth", CurrentStep: &step})
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, first.Session.Status)
	assert.Nil(t, first.Session.CompletedAt)

	second, err := m.Save(ctx, task.ID, SaveInput{Category: "growth", IsComplete: true})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, second.Session.Status)
	require.NotNil(t, second.Session.CompletedAt)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 2, second.Session.CurrentStep, "omitted currentStep keeps the stored step")
}

func TestSave_CompletionIsSticky(t *testing.T) {
	m, _, task := newManager(t)
	ctx := context.Background()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	_, err := m.Save(ctx, task.ID, SaveInput{Category: "economy", IsComplete: true})
	require.NoError(t, err)

	m.now = func() time.Time { return fixed.Add(time.Hour) }
	res, err := m.Save(ctx, task.ID, SaveInput{
		Category: "economy",
		Answers:  []models.SessionAnswer{answer("economy-fallback-2", "Farmers")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, res.Session.Status)
	require.NotNil(t, res.Session.CompletedAt)
	assert.True(t, fixed.Equal(*res.Session.CompletedAt))
	require.Len(t, res.Session.Answers, 1)
}

func TestGet(t *testing.T) {
	m, _, task := newManager(t)
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.True(t, kerrors.HasCode(err, kerrors.CodeTaskNotFound))

	sess, err := m.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, sess)

	_, err = m.Save(ctx, task.ID, SaveInput{Category: "game_mechanic"})
	require.NoError(t, err)
	sess, err = m.Get(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, models.CategoryGameMechanic, sess.Category)
}

func TestProgressAndMissingRequired(t *testing.T) {
	tmpl := questions.Fallback(models.CategoryEconomy)
	answers := []models.SessionAnswer{
		answer("economy-fallback-1", "a"),
		answer("economy-fallback-2", ""),
		answer("unrelated", "x"),
	}
	assert.Equal(t, 33, Progress(tmpl, answers))
	assert.Equal(t, []string{"economy-fallback-2", "economy-fallback-3"}, MissingRequired(tmpl, answers))
	assert.Equal(t, 0, Progress(&models.QuestionTemplate{}, answers))
}
