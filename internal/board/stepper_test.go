package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/qa"
)

type fakeQA struct {
	session   *models.QASession
	saved     []qa.SaveInput
	designed  []string
	saveErr   error
	designErr error
}

func (f *fakeQA) ListCategories(ctx context.Context) ([]models.CategoryDefinition, error) {
	return []models.CategoryDefinition{{ID: models.CategoryEconomy, Name: "Economy"}}, nil
}

func (f *fakeQA) GetTemplate(ctx context.Context, category models.Category) (*models.QuestionTemplate, error) {
	return &models.QuestionTemplate{
		Category: category,
		Questions: []models.Question{
			{ID: "currency", Order: 1, Text: "Core currency?", Required: true},
			{ID: "sinks", Order: 2, Text: "Currency sinks?"},
			{ID: "inflation", Order: 3, Text: "Inflation control?", Required: true},
		},
	}, nil
}

func (f *fakeQA) GetQA(ctx context.Context, taskID string) (*models.QASession, error) {
	return f.session, nil
}

func (f *fakeQA) SaveQA(ctx context.Context, taskID string, in qa.SaveInput) (*qa.SaveResult, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, in)
	status := models.SessionInProgress
	if in.IsComplete {
		status = models.SessionCompleted
	}
	sess := &models.QASession{ID: "s1", TaskID: taskID, Category: models.Category(in.Category), Status: status, Answers: in.Answers}
	if in.CurrentStep != nil {
		sess.CurrentStep = *in.CurrentStep
	}
	return &qa.SaveResult{SessionID: sess.ID, Session: sess}, nil
}

func (f *fakeQA) GenerateDesign(ctx context.Context, taskID string) (*models.Task, error) {
	if f.designErr != nil {
		return nil, f.designErr
	}
	f.designed = append(f.designed, taskID)
	return &models.Task{ID: taskID, Status: models.StatusDesign, DesignDocument: models.StringPtr("# Design")}, nil
}

func newStepper(api *fakeQA) *Stepper {
	s := NewStepper(api)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestStepper_NewSession(t *testing.T) {
	api := &fakeQA{}
	s := newStepper(api)
	ctx := context.Background()

	require.NoError(t, s.LoadCategories(ctx))
	assert.Len(t, s.Categories(), 1)

	require.NoError(t, s.Start(ctx, "T1", models.CategoryEconomy))
	assert.Nil(t, s.Session())
	assert.Equal(t, 0, s.Step())

	q, ok := s.CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, "currency", q.ID)
	assert.False(t, s.IsCurrentStepValid(), "required and unanswered")

	s.SetAnswer("currency", "   ")
	assert.False(t, s.IsCurrentStepValid())
	s.SetAnswer("currency", "Gold coins")
	assert.True(t, s.IsCurrentStepValid())

	s.Next()
	assert.True(t, s.IsCurrentStepValid(), "optional question")
	s.Next()
	s.Next()
	s.Next()
	assert.Equal(t, 3, s.Step(), "stops at the review step")
	_, ok = s.CurrentQuestion()
	assert.False(t, ok)

	s.Prev()
	assert.Equal(t, 2, s.Step())
}

func TestStepper_ResumesSameCategory(t *testing.T) {
	api := &fakeQA{session: &models.QASession{
		ID:          "s1",
		Category:    models.CategoryEconomy,
		CurrentStep: 7,
		Answers:     []models.SessionAnswer{{QuestionID: "currency", Answer: "Gold"}},
	}}
	s := newStepper(api)

	require.NoError(t, s.Start(context.Background(), "T1", models.CategoryEconomy))
	assert.Equal(t, "s1", s.Session().ID)
	assert.Equal(t, 3, s.Step(), "clamped to the review step")
	require.Len(t, s.Answers(), 1)
	assert.Equal(t, "Gold", s.Answers()[0].Answer)
}

func TestStepper_OtherCategoryStartsOver(t *testing.T) {
	api := &fakeQA{session: &models.QASession{
		ID:          "s1",
		Category:    models.CategoryGrowth,
		CurrentStep: 2,
		Answers:     []models.SessionAnswer{{QuestionID: "retention", Answer: "Daily quests"}},
	}}
	s := newStepper(api)

	require.NoError(t, s.Start(context.Background(), "T1", models.CategoryEconomy))
	assert.Nil(t, s.Session())
	assert.Equal(t, 0, s.Step())
	assert.Empty(t, s.Answers())
}

func TestStepper_AnswersOrder(t *testing.T) {
	s := newStepper(&fakeQA{})
	require.NoError(t, s.Start(context.Background(), "T1", models.CategoryEconomy))

	s.SetAnswer("zeta", "extra z")
	s.SetAnswer("inflation", "Taxes")
	s.SetAnswer("alpha", "extra a")
	s.SetAnswer("currency", "Gold")

	var ids []string
	for _, a := range s.Answers() {
		ids = append(ids, a.QuestionID)
		require.NotNil(t, a.AnsweredAt)
	}
	assert.Equal(t, []string{"currency", "inflation", "alpha", "zeta"}, ids)
}

func TestStepper_Save(t *testing.T) {
	api := &fakeQA{}
	s := newStepper(api)
	ctx := context.Background()

	_, err := s.Save(ctx, "T1", false)
	assert.ErrorIs(t, err, ErrNoCategory)

	require.NoError(t, s.Start(ctx, "T1", models.CategoryEconomy))
	s.SetAnswer("currency", "Gold")
	s.Next()
	sess, err := s.Save(ctx, "T1", false)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, sess.Status)

	require.Len(t, api.saved, 1)
	assert.Equal(t, "economy", api.saved[0].Category)
	require.NotNil(t, api.saved[0].CurrentStep)
	assert.Equal(t, 1, *api.saved[0].CurrentStep)
	assert.False(t, s.Loading())
}

func TestStepper_Complete(t *testing.T) {
	api := &fakeQA{}
	s := newStepper(api)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx, "T1", models.CategoryEconomy))
	s.SetAnswer("currency", "Gold")

	task, err := s.Complete(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDesign, task.Status)
	assert.True(t, api.saved[0].IsComplete)
	assert.Equal(t, []string{"T1"}, api.designed)
	assert.True(t, s.Session().IsCompleted())
}

func TestStepper_Errors(t *testing.T) {
	api := &fakeQA{designErr: errors.New("Failed to generate design")}
	s := newStepper(api)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx, "T1", models.CategoryEconomy))

	_, err := s.Complete(ctx, "T1")
	require.Error(t, err)
	assert.Equal(t, "Failed to generate design", s.Error())
	assert.False(t, s.Loading())

	s.ClearError()
	assert.Empty(t, s.Error())

	api.saveErr = errors.New("offline")
	_, err = s.Save(ctx, "T1", false)
	require.Error(t, err)
	assert.Equal(t, "offline", s.Error())

	s.Reset()
	assert.Empty(t, s.Error())
	assert.Empty(t, s.Questions())
	_, err = s.Save(ctx, "T1", false)
	assert.ErrorIs(t, err, ErrNoCategory)
}
