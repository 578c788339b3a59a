package board

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/qa"
)

// ErrNoCategory is returned when the stepper is saved before a category was chosen.
var ErrNoCategory = errors.New("board: no category selected")

// QAAPI is the part of the board API the Q&A stepper calls.
type QAAPI interface {
	ListCategories(ctx context.Context) ([]models.CategoryDefinition, error)
	GetTemplate(ctx context.Context, category models.Category) (*models.QuestionTemplate, error)
	GetQA(ctx context.Context, taskID string) (*models.QASession, error)
	SaveQA(ctx context.Context, taskID string, in qa.SaveInput) (*qa.SaveResult, error)
	GenerateDesign(ctx context.Context, taskID string) (*models.Task, error)
}

// Stepper walks a task through the questionnaire one question at a time.
// Step len(questions) is the review step after the last question.
type Stepper struct {
	api QAAPI
	now func() time.Time

	mu         sync.Mutex
	session    *models.QASession
	categories []models.CategoryDefinition
	questions  []models.Question
	category   models.Category
	step       int
	answers    map[string]string
	loading    bool
	err        string
}

// NewStepper creates an idle stepper.
func NewStepper(api QAAPI) *Stepper {
	return &Stepper{api: api, now: time.Now, answers: make(map[string]string)}
}

func (s *Stepper) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

func (s *Stepper) fail(err error) error {
	s.mu.Lock()
	s.loading = false
	s.err = errMessage(err)
	s.mu.Unlock()
	return err
}

// LoadCategories fetches the category list.
func (s *Stepper) LoadCategories(ctx context.Context) error {
	s.begin()
	cats, err := s.api.ListCategories(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.mu.Lock()
	s.categories = cats
	s.loading = false
	s.mu.Unlock()
	return nil
}

// Start loads the questions of category and resumes the task's session when
// it was started with the same category. Otherwise it starts from scratch.
func (s *Stepper) Start(ctx context.Context, taskID string, category models.Category) error {
	s.begin()
	existing, err := s.api.GetQA(ctx, taskID)
	if err != nil {
		return s.fail(err)
	}
	tmpl, err := s.api.GetTemplate(ctx, category)
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = tmpl.Questions
	s.category = category
	s.answers = make(map[string]string)
	s.loading = false
	if existing != nil && existing.Category == category {
		s.session = existing
		for _, a := range existing.Answers {
			s.answers[a.QuestionID] = a.Answer
		}
		s.step = min(max(existing.CurrentStep, 0), len(s.questions))
		return nil
	}
	s.session = nil
	s.step = 0
	return nil
}

// SetAnswer records the answer to a question.
func (s *Stepper) SetAnswer(questionID, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[questionID] = answer
}

// Next advances one step, stopping at the review step.
func (s *Stepper) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step < len(s.questions) {
		s.step++
	}
}

// Prev goes back one step.
func (s *Stepper) Prev() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step > 0 {
		s.step--
	}
}

// Step returns the current step index.
func (s *Stepper) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Questions returns the loaded questions.
func (s *Stepper) Questions() []models.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Question(nil), s.questions...)
}

// Categories returns the loaded categories.
func (s *Stepper) Categories() []models.CategoryDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CategoryDefinition(nil), s.categories...)
}

// Session returns the session the stepper resumed or last saved, if any.
func (s *Stepper) Session() *models.QASession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// CurrentQuestion returns the question at the current step; false on the review step.
func (s *Stepper) CurrentQuestion() (models.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step < 0 || s.step >= len(s.questions) {
		return models.Question{}, false
	}
	return s.questions[s.step], true
}

// IsCurrentStepValid reports whether the current question may be left.
// Optional questions always are; required ones need a non-blank answer.
func (s *Stepper) IsCurrentStepValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step < 0 || s.step >= len(s.questions) {
		return false
	}
	q := s.questions[s.step]
	if !q.Required {
		return true
	}
	return strings.TrimSpace(s.answers[q.ID]) != ""
}

// Answers returns the answers in question order; answers to unknown
// questions follow sorted by id.
func (s *Stepper) Answers() []models.SessionAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answersLocked()
}

func (s *Stepper) answersLocked() []models.SessionAnswer {
	at := s.now().UTC()
	out := make([]models.SessionAnswer, 0, len(s.answers))
	seen := make(map[string]bool, len(s.questions))
	for _, q := range s.questions {
		seen[q.ID] = true
		if a, ok := s.answers[q.ID]; ok {
			out = append(out, models.SessionAnswer{QuestionID: q.ID, Answer: a, AnsweredAt: &at})
		}
	}
	var extra []string
	for id := range s.answers {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		out = append(out, models.SessionAnswer{QuestionID: id, Answer: s.answers[id], AnsweredAt: &at})
	}
	return out
}

// Save stores the answers and current step, optionally marking the session complete.
func (s *Stepper) Save(ctx context.Context, taskID string, complete bool) (*models.QASession, error) {
	s.mu.Lock()
	if s.category == "" {
		s.mu.Unlock()
		return nil, ErrNoCategory
	}
	step := s.step
	in := qa.SaveInput{
		Category:    string(s.category),
		Answers:     s.answersLocked(),
		CurrentStep: &step,
		IsComplete:  complete,
	}
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	res, err := s.api.SaveQA(ctx, taskID, in)
	if err != nil {
		return nil, s.fail(err)
	}
	s.mu.Lock()
	s.session = res.Session
	s.loading = false
	s.mu.Unlock()
	return res.Session, nil
}

// Complete saves the session as completed and generates the design document.
// The returned task is in design status.
func (s *Stepper) Complete(ctx context.Context, taskID string) (*models.Task, error) {
	if _, err := s.Save(ctx, taskID, true); err != nil {
		return nil, err
	}
	s.begin()
	t, err := s.api.GenerateDesign(ctx, taskID)
	if err != nil {
		return nil, s.fail(err)
	}
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	return t, nil
}

// Reset drops all progress.
func (s *Stepper) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.questions = nil
	s.category = ""
	s.step = 0
	s.answers = make(map[string]string)
	s.err = ""
}

// Loading reports whether a call is in flight.
func (s *Stepper) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Error returns the message of the last failed call, or "".
func (s *Stepper) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearError resets the error message.
func (s *Stepper) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}
