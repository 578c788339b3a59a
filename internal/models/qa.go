package models

import "time"

// Category is a questionnaire category.
type Category string

const (
	CategoryGameMechanic Category = "game_mechanic"
	CategoryEconomy      Category = "economy"
	CategoryGrowth       Category = "growth"
)

// Categories lists the closed set of Q&A categories in alphabetical order.
var Categories = []Category{CategoryEconomy, CategoryGameMechanic, CategoryGrowth}

// IsValidCategory reports whether s is one of the known categories.
func IsValidCategory(s string) bool {
	for _, c := range Categories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// CategoryDefinition describes a category for display.
type CategoryDefinition struct {
	ID          Category `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}

// InputType is the form control used to answer a question.
type InputType string

const (
	InputText     InputType = "text"
	InputTextarea InputType = "textarea"
	InputSelect   InputType = "select"
	InputMulti    InputType = "multiselect"
)

// Question is a single item of a questionnaire.
type Question struct {
	ID          string    `json:"id"`
	Order       int       `json:"order"`
	Text        string    `json:"text"`
	Description *string   `json:"description"`
	InputType   InputType `json:"inputType"`
	Required    bool      `json:"required"`
	Placeholder *string   `json:"placeholder"`
	MaxLength   *int      `json:"maxLength"`
	Options     []string  `json:"options"`
}

// QuestionTemplate is the full questionnaire for a category.
type QuestionTemplate struct {
	ID                  string     `json:"id"`
	Category            Category   `json:"category"`
	CategoryName        string     `json:"categoryName"`
	CategoryDescription string     `json:"categoryDescription"`
	Version             string     `json:"version"`
	Questions           []Question `json:"questions"`
}

// Question returns the question with the given id.
func (t *QuestionTemplate) Question(id string) (Question, bool) {
	for _, q := range t.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// SessionStatus is the lifecycle state of a Q&A session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// SessionAnswer is one answer inside a Q&A session.
type SessionAnswer struct {
	QuestionID string     `json:"questionId"`
	Answer     string     `json:"answer"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

// QASession records the answers a task collected before design generation.
type QASession struct {
	ID          string          `json:"id"`
	TaskID      string          `json:"taskId"`
	Category    Category        `json:"category"`
	Status      SessionStatus   `json:"status"`
	CurrentStep int             `json:"currentStep"`
	Progress    int             `json:"progress"`
	Answers     []SessionAnswer `json:"answers"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// IsCompleted reports whether the session reached its terminal state.
func (s *QASession) IsCompleted() bool {
	return s.Status == SessionCompleted
}

// Answer returns the non-empty answer for a question id.
func (s *QASession) Answer(questionID string) (string, bool) {
	for _, a := range s.Answers {
		if a.QuestionID == questionID && a.Answer != "" {
			return a.Answer, true
		}
	}
	return "", false
}
