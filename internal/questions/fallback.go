package questions

import (
	"fmt"

	"github.com/p-blackswan/kanban-board/internal/models"
)

const (
	templateVersion = "1.0.0"
	fallbackVersion = "1.0.0-fallback"
	textareaMax     = 2000
)

// Fallback returns the built-in three-question template used when a
// category's file is missing, unreadable or malformed.
func Fallback(category models.Category) *models.QuestionTemplate {
	name, description := "Unknown Category", "Design questions"
	if def, ok := Definition(category); ok {
		name, description = def.Name, def.Description
	}

	base := []struct{ text, help, placeholder string }{
		{"What is the main goal of this system?", "Describe the primary objective and purpose", "Describe the main goal..."},
		{"Who is the target audience?", "Define the intended users or players", "Describe the target audience..."},
		{"What are the key features?", "List the most important features", "List key features..."},
	}

	questions := make([]models.Question, 0, len(base))
	for i, b := range base {
		maxLen := textareaMax
		questions = append(questions, models.Question{
			ID:          fmt.Sprintf("%s-fallback-%d", category, i+1),
			Order:       i + 1,
			Text:        b.text,
			Description: models.StringPtr(b.help),
			InputType:   models.InputTextarea,
			Required:    true,
			Placeholder: models.StringPtr(b.placeholder),
			MaxLength:   &maxLen,
		})
	}

	return &models.QuestionTemplate{
		ID:                  string(category),
		Category:            category,
		CategoryName:        name,
		CategoryDescription: description,
		Version:             fallbackVersion,
		Questions:           questions,
	}
}

// IsFallback reports whether t is the built-in fallback template.
func IsFallback(t *models.QuestionTemplate) bool {
	return t != nil && t.Version == fallbackVersion
}
