package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/p-blackswan/kanban-board/internal/models"
)

// Request asks a generator for the document of Target.
type Request struct {
	Task   *models.Task
	Target models.TaskStatus
	// Answers, when non-empty, replace the feature list as the design source.
	Answers []models.QAAnswer
}

// Document is a generated document ready to be stored on a task.
type Document struct {
	Type    models.DocumentType
	Content string
}

// Apply stores the document on t and moves t to the matching status.
func (d Document) Apply(t *models.Task) {
	content := d.Content
	switch d.Type {
	case models.DocDesign:
		t.DesignDocument = &content
		t.Status = models.StatusDesign
	case models.DocPRD:
		t.PRD = &content
		t.Status = models.StatusPRD
	case models.DocPrototype:
		t.Prototype = &content
		t.Status = models.StatusPrototype
	}
}

// Generator produces pipeline documents.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (Document, error)
}

// PlaceholderGenerator renders deterministic stand-in documents.
type PlaceholderGenerator struct {
	Now func() time.Time
}

// NewPlaceholderGenerator returns a generator stamped with the wall clock.
func NewPlaceholderGenerator() *PlaceholderGenerator {
	return &PlaceholderGenerator{Now: time.Now}
}

func (g *PlaceholderGenerator) Name() string { return "placeholder" }

// Generate builds `[AI Generated <Kind> for "<title>"]` followed by the source document.
func (g *PlaceholderGenerator) Generate(ctx context.Context, req Request) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if req.Task == nil {
		return Document{}, fmt.Errorf("generate: nil task")
	}

	var kind, source, content string
	t := req.Task
	switch req.Target {
	case models.StatusDesign:
		kind = "Design Document"
		if len(req.Answers) > 0 {
			source, content = "Q&A Answers", formatAnswers(req.Answers)
		} else {
			source, content = "Feature List", t.FeatureList
		}
	case models.StatusPRD:
		kind, source, content = "PRD", "Design Document", deref(t.DesignDocument)
	case models.StatusPrototype:
		kind, source, content = "Prototype", "PRD", deref(t.PRD)
	default:
		return Document{}, fmt.Errorf("generate: no document for status %q", req.Target)
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	text := fmt.Sprintf("[AI Generated %s for %q]\n\nBased on %s:\n%s\n\nGenerated at: %s",
		kind, t.Title, source, content, now().UTC().Format(time.RFC3339))

	return Document{Type: DocumentFor(req.Target), Content: text}, nil
}

func formatAnswers(answers []models.QAAnswer) string {
	var b strings.Builder
	for i, a := range answers {
		if i > 0 {
			b.WriteByte('\n')
		}
		label := a.Question
		if label == "" {
			label = a.QuestionID
		}
		fmt.Fprintf(&b, "- %s: %s", label, a.Answer)
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
