// Package pipeline defines the ordering of task statuses and the rules for
// generating the document that belongs to each column.
package pipeline

import (
	kerrors "github.com/p-blackswan/kanban-board/internal/errors"
	"github.com/p-blackswan/kanban-board/internal/models"
)

// Order returns the statuses in pipeline order.
func Order() []models.TaskStatus {
	out := make([]models.TaskStatus, len(models.Pipeline))
	copy(out, models.Pipeline)
	return out
}

// StatusNames returns the pipeline statuses as strings.
func StatusNames() []string {
	names := make([]string, len(models.Pipeline))
	for i, s := range models.Pipeline {
		names[i] = string(s)
	}
	return names
}

// Index returns the position of s in the pipeline, or -1 when unknown.
func Index(s models.TaskStatus) int {
	for i, st := range models.Pipeline {
		if st == s {
			return i
		}
	}
	return -1
}

// Compare returns -1, 0 or 1 as a sits before, at or after b in the pipeline.
func Compare(a, b models.TaskStatus) int {
	ia, ib := Index(a), Index(b)
	switch {
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	default:
		return 0
	}
}

// IsForward reports whether moving from one status to another advances the task.
func IsForward(from, to models.TaskStatus) bool {
	return Compare(from, to) < 0
}

// IsBackward reports whether moving from one status to another moves the task back.
func IsBackward(from, to models.TaskStatus) bool {
	return Compare(from, to) > 0
}

// Next returns the status after s. ok is false for the terminal status.
func Next(s models.TaskStatus) (next models.TaskStatus, ok bool) {
	i := Index(s)
	if i < 0 || i+1 >= len(models.Pipeline) {
		return "", false
	}
	return models.Pipeline[i+1], true
}

// DocumentFor maps a status to the document generated when entering it.
func DocumentFor(s models.TaskStatus) models.DocumentType {
	switch s {
	case models.StatusDesign:
		return models.DocDesign
	case models.StatusPRD:
		return models.DocPRD
	case models.StatusPrototype:
		return models.DocPrototype
	}
	return models.DocFeatureList
}

// Requirement describes the document a target status depends on.
type Requirement struct {
	Field    string
	Message  string
	Action   string
	Guidance string
}

// Prerequisite returns the requirement for generating target, if any.
func Prerequisite(target models.TaskStatus) (Requirement, bool) {
	switch target {
	case models.StatusPRD:
		return Requirement{
			Field:    "designDocument",
			Message:  "Design Document is required to generate PRD",
			Action:   "complete_design",
			Guidance: "Complete the Q&A session to generate Design Document first",
		}, true
	case models.StatusPrototype:
		return Requirement{
			Field:    "prd",
			Message:  "PRD is required to generate Prototype",
			Action:   "generate_prd",
			Guidance: "Generate PRD first before creating Prototype",
		}, true
	}
	return Requirement{}, false
}

// CheckPrerequisite returns a PREREQUISITE_MISSING error when t lacks the
// document needed to generate target.
func CheckPrerequisite(t *models.Task, target models.TaskStatus) error {
	req, ok := Prerequisite(target)
	if !ok {
		return nil
	}
	var present bool
	switch req.Field {
	case "designDocument":
		present = t.HasDocument(models.DocDesign)
	case "prd":
		present = t.HasDocument(models.DocPRD)
	}
	if present {
		return nil
	}
	return kerrors.PrerequisiteMissing(req.Field, req.Message, req.Action, req.Guidance, string(t.Status))
}
