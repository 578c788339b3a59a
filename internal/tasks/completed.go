package tasks

import (
	"context"
	"strconv"
	"strings"
	"time"

	kerrors "github.com/p-blackswan/kanban-board/internal/errors"
	"github.com/p-blackswan/kanban-board/internal/models"
)

const (
	DefaultCompletedLimit = 50
	MaxCompletedLimit     = 100
)

// ParseCompletedQuery builds a query from raw request values. Invalid
// numbers fall back to the defaults; limit is capped at MaxCompletedLimit.
func ParseCompletedQuery(search, documentType, reference, includeArchived, limit, offset string) models.CompletedQuery {
	q := models.CompletedQuery{
		Search:          strings.TrimSpace(search),
		DocumentTypes:   splitList(documentType),
		References:      splitList(reference),
		IncludeArchived: true,
		Limit:           DefaultCompletedLimit,
	}
	if v, err := strconv.ParseBool(includeArchived); err == nil {
		q.IncludeArchived = v
	}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		q.Limit = n
	}
	if q.Limit > MaxCompletedLimit {
		q.Limit = MaxCompletedLimit
	}
	if n, err := strconv.Atoi(offset); err == nil && n > 0 {
		q.Offset = n
	}
	return q
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type completedEntry struct {
	task       *models.Task
	archivedAt *time.Time
}

func (e completedEntry) status() models.CompletedStatus {
	if e.archivedAt != nil {
		return models.CompletedArchived
	}
	return models.CompletedPrototype
}

// completedEntries gathers prototype tasks on the board followed by archived snapshots.
func (s *Service) completedEntries(ctx context.Context, projectID string, includeArchived bool) ([]completedEntry, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	board, err := s.store.ListTasks(ctx, projectID, false)
	if err != nil {
		return nil, err
	}
	var entries []completedEntry
	for _, t := range board {
		if t.Status == models.StatusPrototype {
			entries = append(entries, completedEntry{task: t})
		}
	}

	if !includeArchived {
		return entries, nil
	}
	archives, err := s.store.ListArchives(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, a := range archives {
		at := a.ArchivedAt
		entries = append(entries, completedEntry{task: a.Task, archivedAt: &at})
	}
	return entries, nil
}

// CompletedDocuments lists finished tasks of a project matching q.
func (s *Service) CompletedDocuments(ctx context.Context, projectID string, q models.CompletedQuery) ([]models.CompletedDocumentSummary, error) {
	entries, err := s.completedEntries(ctx, projectID, q.IncludeArchived)
	if err != nil {
		return nil, err
	}

	out := []models.CompletedDocumentSummary{}
	for _, e := range entries {
		if !matchesSearch(e.task, q.Search) || !matchesDocumentType(e.task, q.DocumentTypes) || !matchesReference(e.task, q.References) {
			continue
		}
		out = append(out, summary(e))
	}

	if q.Offset >= len(out) {
		return []models.CompletedDocumentSummary{}, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultCompletedLimit
	}
	end := q.Offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[q.Offset:end], nil
}

// CompletedDocument returns the full documents of one finished task.
// A prototype task on the board wins over an archived snapshot.
func (s *Service) CompletedDocument(ctx context.Context, projectID, taskID string) (*models.CompletedDocumentDetail, error) {
	entries, err := s.completedEntries(ctx, projectID, true)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.task.ID == taskID {
			d := detail(e)
			return &d, nil
		}
	}
	return nil, kerrors.DocumentNotFound(taskID)
}

func containsFold(text, keyword string) bool {
	if text == "" || keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}

func matchesSearch(t *models.Task, keyword string) bool {
	if keyword == "" {
		return true
	}
	design := ""
	if t.DesignDocument != nil {
		design = *t.DesignDocument
	}
	return containsFold(t.Title, keyword) || containsFold(t.FeatureList, keyword) || containsFold(design, keyword)
}

func matchesDocumentType(t *models.Task, types []string) bool {
	if len(types) == 0 {
		return true
	}
	for _, typ := range types {
		switch strings.ToLower(typ) {
		case "design":
			if t.HasDocument(models.DocDesign) {
				return true
			}
		case "prd":
			if t.HasDocument(models.DocPRD) {
				return true
			}
		case "prototype":
			if t.HasDocument(models.DocPrototype) {
				return true
			}
		}
	}
	return false
}

func matchesReference(t *models.Task, refs []string) bool {
	if len(refs) == 0 {
		return true
	}
	for _, r := range refs {
		if t.HasReference(r) {
			return true
		}
	}
	return false
}

func summary(e completedEntry) models.CompletedDocumentSummary {
	t := e.task
	return models.CompletedDocumentSummary{
		TaskID:       t.ID,
		Title:        t.Title,
		Status:       e.status(),
		References:   t.References,
		HasDesignDoc: t.HasDocument(models.DocDesign),
		HasPRD:       t.HasDocument(models.DocPRD),
		HasPrototype: t.HasDocument(models.DocPrototype),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		ArchivedAt:   e.archivedAt,
	}
}

func detail(e completedEntry) models.CompletedDocumentDetail {
	t := e.task
	return models.CompletedDocumentDetail{
		TaskID:         t.ID,
		Title:          t.Title,
		Status:         e.status(),
		References:     t.References,
		FeatureList:    t.FeatureList,
		DesignDocument: t.DesignDocument,
		PRD:            t.PRD,
		Prototype:      t.Prototype,
		QAAnswers:      t.QAAnswers,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		ArchivedAt:     e.archivedAt,
	}
}
