package models

import "time"

// Project groups the tasks of one board.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateProjectInput is the payload for creating a project.
type CreateProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Archive is a snapshot of a finished task removed from the board.
type Archive struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"taskId"`
	ProjectID  string    `json:"projectId"`
	Task       *Task     `json:"task"`
	ArchivedAt time.Time `json:"archivedAt"`
}

// GenerationRecord is one entry of a task's generation history.
type GenerationRecord struct {
	ID           int64        `json:"id"`
	TaskID       string       `json:"taskId"`
	DocumentType DocumentType `json:"documentType"`
	Generator    string       `json:"generator"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// CompletedStatus tells whether a completed document comes from the board or the archive.
type CompletedStatus string

const (
	CompletedPrototype CompletedStatus = "prototype"
	CompletedArchived  CompletedStatus = "archived"
)

// CompletedDocumentSummary is the list view of a finished task.
type CompletedDocumentSummary struct {
	TaskID       string          `json:"taskId"`
	Title        string          `json:"title"`
	Status       CompletedStatus `json:"status"`
	References   []string        `json:"references"`
	HasDesignDoc bool            `json:"hasDesignDoc"`
	HasPRD       bool            `json:"hasPrd"`
	HasPrototype bool            `json:"hasPrototype"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	ArchivedAt   *time.Time      `json:"archivedAt,omitempty"`
}

// CompletedDocumentDetail is the full view of a finished task.
type CompletedDocumentDetail struct {
	TaskID         string          `json:"taskId"`
	Title          string          `json:"title"`
	Status         CompletedStatus `json:"status"`
	References     []string        `json:"references"`
	FeatureList    string          `json:"featureList"`
	DesignDocument *string         `json:"designDocument"`
	PRD            *string         `json:"prd"`
	Prototype      *string         `json:"prototype"`
	QAAnswers      []QAAnswer      `json:"qaAnswers"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	ArchivedAt     *time.Time      `json:"archivedAt,omitempty"`
}

// CompletedQuery filters the completed-documents listing.
type CompletedQuery struct {
	Search          string
	DocumentTypes   []string
	References      []string
	IncludeArchived bool
	Limit           int
	Offset          int
}
