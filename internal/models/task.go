// Package models holds the domain types shared by the board API, its store and its clients.
package models

import "time"

// TaskStatus is the kanban column a task sits in.
type TaskStatus string

const (
	StatusFeatureList TaskStatus = "featurelist"
	StatusDesign      TaskStatus = "design"
	StatusPRD         TaskStatus = "prd"
	StatusPrototype   TaskStatus = "prototype"
)

// Pipeline lists the statuses in pipeline order.
var Pipeline = []TaskStatus{StatusFeatureList, StatusDesign, StatusPRD, StatusPrototype}

// IsValidTaskStatus reports whether s names a pipeline column.
func IsValidTaskStatus(s string) bool {
	for _, st := range Pipeline {
		if string(st) == s {
			return true
		}
	}
	return false
}

// DocumentType names one of the generated documents on a task.
type DocumentType string

const (
	DocFeatureList DocumentType = "featurelist"
	DocDesign      DocumentType = "design"
	DocPRD         DocumentType = "prd"
	DocPrototype   DocumentType = "prototype"
)

// Task is a kanban card moving through the design pipeline.
type Task struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"projectId"`
	Title          string     `json:"title"`
	Status         TaskStatus `json:"status"`
	FeatureList    string     `json:"featureList"`
	DesignDocument *string    `json:"designDocument"`
	PRD            *string    `json:"prd"`
	Prototype      *string    `json:"prototype"`
	References     []string   `json:"references"`
	QAAnswers      []QAAnswer `json:"qaAnswers"`
	Revisions      []Revision `json:"revisions"`
	IsArchived     bool       `json:"isArchived"`
	Version        int64      `json:"version"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.DesignDocument = cloneString(t.DesignDocument)
	c.PRD = cloneString(t.PRD)
	c.Prototype = cloneString(t.Prototype)
	c.References = append([]string(nil), t.References...)
	c.QAAnswers = append([]QAAnswer(nil), t.QAAnswers...)
	c.Revisions = append([]Revision(nil), t.Revisions...)
	return &c
}

// HasDocument reports whether the given generated document is present and non-empty.
func (t *Task) HasDocument(doc DocumentType) bool {
	switch doc {
	case DocFeatureList:
		return t.FeatureList != ""
	case DocDesign:
		return t.DesignDocument != nil && *t.DesignDocument != ""
	case DocPRD:
		return t.PRD != nil && *t.PRD != ""
	case DocPrototype:
		return t.Prototype != nil && *t.Prototype != ""
	}
	return false
}

// HasReference reports whether ref is among the task's references.
func (t *Task) HasReference(ref string) bool {
	for _, r := range t.References {
		if r == ref {
			return true
		}
	}
	return false
}

// QAAnswer is an answer copied onto a task from its Q&A session.
type QAAnswer struct {
	QuestionID string     `json:"questionId"`
	Category   Category   `json:"category"`
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

// Revision is one historical version of a task document.
type Revision struct {
	ID           string       `json:"id"`
	DocumentType DocumentType `json:"documentType"`
	Content      string       `json:"content"`
	Feedback     *string      `json:"feedback"`
	Version      int          `json:"version"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// TaskPatch carries a partial content update. Nil fields are left untouched.
type TaskPatch struct {
	Title          *string   `json:"title,omitempty"`
	FeatureList    *string   `json:"featureList,omitempty"`
	DesignDocument *string   `json:"designDocument,omitempty"`
	PRD            *string   `json:"prd,omitempty"`
	Prototype      *string   `json:"prototype,omitempty"`
	References     *[]string `json:"references,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.FeatureList == nil && p.DesignDocument == nil &&
		p.PRD == nil && p.Prototype == nil && p.References == nil
}

// Merge overlays other onto p; fields set in other win.
func (p TaskPatch) Merge(other TaskPatch) TaskPatch {
	if other.Title != nil {
		p.Title = other.Title
	}
	if other.FeatureList != nil {
		p.FeatureList = other.FeatureList
	}
	if other.DesignDocument != nil {
		p.DesignDocument = other.DesignDocument
	}
	if other.PRD != nil {
		p.PRD = other.PRD
	}
	if other.Prototype != nil {
		p.Prototype = other.Prototype
	}
	if other.References != nil {
		p.References = other.References
	}
	return p
}

// Apply writes the patch onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.FeatureList != nil {
		t.FeatureList = *p.FeatureList
	}
	if p.DesignDocument != nil {
		t.DesignDocument = cloneString(p.DesignDocument)
	}
	if p.PRD != nil {
		t.PRD = cloneString(p.PRD)
	}
	if p.Prototype != nil {
		t.Prototype = cloneString(p.Prototype)
	}
	if p.References != nil {
		t.References = append([]string{}, (*p.References)...)
	}
}

// CreateTaskInput is the payload for creating a task in a project.
type CreateTaskInput struct {
	Title       string   `json:"title"`
	FeatureList string   `json:"featureList,omitempty"`
	References  []string `json:"references,omitempty"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
