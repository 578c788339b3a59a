package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/qa"
)

// --- questions ---

// ListCategories returns the questionnaire categories.
func (c *Client) ListCategories(ctx context.Context) ([]models.CategoryDefinition, error) {
	var out []models.CategoryDefinition
	if err := c.get(ctx, "/api/questions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTemplate returns the questionnaire of a category.
func (c *Client) GetTemplate(ctx context.Context, category models.Category) (*models.QuestionTemplate, error) {
	var out models.QuestionTemplate
	if err := c.get(ctx, "/api/questions/"+escape(string(category)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- q&a ---

// GetQA returns the Q&A session of a task, or nil when none was started.
func (c *Client) GetQA(ctx context.Context, taskID string) (*models.QASession, error) {
	var out *models.QASession
	if err := c.get(ctx, "/api/tasks/"+escape(taskID)+"/qa", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveQA saves the answers of a task's Q&A session.
func (c *Client) SaveQA(ctx context.Context, taskID string, in qa.SaveInput) (*qa.SaveResult, error) {
	var out qa.SaveResult
	if err := c.send(ctx, http.MethodPost, "/api/tasks/"+escape(taskID)+"/qa", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateDesign generates the design document from the task's answers.
func (c *Client) GenerateDesign(ctx context.Context, taskID string) (*models.Task, error) {
	var out models.Task
	if err := c.send(ctx, http.MethodPost, "/api/tasks/"+escape(taskID)+"/generate-design", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- projects ---

func (c *Client) ListProjects(ctx context.Context) ([]*models.Project, error) {
	var out []*models.Project
	if err := c.get(ctx, "/api/projects", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProject(ctx context.Context, in models.CreateProjectInput) (*models.Project, error) {
	var out models.Project
	if err := c.send(ctx, http.MethodPost, "/api/projects", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	var out models.Project
	if err := c.get(ctx, "/api/projects/"+escape(projectID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- tasks ---

// ListTasks returns the board tasks of a project.
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]*models.Task, error) {
	var out []*models.Task
	if err := c.get(ctx, "/api/projects/"+escape(projectID)+"/tasks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTask(ctx context.Context, projectID string, in models.CreateTaskInput) (*models.Task, error) {
	var out models.Task
	if err := c.send(ctx, http.MethodPost, "/api/projects/"+escape(projectID)+"/tasks", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	var out models.Task
	if err := c.get(ctx, "/api/tasks/"+escape(taskID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask sends a content patch. A positive version is sent as If-Match.
func (c *Client) UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch, version int64) (*models.Task, error) {
	var out models.Task
	err := c.do(ctx, call{
		method:  http.MethodPut,
		path:    "/api/tasks/" + escape(taskID),
		body:    patch,
		out:     &out,
		headers: versionHeader(version),
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.send(ctx, http.MethodDelete, "/api/tasks/"+escape(taskID), nil, nil)
}

// UpdateStatus moves a task without generating content.
func (c *Client) UpdateStatus(ctx context.Context, taskID string, status models.TaskStatus) (*models.Task, error) {
	var out models.Task
	body := map[string]string{"status": string(status)}
	if err := c.send(ctx, http.MethodPut, "/api/tasks/"+escape(taskID)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TriggerAI generates the document for target and moves the task there.
func (c *Client) TriggerAI(ctx context.Context, taskID string, target models.TaskStatus) (*models.Task, error) {
	var out models.Task
	body := map[string]string{"targetStatus": string(target)}
	if err := c.send(ctx, http.MethodPost, "/api/tasks/"+escape(taskID)+"/trigger-ai", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Generations(ctx context.Context, taskID string) ([]*models.GenerationRecord, error) {
	var out []*models.GenerationRecord
	if err := c.get(ctx, "/api/tasks/"+escape(taskID)+"/generations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- archives ---

func (c *Client) ArchiveTask(ctx context.Context, taskID string) (*models.Archive, error) {
	var out models.Archive
	if err := c.send(ctx, http.MethodPost, "/api/tasks/"+escape(taskID)+"/archive", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListArchives(ctx context.Context, projectID string) ([]*models.Archive, error) {
	var out []*models.Archive
	if err := c.get(ctx, "/api/projects/"+escape(projectID)+"/archives", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RestoreArchive(ctx context.Context, projectID, archiveID string) (*models.Task, error) {
	var out models.Task
	path := "/api/projects/" + escape(projectID) + "/archives/" + escape(archiveID) + "/restore"
	if err := c.send(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteArchive(ctx context.Context, projectID, archiveID string) error {
	return c.send(ctx, http.MethodDelete, "/api/projects/"+escape(projectID)+"/archives/"+escape(archiveID), nil, nil)
}

// --- completed documents ---

// CompletedDocuments lists finished tasks matching q. Zero-valued fields use server defaults,
// except IncludeArchived which is always sent.
func (c *Client) CompletedDocuments(ctx context.Context, projectID string, q models.CompletedQuery) ([]models.CompletedDocumentSummary, error) {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if len(q.DocumentTypes) > 0 {
		v.Set("documentType", strings.Join(q.DocumentTypes, ","))
	}
	if len(q.References) > 0 {
		v.Set("reference", strings.Join(q.References, ","))
	}
	v.Set("includeArchived", strconv.FormatBool(q.IncludeArchived))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}

	var out []models.CompletedDocumentSummary
	path := "/api/projects/" + escape(projectID) + "/completed-documents?" + v.Encode()
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CompletedDocument(ctx context.Context, projectID, taskID string) (*models.CompletedDocumentDetail, error) {
	var out models.CompletedDocumentDetail
	path := "/api/projects/" + escape(projectID) + "/completed-documents/" + escape(taskID)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
