package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/p-blackswan/kanban-board/internal/errors"
	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/qa"
	"github.com/p-blackswan/kanban-board/internal/questions"
	"github.com/p-blackswan/kanban-board/internal/requestid"
	"github.com/p-blackswan/kanban-board/internal/retry"
	"github.com/p-blackswan/kanban-board/internal/server"
	"github.com/p-blackswan/kanban-board/internal/store"
	"github.com/p-blackswan/kanban-board/internal/tasks"
)

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func setupTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "test-token", zerolog.Nop())
	c.SetHTTPClient(srv.Client())
	c.SetRetry(fastRetry())
	return c
}

func writeEnvelope(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestClient_GetTask(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks/t1", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "req-9", r.Header.Get("X-Request-ID"))
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "t1", "title": "Crop market", "status": "design", "version": 4},
			"error":   nil,
		})
	})

	ctx := requestid.WithRequestID(context.Background(), "req-9")
	task, err := c.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Crop market", task.Title)
	assert.Equal(t, models.StatusDesign, task.Status)
	assert.Equal(t, int64(4), task.Version)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, map[string]any{
			"success":   false,
			"data":      nil,
			"error":     "PRD is required to generate Prototype",
			"errorCode": "PREREQUISITE_MISSING",
			"details":   map[string]string{"field": "prd", "action": "generate_prd"},
		})
	})

	_, err := c.TriggerAI(context.Background(), "t1", models.StatusPrototype)
	apiErr, ok := kerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, kerrors.CodePrerequisiteMissing, apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "PRD is required to generate Prototype", apiErr.Message)
	require.NotNil(t, apiErr.Details)
	assert.Equal(t, "generate_prd", apiErr.Details.Action)
}

func TestClient_RetriesReads(t *testing.T) {
	var calls atomic.Int32
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeEnvelope(w, http.StatusServiceUnavailable, map[string]any{"success": false, "error": "busy"})
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	})

	tasks, err := c.ListTasks(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryWrites(t *testing.T) {
	var calls atomic.Int32
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(w, http.StatusServiceUnavailable, map[string]any{"success": false, "error": "busy"})
	})

	_, err := c.UpdateStatus(context.Background(), "t1", models.StatusPRD)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(w, http.StatusNotFound, map[string]any{"success": false, "error": "Task not found", "errorCode": "TASK_NOT_FOUND"})
	})

	_, err := c.GetQA(context.Background(), "nope")
	assert.True(t, kerrors.HasCode(err, kerrors.CodeTaskNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NonJSONError(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	c.SetRetry(retry.NoRetry())

	_, err := c.ListProjects(context.Background())
	apiErr, ok := kerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.True(t, kerrors.IsRetryable(err))
}

func TestClient_TransportErrorIsUnavailable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", zerolog.Nop())
	c.SetRetry(retry.NoRetry())

	_, err := c.ListProjects(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrUnavailable))
}

func TestClient_UpdateTaskSendsIfMatch(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, `"7"`, r.Header.Get("If-Match"))
		var patch models.TaskPatch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		require.NotNil(t, patch.Title)
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": "t1", "title": *patch.Title, "version": 8}})
	})

	task, err := c.UpdateTask(context.Background(), "t1", models.TaskPatch{Title: models.StringPtr("New")}, 7)
	require.NoError(t, err)
	assert.Equal(t, "New", task.Title)
}

func TestClient_CompletedDocumentsQuery(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "farm", q.Get("search"))
		assert.Equal(t, "design,prd", q.Get("documentType"))
		assert.Equal(t, "false", q.Get("includeArchived"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Empty(t, q.Get("offset"))
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	})

	_, err := c.CompletedDocuments(context.Background(), "p1", models.CompletedQuery{
		Search:        "farm",
		DocumentTypes: []string{"design", "prd"},
		Limit:         10,
	})
	require.NoError(t, err)
}

// TestClient_AgainstServer runs the client against the real API stack.
func TestClient_AgainstServer(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "kanban.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	loader := questions.NewLoader(filepath.Join(dir, "questions"), questions.DefaultCacheSize, logger)

	api := server.New(server.Config{Auth: server.AuthConfig{Mode: server.AuthModeNone}}, server.Deps{
		Tasks:     tasks.NewService(st, nil, logger),
		QA:        qa.NewManager(st, loader, logger),
		Templates: loader,
	}, logger)
	httpSrv := httptest.NewServer(adaptor.FiberApp(api.App()))
	t.Cleanup(httpSrv.Close)

	c := NewClient(httpSrv.URL, "", logger)
	c.SetRetry(retry.NoRetry())
	ctx := context.Background()

	p, err := c.CreateProject(ctx, models.CreateProjectInput{Name: "Galaxy Farm"})
	require.NoError(t, err)
	task, err := c.CreateTask(ctx, p.ID, models.CreateTaskInput{Title: "Crop market"})
	require.NoError(t, err)

	sess, err := c.GetQA(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, sess)

	tmpl, err := c.GetTemplate(ctx, models.CategoryEconomy)
	require.NoError(t, err)
	_, err = c.SaveQA(ctx, task.ID, qa.SaveInput{
		Category:   string(models.CategoryEconomy),
		Answers:    []models.SessionAnswer{{QuestionID: tmpl.Questions[0].ID, Answer: "Gold"}},
		IsComplete: true,
	})
	require.NoError(t, err)

	designed, err := c.GenerateDesign(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDesign, designed.Status)

	_, err = c.UpdateTask(ctx, task.ID, models.TaskPatch{Title: models.StringPtr("stale")}, 1)
	assert.True(t, kerrors.HasCode(err, kerrors.CodeVersionConflict))

	_, err = c.TriggerAI(ctx, task.ID, models.StatusPRD)
	require.NoError(t, err)
	_, err = c.TriggerAI(ctx, task.ID, models.StatusPrototype)
	require.NoError(t, err)

	archive, err := c.ArchiveTask(ctx, task.ID)
	require.NoError(t, err)
	docs, err := c.CompletedDocuments(ctx, p.ID, models.CompletedQuery{IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, models.CompletedArchived, docs[0].Status)

	restored, err := c.RestoreArchive(ctx, p.ID, archive.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsArchived)

	history, err := c.Generations(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	require.NoError(t, c.DeleteTask(ctx, task.ID))
	_, err = c.GetTask(ctx, task.ID)
	assert.True(t, kerrors.HasCode(err, kerrors.CodeTaskNotFound))
}
