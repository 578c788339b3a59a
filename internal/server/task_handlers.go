package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/tasks"
)

type statusRequest struct {
	Status string `json:"status"`
}

type triggerRequest struct {
	TargetStatus string `json:"targetStatus"`
}

// listTasks handles GET /api/projects/:projectId/tasks.
func (h *handlers) listTasks(c *fiber.Ctx) error {
	list, err := h.tasks.ListTasks(c.UserContext(), c.Params("projectId"))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*models.Task{}
	}
	return ok(c, list)
}

// createTask handles POST /api/projects/:projectId/tasks.
func (h *handlers) createTask(c *fiber.Ctx) error {
	var in models.CreateTaskInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	t, err := h.tasks.CreateTask(c.UserContext(), c.Params("projectId"), in)
	if err != nil {
		return err
	}
	setETag(c, t)
	return created(c, t)
}

func (h *handlers) getTask(c *fiber.Ctx) error {
	t, err := h.tasks.GetTask(c.UserContext(), c.Params("taskId"))
	if err != nil {
		return err
	}
	setETag(c, t)
	return ok(c, t)
}

// updateTask handles PUT /api/tasks/:taskId with an optional If-Match version.
func (h *handlers) updateTask(c *fiber.Ctx) error {
	version, err := ifMatch(c)
	if err != nil {
		return err
	}
	var patch models.TaskPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}
	t, err := h.tasks.UpdateTask(c.UserContext(), c.Params("taskId"), patch, version)
	if err != nil {
		return err
	}
	setETag(c, t)
	return ok(c, t)
}

func (h *handlers) deleteTask(c *fiber.Ctx) error {
	if err := h.tasks.DeleteTask(c.UserContext(), c.Params("taskId")); err != nil {
		return err
	}
	return ok(c, fiber.Map{"deleted": true})
}

// updateStatus handles PUT /api/tasks/:taskId/status.
func (h *handlers) updateStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	t, err := h.tasks.UpdateStatus(c.UserContext(), c.Params("taskId"), req.Status)
	if err != nil {
		return err
	}
	setETag(c, t)
	return ok(c, t)
}

// triggerAI handles POST /api/tasks/:taskId/trigger-ai.
func (h *handlers) triggerAI(c *fiber.Ctx) error {
	var req triggerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	t, err := h.tasks.TriggerAI(c.UserContext(), c.Params("taskId"), req.TargetStatus)
	if err != nil {
		return err
	}
	setETag(c, t)
	return ok(c, t)
}

func (h *handlers) listGenerations(c *fiber.Ctx) error {
	recs, err := h.tasks.Generations(c.UserContext(), c.Params("taskId"))
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []*models.GenerationRecord{}
	}
	return ok(c, recs)
}

// --- archives ---

// archiveTask handles POST /api/tasks/:taskId/archive.
func (h *handlers) archiveTask(c *fiber.Ctx) error {
	a, err := h.tasks.ArchiveTask(c.UserContext(), c.Params("taskId"))
	if err != nil {
		return err
	}
	return created(c, a)
}

func (h *handlers) listArchives(c *fiber.Ctx) error {
	list, err := h.tasks.ListArchives(c.UserContext(), c.Params("projectId"))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*models.Archive{}
	}
	return ok(c, list)
}

func (h *handlers) getArchive(c *fiber.Ctx) error {
	a, err := h.tasks.GetArchive(c.UserContext(), c.Params("projectId"), c.Params("archiveId"))
	if err != nil {
		return err
	}
	return ok(c, a)
}

func (h *handlers) restoreArchive(c *fiber.Ctx) error {
	t, err := h.tasks.RestoreArchive(c.UserContext(), c.Params("projectId"), c.Params("archiveId"))
	if err != nil {
		return err
	}
	setETag(c, t)
	return ok(c, t)
}

func (h *handlers) deleteArchive(c *fiber.Ctx) error {
	if err := h.tasks.DeleteArchive(c.UserContext(), c.Params("projectId"), c.Params("archiveId")); err != nil {
		return err
	}
	return ok(c, fiber.Map{"deleted": true})
}

// --- completed documents ---

// listCompleted handles GET /api/projects/:projectId/completed-documents.
func (h *handlers) listCompleted(c *fiber.Ctx) error {
	q := tasks.ParseCompletedQuery(
		c.Query("search"),
		c.Query("documentType"),
		c.Query("reference"),
		c.Query("includeArchived"),
		c.Query("limit"),
		c.Query("offset"),
	)
	docs, err := h.tasks.CompletedDocuments(c.UserContext(), c.Params("projectId"), q)
	if err != nil {
		return err
	}
	return ok(c, docs)
}

func (h *handlers) getCompleted(c *fiber.Ctx) error {
	doc, err := h.tasks.CompletedDocument(c.UserContext(), c.Params("projectId"), c.Params("taskId"))
	if err != nil {
		return err
	}
	return ok(c, doc)
}
