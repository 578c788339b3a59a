package server

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	kerrors "github.com/p-blackswan/kanban-board/internal/errors"
	"github.com/p-blackswan/kanban-board/internal/metrics"
	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/qa"
	"github.com/p-blackswan/kanban-board/internal/questions"
	"github.com/p-blackswan/kanban-board/internal/tasks"
)

// handlers holds dependencies for HTTP handlers.
type handlers struct {
	tasks     *tasks.Service
	qa        *qa.Manager
	templates qa.TemplateSource
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func newHandlers(deps Deps, logger zerolog.Logger) *handlers {
	return &handlers{
		tasks:     deps.Tasks,
		qa:        deps.QA,
		templates: deps.Templates,
		metrics:   deps.Metrics,
		logger:    logger.With().Str("component", "handlers").Logger(),
	}
}

// parseBody decodes a JSON body, reporting malformed input as INVALID_INPUT.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return kerrors.InvalidInput("Request body is required")
	}
	if err := c.BodyParser(out); err != nil {
		return kerrors.InvalidInput("Invalid request body")
	}
	return nil
}

// ifMatch reads an optional expected version from the If-Match header.
// Both 3 and "3" (also W/"3") are accepted; absent means zero.
func ifMatch(c *fiber.Ctx) (int64, error) {
	raw := strings.TrimSpace(c.Get(fiber.HeaderIfMatch))
	if raw == "" || raw == "*" {
		return 0, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		return 0, kerrors.InvalidInput("If-Match must be a positive task version").
			WithDetails(kerrors.Details{Field: "If-Match", Value: c.Get(fiber.HeaderIfMatch)})
	}
	return v, nil
}

func setETag(c *fiber.Ctx, t *models.Task) {
	c.Set(fiber.HeaderETag, `"`+strconv.FormatInt(t.Version, 10)+`"`)
}

// --- questions ---

// listCategories handles GET /api/questions and /api/questions/categories.
func (h *handlers) listCategories(c *fiber.Ctx) error {
	return ok(c, questions.Categories())
}

// getTemplate handles GET /api/questions/:category.
func (h *handlers) getTemplate(c *fiber.Ctx) error {
	category, err := qa.ValidateCategory(c.Params("category"))
	if err != nil {
		return err
	}
	return ok(c, h.templates.LoadTemplate(c.UserContext(), category))
}

// --- q&a ---

// getQA handles GET /api/tasks/:taskId/qa. A task without a session yields data null.
func (h *handlers) getQA(c *fiber.Ctx) error {
	sess, err := h.qa.Get(c.UserContext(), c.Params("taskId"))
	if err != nil {
		return err
	}
	if sess == nil {
		return ok(c, nil)
	}
	return ok(c, sess)
}

// saveQA handles POST /api/tasks/:taskId/qa.
func (h *handlers) saveQA(c *fiber.Ctx) error {
	var in qa.SaveInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	res, err := h.qa.Save(c.UserContext(), c.Params("taskId"), in)
	if err != nil {
		return err
	}
	if h.metrics != nil {
		h.metrics.RecordQASave(string(res.Session.Category), string(res.Session.Status))
	}
	return ok(c, res)
}

// generateDesign handles POST /api/tasks/:taskId/generate-design.
func (h *handlers) generateDesign(c *fiber.Ctx) error {
	t, err := h.tasks.GenerateDesign(c.UserContext(), c.Params("taskId"))
	if err != nil {
		return err
	}
	setETag(c, t)
	return ok(c, t)
}

// --- projects ---

func (h *handlers) listProjects(c *fiber.Ctx) error {
	projects, err := h.tasks.ListProjects(c.UserContext())
	if err != nil {
		return err
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	return ok(c, projects)
}

func (h *handlers) createProject(c *fiber.Ctx) error {
	var in models.CreateProjectInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	p, err := h.tasks.CreateProject(c.UserContext(), in)
	if err != nil {
		return err
	}
	return created(c, p)
}

func (h *handlers) getProject(c *fiber.Ctx) error {
	p, err := h.tasks.GetProject(c.UserContext(), c.Params("projectId"))
	if err != nil {
		return err
	}
	return ok(c, p)
}
