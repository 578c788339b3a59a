// Package server exposes the board over a JSON HTTP API built on Fiber.
package server

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/kanban-board/internal/health"
	"github.com/p-blackswan/kanban-board/internal/metrics"
	"github.com/p-blackswan/kanban-board/internal/qa"
	"github.com/p-blackswan/kanban-board/internal/requestid"
	"github.com/p-blackswan/kanban-board/internal/tasks"
)

// Config holds configuration for the API server.
type Config struct {
	ListenAddr  string
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	CORSOrigins string
	TLSCert     string
	TLSKey      string
}

// Deps are the services the routes delegate to.
type Deps struct {
	Tasks     *tasks.Service
	QA        *qa.Manager
	Templates qa.TemplateSource
	Checker   *health.Checker
	Metrics   *metrics.Metrics // optional
}

// Server is the board API Fiber application.
type Server struct {
	app     *fiber.App
	limiter *rateLimiter
	logger  zerolog.Logger
	config  Config
}

// New creates and configures the API server.
func New(cfg Config, deps Deps, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "api_server").Logger()
	errHandler := customErrorHandler(logger)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errHandler,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ReadBufferSize:        8192,
		WriteBufferSize:       8192,
		BodyLimit:             4 * 1024 * 1024,
	})

	s := &Server{
		app:    app,
		logger: logger,
		config: cfg,
	}

	s.setupMiddleware(cfg, deps.Metrics, errHandler)
	s.setupRoutes(newHandlers(deps, logger), deps)

	return s
}

func (s *Server) setupMiddleware(cfg Config, m *metrics.Metrics, errHandler fiber.ErrorHandler) {
	// Request ID: keep the caller's id when it sent one.
	s.app.Use(func(c *fiber.Ctx) error {
		ctx, reqID := requestid.Accept(c.UserContext(), c.Get(requestid.Header))
		c.SetUserContext(ctx)
		c.Set(requestid.Header, reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	// Metrics wrap recovery so panics are counted as 500s.
	s.app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := errHandler(c, err); herr != nil {
				return herr
			}
		}
		if m != nil {
			route := c.Route().Path
			m.RecordRequest(route, c.Method(), strconv.Itoa(c.Response().StatusCode()), time.Since(start).Seconds())
		}
		return nil
	})

	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSOrigins,
			AllowHeaders:  "Origin, Content-Type, Accept, Authorization, If-Match, X-Request-ID",
			AllowMethods:  "GET, POST, PUT, DELETE, OPTIONS",
			ExposeHeaders: "X-Request-ID, ETag",
		}))
	}

	if cfg.RateLimit.RPS > 0 {
		s.limiter = newRateLimiter(cfg.RateLimit)
		go s.limiter.janitor(5 * time.Minute)
		s.app.Use(s.limiter.middleware())
	}

	s.app.Use(NewAuthMiddleware(cfg.Auth, s.logger))

	// Audit log, probes excluded.
	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if isProbe(path) {
			return c.Next()
		}
		reqID, _ := c.Locals("request_id").(string)
		s.logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Str("ip", c.IP()).
			Str("request_id", reqID).
			Msg("api request")
		return c.Next()
	})
}

func (s *Server) setupRoutes(h *handlers, deps Deps) {
	s.app.Get("/healthz", health.LivenessHandler())
	if deps.Checker != nil {
		s.app.Get("/readyz", deps.Checker.ReadinessHandler())
	}
	if deps.Metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	edit := requireRole(RoleEditor)
	admin := requireRole(RoleAdmin)

	api := s.app.Group("/api")

	// Questions
	api.Get("/questions", h.listCategories)
	api.Get("/questions/categories", h.listCategories)
	api.Get("/questions/:category", h.getTemplate)

	// Q&A
	api.Get("/tasks/:taskId/qa", h.getQA)
	api.Post("/tasks/:taskId/qa", edit, h.saveQA)
	api.Post("/tasks/:taskId/generate-design", edit, h.generateDesign)

	// Projects
	api.Get("/projects", h.listProjects)
	api.Post("/projects", edit, h.createProject)
	api.Get("/projects/:projectId", h.getProject)
	api.Get("/projects/:projectId/tasks", h.listTasks)
	api.Post("/projects/:projectId/tasks", edit, h.createTask)

	// Completed documents
	api.Get("/projects/:projectId/completed-documents", h.listCompleted)
	api.Get("/projects/:projectId/completed-documents/:taskId", h.getCompleted)

	// Archives
	api.Get("/projects/:projectId/archives", h.listArchives)
	api.Get("/projects/:projectId/archives/:archiveId", h.getArchive)
	api.Post("/projects/:projectId/archives/:archiveId/restore", edit, h.restoreArchive)
	api.Delete("/projects/:projectId/archives/:archiveId", admin, h.deleteArchive)

	// Tasks
	api.Get("/tasks/:taskId", h.getTask)
	api.Put("/tasks/:taskId", edit, h.updateTask)
	api.Delete("/tasks/:taskId", admin, h.deleteTask)
	api.Put("/tasks/:taskId/status", edit, h.updateStatus)
	api.Post("/tasks/:taskId/trigger-ai", edit, h.triggerAI)
	api.Post("/tasks/:taskId/archive", edit, h.archiveTask)
	api.Get("/tasks/:taskId/generations", h.listGenerations)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":3001"
	}

	s.logger.Info().Str("addr", addr).Msg("api server starting")

	if s.config.TLSCert != "" && s.config.TLSKey != "" {
		return s.app.ListenTLS(addr, s.config.TLSCert, s.config.TLSKey)
	}
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server, waiting at most timeout for open requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.logger.Info().Msg("api server shutting down")
	if s.limiter != nil {
		s.limiter.stop()
	}
	if timeout <= 0 {
		return s.app.Shutdown()
	}
	return s.app.ShutdownWithTimeout(timeout)
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}
