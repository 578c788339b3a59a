package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/p-blackswan/kanban-board/internal/cleanup"
	"github.com/p-blackswan/kanban-board/internal/config"
	"github.com/p-blackswan/kanban-board/internal/health"
	"github.com/p-blackswan/kanban-board/internal/metrics"
	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/qa"
	"github.com/p-blackswan/kanban-board/internal/questions"
	"github.com/p-blackswan/kanban-board/internal/server"
	"github.com/p-blackswan/kanban-board/internal/store"
	"github.com/p-blackswan/kanban-board/internal/tasks"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("http_addr", cfg.HTTPAddr).
		Str("auth_mode", cfg.AuthMode).
		Str("db_path", cfg.ResolvedDBPath()).
		Str("templates_dir", cfg.ResolvedTemplatesDir()).
		Msg("starting kanban board")

	for _, dir := range []string{cfg.DataDir, cfg.ResolvedTemplatesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal().Err(err).Str("dir", dir).Msg("failed to create directory")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.ResolvedDBPath(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("store close error")
		}
	}()

	m := metrics.New()

	loader := questions.NewLoader(cfg.ResolvedTemplatesDir(), cfg.TemplateCacheSize, logger)
	if cfg.WatchTemplates {
		watcher, err := questions.NewWatcher(loader, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("template watcher unavailable (non-fatal)")
		} else {
			watcher.OnEvict = func(c models.Category) { m.RecordTemplateEviction(string(c)) }
			if err := watcher.Start(ctx); err != nil {
				logger.Warn().Err(err).Msg("template watcher not started, edits need a restart")
			}
			defer watcher.Stop()
		}
	}

	svc := tasks.NewService(st, nil, logger)
	svc.SetRecorder(m)
	qaManager := qa.NewManager(st, loader, logger)

	checker := health.NewChecker(logger)
	checker.Register("db", health.PingCheck(st))
	checker.Register("templates", func(ctx context.Context) health.Status {
		if _, err := os.Stat(loader.Dir()); err != nil {
			// Built-in templates still serve every category.
			return health.StatusDegraded
		}
		return health.StatusOK
	})

	api := server.New(server.Config{
		ListenAddr: cfg.HTTPAddr,
		Auth: server.AuthConfig{
			Mode:      cfg.AuthMode,
			APIKey:    cfg.APIKey,
			JWTSecret: []byte(cfg.JWTSecret),
		},
		RateLimit: server.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOrigins,
		TLSCert:     cfg.TLSCert,
		TLSKey:      cfg.TLSKey,
	}, server.Deps{
		Tasks:     svc,
		QA:        qaManager,
		Templates: loader,
		Checker:   checker,
		Metrics:   m,
	}, logger)

	cleaner := cleanup.NewCleaner(cleanup.CleanupConfig{
		MaxAge:        cfg.RetentionMaxAge,
		CheckInterval: cfg.RetentionInterval,
	}, st, m, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(api.Start)
	g.Go(func() error { return cleaner.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down gracefully")
		return api.Shutdown(cfg.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("kanban board stopped with error")
		return
	}
	logger.Info().Msg("kanban board stopped")
}
