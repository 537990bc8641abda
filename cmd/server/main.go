package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/config"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/database"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/handler"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/kv"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/middleware"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/pipeline"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/repository"
	"github.com/maprexx-cmd/THEMOVIEFINDER/internal/tmdb"
)

func main() {
	// Structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Connect to Redis (non-fatal: session state falls back to memory)
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, using in-memory session store", "error", err)
		rdb = nil
	}

	var sessionKV kv.Store
	if rdb != nil {
		sessionKV = kv.NewRedisStore(rdb)
	} else {
		sessionKV = kv.NewMemoryStore()
	}

	// Connect to PostgreSQL (non-fatal: snapshots are disabled without it)
	var snapshots *repository.SnapshotRepository
	db, err := database.NewPostgres(cfg.DB)
	if err != nil {
		slog.Warn("PostgreSQL unavailable, snapshots disabled", "error", err)
	} else {
		defer db.Close()
		snapshots = repository.NewSnapshotRepository(db)
	}

	// Initialize TMDB client
	tmdbClient := tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, cfg.TMDB.Region, rdb)

	// Initialize layers
	pipelineCfg := pipeline.DefaultConfig()
	pipelineCfg.Cooldown = cfg.Tier.Cooldown

	var recorder pipeline.Recorder
	if snapshots != nil {
		recorder = snapshots
	}
	runner := pipeline.NewRunner(tmdbClient, pipelineCfg, recorder)

	sessions := handler.NewSessions(sessionKV, cfg.Tier.UnlockCode)
	searchHandler := handler.NewSearchHandler(runner, sessions)
	sessionHandler := handler.NewSessionHandler(runner, sessions, tmdbClient, snapshots)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Movie Finder",
		ServerHeader: "Movie-Finder",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("unhandled error", "error", err, "status", code)
			return c.Status(code).JSON(handler.ErrorResponse{Error: err.Error()})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	if rdb != nil {
		app.Use(middleware.NewRateLimiter(rdb, cfg.Limits.MaxRequests, cfg.Limits.WindowSec).Handler())
	}

	// API routes
	api := app.Group("/api/v1")
	api.Get("/health", searchHandler.Health)
	api.Post("/search", searchHandler.Search)
	api.Post("/search/more", searchHandler.MoreResults)
	api.Post("/sweep", searchHandler.Sweep)
	api.Get("/rankings", searchHandler.Rankings)
	api.Get("/gate", searchHandler.Gate)
	api.Get("/preferences", sessionHandler.GetPreferences)
	api.Put("/preferences", sessionHandler.SetPreferences)
	api.Get("/watched", sessionHandler.ListWatched)
	api.Post("/watched/mark", sessionHandler.MarkWatched)
	api.Post("/watched/toggle", sessionHandler.ToggleWatched)
	api.Post("/unlock", sessionHandler.Unlock)
	api.Get("/tier", sessionHandler.Tier)
	api.Get("/providers", sessionHandler.Providers)
	api.Get("/snapshots", sessionHandler.Snapshots)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutting down movie finder...")
		_ = app.Shutdown()
	}()

	// Start server
	addr := ":" + cfg.Port
	slog.Info("starting movie finder", "addr", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
