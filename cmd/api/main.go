package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/cv-align/internal/config"
	"alfredoptarigan/cv-align/internal/handlers"
	"alfredoptarigan/cv-align/internal/logger"
	"alfredoptarigan/cv-align/internal/repositories"
	"alfredoptarigan/cv-align/internal/services"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.LogJSON, cfg.Server.LogDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if !cfg.EnvFileLoaded {
		log.Info("no .env file found, using environment and default values")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline, err := services.NewPipelineFromConfig(ctx, cfg, log)
	if err != nil {
		log.Warn("local pipeline unavailable, remote evaluation endpoint disabled", zap.Error(err))
	} else {
		log.Info("pipeline initialized",
			zap.String("llm_provider", cfg.LLM.Provider),
			zap.String("embedding_provider", cfg.Embedding.Provider),
			zap.String("vector_backend", cfg.Pipeline.VectorBackend),
		)
	}

	app := fiber.New(fiber.Config{
		AppName:      "CV Align API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Resilience.LocalTimeout + 10*time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	endpoints := []string{"GET /api/v1/health"}

	api := app.Group("/api/v1")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now(),
			"pipeline": pipeline != nil,
		})
	})

	if pipeline != nil {
		evaluateHandler := handlers.NewEvaluateHandler(pipeline, cfg.Storage.MaxFileSize, log)
		app.Post("/api/evaluate/", evaluateHandler.HandleEvaluate)
		endpoints = append(endpoints, "POST /api/evaluate/")
	}

	var worker services.Worker
	if cfg.Database.CandidateAPI {
		db, err := config.InitDatabase(cfg, log)
		if err != nil {
			log.Fatal("failed to initialize database", zap.Error(err))
		}

		docRepo := repositories.NewDocumentRepository(db)
		evalRepo := repositories.NewEvaluationRepository(db)

		storageService := services.NewStorageService(cfg.Storage.UploadPath)
		if err := storageService.EnsureUploadDir(); err != nil {
			log.Fatal("failed to create upload directory", zap.Error(err))
		}

		evaluator := services.NewEvaluatorFromConfig(cfg, pipeline, log)
		worker = services.NewWorker(evalRepo, storageService, evaluator, cfg.Worker.Concurrency, cfg.Worker.PollInterval, log)
		worker.Start(ctx)

		candidateHandler := handlers.NewCandidateHandler(docRepo, evalRepo, storageService, worker, cfg.Storage.MaxFileSize, log)
		resultHandler := handlers.NewResultHandler(evalRepo)

		api.Post("/candidates", candidateHandler.HandleSubmit)
		api.Get("/candidates/:id", resultHandler.HandleGetResult)
		endpoints = append(endpoints, "POST /api/v1/candidates", "GET /api/v1/candidates/:id")
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":   "CV Align API",
			"version":   "1.0.0",
			"endpoints": endpoints,
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		cancel()
		if worker != nil {
			worker.Stop()
		}
		if err := app.Shutdown(); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr), zap.Strings("endpoints", endpoints))

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
