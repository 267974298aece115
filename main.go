package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"mediaforge/activity"
	"mediaforge/archive"
	"mediaforge/auth"
	"mediaforge/config"
	"mediaforge/handlers"
	"mediaforge/logger"
	"mediaforge/media"
	"mediaforge/repository/sqlite"
	"mediaforge/services/payment"
	"mediaforge/services/pipeline"
	"mediaforge/services/summary"
	"mediaforge/services/transcription"
	"mediaforge/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := sqlite.InitDB(cfg.Database.Path, cfg.Database.MaxConnections)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repo, err := sqlite.NewRepository(db)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.Algorithm, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialize token manager: %v", err)
	}
	authService := auth.NewService(repo, tokens)

	recorder := activity.NewRecorder(cfg.Activity.WebhookURL, cfg.Activity.QueueSize)
	defer recorder.Close()

	openaiClient := openai.NewClient(cfg.OpenAI.APIKey)
	summaryService := summary.NewService(openaiClient, cfg.OpenAI.SummaryModel, cfg.OpenAI.VisionModel, cfg.OpenAI.FramePacing)

	orchestrator := pipeline.NewOrchestrator(
		media.NewDownloader(cfg.Media.YTDLPPath),
		media.NewExtractor(cfg.Media.FFmpegPath),
		transcription.NewService(openaiClient, cfg.OpenAI.WhisperModel, cfg.OpenAI.TranscribeWorkers),
		summaryService,
		pipeline.PackagerFunc(archive.Package),
		summaryService,
		repo,
		pipeline.Config{
			ProcessedRoot:   cfg.ProcessedDir,
			FramesPerSecond: cfg.Media.FramesPerSecond,
			FetchTimeout:    cfg.Media.FetchTimeout,
		},
	)

	paymentService := payment.NewService(cfg.Stripe.SecretKey, cfg.Stripe.Currency, repo)

	var archiveStore handlers.ArchiveStore
	if cfg.Spaces.Enabled {
		spacesClient, err := storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: cfg.Spaces.AccessKey,
			SecretKey: cfg.Spaces.SecretKey,
			Region:    cfg.Spaces.Region,
			Endpoint:  cfg.Spaces.Endpoint,
			Bucket:    cfg.Spaces.Bucket,
		})
		if err != nil {
			log.Fatalf("Failed to initialize spaces client: %v", err)
		}
		archiveStore = spacesClient
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          handlers.NewErrorHandler(recorder, appLogger),
		DisableStartupMessage: !cfg.Debug,
		BodyLimit:             100 * 1024 * 1024,
		AppName:               "mediaforge " + cfg.Version,
	})

	setupMiddleware(app, cfg)

	authHandler := handlers.NewAuthHandler(authService, recorder)
	userHandler := handlers.NewUserHandler(repo, recorder)
	toolsHandler := handlers.NewToolsHandler(orchestrator, recorder, archiveStore, cfg.ProcessedDir, cfg.TempDir)
	paymentHandler := handlers.NewPaymentHandler(paymentService, recorder)

	protected := auth.Middleware(authService)

	app.Post("/auth/", authHandler.Register)
	app.Post("/auth/token", authHandler.Token)
	app.Get("/", protected, authHandler.Me)
	app.Get("/users/:username", protected, userHandler.Profile)

	tools := app.Group("/tools", protected)
	tools.Post("/download", toolsHandler.Download)
	tools.Post("/extract-audio", toolsHandler.ExtractAudio)
	tools.Post("/transcribe", toolsHandler.Transcribe)
	tools.Post("/audio-summary", toolsHandler.AudioSummary)
	tools.Post("/video-summary", toolsHandler.VideoSummary)
	tools.Post("/analyze", toolsHandler.Analyze)
	tools.Post("/compress-images", toolsHandler.CompressImages)
	tools.Post("/calculate-tokens", toolsHandler.CalculateTokens)

	payments := app.Group("/payments", protected)
	payments.Post("/intent", paymentHandler.CreateIntent)
	payments.Post("/capture", paymentHandler.Capture)
	payments.Post("/cancel", paymentHandler.Cancel)

	app.Get("/health", handlers.HealthCheck)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		appLogger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			appLogger.WithError(err).Error("Server shutdown error")
		}
	}()

	serverAddr := ":" + cfg.ServerPort
	if cfg.Debug {
		appLogger.Infof("Server starting on http://localhost%s", serverAddr)
	}

	if err := app.Listen(serverAddr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.New().String()
		},
	}))

	if logConfig, err := logger.FiberConfig(cfg.LogDir); err == nil {
		app.Use(fiberLogger.New(*logConfig))
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.CORS.AllowedOrigins, ","),
		AllowMethods:  strings.Join(cfg.CORS.AllowedMethods, ","),
		AllowHeaders:  strings.Join(cfg.CORS.AllowedHeaders, ","),
		ExposeHeaders: strings.Join(cfg.CORS.ExposedHeaders, ","),
	}))

	if cfg.RateLimit.Enabled {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.RequestsPerMinute,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Rate limit exceeded",
				})
			},
		}))
	}

	app.Use(compress.New(compress.Config{
		Level: compress.LevelDefault,
	}))
}
