package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/wonkyeggs/eggtrack/backend/config"
	"github.com/wonkyeggs/eggtrack/backend/handlers"
	"github.com/wonkyeggs/eggtrack/backend/middleware"
	webservices "github.com/wonkyeggs/eggtrack/backend/services"
	"github.com/wonkyeggs/eggtrack/eggtrack"
	"github.com/wonkyeggs/eggtrack/eggtrack/controller"
	"github.com/wonkyeggs/eggtrack/eggtrack/database"
	"github.com/wonkyeggs/eggtrack/eggtrack/database/repositories"
	"github.com/wonkyeggs/eggtrack/eggtrack/logger"
	"github.com/wonkyeggs/eggtrack/eggtrack/notify"
	"github.com/wonkyeggs/eggtrack/eggtrack/services"
	"github.com/wonkyeggs/eggtrack/eggtrack/snapshot"
	"github.com/wonkyeggs/eggtrack/eggtrack/upstream"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := "config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	customHandler := logger.NewHandler("EggTrack")
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting EggTrack",
		slog.String("version", version),
		slog.String("commit", commit))

	cfg, err := eggtrack.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	webCfg := config.NewWebAppConfig(cfg, os.Getenv("EGGTRACK_DEBUG") == "1")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slog.Info("Connecting to database...")
	db, err := database.New(ctx, database.DBConfig{
		Host:         cfg.DB.Host,
		Port:         cfg.DB.Port,
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Database:     cfg.DB.Database,
		PoolSize:     cfg.DB.PoolSize,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxLifetime:  cfg.DB.MaxLifetime,
	})
	if err != nil {
		slog.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("Database connected successfully")

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cacheRepo := repositories.NewCacheRepository(db.BunDB())
	snapshotRepo := repositories.NewSnapshotRepository(db.BunDB(), db)
	stateRepo := repositories.NewStateRepository(db.BunDB())
	exclusionRepo := repositories.NewExclusionRepository(db.BunDB())
	emailLogRepo := repositories.NewEmailLogRepository(db.BunDB())

	upstreamClient := upstream.NewClient(cfg.Upstream.EndpointURL, cfg.Upstream.Timeout)

	dispatcher := notify.NewDispatcher(
		notify.NewResendClient(cfg.Notify.ResendAPIKey),
		emailLogRepo,
		cfg.Notify.From,
		cfg.Notify.Recipient,
	)

	var archiver controller.Archiver
	if cfg.Spaces.Key != "" && cfg.Spaces.Bucket != "" {
		archiveService, err := services.NewArchiveService(
			cfg.Spaces.Key, cfg.Spaces.Secret, cfg.Spaces.Region,
			cfg.Spaces.Bucket, cfg.Spaces.ArchiveRoot)
		if err != nil {
			slog.Warn("Snapshot archive disabled", slog.String("error", err.Error()))
		} else {
			archiver = archiveService
		}
	}

	engine := snapshot.NewEngine(snapshot.Options{
		SyncWindowHours:          cfg.Controller.SyncWindowHours,
		CooldownHours:            cfg.Controller.CooldownHours,
		PartialSyncThreshold:     cfg.Controller.PartialSyncThreshold,
		PartialSyncRetryAttempts: cfg.Controller.PartialSyncRetryAttempts,
		PendingSyncStaleHours:    cfg.Controller.PendingSyncStaleHours,
		AlertThresholdDays:       cfg.Controller.AlertThresholdDays,
		AlertCooldownHours:       cfg.Controller.AlertCooldownHours,
	})

	snapshotController := controller.New(
		upstreamClient, exclusionRepo, cacheRepo, stateRepo, snapshotRepo,
		engine, dispatcher, archiver, nil,
	)

	oauthService := webservices.NewOAuthService(cfg.Auth)
	tokenService := webservices.NewTokenService(cfg.Auth)

	app := fiber.New(fiber.Config{
		AppName:      "EggTrack",
		ServerHeader: "EggTrack",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:3000,http://localhost:8080",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Requested-With,x-secret-token,x-internal-call",
	}))
	app.Use(middleware.LoggingMiddleware())

	webApp := handlers.NewWebApp(webCfg)
	webApp.DB = db
	webApp.Cache = cacheRepo
	webApp.Snapshots = snapshotRepo
	webApp.EmailLog = emailLogRepo
	webApp.Upstream = upstreamClient
	webApp.Controller = snapshotController
	webApp.Dispatcher = dispatcher
	webApp.OAuthService = oauthService
	webApp.TokenService = tokenService
	webApp.Version = version
	webApp.Commit = commit

	setupRoutes(app, webApp, cfg)

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	snapshotController.StartScheduler(schedulerCtx,
		time.Duration(cfg.Controller.IntervalMinutes)*time.Minute)

	address := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	slog.Info("Starting server", slog.String("address", address))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := app.Listen(address); err != nil {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	<-sig
	slog.Info("Shutting down...")
	stopScheduler()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", slog.String("error", err.Error()))
	}

	db.Close()
	slog.Info("Shutdown complete")
}

// setupRoutes configures all application routes.
func setupRoutes(app *fiber.App, webApp *handlers.WebApp, cfg *eggtrack.Config) {
	app.Get("/health", handlers.HealthCheck(webApp))

	fn := app.Group("/functions/v1")

	fn.Post("/discord-auth",
		middleware.RateLimit(10, time.Minute),
		handlers.DiscordAuth(webApp))

	fn.Get("/get-leaderboard",
		middleware.AuthRequired(webApp.TokenService),
		handlers.GetLeaderboard(webApp))

	fn.Get("/get-player-current-stats",
		middleware.AuthRequired(webApp.TokenService),
		handlers.GetPlayerCurrentStats(webApp))

	fn.Post("/refresh-leaderboard-cron",
		middleware.AuthRequired(webApp.TokenService),
		handlers.RefreshLeaderboardCron(webApp))

	fn.Post("/update-player-data",
		middleware.WriterAuth(cfg.Auth.ServiceRoleKey, cfg.Auth.SecretToken),
		handlers.UpdatePlayerData(webApp))

	fn.Post("/delete-snapshot",
		middleware.AdminOrOperator(webApp.TokenService, cfg.Auth.SecretToken),
		handlers.DeleteSnapshot(webApp))

	app.Use(func(c *fiber.Ctx) error {
		slog.Warn("No route matched for request",
			slog.String("type", "http"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested endpoint does not exist",
		})
	})
}
