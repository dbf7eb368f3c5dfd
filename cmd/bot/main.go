package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/multiarchi/claimsbot/internal/config"
	"github.com/multiarchi/claimsbot/internal/database"
	"github.com/multiarchi/claimsbot/pkg/logger"
	"github.com/multiarchi/claimsbot/telegram"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize logger
	logger.Init()
	defer logger.Sync()

	logger.Info("Starting claims bot...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	// Run GORM auto-migration
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize and start Telegram bot
	bot, err := telegram.InitBot(cfg, db)
	if err != nil {
		logger.Fatal("Failed to initialize bot", err)
	}

	// Background jobs: tracker refresh sweeps and debounced export pushes.
	sched, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler", err)
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
			defer cancel()
			bot.WorldSvc.RefreshAll(ctx)
		}),
	); err != nil {
		logger.Fatal("Failed to schedule tracker refresh", err)
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() { bot.PreclaimSvc.ResolveDue(time.Now()) }),
	); err != nil {
		logger.Fatal("Failed to schedule preclaim resolution", err)
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(30*time.Second),
		gocron.NewTask(bot.Exporter.PushIfNeeded),
	); err != nil {
		logger.Fatal("Failed to schedule export push", err)
	}
	sched.Start()

	logger.Info("Bot started successfully", "env", cfg.AppEnv)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	if err := sched.Shutdown(); err != nil {
		logger.Warn("Scheduler shutdown failed", "error", err)
	}
	bot.Stop()
	logger.Info("Bot stopped")
}
