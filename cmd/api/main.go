package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/xvariate/auth-api/internal/cache"
	"github.com/xvariate/auth-api/internal/config"
	"github.com/xvariate/auth-api/internal/database"
	"github.com/xvariate/auth-api/internal/modules/auth"
	"github.com/xvariate/auth-api/internal/notification"
	"github.com/xvariate/auth-api/internal/notification/templates"
	"github.com/xvariate/auth-api/internal/server"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on" short:"p"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		// Use a structured logger
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		cfg := config.Load()
		if cfg == nil {
			logger.Error("failed to load configuration")
			os.Exit(1)
		}
		logger.Info("configuration loaded successfully", "env", cfg.Server.Env)

		// --- Database & Cache ---
		dbPool := database.NewPostgresPool(cfg.Database.URL)
		if dbPool == nil {
			logger.Error("failed to connect to postgres")
			os.Exit(1)
		}
		hooks.OnStop(dbPool.Close)
		logger.Info("successfully connected to postgres database")

		redisClient := cache.NewRedisClient(cfg.Redis.URL)
		if redisClient == nil {
			logger.Error("failed to connect to redis")
			os.Exit(1)
		}
		hooks.OnStop(func() { redisClient.Close() })
		logger.Info("successfully connected to redis")

		// --- Module Initialization (Bottom-Up) ---

		sender := notification.NewSMTPEmailSender(
			cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, logger,
		)
		notifier := notification.NewService(logger, templates.NewEngine(), sender)

		authRepo := auth.NewRepository(dbPool)
		authService := auth.NewService(&auth.Config{
			Repo:     authRepo,
			States:   auth.NewRedisStateStore(redisClient),
			Notifier: notifier,
			Logger:   logger,
			Config:   cfg,
		})

		router := server.New(cfg, logger, authService)

		port := fmt.Sprintf("%d", options.Port)
		if options.Port == 0 {
			port = cfg.Server.Port
		}
		hooks.OnStart(func() {
			logger.Info(fmt.Sprintf("Starting server on port %s...", port))
			if err := http.ListenAndServe(":"+port, router); err != nil {
				slog.Error("Server failed to start", "error", err)
				os.Exit(1)
			}
		})
	})
	cli.Run()
}
