package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/alexey192/calendarit/internal/api"
	"github.com/alexey192/calendarit/internal/api/handlers"
	"github.com/alexey192/calendarit/internal/config"
	"github.com/alexey192/calendarit/internal/database"
	"github.com/alexey192/calendarit/internal/extract"
	"github.com/alexey192/calendarit/internal/gmail"
	"github.com/alexey192/calendarit/internal/logger"
	"github.com/alexey192/calendarit/internal/repository"
	"github.com/alexey192/calendarit/internal/services"
	"github.com/alexey192/calendarit/internal/smtp"
	"github.com/alexey192/calendarit/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})
	securityLogger := logger.NewSecurityLoggerWithHandler(handler)
	log := securityLogger.GetLogger()
	slog.SetDefault(log)

	cfg.LogConfig(log)

	// Database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Provider client factory
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmailapi.GmailReadonlyScope},
	}
	factory := gmail.NewFactory(oauthConfig, cfg.PubSubTopic)

	// Extraction pipeline
	chat := extract.NewOpenAIChat(cfg.OpenAIKey, cfg.OpenAIModel)
	extractor := extract.New(chat, cfg.AssumedOffsetHours, log)

	// WebSocket hub
	hub := websocket.NewHub(log)

	// Services
	syncService := services.NewSyncService(&services.SyncServiceConfig{
		AccountRepo:  accountRepo,
		EventRepo:    eventRepo,
		Provider:     factory,
		Extractor:    extractor,
		Notifier:     hub,
		DedupEnabled: cfg.DedupEnabled,
		Logger:       log,
	})
	subscriptionService := services.NewSubscriptionService(accountRepo, factory, log)

	// SMTP ingest listener
	var smtpServer interface{ Close() error }
	if cfg.SMTPPort > 0 {
		backend := smtp.NewBackend(&smtp.BackendConfig{
			AccountRepo:  accountRepo,
			Ingestor:     syncService,
			IngestDomain: cfg.SMTPIngestDomain,
			Logger:       log,
		})
		server := smtp.NewSecureServer(backend, &smtp.ServerConfig{
			Addr:   fmt.Sprintf(":%d", cfg.SMTPPort),
			Domain: cfg.SMTPIngestDomain,
		})
		smtpServer = server

		go func() {
			log.Info("SMTP ingest listener starting", slog.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil {
				log.Error("SMTP server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	// HTTP surface
	e := echo.New()
	e.HideBanner = true

	upgrader := websocket.DefaultUpgrader()
	if cfg.AppEnv == "production" {
		upgrader = websocket.NewSecureUpgrader(splitOrigins(cfg.AllowedOrigins), log)
	}

	api.RegisterRoutes(e, api.Handlers{
		Health:       handlers.NewHealthHandler(db),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService),
		Notification: handlers.NewNotificationHandler(syncService, log),
		Event:        handlers.NewEventHandler(eventRepo),
		WS:           handlers.NewWSHandler(hub, upgrader, log),
	}, api.RouterConfig{
		APIKey:         cfg.APIKey,
		AllowedOrigins: cfg.AllowedOrigins,
		AppEnv:         cfg.AppEnv,
		Logger:         log,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		log.Info("API server starting", slog.String("addr", addr))
		if err := e.Start(addr); err != nil {
			log.Info("API server stopped", slog.String("reason", err.Error()))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error("API shutdown error", slog.String("error", err.Error()))
	}
	if smtpServer != nil {
		if err := smtpServer.Close(); err != nil {
			log.Error("SMTP shutdown error", slog.String("error", err.Error()))
		}
	}

	log.Info("server stopped")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitOrigins(origins string) []string {
	if origins == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
