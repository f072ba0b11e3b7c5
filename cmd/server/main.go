// Command server runs the EdTech platform API.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sakif/edtech-platform/internal/config"
	"github.com/sakif/edtech-platform/internal/kvstore"
	"github.com/sakif/edtech-platform/internal/notify"
	sqliteRepo "github.com/sakif/edtech-platform/internal/repository/sqlite"
	"github.com/sakif/edtech-platform/internal/schedule"
	"github.com/sakif/edtech-platform/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		logger.Error("failed to create database directory", slog.String("dir", dbDir))
		return err
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return err
	}

	deps := server.Deps{
		DB:        db,
		Scheduler: schedule.NewScheduler(schedule.SystemClock{}),
	}

	if cfg.KV.Backend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb, err := kvstore.NewRedis(ctx, cfg.KV.RedisAddr, cfg.KV.RedisPassword, cfg.KV.RedisDB)
		if err != nil {
			db.Close()
			return err
		}
		defer rdb.Close()
		deps.KV = rdb
		logger.Info("practice progress stored in redis", slog.String("addr", cfg.KV.RedisAddr))
	}

	if cfg.MailEnabled() {
		deps.Mailer = notify.NewSMTPMailer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort,
			cfg.Mail.SMTPUser, cfg.Mail.SMTPPassword, cfg.Mail.From, logger)
	} else {
		logger.Warn("SMTP_HOST not set, outgoing mail is logged instead of sent")
	}

	if !cfg.GoogleEnabled() {
		logger.Warn("Google sign-in disabled, GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set")
	}

	srv, err := server.New(cfg, deps, logger)
	if err != nil {
		db.Close()
		return err
	}

	// Start blocks until SIGINT/SIGTERM and closes the database on the way out.
	return srv.Start()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
