package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"subtrack/internal/config"
	reminderservice "subtrack/internal/reminder/service"
	subscriptionrepository "subtrack/internal/subscription/repository"
	subscriptionservice "subtrack/internal/subscription/service"
	tokenrepository "subtrack/internal/token/repository"
	userrepository "subtrack/internal/user/repository"
	userservice "subtrack/internal/user/service"
	"subtrack/pkg/db"
	"subtrack/pkg/logger"
	"subtrack/pkg/mailer"
)

type subscriptionStore interface {
	subscriptionservice.SubscriptionRepository
	reminderservice.SubscriptionRepository
}

type userStore interface {
	userservice.UserRepository
	reminderservice.UserRepository
}

type emailSender interface {
	reminderservice.EmailSender
	userservice.PasswordResetSender
}

// app собирает общие зависимости для команд serve и remind
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB

	subscriptions subscriptionStore
	users         userStore
	tokens        userservice.TokenRepository
	mailer        emailSender
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger.New(cfg.LogFilePath, cfg.IsProduction()),
	}

	if cfg.DatabaseURL == "" {
		a.logger.Warn("DATABASE_URL is empty, using in-memory storage; data is lost on restart")
		a.subscriptions = subscriptionrepository.NewMemoryRepository()
		a.users = userrepository.NewMemoryUserRepository()
		a.tokens = tokenrepository.NewMemoryTokenRepository()
	} else {
		database, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, database); err != nil {
			database.Close()
			return nil, err
		}
		a.logger.Info("connected to PostgreSQL")

		a.db = database
		a.subscriptions = subscriptionrepository.NewSubscriptionRepository(database)
		a.users = userrepository.NewPostgresUserRepository(database)
		a.tokens = tokenrepository.NewTokenRepository(database)
	}

	if cfg.SMTP.Host == "" {
		a.logger.Warn("SMTP_HOST is empty, emails will only be logged")
		a.mailer = mailer.NewLogMailer(a.logger)
	} else {
		a.mailer = mailer.New(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, a.logger)
	}

	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
