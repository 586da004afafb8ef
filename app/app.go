// Package app owns the process-wide resources and the supervised runtime services.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"quizblog/auth"
	"quizblog/config"
	"quizblog/logging"
	"quizblog/mail"
	"quizblog/models"
	"quizblog/services"
	"quizblog/storage"

	"github.com/redis/go-redis/v9"
	"github.com/thejerf/suture/v4"
	"gorm.io/gorm"
)

const (
	notesURLPrefix  = "/notes"
	shutdownTimeout = 10 * time.Second
)

// App holds every long-lived resource. Close releases them in reverse order of creation.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Mailer *mail.Dispatcher
	Files  storage.ObjectStore
	Hub    *services.Hub
	Tokens *auth.TokenCodec

	handler http.Handler
}

// New connects to the database and Redis, migrates the schema and builds the HTTP handler.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	tokens, err := auth.NewTokenCodec(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}
	a.Tokens = tokens

	a.DB, err = config.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.DB.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	a.Redis, err = config.InitRedis(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Mailer, err = mail.NewDispatcher(mail.NewSMTPTransport(mail.SMTPConfig{
		Host:        cfg.Mail.Host,
		Port:        cfg.Mail.Port,
		User:        cfg.Mail.User,
		Password:    cfg.Mail.Password,
		From:        cfg.Mail.From,
		FromName:    cfg.Mail.FromName,
		ImplicitTLS: cfg.Mail.ImplicitTLS,
	}), mail.WithRate(cfg.Mail.RatePerSecond, 1))
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Files, err = newObjectStore(ctx, cfg.Storage)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Hub = services.NewHub()

	a.handler, err = NewRouter(Deps{
		Config:   cfg,
		DB:       a.DB,
		Redis:    a.Redis,
		Notifier: a.Mailer,
		Files:    a.Files,
		Hub:      a.Hub,
		Tokens:   a.Tokens,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	if cfg.Auth.LegacyRoleGate {
		logging.Warn().Msg("Legacy role gate enabled: any authenticated user passes role checks")
	}
	return a, nil
}

func newObjectStore(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error) {
	if cfg.Bucket == "" {
		logging.Warn().Str("dir", cfg.LocalDir).Msg("No notes bucket configured, storing notes on local disk")
		return storage.NewDiskStore(cfg.LocalDir, notesURLPrefix)
	}
	return storage.NewS3Store(ctx, storage.S3Config{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// Supervisor returns the tree running the notification hub and the HTTP server.
func (a *App) Supervisor() *suture.Supervisor {
	root := suture.New("quizblog", suture.Spec{
		EventHook: func(e suture.Event) {
			logging.Warn().Fields(e.Map()).Msg(e.String())
		},
		Timeout: shutdownTimeout,
	})

	server := &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.Config.Server.Timeout,
	}

	root.Add(a.Hub)
	root.Add(NewHTTPService(server, shutdownTimeout))
	return root
}

// Close waits for pending mail and releases Redis and the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Mailer != nil {
		if err := a.Mailer.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mail dispatcher: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("database: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
