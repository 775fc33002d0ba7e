package main

import (
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/internal/utils"
	"github.com/taskhub/backend/pkg/logger"
)

// appServices holds the long-lived services the application needs.
type appServices struct {
	cfg       *config.Config
	notifier  *services.NotificationService
	mailQueue services.MailQueue
	worker    *services.MailWorker
	sweeper   *services.InviteSweeper
}

// bootstrap initializes all application dependencies: database, mail
// queue, notification service, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Mail queue: Redis-backed when enabled, otherwise in-process
	mailQueue := services.InitMailQueue(cfg)
	notifier := services.NewNotificationService(cfg, mailQueue)

	var worker *services.MailWorker
	if mailQueue.IsAsync() {
		worker = services.NewMailWorker(&cfg.Redis)
		if worker != nil {
			worker.SetSender(notifier.Deliver)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start mail worker")
			}
		}
	} else if syncQueue, ok := mailQueue.(*services.SyncMailQueue); ok {
		syncQueue.SetSender(notifier.Deliver)
	}

	// Nightly sweep of expired invitations
	sweeper := services.NewInviteSweeper(models.GetDB())
	if err := sweeper.Start(); err != nil {
		logger.Warn().Err(err).Msg("Failed to start invitation sweeper")
	}

	return &appServices{
		cfg:       cfg,
		notifier:  notifier,
		mailQueue: mailQueue,
		worker:    worker,
		sweeper:   sweeper,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.sweeper.Stop()

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.mailQueue != nil {
		s.mailQueue.Close()
	}
	logger.Info().Msg("All background services stopped")
}
