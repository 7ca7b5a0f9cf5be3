package services

import (
	"context"
	"time"

	"coverhub/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronService runs scheduled maintenance: document auto-expiry and
// refresh-token cleanup
type CronService struct {
	cron        *cron.Cron
	documentSvc *DocumentService
	authSvc     *AuthService
}

// NewCronService creates a new cron service
func NewCronService(documentSvc *DocumentService, authSvc *AuthService) *CronService {
	return &CronService{
		cron:        cron.New(),
		documentSvc: documentSvc,
		authSvc:     authSvc,
	}
}

// Start registers the schedules and launches the cron loop
func (s *CronService) Start() {
	// Expire overdue documents daily at 02:00
	s.cron.AddFunc("0 2 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := s.documentSvc.ExpireOverdue(ctx); err != nil {
			logger.Errorf("Document expiry job failed: %v", err)
		}
	})

	// Purge expired refresh tokens daily at 03:00
	s.cron.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := s.authSvc.refreshTokenRepo.DeleteExpired(ctx); err != nil {
			logger.Errorf("Refresh token cleanup failed: %v", err)
		}
	})

	s.cron.Start()
	logger.Infof("Cron service started")
}

// Stop stops the cron loop, waiting for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Infof("Cron service stopped")
}
