package scheduler

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/internal/app/repository"
	"github.com/contaleve/onboarding-backend/internal/app/service"
	"github.com/contaleve/onboarding-backend/pkg/logger"
)

// TokenWarmer refreshes the upstream application token before it
// expires, satisfied by *cronos.Client
type TokenWarmer interface {
	AppToken(ctx context.Context) (string, error)
}

// OnboardingScheduler runs the background jobs: failed-sync retries,
// application token warmup and the document archive backlog
type OnboardingScheduler struct {
	cron      *cron.Cron
	customers repository.CustomerRepository
	documents repository.DocumentRepository
	business  service.BusinessService
	warmer    TokenWarmer
	archiver  service.DocumentArchiver
}

func NewOnboardingScheduler(
	customers repository.CustomerRepository,
	documents repository.DocumentRepository,
	business service.BusinessService,
	warmer TokenWarmer,
	archiver service.DocumentArchiver,
) *OnboardingScheduler {
	return &OnboardingScheduler{
		cron:      cron.New(),
		customers: customers,
		documents: documents,
		business:  business,
		warmer:    warmer,
		archiver:  archiver,
	}
}

func (s *OnboardingScheduler) Start() error {
	// Retry registrations whose last sync failed, every 30 minutes
	if _, err := s.cron.AddFunc("*/30 * * * *", s.retryFailedSyncs); err != nil {
		logger.Error("Failed to add cron job for sync retries", err)
		return err
	}

	// Refresh the application token before the 1 hour upstream expiry
	if _, err := s.cron.AddFunc("*/45 * * * *", s.warmToken); err != nil {
		logger.Error("Failed to add cron job for token warmup", err)
		return err
	}

	if s.archiver != nil {
		// Archive documents that were accepted upstream but not yet copied
		if _, err := s.cron.AddFunc("*/10 * * * *", s.archiveBacklog); err != nil {
			logger.Error("Failed to add cron job for document archiving", err)
			return err
		}
	}

	s.cron.Start()
	logger.Info("Onboarding scheduler started", nil)

	return nil
}

func (s *OnboardingScheduler) Stop() {
	logger.Info("Stopping onboarding scheduler...", nil)
	s.cron.Stop()
	logger.Info("Onboarding scheduler stopped", nil)
}

// retryFailedSyncs re-sends every business registration whose last
// sync attempt failed. A registration that is still incomplete flips
// to pendente and drops out of the retry set.
func (s *OnboardingScheduler) retryFailedSyncs() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	customers, err := s.customers.FindByStatus(model.StatusError)
	if err != nil {
		logger.Error("Failed to list customers for sync retry", err)
		return
	}
	if len(customers) == 0 {
		return
	}

	logger.Info("Retrying failed syncs", map[string]interface{}{
		"count": len(customers),
	})

	for _, customer := range customers {
		if _, err := s.business.Sync(ctx, customer.ID); err != nil {
			logger.Warn("Sync retry failed", map[string]interface{}{
				"customer_id": customer.ID,
				"error":       err.Error(),
			})
		}
	}
}

func (s *OnboardingScheduler) warmToken() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.warmer.AppToken(ctx); err != nil {
		logger.Warn("Application token warmup failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *OnboardingScheduler) archiveBacklog() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	docs, err := s.documents.FindNotArchived(50)
	if err != nil {
		logger.Error("Failed to list documents for archiving", err)
		return
	}

	for _, doc := range docs {
		content, err := base64.StdEncoding.DecodeString(doc.FileBase64)
		if err != nil {
			logger.Error("Stored document is not valid base64", err, map[string]interface{}{
				"document_id": doc.ID,
			})
			continue
		}

		key, err := s.archiver.Archive(ctx, doc.CustomerID, doc.FileName, doc.MimeType, content)
		if err != nil {
			logger.Warn("Document archive failed", map[string]interface{}{
				"document_id": doc.ID,
				"error":       err.Error(),
			})
			continue
		}

		if err := s.documents.MarkUploaded(doc.ID, key); err != nil {
			logger.Error("Failed to record archive key", err, map[string]interface{}{
				"document_id": doc.ID,
			})
		}
	}
}
