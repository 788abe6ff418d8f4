package repository

import (
	"errors"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"gorm.io/gorm"
)

type ProgressRepository interface {
	Upsert(progress *model.OnboardingProgress) error
	FindByCustomerID(customerID string) (*model.OnboardingProgress, error)
}

type progressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Upsert(progress *model.OnboardingProgress) error {
	var existing model.OnboardingProgress
	err := r.db.First(&existing, "customer_id = ?", progress.CustomerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(progress).Error
	}
	if err != nil {
		return err
	}

	progress.ID = existing.ID
	progress.CreatedAt = existing.CreatedAt
	// Save, not Updates: pending_fields may legitimately shrink to empty
	return r.db.Save(progress).Error
}

func (r *progressRepository) FindByCustomerID(customerID string) (*model.OnboardingProgress, error) {
	var progress model.OnboardingProgress
	if err := r.db.First(&progress, "customer_id = ?", customerID).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}
