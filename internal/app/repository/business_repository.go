package repository

import (
	"errors"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/pkg/logger"
	"gorm.io/gorm"
)

type BusinessDataRepository interface {
	Upsert(data *model.BusinessData) error
	FindByCustomerID(customerID string) (*model.BusinessData, error)
}

type businessDataRepository struct {
	db *gorm.DB
}

func NewBusinessDataRepository(db *gorm.DB) BusinessDataRepository {
	return &businessDataRepository{db: db}
}

// Upsert creates the company row on first write and merges non-zero
// fields into it afterwards; created_at is preserved across updates
func (r *businessDataRepository) Upsert(data *model.BusinessData) error {
	var existing model.BusinessData
	err := r.db.First(&existing, "customer_id = ?", data.CustomerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Debug("Creating business data", map[string]interface{}{
			"customer_id": data.CustomerID,
		})
		return r.db.Create(data).Error
	}
	if err != nil {
		return err
	}

	data.ID = existing.ID
	data.CreatedAt = existing.CreatedAt
	if err := r.db.Model(&existing).Updates(data).Error; err != nil {
		logger.Error("Failed to update business data", err, map[string]interface{}{
			"customer_id": data.CustomerID,
		})
		return err
	}
	return nil
}

func (r *businessDataRepository) FindByCustomerID(customerID string) (*model.BusinessData, error) {
	var data model.BusinessData
	if err := r.db.First(&data, "customer_id = ?", customerID).Error; err != nil {
		return nil, err
	}
	return &data, nil
}
