package repository

import (
	"errors"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/pkg/logger"
	"gorm.io/gorm"
)

type IndividualDataRepository interface {
	Upsert(data *model.IndividualData) error
	FindByCustomerID(customerID string) (*model.IndividualData, error)
}

type individualDataRepository struct {
	db *gorm.DB
}

func NewIndividualDataRepository(db *gorm.DB) IndividualDataRepository {
	return &individualDataRepository{db: db}
}

// Upsert creates the per-customer row on first write and merges
// non-zero fields into it afterwards
func (r *individualDataRepository) Upsert(data *model.IndividualData) error {
	var existing model.IndividualData
	err := r.db.First(&existing, "customer_id = ?", data.CustomerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(data).Error
	}
	if err != nil {
		return err
	}

	data.ID = existing.ID
	data.CreatedAt = existing.CreatedAt
	if err := r.db.Model(&existing).Updates(data).Error; err != nil {
		logger.Error("Failed to update individual data", err, map[string]interface{}{
			"customer_id": data.CustomerID,
		})
		return err
	}
	return nil
}

func (r *individualDataRepository) FindByCustomerID(customerID string) (*model.IndividualData, error) {
	var data model.IndividualData
	if err := r.db.First(&data, "customer_id = ?", customerID).Error; err != nil {
		return nil, err
	}
	return &data, nil
}
