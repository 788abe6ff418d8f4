package repository

import (
	"errors"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/pkg/logger"
	"gorm.io/gorm"
)

type PartnerRepository interface {
	Upsert(partner *model.Partner) error
	FindByID(id string) (*model.Partner, error)
	FindByCustomerID(customerID string) ([]model.Partner, error)
	Delete(id string) error
}

type partnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

// Upsert keys on (customer_id, document): re-submitting a partner with
// the same document updates the existing row instead of duplicating it
func (r *partnerRepository) Upsert(partner *model.Partner) error {
	var existing model.Partner
	err := r.db.First(&existing, "customer_id = ? AND document = ?", partner.CustomerID, partner.Document).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Debug("Creating partner", map[string]interface{}{
			"customer_id": partner.CustomerID,
			"name":        partner.Name,
		})
		return r.db.Create(partner).Error
	}
	if err != nil {
		return err
	}

	partner.ID = existing.ID
	partner.CreatedAt = existing.CreatedAt
	if partner.ExternalID == "" {
		partner.ExternalID = existing.ExternalID
	}
	if err := r.db.Model(&existing).Updates(partner).Error; err != nil {
		logger.Error("Failed to update partner", err, map[string]interface{}{
			"customer_id": partner.CustomerID,
			"partner_id":  existing.ID,
		})
		return err
	}
	return nil
}

func (r *partnerRepository) FindByID(id string) (*model.Partner, error) {
	var partner model.Partner
	if err := r.db.Preload("Documents").First(&partner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *partnerRepository) FindByCustomerID(customerID string) ([]model.Partner, error) {
	var partners []model.Partner
	err := r.db.Preload("Documents").
		Where("customer_id = ?", customerID).
		Order("created_at").
		Find(&partners).Error
	if err != nil {
		return nil, err
	}
	return partners, nil
}

// Delete removes the partner and its documents
func (r *partnerRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("partner_id = ?", id).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Partner{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
