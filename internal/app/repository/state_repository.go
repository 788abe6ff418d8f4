package repository

import (
	"github.com/contaleve/onboarding-backend/internal/app/model"
	"gorm.io/gorm"
)

type StateRepository interface {
	Append(state *model.OnboardingState) error
	ListByCustomerID(customerID string) ([]model.OnboardingState, error)
	Latest(customerID string) (*model.OnboardingState, error)
}

type stateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) StateRepository {
	return &stateRepository{db: db}
}

// Append writes a history row; rows are never updated or deleted
func (r *stateRepository) Append(state *model.OnboardingState) error {
	return r.db.Create(state).Error
}

func (r *stateRepository) ListByCustomerID(customerID string) ([]model.OnboardingState, error) {
	var states []model.OnboardingState
	err := r.db.Where("customer_id = ?", customerID).
		Order("created_at").
		Find(&states).Error
	if err != nil {
		return nil, err
	}
	return states, nil
}

func (r *stateRepository) Latest(customerID string) (*model.OnboardingState, error) {
	var state model.OnboardingState
	err := r.db.Where("customer_id = ?", customerID).
		Order("created_at DESC").
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}
