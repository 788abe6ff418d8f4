package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// OnboardingState is an append-only history row recording every status
// transition and sync attempt. Besides the local status and step it
// snapshots the registration service envelope that caused the
// transition, so the audit trail survives later upstream changes.
// Rows are never updated or deleted.
type OnboardingState struct {
	ID         string `gorm:"type:uuid;primarykey" json:"id"`
	CustomerID string `gorm:"type:uuid;not null;index" json:"customer_id"`

	Status  OnboardingStatus `gorm:"type:varchar(20);not null" json:"status"`
	Step    int              `json:"step"`
	Message string           `gorm:"type:text" json:"message"`

	// Registration service envelope snapshot
	Success        bool                     `gorm:"not null;default:false" json:"success"`
	Code           string                   `gorm:"type:varchar(20)" json:"code,omitempty"`
	ExternalID     string                   `gorm:"type:varchar(64)" json:"external_id,omitempty"`
	Document       string                   `gorm:"type:varchar(14)" json:"document,omitempty"`
	ExternalStatus string                   `gorm:"type:varchar(40)" json:"external_status,omitempty"`
	StatusLabel    string                   `gorm:"type:varchar(60)" json:"status_label,omitempty"`
	PendingFields  pq.StringArray           `gorm:"type:text" json:"pending_fields,omitempty"`
	UploadedFiles  []map[string]interface{} `gorm:"serializer:json" json:"uploaded_files,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (OnboardingState) TableName() string {
	return "onboarding_states"
}

func (s *OnboardingState) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
