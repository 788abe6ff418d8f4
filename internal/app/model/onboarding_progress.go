package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// OnboardingProgress tracks the aggregated payload completeness and the
// outcome of the last sync attempt, one row per customer
type OnboardingProgress struct {
	ID         string `gorm:"type:uuid;primarykey" json:"id"`
	CustomerID string `gorm:"type:uuid;uniqueIndex;not null" json:"customer_id"`

	PendingFields pq.StringArray `gorm:"type:text" json:"pending_fields"`
	FilledFields  pq.StringArray `gorm:"type:text" json:"filled_fields"`

	LastSyncStatus        string         `gorm:"type:varchar(20)" json:"last_sync_status"` // sucesso | erro
	LastSyncMessage       string         `gorm:"type:text" json:"last_sync_message"`
	LastSyncPendingFields pq.StringArray `gorm:"type:text" json:"last_sync_pending_fields"` // pending_fields of the last sync response
	LastSyncAt            *time.Time     `json:"last_sync_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OnboardingProgress) TableName() string {
	return "onboarding_progress"
}

func (p *OnboardingProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

const (
	SyncResultSuccess = "sucesso"
	SyncResultError   = "erro"
)
