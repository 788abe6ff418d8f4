package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountType string

const (
	AccountTypeCPF  AccountType = "cpf"  // pessoa física
	AccountTypeCNPJ AccountType = "cnpj" // pessoa jurídica
)

type OnboardingStatus string

const (
	StatusInProgress OnboardingStatus = "em_cadastro" // registration in progress
	StatusPending    OnboardingStatus = "pendente"    // waiting on missing data
	StatusComplete   OnboardingStatus = "completo"    // all data collected locally
	StatusSent       OnboardingStatus = "enviado"     // accepted by the registration service
	StatusError      OnboardingStatus = "erro"        // last sync attempt failed
)

// externalStatusMap translates upstream account statuses into local
// onboarding statuses. Upstream labels that mean the account exists and
// is past data collection all collapse to StatusComplete; anything
// unknown is treated as still in progress.
var externalStatusMap = map[string]OnboardingStatus{
	"ativa":                StatusComplete,
	"ativo":                StatusComplete,
	"aguardando aprovação": StatusComplete,
	"aguardando aprovacao": StatusComplete,
	"aguardando pagamento": StatusComplete,
}

// MapExternalStatus resolves an upstream status string to a local status
func MapExternalStatus(external string) OnboardingStatus {
	if status, ok := externalStatusMap[strings.ToLower(strings.TrimSpace(external))]; ok {
		return status
	}
	return StatusInProgress
}

// statusLabels are the human-readable labels returned to clients
var statusLabels = map[OnboardingStatus]string{
	StatusInProgress: "Cadastro em andamento",
	StatusPending:    "Cadastro pendente",
	StatusComplete:   "Cadastro completo",
	StatusSent:       "Cadastro enviado",
	StatusError:      "Erro no envio do cadastro",
}

// Label returns the display label for a status
func (s OnboardingStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Terminal reports whether the onboarding reached a state that no
// longer accepts step submissions
func (s OnboardingStatus) Terminal() bool {
	return s == StatusSent
}

type Customer struct {
	ID             string           `gorm:"type:uuid;primarykey" json:"id"`
	IndividualID   string           `gorm:"type:varchar(64);index" json:"individual_id"`           // upstream registration id
	Document       string           `gorm:"type:varchar(14);uniqueIndex;not null" json:"document"` // CPF or CNPJ, digits only
	AccountType    AccountType      `gorm:"type:varchar(10);not null" json:"tipo_conta"`
	Status         OnboardingStatus `gorm:"type:varchar(20);not null;default:'em_cadastro'" json:"onboarding_status"`
	CurrentStep    int              `gorm:"not null;default:1" json:"current_step"`
	Name           string           `gorm:"type:varchar(150)" json:"name"`
	Email          string           `gorm:"type:varchar(150)" json:"email"`
	PhoneNumber    string           `gorm:"type:varchar(30)" json:"phone_number"`
	PasswordHash   string           `json:"-"`
	ExternalStatus string           `gorm:"type:varchar(40)" json:"external_status,omitempty"` // raw upstream status string
	SyncedAt       *time.Time       `json:"synced_at,omitempty"`                               // last sync attempt, success or not
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`

	IndividualData *IndividualData `gorm:"foreignKey:CustomerID" json:"individual_data,omitempty"`
	BusinessData   *BusinessData   `gorm:"foreignKey:CustomerID" json:"business_data,omitempty"`
	Partners       []Partner       `gorm:"foreignKey:CustomerID" json:"partners,omitempty"`
	Documents      []Document      `gorm:"foreignKey:CustomerID" json:"documents,omitempty"`
}

func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
