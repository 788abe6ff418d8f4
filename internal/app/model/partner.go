package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Partner is a sócio of a business customer. A partner is unique per
// (customer, document) pair; re-submitting the same document updates
// the row in place.
type Partner struct {
	ID         string `gorm:"type:uuid;primarykey" json:"id"`
	CustomerID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_partner_customer_document" json:"customer_id"`
	ExternalID string `gorm:"type:varchar(64);index" json:"id_socio"` // upstream partner id

	Name     string `gorm:"type:varchar(150);not null" json:"name"`
	Document string `gorm:"type:varchar(14);not null;uniqueIndex:idx_partner_customer_document" json:"document"`
	Email    string `gorm:"type:varchar(150)" json:"email"`
	Phone    string `gorm:"type:varchar(30)" json:"phone"`

	MotherName       string     `gorm:"type:varchar(150)" json:"mother_name"`
	FatherName       string     `gorm:"type:varchar(150)" json:"father_name"`
	Gender           string     `gorm:"type:varchar(1)" json:"gender"`
	BirthDate        *time.Time `json:"birth_date,omitempty"`
	Nationality      string     `gorm:"type:varchar(150)" json:"nationality"`
	NationalityState string     `gorm:"type:varchar(5)" json:"nationality_state"`
	MaritalStatus    *int       `json:"marital_status,omitempty"`
	PEP              *int       `json:"pep,omitempty"` // 1 = yes, 0 = no

	DocumentName     string     `gorm:"type:varchar(10)" json:"document_name"`
	DocumentNumber   string     `gorm:"type:varchar(40)" json:"document_number"`
	DocumentState    string     `gorm:"type:varchar(5)" json:"document_state"`
	DocumentIssuance string     `gorm:"type:varchar(40)" json:"document_issuance"`
	IssuanceDate     *time.Time `json:"issuance_date,omitempty"`

	ParticipationPercent *float64 `json:"percentual_participacao,omitempty"`
	Majority             *bool    `json:"majority,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Documents []Document `gorm:"foreignKey:PartnerID" json:"documents,omitempty"`
}

func (Partner) TableName() string {
	return "socios"
}

func (p *Partner) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
