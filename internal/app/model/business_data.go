package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BusinessData holds the company (PJ) registration data, one row per
// customer, upserted as the flow progresses
type BusinessData struct {
	ID         string `gorm:"type:uuid;primarykey" json:"id"`
	CustomerID string `gorm:"type:uuid;uniqueIndex;not null" json:"customer_id"`

	LegalName         string     `gorm:"type:varchar(150)" json:"razao_social"`
	TradeName         string     `gorm:"type:varchar(150)" json:"nome_fantasia"`
	CNAE              string     `gorm:"type:varchar(20)" json:"cnae"`
	CNAEDescription   string     `gorm:"type:varchar(200)" json:"cnae_descricao"`
	ShareCapital      string     `gorm:"type:varchar(40)" json:"capital_social"`
	FoundationDate    *time.Time `json:"foundation_date,omitempty"`
	RepresentativeCPF string     `gorm:"type:varchar(11)" json:"cpf_representante"`
	Email             string     `gorm:"type:varchar(150)" json:"email"`
	Phone             string     `gorm:"type:varchar(30)" json:"phone"`

	PostalCode   string `gorm:"type:varchar(20)" json:"postal_code"`
	Street       string `gorm:"type:varchar(100)" json:"street"`
	Number       string `gorm:"type:varchar(20)" json:"number"`
	Neighborhood string `gorm:"type:varchar(50)" json:"neighborhood"`
	City         string `gorm:"type:varchar(80)" json:"city"`
	State        string `gorm:"type:varchar(4)" json:"state"`
	Country      string `gorm:"type:varchar(4)" json:"country"`
	Complement   string `gorm:"type:varchar(50)" json:"complement"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BusinessData) TableName() string {
	return "customer_pj_data"
}

func (d *BusinessData) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
