package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IndividualData holds the personal (PF) registration data collected
// across steps, one row per customer
type IndividualData struct {
	ID         string `gorm:"type:uuid;primarykey" json:"id"`
	CustomerID string `gorm:"type:uuid;uniqueIndex;not null" json:"customer_id"`

	MotherName       string     `gorm:"type:varchar(150)" json:"mother_name"`
	FatherName       string     `gorm:"type:varchar(150)" json:"father_name"`
	Gender           string     `gorm:"type:varchar(1)" json:"gender"` // M | F
	BirthDate        *time.Time `json:"birth_date,omitempty"`
	Nationality      string     `gorm:"type:varchar(150)" json:"nationality"`
	NationalityState string     `gorm:"type:varchar(5)" json:"nationality_state"`

	DocumentName     string     `gorm:"type:varchar(10)" json:"document_name"` // RG | CNH | RNE
	DocumentNumber   string     `gorm:"type:varchar(40)" json:"document_number"`
	DocumentState    string     `gorm:"type:varchar(5)" json:"document_state"`
	DocumentIssuance string     `gorm:"type:varchar(40)" json:"document_issuance"`
	IssuanceDate     *time.Time `json:"issuance_date,omitempty"`

	MaritalStatus int `json:"marital_status"`
	PEP           int `json:"pep"` // politically exposed person: 1 = yes, 0 = no

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

func (IndividualData) TableName() string {
	return "customer_pf_data"
}

func (d *IndividualData) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
