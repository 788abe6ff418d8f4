package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentType string

const (
	DocTypeContratoSocial       DocumentType = "contrato_social"
	DocTypeCartaoCNPJ           DocumentType = "cartao_cnpj"
	DocTypeComprovanteEndereco  DocumentType = "comprovante_endereco"
	DocTypeRGFrente             DocumentType = "rg_frente"
	DocTypeRGVerso              DocumentType = "rg_verso"
	DocTypeCNHFrente            DocumentType = "cnh_frente"
	DocTypeCNHVerso             DocumentType = "cnh_verso"
	DocTypeRNEFrente            DocumentType = "rne_frente"
	DocTypeRNEVerso             DocumentType = "rne_verso"
	DocTypeSelfie               DocumentType = "selfie"
)

// KnownDocumentType reports whether t is one of the accepted document types
func KnownDocumentType(t DocumentType) bool {
	switch t {
	case DocTypeContratoSocial, DocTypeCartaoCNPJ, DocTypeComprovanteEndereco,
		DocTypeRGFrente, DocTypeRGVerso, DocTypeCNHFrente, DocTypeCNHVerso,
		DocTypeRNEFrente, DocTypeRNEVerso, DocTypeSelfie:
		return true
	}
	return false
}

// Document is an uploaded file tied to a customer, or to one of its
// partners when PartnerID is set. At most one document per
// (owner, type); replacements delete the previous row.
type Document struct {
	ID         string  `gorm:"type:uuid;primarykey" json:"id"`
	CustomerID string  `gorm:"type:uuid;not null;index" json:"customer_id"`
	PartnerID  *string `gorm:"type:uuid;index" json:"partner_id,omitempty"`

	DocumentType DocumentType `gorm:"type:varchar(30);not null" json:"document_type"`
	FileName     string       `gorm:"type:varchar(200);not null" json:"file_name"`
	MimeType     string       `gorm:"type:varchar(100);not null" json:"mime_type"`
	FileSize     int64        `gorm:"not null;default:0" json:"file_size"` // decoded size in bytes
	FileBase64   string       `gorm:"type:text" json:"-"`

	Uploaded   bool       `gorm:"not null;default:false" json:"uploaded"` // accepted by the registration service
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
	StorageKey string     `gorm:"type:varchar(300)" json:"-"` // archive object key, empty when archiving is off

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Document) TableName() string {
	return "customer_documents"
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
