package repository

import (
	"time"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/pkg/logger"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Replace(doc *model.Document) error
	FindByID(id string) (*model.Document, error)
	FindByCustomerID(customerID string) ([]model.Document, error)
	MarkUploaded(id string, storageKey string) error
	FindNotArchived(limit int) ([]model.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Replace enforces at most one document per (owner, type): any previous
// row for the same customer/partner and type is removed in the same
// transaction that inserts the new one
func (r *documentRepository) Replace(doc *model.Document) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		query := tx.Where("customer_id = ? AND document_type = ?", doc.CustomerID, doc.DocumentType)
		if doc.PartnerID != nil {
			query = query.Where("partner_id = ?", *doc.PartnerID)
		} else {
			query = query.Where("partner_id IS NULL")
		}

		if err := query.Delete(&model.Document{}).Error; err != nil {
			logger.Error("Failed to delete previous document", err, map[string]interface{}{
				"customer_id":   doc.CustomerID,
				"document_type": doc.DocumentType,
			})
			return err
		}

		return tx.Create(doc).Error
	})
}

func (r *documentRepository) FindByID(id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindByCustomerID(customerID string) ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Where("customer_id = ?", customerID).Order("created_at").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// MarkUploaded records acceptance by the registration service and,
// when archiving is on, the archive object key
func (r *documentRepository) MarkUploaded(id string, storageKey string) error {
	now := time.Now()
	fields := map[string]interface{}{
		"uploaded":    true,
		"uploaded_at": &now,
	}
	if storageKey != "" {
		fields["storage_key"] = storageKey
	}

	result := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindNotArchived lists uploaded documents that still lack an archive
// object key, for the background archiver
func (r *documentRepository) FindNotArchived(limit int) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Where("uploaded = ? AND storage_key = ?", true, "").
		Order("created_at").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}
