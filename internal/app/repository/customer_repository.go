package repository

import (
	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/pkg/logger"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(customer *model.Customer) error
	FindByID(id string) (*model.Customer, error)
	FindByDocument(document string) (*model.Customer, error)
	FindByIndividualID(individualID string) (*model.Customer, error)
	FindByIDFull(id string) (*model.Customer, error)
	FindByStatus(status model.OnboardingStatus) ([]model.Customer, error)
	FindAll() ([]model.Customer, error)
	Update(customer *model.Customer) error
	UpdateFields(id string, fields map[string]interface{}) error
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(customer *model.Customer) error {
	logger.Debug("Creating customer in database", map[string]interface{}{
		"document":   customer.Document,
		"tipo_conta": customer.AccountType,
	})

	if err := r.db.Create(customer).Error; err != nil {
		logger.Error("Failed to create customer in database", err, map[string]interface{}{
			"document": customer.Document,
		})
		return err
	}
	return nil
}

func (r *customerRepository) FindByID(id string) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByDocument(document string) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.First(&customer, "document = ?", document).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByIndividualID(individualID string) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.First(&customer, "individual_id = ?", individualID).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByIDFull loads the customer with every associated record, the
// shape the payload builder consumes
func (r *customerRepository) FindByIDFull(id string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.
		Preload("IndividualData").
		Preload("BusinessData").
		Preload("Partners").
		Preload("Partners.Documents").
		Preload("Documents").
		First(&customer, "id = ?", id).Error
	if err != nil {
		logger.Error("Failed to load customer aggregate", err, map[string]interface{}{
			"customer_id": id,
		})
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByStatus(status model.OnboardingStatus) ([]model.Customer, error) {
	var customers []model.Customer
	if err := r.db.Where("status = ?", status).Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *customerRepository) FindAll() ([]model.Customer, error) {
	var customers []model.Customer
	if err := r.db.Order("created_at").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *customerRepository) Update(customer *model.Customer) error {
	if err := r.db.Save(customer).Error; err != nil {
		logger.Error("Failed to update customer in database", err, map[string]interface{}{
			"customer_id": customer.ID,
		})
		return err
	}
	return nil
}

func (r *customerRepository) UpdateFields(id string, fields map[string]interface{}) error {
	result := r.db.Model(&model.Customer{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		logger.Error("Failed to update customer fields", result.Error, map[string]interface{}{
			"customer_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
