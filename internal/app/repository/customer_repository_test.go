package repository

import (
	"testing"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCustomerTest(t *testing.T) (*gorm.DB, CustomerRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := NewCustomerRepository(testDB)
	return testDB, repo
}

func TestCustomerRepository_Create(t *testing.T) {
	testDB, repo := setupCustomerTest(t)
	defer db.CleanupTestDB(testDB)

	tests := []struct {
		name     string
		customer *model.Customer
		wantErr  bool
	}{
		{
			name: "Valid PF customer",
			customer: &model.Customer{
				Document:    "12345678901",
				AccountType: model.AccountTypeCPF,
				Status:      model.StatusInProgress,
				CurrentStep: 1,
			},
			wantErr: false,
		},
		{
			name: "Valid PJ customer",
			customer: &model.Customer{
				Document:    "12345678000199",
				AccountType: model.AccountTypeCNPJ,
				Status:      model.StatusInProgress,
				CurrentStep: 1,
			},
			wantErr: false,
		},
		{
			name: "Duplicate document",
			customer: &model.Customer{
				Document:    "12345678901",
				AccountType: model.AccountTypeCPF,
				Status:      model.StatusInProgress,
				CurrentStep: 1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.customer)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, tt.customer.ID)
			}
		})
	}
}

func TestCustomerRepository_FindByDocument(t *testing.T) {
	testDB, repo := setupCustomerTest(t)
	defer db.CleanupTestDB(testDB)

	created := &model.Customer{
		Document:    "98765432100",
		AccountType: model.AccountTypeCPF,
		Status:      model.StatusInProgress,
		CurrentStep: 3,
	}
	require.NoError(t, repo.Create(created))

	found, err := repo.FindByDocument("98765432100")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, 3, found.CurrentStep)

	_, err = repo.FindByDocument("00000000000")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCustomerRepository_UpdateFields(t *testing.T) {
	testDB, repo := setupCustomerTest(t)
	defer db.CleanupTestDB(testDB)

	customer := &model.Customer{
		Document:    "12345678901",
		AccountType: model.AccountTypeCPF,
		Status:      model.StatusInProgress,
		CurrentStep: 1,
	}
	require.NoError(t, repo.Create(customer))

	err := repo.UpdateFields(customer.ID, map[string]interface{}{
		"current_step":  2,
		"individual_id": "ind-123",
	})
	require.NoError(t, err)

	found, err := repo.FindByID(customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.CurrentStep)
	assert.Equal(t, "ind-123", found.IndividualID)

	err = repo.UpdateFields("missing-id", map[string]interface{}{"current_step": 9})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCustomerRepository_FindByIDFull(t *testing.T) {
	testDB, repo := setupCustomerTest(t)
	defer db.CleanupTestDB(testDB)

	customer := &model.Customer{
		Document:    "12345678000199",
		AccountType: model.AccountTypeCNPJ,
		Status:      model.StatusInProgress,
		CurrentStep: 1,
	}
	require.NoError(t, repo.Create(customer))

	require.NoError(t, NewBusinessDataRepository(testDB).Upsert(&model.BusinessData{
		CustomerID: customer.ID,
		LegalName:  "Empresa Exemplo LTDA",
		CNAE:       "6201-5/00",
	}))
	require.NoError(t, NewPartnerRepository(testDB).Upsert(&model.Partner{
		CustomerID: customer.ID,
		Name:       "Maria Silva",
		Document:   "11122233344",
	}))
	require.NoError(t, NewDocumentRepository(testDB).Replace(&model.Document{
		CustomerID:   customer.ID,
		DocumentType: model.DocTypeCartaoCNPJ,
		FileName:     "cartao.pdf",
		MimeType:     "application/pdf",
		FileBase64:   "Zm9v",
	}))

	full, err := repo.FindByIDFull(customer.ID)
	require.NoError(t, err)
	require.NotNil(t, full.BusinessData)
	assert.Equal(t, "Empresa Exemplo LTDA", full.BusinessData.LegalName)
	require.Len(t, full.Partners, 1)
	assert.Equal(t, "Maria Silva", full.Partners[0].Name)
	require.Len(t, full.Documents, 1)
	assert.Equal(t, model.DocTypeCartaoCNPJ, full.Documents[0].DocumentType)
}

func TestCustomerRepository_FindByStatus(t *testing.T) {
	testDB, repo := setupCustomerTest(t)
	defer db.CleanupTestDB(testDB)

	require.NoError(t, repo.Create(&model.Customer{
		Document: "11111111111", AccountType: model.AccountTypeCPF,
		Status: model.StatusError, CurrentStep: 8,
	}))
	require.NoError(t, repo.Create(&model.Customer{
		Document: "22222222222", AccountType: model.AccountTypeCPF,
		Status: model.StatusSent, CurrentStep: 8,
	}))

	failed, err := repo.FindByStatus(model.StatusError)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "11111111111", failed[0].Document)
}
