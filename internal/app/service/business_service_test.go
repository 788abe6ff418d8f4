package service

import (
	"context"
	"testing"
	"time"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/internal/app/repository"
	"github.com/contaleve/onboarding-backend/internal/db"
	"github.com/contaleve/onboarding-backend/pkg/cronos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type businessFixture struct {
	db        *gorm.DB
	customers repository.CustomerRepository
	partners  repository.PartnerRepository
	documents repository.DocumentRepository
	progress  repository.ProgressRepository
	states    repository.StateRepository
	client    *fakeRegistrationClient
	notifier  *recordingNotifier
	service   BusinessService
}

func setupBusinessTest(t *testing.T) *businessFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	f := &businessFixture{
		db:        testDB,
		customers: repository.NewCustomerRepository(testDB),
		partners:  repository.NewPartnerRepository(testDB),
		documents: repository.NewDocumentRepository(testDB),
		progress:  repository.NewProgressRepository(testDB),
		states:    repository.NewStateRepository(testDB),
		client:    newFakeClient(),
		notifier:  &recordingNotifier{},
	}
	f.service = NewBusinessService(
		f.customers,
		repository.NewBusinessDataRepository(testDB),
		f.partners,
		f.documents,
		f.progress,
		f.states,
		f.client,
		f.notifier,
		nil,
		NewLocks(),
	)
	return f
}

func (f *businessFixture) businessCustomer(t *testing.T) *model.Customer {
	customer := &model.Customer{
		Document:     "12345678000190",
		AccountType:  model.AccountTypeCNPJ,
		IndividualID: "ind-pj-1",
		Status:       model.StatusInProgress,
		CurrentStep:  1,
	}
	require.NoError(t, f.customers.Create(customer))
	return customer
}

// fillBusiness stores everything a complete business registration needs
func (f *businessFixture) fillBusiness(t *testing.T, ctx context.Context, customer *model.Customer) {
	foundation := time.Date(2015, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err := f.service.UpsertCompany(ctx, customer.ID, CompanyInput{
		LegalName:      "ACME Comércio LTDA",
		TradeName:      "ACME",
		Email:          "contato@acme.com.br",
		Phone:          "1133334444",
		CNAE:           "4751201",
		ShareCapital:   "150000",
		FoundationDate: &foundation,
	})
	require.NoError(t, err)

	_, err = f.service.UpdateAddress(ctx, customer.ID, AddressInput{
		PostalCode: "01310100", Street: "Avenida Paulista", Number: "1000",
		Neighborhood: "Bela Vista", City: "São Paulo", State: "SP", Country: "BR",
	})
	require.NoError(t, err)

	_, err = f.service.UpsertPartner(ctx, customer.ID, PartnerInput{
		Document: "12345678901",
		Name:     "Maria Silva",
	})
	require.NoError(t, err)

	for _, docType := range []model.DocumentType{model.DocTypeContratoSocial, model.DocTypeCartaoCNPJ} {
		err = f.service.AddCompanyDocument(ctx, customer.ID, DocumentUpload{
			DocumentType: docType,
			FileName:     string(docType) + ".pdf",
			MimeType:     "application/pdf",
			Content:      []byte("conteudo"),
		})
		require.NoError(t, err)
	}
}

func TestBusinessService_UpsertCompany(t *testing.T) {
	ctx := context.Background()

	f := setupBusinessTest(t)
	defer db.CleanupTestDB(f.db)
	customer := f.businessCustomer(t)

	_, err := f.service.UpsertCompany(ctx, customer.ID, CompanyInput{
		LegalName: "ACME Comércio LTDA",
		Email:     "contato@acme.com.br",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.client.called("Step1"))

	stored, err := f.customers.FindByIDFull(customer.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.BusinessData)
	assert.Equal(t, "ACME Comércio LTDA", stored.BusinessData.LegalName)

	// Validation progress reflects the still-missing fields
	progress, err := f.progress.FindByCustomerID(customer.ID)
	require.NoError(t, err)
	assert.Contains(t, progress.PendingFields, "cnae")
	assert.Contains(t, progress.FilledFields, "name")
}

func TestBusinessService_Partners(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert is keyed by document", func(t *testing.T) {
		f := setupBusinessTest(t)
		defer db.CleanupTestDB(f.db)
		customer := f.businessCustomer(t)

		first, err := f.service.UpsertPartner(ctx, customer.ID, PartnerInput{
			Document: "123.456.789-01", Name: "Maria Silva",
		})
		require.NoError(t, err)

		second, err := f.service.UpsertPartner(ctx, customer.ID, PartnerInput{
			Document: "12345678901", Name: "Maria Souza Silva",
		})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)

		partners, err := f.service.ListPartners(customer.ID)
		require.NoError(t, err)
		require.Len(t, partners, 1)
		assert.Equal(t, "Maria Souza Silva", partners[0].Name)
	})

	t.Run("Invalid partner document", func(t *testing.T) {
		f := setupBusinessTest(t)
		defer db.CleanupTestDB(f.db)
		customer := f.businessCustomer(t)

		_, err := f.service.UpsertPartner(ctx, customer.ID, PartnerInput{
			Document: "12345678000190", Name: "Não é CPF",
		})
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("Delete removes upstream when registered", func(t *testing.T) {
		f := setupBusinessTest(t)
		defer db.CleanupTestDB(f.db)
		customer := f.businessCustomer(t)

		partner := &model.Partner{
			CustomerID: customer.ID,
			Document:   "12345678901",
			Name:       "Maria Silva",
			ExternalID: "socio-77",
		}
		require.NoError(t, f.partners.Upsert(partner))

		require.NoError(t, f.service.DeletePartner(ctx, customer.ID, partner.ID))
		assert.Equal(t, 1, f.client.called("DeletePartner"))

		_, err := f.partners.FindByID(partner.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("Delete rejects a partner of another customer", func(t *testing.T) {
		f := setupBusinessTest(t)
		defer db.CleanupTestDB(f.db)
		customer := f.businessCustomer(t)

		other := &model.Customer{
			Document:    "98765432000110",
			AccountType: model.AccountTypeCNPJ,
			Status:      model.StatusInProgress,
			CurrentStep: 1,
		}
		require.NoError(t, f.customers.Create(other))
		partner := &model.Partner{CustomerID: other.ID, Document: "12345678901", Name: "Maria"}
		require.NoError(t, f.partners.Upsert(partner))

		err := f.service.DeletePartner(ctx, customer.ID, partner.ID)
		assert.ErrorIs(t, err, ErrPartnerNotFound)
	})
}

func TestBusinessService_Documents(t *testing.T) {
	ctx := context.Background()

	t.Run("Identity type rejected as company document", func(t *testing.T) {
		f := setupBusinessTest(t)
		defer db.CleanupTestDB(f.db)
		customer := f.businessCustomer(t)

		err := f.service.AddCompanyDocument(ctx, customer.ID, DocumentUpload{
			DocumentType: model.DocTypeRGFrente,
			FileName:     "rg.jpg",
			Content:      []byte("x"),
		})
		assert.ErrorIs(t, err, ErrInvalidDocumentType)
	})

	t.Run("Partner document is forwarded upstream", func(t *testing.T) {
		f := setupBusinessTest(t)
		defer db.CleanupTestDB(f.db)
		customer := f.businessCustomer(t)

		partner, err := f.service.UpsertPartner(ctx, customer.ID, PartnerInput{
			Document: "12345678901", Name: "Maria Silva",
		})
		require.NoError(t, err)

		err = f.service.AddPartnerDocument(ctx, customer.ID, partner.ID, DocumentUpload{
			DocumentType: model.DocTypeRGFrente,
			ImageType:    "frente",
			FileName:     "rg.jpg",
			MimeType:     "image/jpeg",
			Content:      []byte("imagem"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, f.client.called("PartnerDocument"))
		assert.Zero(t, f.client.called("SelectPartner"))

		docs, err := f.documents.FindByCustomerID(customer.ID)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		require.NotNil(t, docs[0].PartnerID)
		assert.Equal(t, partner.ID, *docs[0].PartnerID)
		assert.True(t, docs[0].Uploaded)
		assert.EqualValues(t, len("imagem"), docs[0].FileSize)
	})

	t.Run("Known partner is selected before the upload", func(t *testing.T) {
		f := setupBusinessTest(t)
		defer db.CleanupTestDB(f.db)
		customer := f.businessCustomer(t)

		partner := &model.Partner{
			CustomerID: customer.ID,
			Document:   "12345678901",
			Name:       "Maria Silva",
			ExternalID: "socio-77",
		}
		require.NoError(t, f.partners.Upsert(partner))

		err := f.service.AddPartnerDocument(ctx, customer.ID, partner.ID, DocumentUpload{
			DocumentType: model.DocTypeRGFrente,
			ImageType:    "frente",
			FileName:     "rg.jpg",
			MimeType:     "image/jpeg",
			Content:      []byte("imagem"),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, f.client.called("SelectPartner"))
		assert.Equal(t, 1, f.client.called("PartnerDocument"))
	})
}

func TestBusinessService_Validate(t *testing.T) {
	ctx := context.Background()

	f := setupBusinessTest(t)
	defer db.CleanupTestDB(f.db)
	customer := f.businessCustomer(t)

	result, err := f.service.Validate(customer.ID)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.MissingFields, "name")
	assert.Contains(t, result.MissingFields, "socios")

	f.fillBusiness(t, ctx, customer)

	result, err = f.service.Validate(customer.ID)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.MissingFields)
}

func TestBusinessService_Sync(t *testing.T) {
	ctx := context.Background()

	t.Run("Incomplete payload is not sent", func(t *testing.T) {
		f := setupBusinessTest(t)
		defer db.CleanupTestDB(f.db)
		customer := f.businessCustomer(t)

		_, err := f.service.Sync(ctx, customer.ID)
		assert.ErrorIs(t, err, ErrPayloadIncomplete)
		assert.Zero(t, f.client.called("UpdateSimplify"))

		stored, err := f.customers.FindByID(customer.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, stored.Status)

		// Local validation is not a sync attempt
		assert.Nil(t, stored.SyncedAt)
		history, err := f.states.ListByCustomerID(customer.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("Successful sync", func(t *testing.T) {
		f := setupBusinessTest(t)
		defer db.CleanupTestDB(f.db)
		customer := f.businessCustomer(t)
		f.fillBusiness(t, ctx, customer)

		f.client.responses["UpdateSimplify"] = &cronos.Response{
			Success:     true,
			Message:     "cadastro recebido",
			Status:      "aguardando aprovação",
			StatusLabel: "Aguardando aprovação",
		}

		result, err := f.service.Sync(ctx, customer.ID)
		require.NoError(t, err)

		assert.Equal(t, model.StatusSent, result.Status)
		assert.Equal(t, 1, f.client.called("UpdateSimplify"))
		assert.Equal(t, "ACME Comércio LTDA", f.client.simplify["name"])

		stored, err := f.customers.FindByID(customer.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.SyncedAt)
		assert.Equal(t, "aguardando aprovação", stored.ExternalStatus)

		progress, err := f.progress.FindByCustomerID(customer.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SyncResultSuccess, progress.LastSyncStatus)
		require.NotNil(t, progress.LastSyncAt)
		assert.Empty(t, progress.LastSyncPendingFields)

		history, err := f.states.ListByCustomerID(customer.ID)
		require.NoError(t, err)
		require.NotEmpty(t, history)

		// The newest entry snapshots the post-send state and envelope
		last := history[len(history)-1]
		assert.Equal(t, model.StatusSent, last.Status)
		assert.True(t, last.Success)
		assert.Equal(t, "cadastro recebido", last.Message)
		assert.Equal(t, "aguardando aprovação", last.ExternalStatus)
		assert.Equal(t, "Aguardando aprovação", last.StatusLabel)
	})

	t.Run("Failed sync records the attempt", func(t *testing.T) {
		f := setupBusinessTest(t)
		defer db.CleanupTestDB(f.db)
		customer := f.businessCustomer(t)
		f.fillBusiness(t, ctx, customer)

		f.client.errors["UpdateSimplify"] = &cronos.APIError{
			Err:        cronos.ErrValidation,
			StatusCode: 422,
			Response: &cronos.Response{
				Message:       "cnae inválido",
				Status:        "pendente",
				PendingFields: []string{"comprovante_endereco"},
			},
		}

		_, err := f.service.Sync(ctx, customer.ID)
		assert.ErrorIs(t, err, cronos.ErrValidation)

		stored, err := f.customers.FindByID(customer.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusError, stored.Status)
		assert.Equal(t, "pendente", stored.ExternalStatus)
		require.NotNil(t, stored.SyncedAt)

		progress, err := f.progress.FindByCustomerID(customer.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SyncResultError, progress.LastSyncStatus)
		assert.Equal(t, "cnae inválido", progress.LastSyncMessage)
		assert.EqualValues(t, []string{"comprovante_endereco"}, []string(progress.LastSyncPendingFields))
		assert.EqualValues(t, []string{"comprovante_endereco"}, []string(progress.PendingFields))

		history, err := f.states.ListByCustomerID(customer.ID)
		require.NoError(t, err)
		require.NotEmpty(t, history)

		// The failure entry records the state after the transition
		last := history[len(history)-1]
		assert.Equal(t, model.StatusError, last.Status)
		assert.Equal(t, "cnae inválido", last.Message)
		assert.EqualValues(t, []string{"comprovante_endereco"}, []string(last.PendingFields))
	})

	t.Run("Sent registration cannot be re-sent", func(t *testing.T) {
		f := setupBusinessTest(t)
		defer db.CleanupTestDB(f.db)
		customer := f.businessCustomer(t)
		f.fillBusiness(t, ctx, customer)

		_, err := f.service.Sync(ctx, customer.ID)
		require.NoError(t, err)

		_, err = f.service.Sync(ctx, customer.ID)
		assert.ErrorIs(t, err, ErrAlreadySent)
		assert.Equal(t, 1, f.client.called("UpdateSimplify"))
	})

	t.Run("Missing registration id", func(t *testing.T) {
		f := setupBusinessTest(t)
		defer db.CleanupTestDB(f.db)

		customer := &model.Customer{
			Document:    "12345678000190",
			AccountType: model.AccountTypeCNPJ,
			Status:      model.StatusInProgress,
			CurrentStep: 1,
		}
		require.NoError(t, f.customers.Create(customer))

		_, err := f.service.Sync(ctx, customer.ID)
		assert.ErrorIs(t, err, ErrNotStarted)
	})
}
