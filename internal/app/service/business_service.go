package service

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/internal/app/repository"
	"github.com/contaleve/onboarding-backend/pkg/cronos"
	"github.com/contaleve/onboarding-backend/pkg/logger"
	"github.com/contaleve/onboarding-backend/pkg/util"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type CompanyInput struct {
	LegalName         string     `json:"razao_social" binding:"required"`
	TradeName         string     `json:"nome_fantasia"`
	Email             string     `json:"email" binding:"required,email"`
	Phone             string     `json:"phone"`
	CNAE              string     `json:"cnae"`
	CNAEDescription   string     `json:"cnae_descricao"`
	ShareCapital      string     `json:"capital_social"`
	FoundationDate    *time.Time `json:"foundation_date"`
	RepresentativeCPF string     `json:"cpf_representante"`
}

type PartnerInput struct {
	Document            string     `json:"document" binding:"required"`
	Name                string     `json:"name" binding:"required"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	MotherName          string     `json:"mother_name"`
	FatherName          string     `json:"father_name"`
	Gender              string     `json:"gender"`
	BirthDate           *time.Time `json:"birth_date"`
	Nationality         string     `json:"nationality"`
	NationalityState    string     `json:"nationality_state"`
	MaritalStatus       *int       `json:"marital_status"`
	PEP                 *int       `json:"pep"`
	DocumentName        string     `json:"document_name"`
	DocumentNumber      string     `json:"document_number"`
	DocumentState       string     `json:"document_state"`
	DocumentIssuance    string     `json:"document_issuance"`
	IssuanceDate        *time.Time `json:"issuance_date"`
	ParticipationPercent *float64  `json:"percentual_participacao"`
	Majority            *bool      `json:"majority"`
}

// ValidationResult reports whether the aggregated business payload is
// ready to send, and which required fields are still missing
type ValidationResult struct {
	Valid         bool     `json:"valid"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

type BusinessService interface {
	UpsertCompany(ctx context.Context, customerID string, input CompanyInput) (*OnboardingResult, error)
	UpsertPartner(ctx context.Context, customerID string, input PartnerInput) (*model.Partner, error)
	ListPartners(customerID string) ([]model.Partner, error)
	DeletePartner(ctx context.Context, customerID, partnerID string) error
	AddCompanyDocument(ctx context.Context, customerID string, upload DocumentUpload) error
	AddPartnerDocument(ctx context.Context, customerID, partnerID string, upload DocumentUpload) error
	UpdateAddress(ctx context.Context, customerID string, input AddressInput) (*OnboardingResult, error)
	Validate(customerID string) (*ValidationResult, error)
	Sync(ctx context.Context, customerID string) (*OnboardingResult, error)
}

type businessService struct {
	customers repository.CustomerRepository
	business  repository.BusinessDataRepository
	partners  repository.PartnerRepository
	documents repository.DocumentRepository
	progress  repository.ProgressRepository
	states    repository.StateRepository
	client    RegistrationClient
	notifier  StatusNotifier
	archiver  DocumentArchiver
	locks     *Locks
}

func NewBusinessService(
	customers repository.CustomerRepository,
	business repository.BusinessDataRepository,
	partners repository.PartnerRepository,
	documents repository.DocumentRepository,
	progress repository.ProgressRepository,
	states repository.StateRepository,
	client RegistrationClient,
	notifier StatusNotifier,
	archiver DocumentArchiver,
	locks *Locks,
) BusinessService {
	return &businessService{
		customers: customers,
		business:  business,
		partners:  partners,
		documents: documents,
		progress:  progress,
		states:    states,
		client:    client,
		notifier:  notifier,
		archiver:  archiver,
		locks:     locks,
	}
}

// UpsertCompany saves the company identification data locally and
// forwards it to the registration service
func (s *businessService) UpsertCompany(ctx context.Context, customerID string, input CompanyInput) (*OnboardingResult, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	customer, err := s.loadBusiness(customerID)
	if err != nil {
		return nil, err
	}

	req := cronos.Step1Request{
		IndividualID:      customer.IndividualID,
		FullName:          input.LegalName,
		Email:             input.Email,
		LegalName:         input.LegalName,
		TradeName:         input.TradeName,
		CNAE:              input.CNAE,
		CNAEDescription:   input.CNAEDescription,
		ShareCapital:      input.ShareCapital,
		RepresentativeCPF: input.RepresentativeCPF,
	}
	if input.FoundationDate != nil {
		req.FoundationDate = input.FoundationDate.Format("2006-01-02")
	}

	resp, err := s.client.Step1(ctx, req)
	if err != nil {
		return nil, err
	}

	err = s.business.Upsert(&model.BusinessData{
		CustomerID:        customer.ID,
		LegalName:         input.LegalName,
		TradeName:         input.TradeName,
		Email:             input.Email,
		Phone:             input.Phone,
		CNAE:              input.CNAE,
		CNAEDescription:   input.CNAEDescription,
		ShareCapital:      input.ShareCapital,
		FoundationDate:    input.FoundationDate,
		RepresentativeCPF: input.RepresentativeCPF,
	})
	if err != nil {
		return nil, err
	}

	customer.Name = input.LegalName
	customer.Email = input.Email
	customer.PhoneNumber = input.Phone
	if err := s.customers.Update(customer); err != nil {
		return nil, err
	}

	s.appendState(customer, resp, "dados da empresa atualizados")
	s.refreshValidation(customer.ID)
	return s.businessResult(customer, resp), nil
}

// UpsertPartner creates or updates a partner keyed by document
func (s *businessService) UpsertPartner(ctx context.Context, customerID string, input PartnerInput) (*model.Partner, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	customer, err := s.loadBusiness(customerID)
	if err != nil {
		return nil, err
	}

	document := util.NormalizeDocument(input.Document)
	if !util.IsCPF(document) {
		return nil, ErrInvalidDocument
	}

	partner := &model.Partner{
		CustomerID:           customer.ID,
		Document:             document,
		Name:                 input.Name,
		Email:                input.Email,
		Phone:                input.Phone,
		MotherName:           input.MotherName,
		FatherName:           input.FatherName,
		Gender:               input.Gender,
		BirthDate:            input.BirthDate,
		Nationality:          input.Nationality,
		NationalityState:     input.NationalityState,
		MaritalStatus:        input.MaritalStatus,
		PEP:                  input.PEP,
		DocumentName:         input.DocumentName,
		DocumentNumber:       input.DocumentNumber,
		DocumentState:        input.DocumentState,
		DocumentIssuance:     input.DocumentIssuance,
		IssuanceDate:         input.IssuanceDate,
		ParticipationPercent: input.ParticipationPercent,
		Majority:             input.Majority,
	}
	if err := s.partners.Upsert(partner); err != nil {
		return nil, err
	}

	logger.Info("Partner upserted", map[string]interface{}{
		"customer_id": customer.ID,
		"partner_id":  partner.ID,
	})

	s.refreshValidation(customer.ID)
	return partner, nil
}

func (s *businessService) ListPartners(customerID string) ([]model.Partner, error) {
	return s.partners.FindByCustomerID(customerID)
}

// DeletePartner removes a partner locally and, when it is already known
// to the registration service, upstream as well
func (s *businessService) DeletePartner(ctx context.Context, customerID, partnerID string) error {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	customer, err := s.loadBusiness(customerID)
	if err != nil {
		return err
	}

	partner, err := s.partners.FindByID(partnerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPartnerNotFound
	}
	if err != nil {
		return err
	}
	if partner.CustomerID != customer.ID {
		return ErrPartnerNotFound
	}

	if partner.ExternalID != "" && customer.IndividualID != "" {
		if _, err := s.client.DeletePartner(ctx, customer.IndividualID, partner.ExternalID); err != nil {
			return err
		}
	}

	if err := s.partners.Delete(partnerID); err != nil {
		return err
	}

	s.refreshValidation(customer.ID)
	return nil
}

// AddCompanyDocument stores a company document (social contract, CNPJ
// card, proof of address). Company documents stay local until the sync
// sends the aggregated payload.
func (s *businessService) AddCompanyDocument(ctx context.Context, customerID string, upload DocumentUpload) error {
	if !isCompanyDocument(upload.DocumentType) {
		return ErrInvalidDocumentType
	}

	unlock := s.locks.Lock(customerID)
	defer unlock()

	customer, err := s.loadBusiness(customerID)
	if err != nil {
		return err
	}

	if err := s.store(ctx, customer, nil, upload); err != nil {
		return err
	}

	s.refreshValidation(customer.ID)
	return nil
}

// AddPartnerDocument stores a partner identity document and forwards it
// to the registration service when the business is already registered
func (s *businessService) AddPartnerDocument(ctx context.Context, customerID, partnerID string, upload DocumentUpload) error {
	if !isIdentityDocument(upload.DocumentType) {
		return ErrInvalidDocumentType
	}

	unlock := s.locks.Lock(customerID)
	defer unlock()

	customer, err := s.loadBusiness(customerID)
	if err != nil {
		return err
	}

	partner, err := s.partners.FindByID(partnerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPartnerNotFound
	}
	if err != nil {
		return err
	}
	if partner.CustomerID != customer.ID {
		return ErrPartnerNotFound
	}

	if customer.IndividualID != "" {
		// Partners already known upstream must be selected before the
		// document is attached to them
		if partner.ExternalID != "" {
			if _, err := s.client.SelectPartner(ctx, customer.IndividualID, partner.ExternalID); err != nil {
				return err
			}
		}

		_, err := s.client.PartnerDocument(ctx, cronos.PartnerDocumentRequest{
			IndividualID: customer.IndividualID,
			PartnerName:  partner.Name,
			ImageType:    upload.ImageType,
			DocumentType: string(upload.DocumentType),
			File: cronos.FilePart{
				FileName:    upload.FileName,
				ContentType: upload.MimeType,
				Content:     upload.Content,
			},
		})
		if err != nil {
			return err
		}
	}

	if err := s.store(ctx, customer, &partner.ID, upload); err != nil {
		return err
	}

	s.refreshValidation(customer.ID)
	return nil
}

func (s *businessService) UpdateAddress(ctx context.Context, customerID string, input AddressInput) (*OnboardingResult, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	customer, err := s.loadBusiness(customerID)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Step6(ctx, cronos.Step6Request{
		IndividualID:  customer.IndividualID,
		PostalCode:    input.PostalCode,
		AddressTypeID: input.AddressTypeID,
		Street:        input.Street,
		Number:        input.Number,
		Neighborhood:  input.Neighborhood,
		City:          input.City,
		State:         input.State,
		Country:       input.Country,
		Complement:    input.Complement,
	})
	if err != nil {
		return nil, err
	}

	err = s.business.Upsert(&model.BusinessData{
		CustomerID:   customer.ID,
		PostalCode:   input.PostalCode,
		Street:       input.Street,
		Number:       input.Number,
		Neighborhood: input.Neighborhood,
		City:         input.City,
		State:        input.State,
		Country:      input.Country,
		Complement:   input.Complement,
	})
	if err != nil {
		return nil, err
	}

	s.refreshValidation(customer.ID)
	return s.businessResult(customer, resp), nil
}

// Validate aggregates the stored business data and reports the missing
// required fields
func (s *businessService) Validate(customerID string) (*ValidationResult, error) {
	customer, err := s.customers.FindByIDFull(customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	if customer.AccountType != model.AccountTypeCNPJ {
		return nil, ErrWrongFlow
	}

	missing := ValidatePayload(BuildPayload(customer))
	return &ValidationResult{Valid: len(missing) == 0, MissingFields: missing}, nil
}

// Sync validates the aggregated payload and sends it to the
// registration service. The attempt is always recorded in the history,
// success or not.
func (s *businessService) Sync(ctx context.Context, customerID string) (*OnboardingResult, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	customer, err := s.customers.FindByIDFull(customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	if customer.AccountType != model.AccountTypeCNPJ {
		return nil, ErrWrongFlow
	}
	if customer.Status.Terminal() {
		return nil, ErrAlreadySent
	}
	if customer.IndividualID == "" {
		return nil, ErrNotStarted
	}

	payload := BuildPayload(customer)
	if missing := ValidatePayload(payload); len(missing) > 0 {
		customer.Status = model.StatusPending
		if err := s.customers.Update(customer); err != nil {
			return nil, err
		}
		s.updateSyncProgress(customer.ID, model.SyncResultError, "campos obrigatórios ausentes", missing)
		return nil, ErrPayloadIncomplete
	}

	resp, syncErr := s.client.UpdateSimplify(ctx, customer.IndividualID, payload)

	snapshot := resp
	result := model.SyncResultSuccess
	message := "cadastro enviado"
	if syncErr != nil {
		result = model.SyncResultError
		message = syncErr.Error()
		var apiErr *cronos.APIError
		if errors.As(syncErr, &apiErr) && apiErr.Response != nil {
			snapshot = apiErr.Response
			if apiErr.Response.Message != "" {
				message = apiErr.Response.Message
			}
		}
	}

	// Every attempt stamps SyncedAt, success or not
	now := time.Now()
	customer.SyncedAt = &now
	if syncErr != nil {
		customer.Status = model.StatusError
	} else {
		customer.Status = model.StatusSent
	}
	if snapshot != nil && snapshot.Status != "" {
		customer.ExternalStatus = snapshot.Status
	}
	if err := s.customers.Update(customer); err != nil {
		return nil, err
	}

	// The history row records the state after the attempt was applied
	s.appendState(customer, snapshot, message)
	pending := []string{}
	if snapshot != nil && snapshot.PendingFields != nil {
		pending = snapshot.PendingFields
	}
	s.updateSyncProgress(customer.ID, result, message, pending)
	s.notify(customer)

	if syncErr != nil {
		logger.Error("Business sync failed", syncErr, map[string]interface{}{
			"customer_id": customer.ID,
		})
		return nil, syncErr
	}

	logger.Info("Business sync completed", map[string]interface{}{
		"customer_id":   customer.ID,
		"individual_id": customer.IndividualID,
	})

	return s.businessResult(customer, resp), nil
}

// loadBusiness loads the customer and applies the business-flow guards
func (s *businessService) loadBusiness(customerID string) (*model.Customer, error) {
	customer, err := s.customers.FindByID(customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	if customer.AccountType != model.AccountTypeCNPJ {
		return nil, ErrWrongFlow
	}
	if customer.Status.Terminal() {
		return nil, ErrAlreadySent
	}
	return customer, nil
}

func (s *businessService) store(ctx context.Context, customer *model.Customer, partnerID *string, upload DocumentUpload) error {
	doc := &model.Document{
		CustomerID:   customer.ID,
		PartnerID:    partnerID,
		DocumentType: upload.DocumentType,
		FileName:     upload.FileName,
		MimeType:     upload.MimeType,
		FileSize:     int64(len(upload.Content)),
		FileBase64:   base64.StdEncoding.EncodeToString(upload.Content),
	}
	if err := s.documents.Replace(doc); err != nil {
		return err
	}

	storageKey := ""
	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, customer.ID, upload.FileName, upload.MimeType, upload.Content)
		if err != nil {
			logger.Warn("Failed to archive document", map[string]interface{}{
				"customer_id": customer.ID,
				"error":       err.Error(),
			})
		} else {
			storageKey = key
		}
	}

	return s.documents.MarkUploaded(doc.ID, storageKey)
}

// refreshValidation recomputes the pending field list after a mutation
func (s *businessService) refreshValidation(customerID string) {
	customer, err := s.customers.FindByIDFull(customerID)
	if err != nil {
		logger.Error("Failed to reload customer for validation", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return
	}

	missing := ValidatePayload(BuildPayload(customer))

	progress, err := s.progress.FindByCustomerID(customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = &model.OnboardingProgress{CustomerID: customerID}
	} else if err != nil {
		logger.Error("Failed to load progress", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return
	}

	progress.PendingFields = pq.StringArray(missing)
	progress.FilledFields = pq.StringArray(filledFields(missing))
	if err := s.progress.Upsert(progress); err != nil {
		logger.Error("Failed to update progress", err, map[string]interface{}{
			"customer_id": customerID,
		})
	}
}

func (s *businessService) updateSyncProgress(customerID, result, message string, pending []string) {
	progress, err := s.progress.FindByCustomerID(customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = &model.OnboardingProgress{CustomerID: customerID}
	} else if err != nil {
		logger.Error("Failed to load progress", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return
	}

	now := time.Now()
	progress.LastSyncStatus = result
	progress.LastSyncMessage = message
	progress.LastSyncAt = &now
	if pending == nil {
		pending = []string{}
	}
	progress.LastSyncPendingFields = pq.StringArray(pending)
	progress.PendingFields = pq.StringArray(pending)
	if err := s.progress.Upsert(progress); err != nil {
		logger.Error("Failed to update progress", err, map[string]interface{}{
			"customer_id": customerID,
		})
	}
}

// appendState records a history entry, snapshotting the registration
// service envelope when a response is given
func (s *businessService) appendState(customer *model.Customer, resp *cronos.Response, fallback string) {
	state := &model.OnboardingState{
		CustomerID: customer.ID,
		Status:     customer.Status,
		Step:       customer.CurrentStep,
		Message:    fallback,
	}
	if resp != nil {
		if resp.Message != "" {
			state.Message = resp.Message
		}
		state.Success = resp.Success
		state.Code = resp.Code.String()
		state.ExternalID = resp.IndividualID
		state.Document = resp.Document
		state.ExternalStatus = resp.Status
		state.StatusLabel = resp.StatusLabel
		state.PendingFields = pq.StringArray(resp.PendingFields)
		state.UploadedFiles = resp.UploadedFiles
	}
	if err := s.states.Append(state); err != nil {
		logger.Error("Failed to append onboarding state", err, map[string]interface{}{
			"customer_id": customer.ID,
		})
	}
}

func (s *businessService) notify(customer *model.Customer) {
	if s.notifier != nil {
		s.notifier.NotifyStatus(customer.ID, string(customer.Status), customer.CurrentStep)
	}
}

func (s *businessService) businessResult(customer *model.Customer, resp *cronos.Response) *OnboardingResult {
	result := &OnboardingResult{
		CustomerID:   customer.ID,
		IndividualID: customer.IndividualID,
		Document:     customer.Document,
		AccountType:  customer.AccountType,
		Status:       customer.Status,
		StatusLabel:  customer.Status.Label(),
		CurrentStep:  customer.CurrentStep,
	}
	if resp != nil {
		result.PendingFields = resp.PendingFields
		result.Message = resp.Message
	}
	return result
}

// filledFields is the complement of the missing list over the required set
func filledFields(missing []string) []string {
	missingSet := make(map[string]struct{}, len(missing))
	for _, f := range missing {
		missingSet[f] = struct{}{}
	}
	filled := make([]string, 0, len(requiredPayloadFields))
	for _, f := range requiredPayloadFields {
		if _, ok := missingSet[f]; !ok {
			filled = append(filled, f)
		}
	}
	return filled
}

// isCompanyDocument accepts the document types valid for company uploads
func isCompanyDocument(t model.DocumentType) bool {
	switch t {
	case model.DocTypeContratoSocial, model.DocTypeCartaoCNPJ, model.DocTypeComprovanteEndereco:
		return true
	}
	return false
}
