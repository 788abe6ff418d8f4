package service

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/internal/app/repository"
	"github.com/contaleve/onboarding-backend/pkg/cache"
	"github.com/contaleve/onboarding-backend/pkg/cronos"
	"github.com/contaleve/onboarding-backend/pkg/logger"
	"github.com/contaleve/onboarding-backend/pkg/util"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrInvalidDocument     = errors.New("document is not a valid CPF or CNPJ")
	ErrWrongFlow           = errors.New("operation does not match the customer account type")
	ErrStepOrder           = errors.New("step submitted out of order")
	ErrAlreadySent         = errors.New("registration already sent")
	ErrNotStarted          = errors.New("onboarding not started with the registration service")
	ErrInvalidDocumentType = errors.New("invalid document type")
	ErrStateDrift          = errors.New("local state diverged from the registration service")
	ErrPayloadIncomplete   = errors.New("payload has missing required fields")
	ErrPartnerNotFound     = errors.New("partner not found")
)

// OnboardingResult is the canonical view of an onboarding returned by
// every operation
type OnboardingResult struct {
	CustomerID    string                 `json:"customer_id"`
	IndividualID  string                 `json:"individual_id,omitempty"`
	Document      string                 `json:"document"`
	AccountType   model.AccountType      `json:"tipo_conta"`
	Status        model.OnboardingStatus `json:"onboarding_status"`
	StatusLabel   string                 `json:"status_label"`
	CurrentStep   int                    `json:"current_step"`
	PendingFields []string               `json:"pending_fields,omitempty"`
	Message       string                 `json:"message,omitempty"`
}

type PersonalInfoInput struct {
	FullName string `json:"full_name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

type PhoneInput struct {
	Prefix string `json:"phone_prefix" binding:"required"`
	Number string `json:"phone_number" binding:"required"`
}

type PersonalDetailInput struct {
	MotherName       string     `json:"mother_name"`
	FatherName       string     `json:"father_name"`
	Gender           string     `json:"gender"`
	BirthDate        *time.Time `json:"birth_date"`
	Nationality      string     `json:"nationality"`
	NationalityState string     `json:"nationality_state"`
	DocumentName     string     `json:"document_name"`
	DocumentNumber   string     `json:"document_number"`
	DocumentState    string     `json:"document_state"`
	DocumentIssuance string     `json:"document_issuance"`
	IssuanceDate     *time.Time `json:"issuance_date"`
	MaritalStatus    int        `json:"marital_status"`
	PEP              int        `json:"pep"`
}

type AddressInput struct {
	PostalCode    string `json:"postal_code" binding:"required"`
	AddressTypeID int    `json:"address_type_id"`
	Street        string `json:"street" binding:"required"`
	Number        string `json:"number" binding:"required"`
	Neighborhood  string `json:"neighborhood" binding:"required"`
	City          string `json:"city" binding:"required"`
	State         string `json:"state" binding:"required"`
	Country       string `json:"country" binding:"required"`
	Complement    string `json:"complement"`
}

// DocumentUpload carries an uploaded file to a step that takes one
type DocumentUpload struct {
	DocumentType model.DocumentType
	ImageType    string
	FileName     string
	MimeType     string
	Content      []byte
}

type OnboardingService interface {
	Start(ctx context.Context, document string) (*OnboardingResult, error)
	Situation(ctx context.Context, document string) (*OnboardingResult, error)
	SubmitPersonalInfo(ctx context.Context, customerID string, input PersonalInfoInput) (*OnboardingResult, error)
	SubmitPhone(ctx context.Context, customerID string, input PhoneInput) (*OnboardingResult, error)
	ConfirmPhone(ctx context.Context, customerID, code string) (*OnboardingResult, error)
	ResendCode(ctx context.Context, customerID string) error
	SubmitDocumentImage(ctx context.Context, customerID string, upload DocumentUpload) (*OnboardingResult, error)
	SubmitPersonalDetail(ctx context.Context, customerID string, input PersonalDetailInput) (*OnboardingResult, error)
	SubmitSelfie(ctx context.Context, customerID string, upload DocumentUpload) (*OnboardingResult, error)
	SubmitAddress(ctx context.Context, customerID string, input AddressInput) (*OnboardingResult, error)
	Finalize(ctx context.Context, customerID, password string) (*OnboardingResult, error)
	Progress(customerID string) (*model.OnboardingProgress, error)
	History(customerID string) ([]model.OnboardingState, error)
	LookupCEP(ctx context.Context, cep string) (map[string]interface{}, error)
}

type onboardingService struct {
	customers  repository.CustomerRepository
	individual repository.IndividualDataRepository
	documents  repository.DocumentRepository
	progress   repository.ProgressRepository
	states     repository.StateRepository
	client     RegistrationClient
	notifier   StatusNotifier
	archiver   DocumentArchiver
	profiles   cache.ProfileCache
	locks      *Locks
}

func NewOnboardingService(
	customers repository.CustomerRepository,
	individual repository.IndividualDataRepository,
	documents repository.DocumentRepository,
	progress repository.ProgressRepository,
	states repository.StateRepository,
	client RegistrationClient,
	notifier StatusNotifier,
	archiver DocumentArchiver,
	profiles cache.ProfileCache,
	locks *Locks,
) OnboardingService {
	return &onboardingService{
		customers:  customers,
		individual: individual,
		documents:  documents,
		progress:   progress,
		states:     states,
		client:     client,
		notifier:   notifier,
		archiver:   archiver,
		profiles:   profiles,
		locks:      locks,
	}
}

// Start begins (or resumes) an onboarding for a document. A conflict
// from the registration service is not an error: the upstream state is
// reconciled into the local record so the customer can continue from
// where the registration actually stands. At most one local customer
// row ever exists per document.
func (s *onboardingService) Start(ctx context.Context, document string) (*OnboardingResult, error) {
	normalized := util.NormalizeDocument(document)
	accountType := util.DetectAccountType(normalized)
	if accountType == "" {
		return nil, ErrInvalidDocument
	}

	unlock := s.locks.Lock(normalized)
	defer unlock()

	logger.Info("Starting onboarding", map[string]interface{}{
		"tipo_conta": accountType,
	})

	resp, err := s.client.Register(ctx, normalized)
	if err != nil {
		var apiErr *cronos.APIError
		if errors.As(err, &apiErr) && errors.Is(err, cronos.ErrConflict) && apiErr.Response != nil {
			logger.Info("Document already registered, reconciling", map[string]interface{}{
				"individual_id": apiErr.Response.IndividualID,
				"status":        apiErr.Response.Status,
			})
			resp = apiErr.Response
		} else {
			return nil, err
		}
	}

	customer, err := s.reconcile(normalized, model.AccountType(accountType), resp)
	if err != nil {
		return nil, err
	}

	s.appendState(customer, resp, "cadastro iniciado")
	s.updateProgressPending(customer.ID, resp.PendingFields)
	s.notify(customer)

	return s.result(customer, resp), nil
}

// reconcile finds or creates the local customer row and folds the
// upstream response into it
func (s *onboardingService) reconcile(document string, accountType model.AccountType, resp *cronos.Response) (*model.Customer, error) {
	status := model.StatusInProgress
	if resp.Status != "" {
		status = model.MapExternalStatus(resp.Status)
	}
	step := StepPersonalInfo
	if n, ok := resp.CurrentStep.Int(); ok && n > 0 {
		step = n
	}

	customer, err := s.customers.FindByDocument(document)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		customer = &model.Customer{
			Document:       document,
			AccountType:    accountType,
			IndividualID:   resp.IndividualID,
			Status:         status,
			ExternalStatus: resp.Status,
			CurrentStep:    step,
		}
		if err := s.customers.Create(customer); err != nil {
			return nil, err
		}
		return customer, nil
	}
	if err != nil {
		return nil, err
	}

	// Sent registrations are immutable locally
	if !customer.Status.Terminal() {
		customer.Status = status
		if step > customer.CurrentStep {
			customer.CurrentStep = step
		}
	}
	if resp.Status != "" {
		customer.ExternalStatus = resp.Status
	}
	if resp.IndividualID != "" {
		customer.IndividualID = resp.IndividualID
	}
	if err := s.customers.Update(customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Situation returns the current onboarding state, refreshed from the
// registration service
func (s *onboardingService) Situation(ctx context.Context, document string) (*OnboardingResult, error) {
	normalized := util.NormalizeDocument(document)

	customer, err := s.customers.FindByDocument(normalized)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Situation(ctx, normalized)
	if err != nil {
		// Upstream being down does not hide the local state
		logger.Warn("Situation lookup failed, returning local state", map[string]interface{}{
			"customer_id": customer.ID,
			"error":       err.Error(),
		})
		return s.cachedFallback(ctx, customer), nil
	}

	if resp.IndividualID != "" && customer.IndividualID != "" && resp.IndividualID != customer.IndividualID {
		logger.Error("Registration id mismatch", ErrStateDrift, map[string]interface{}{
			"customer_id": customer.ID,
			"local":       customer.IndividualID,
			"upstream":    resp.IndividualID,
		})
		return nil, ErrStateDrift
	}

	unlock := s.locks.Lock(customer.ID)
	defer unlock()

	fields := map[string]interface{}{}
	if customer.IndividualID == "" && resp.IndividualID != "" {
		// The upstream id must not already belong to another local customer
		other, err := s.customers.FindByIndividualID(resp.IndividualID)
		if err == nil && other.ID != customer.ID {
			logger.Error("Registration id already claimed", ErrStateDrift, map[string]interface{}{
				"customer_id": customer.ID,
				"claimed_by":  other.ID,
				"upstream":    resp.IndividualID,
			})
			return nil, ErrStateDrift
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		customer.IndividualID = resp.IndividualID
		fields["individual_id"] = resp.IndividualID
	}
	if resp.Status != "" && resp.Status != customer.ExternalStatus {
		customer.ExternalStatus = resp.Status
		fields["external_status"] = resp.Status
	}
	if resp.Status != "" && !customer.Status.Terminal() {
		if mapped := model.MapExternalStatus(resp.Status); mapped != customer.Status {
			customer.Status = mapped
			fields["status"] = mapped
		}
	}
	if len(fields) > 0 {
		if err := s.customers.UpdateFields(customer.ID, fields); err != nil {
			return nil, err
		}
		s.notify(customer)
	}

	s.storeProfile(ctx, customer, resp)

	return s.result(customer, resp), nil
}

// profileTTL bounds how long a cached upstream snapshot may stand in
// for the registration service
const profileTTL = 30 * time.Minute

// storeProfile caches the latest upstream snapshot so Situation can
// still answer with it when the registration service is down
func (s *onboardingService) storeProfile(ctx context.Context, customer *model.Customer, resp *cronos.Response) {
	if s.profiles == nil || customer.IndividualID == "" {
		return
	}
	profile := map[string]interface{}{
		"status":         resp.Status,
		"status_label":   resp.StatusLabel,
		"message":        resp.Message,
		"pending_fields": resp.PendingFields,
	}
	if err := s.profiles.Set(ctx, customer.IndividualID, profile, profileTTL); err != nil {
		logger.Warn("Failed to cache profile", map[string]interface{}{
			"customer_id": customer.ID,
			"error":       err.Error(),
		})
	}
}

// cachedFallback builds the local-state answer, enriched with the last
// cached upstream snapshot when one exists
func (s *onboardingService) cachedFallback(ctx context.Context, customer *model.Customer) *OnboardingResult {
	result := s.result(customer, nil)
	if s.profiles == nil || customer.IndividualID == "" {
		return result
	}
	profile, ok, err := s.profiles.Get(ctx, customer.IndividualID)
	if err != nil || !ok {
		return result
	}
	if msg, _ := profile["message"].(string); msg != "" {
		result.Message = msg
	}
	if pending := stringSlice(profile["pending_fields"]); pending != nil {
		result.PendingFields = pending
	}
	return result
}

// stringSlice coerces a cached JSON value back into a string slice
func stringSlice(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (s *onboardingService) SubmitPersonalInfo(ctx context.Context, customerID string, input PersonalInfoInput) (*OnboardingResult, error) {
	return s.runStep(ctx, customerID, StepPersonalInfo, func(ctx context.Context, customer *model.Customer) (*cronos.Response, error) {
		resp, err := s.client.Step1(ctx, cronos.Step1Request{
			IndividualID: customer.IndividualID,
			FullName:     input.FullName,
			Username:     input.Username,
			Email:        input.Email,
		})
		if err != nil {
			return nil, err
		}

		customer.Name = input.FullName
		customer.Email = input.Email
		return resp, nil
	})
}

func (s *onboardingService) SubmitPhone(ctx context.Context, customerID string, input PhoneInput) (*OnboardingResult, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	customer, err := s.loadForStep(customerID, StepPhone)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Step2(ctx, cronos.Step2Request{
		IndividualID: customer.IndividualID,
		PhonePrefix:  input.Prefix,
		PhoneNumber:  input.Number,
	})
	if err != nil {
		return nil, err
	}

	// SMS sent; the step completes on confirmation
	customer.PhoneNumber = input.Prefix + input.Number
	if err := s.customers.Update(customer); err != nil {
		return nil, err
	}

	return s.result(customer, resp), nil
}

func (s *onboardingService) ConfirmPhone(ctx context.Context, customerID, code string) (*OnboardingResult, error) {
	return s.runStep(ctx, customerID, StepPhone, func(ctx context.Context, customer *model.Customer) (*cronos.Response, error) {
		prefix, number := splitPhone(customer.PhoneNumber)
		return s.client.ConfirmPhone(ctx, cronos.Step2Request{
			IndividualID: customer.IndividualID,
			PhonePrefix:  prefix,
			PhoneNumber:  number,
			Code:         code,
		})
	})
}

func (s *onboardingService) ResendCode(ctx context.Context, customerID string) error {
	customer, err := s.loadForStep(customerID, StepPhone)
	if err != nil {
		return err
	}

	_, err = s.client.ResendCode(ctx, customer.IndividualID)
	return err
}

func (s *onboardingService) SubmitDocumentImage(ctx context.Context, customerID string, upload DocumentUpload) (*OnboardingResult, error) {
	if !isIdentityDocument(upload.DocumentType) {
		return nil, ErrInvalidDocumentType
	}

	return s.runStep(ctx, customerID, StepDocumentImage, func(ctx context.Context, customer *model.Customer) (*cronos.Response, error) {
		resp, err := s.client.DocumentImage(ctx, cronos.DocumentImageRequest{
			IndividualID: customer.IndividualID,
			ImageType:    upload.ImageType,
			DocumentType: string(upload.DocumentType),
			File: cronos.FilePart{
				FileName:    upload.FileName,
				ContentType: upload.MimeType,
				Content:     upload.Content,
			},
		})
		if err != nil {
			return nil, err
		}

		if err := s.storeDocument(ctx, customer, nil, upload); err != nil {
			return nil, err
		}
		return resp, nil
	})
}

func (s *onboardingService) SubmitPersonalDetail(ctx context.Context, customerID string, input PersonalDetailInput) (*OnboardingResult, error) {
	return s.runStep(ctx, customerID, StepPersonalDetail, func(ctx context.Context, customer *model.Customer) (*cronos.Response, error) {
		req := cronos.Step4Request{
			IndividualID:     customer.IndividualID,
			MotherName:       input.MotherName,
			FatherName:       input.FatherName,
			Gender:           input.Gender,
			Nationality:      input.Nationality,
			NationalityState: input.NationalityState,
			DocumentName:     input.DocumentName,
			DocumentNumber:   input.DocumentNumber,
			DocumentState:    input.DocumentState,
			DocumentIssuance: input.DocumentIssuance,
			MaritalStatus:    input.MaritalStatus,
			PEP:              input.PEP,
		}
		if input.BirthDate != nil {
			req.BirthDate = cronos.NewDate(*input.BirthDate)
		}
		if input.IssuanceDate != nil {
			req.IssuanceDate = cronos.NewDate(*input.IssuanceDate)
		}

		resp, err := s.client.Step4(ctx, req)
		if err != nil {
			return nil, err
		}

		err = s.individual.Upsert(&model.IndividualData{
			CustomerID:       customer.ID,
			MotherName:       input.MotherName,
			FatherName:       input.FatherName,
			Gender:           input.Gender,
			BirthDate:        input.BirthDate,
			Nationality:      input.Nationality,
			NationalityState: input.NationalityState,
			DocumentName:     input.DocumentName,
			DocumentNumber:   input.DocumentNumber,
			DocumentState:    input.DocumentState,
			DocumentIssuance: input.DocumentIssuance,
			IssuanceDate:     input.IssuanceDate,
			MaritalStatus:    input.MaritalStatus,
			PEP:              input.PEP,
		})
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
}

func (s *onboardingService) SubmitSelfie(ctx context.Context, customerID string, upload DocumentUpload) (*OnboardingResult, error) {
	upload.DocumentType = model.DocTypeSelfie

	return s.runStep(ctx, customerID, StepSelfie, func(ctx context.Context, customer *model.Customer) (*cronos.Response, error) {
		resp, err := s.client.Selfie(ctx, cronos.SelfieRequest{
			IndividualID: customer.IndividualID,
			ImageType:    upload.ImageType,
			File: cronos.FilePart{
				FileName:    upload.FileName,
				ContentType: upload.MimeType,
				Content:     upload.Content,
			},
		})
		if err != nil {
			return nil, err
		}

		if err := s.storeDocument(ctx, customer, nil, upload); err != nil {
			return nil, err
		}
		return resp, nil
	})
}

func (s *onboardingService) SubmitAddress(ctx context.Context, customerID string, input AddressInput) (*OnboardingResult, error) {
	return s.runStep(ctx, customerID, StepAddress, func(ctx context.Context, customer *model.Customer) (*cronos.Response, error) {
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

		err = s.individual.Upsert(&model.IndividualData{
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
		return resp, nil
	})
}

// Finalize sets the access password and completes the personal flow.
// The password is hashed locally before anything is stored.
func (s *onboardingService) Finalize(ctx context.Context, customerID, password string) (*OnboardingResult, error) {
	return s.runStep(ctx, customerID, StepPassword, func(ctx context.Context, customer *model.Customer) (*cronos.Response, error) {
		hash, err := util.HashPassword(password)
		if err != nil {
			return nil, err
		}

		resp, err := s.client.Step7(ctx, cronos.Step7Request{
			IndividualID: customer.IndividualID,
			Password:     password,
		})
		if err != nil {
			return nil, err
		}

		customer.PasswordHash = hash
		customer.Status = model.StatusComplete
		return resp, nil
	})
}

func (s *onboardingService) Progress(customerID string) (*model.OnboardingProgress, error) {
	progress, err := s.progress.FindByCustomerID(customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.OnboardingProgress{CustomerID: customerID}, nil
	}
	return progress, err
}

func (s *onboardingService) History(customerID string) ([]model.OnboardingState, error) {
	return s.states.ListByCustomerID(customerID)
}

func (s *onboardingService) LookupCEP(ctx context.Context, cep string) (map[string]interface{}, error) {
	return s.client.LookupCEP(ctx, cep)
}

// runStep wraps the common per-step flow: lock, load, guard, call the
// step body, advance, record history and notify
func (s *onboardingService) runStep(ctx context.Context, customerID string, step int, body func(context.Context, *model.Customer) (*cronos.Response, error)) (*OnboardingResult, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	customer, err := s.loadForStep(customerID, step)
	if err != nil {
		return nil, err
	}

	resp, err := body(ctx, customer)
	if err != nil {
		return nil, err
	}

	customer.CurrentStep = advanceStep(customer.CurrentStep, step)
	if err := s.customers.Update(customer); err != nil {
		return nil, err
	}

	// The cached snapshot is stale once the flow completes
	if customer.CurrentStep == StepDone && s.profiles != nil && customer.IndividualID != "" {
		if err := s.profiles.Delete(ctx, customer.IndividualID); err != nil {
			logger.Warn("Failed to drop cached profile", map[string]interface{}{
				"customer_id": customer.ID,
				"error":       err.Error(),
			})
		}
	}

	s.appendState(customer, resp, "etapa concluída: "+StepName(step))
	s.updateProgressPending(customer.ID, resp.PendingFields)
	s.notify(customer)

	logger.Info("Onboarding step completed", map[string]interface{}{
		"customer_id":  customer.ID,
		"step":         step,
		"current_step": customer.CurrentStep,
	})

	return s.result(customer, resp), nil
}

// loadForStep loads the customer and applies the personal-flow guards
func (s *onboardingService) loadForStep(customerID string, step int) (*model.Customer, error) {
	customer, err := s.customers.FindByID(customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	if customer.AccountType != model.AccountTypeCPF {
		return nil, ErrWrongFlow
	}
	if customer.Status.Terminal() {
		return nil, ErrAlreadySent
	}
	if customer.IndividualID == "" {
		return nil, ErrNotStarted
	}
	if !canRunStep(customer.CurrentStep, step) {
		logger.Warn("Step rejected: out of order", map[string]interface{}{
			"customer_id":  customer.ID,
			"step":         step,
			"current_step": customer.CurrentStep,
		})
		return nil, ErrStepOrder
	}
	return customer, nil
}

// storeDocument persists the uploaded file locally (one per type, the
// newest wins) and archives a copy when an archiver is configured
func (s *onboardingService) storeDocument(ctx context.Context, customer *model.Customer, partnerID *string, upload DocumentUpload) error {
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
			// Archiving is best effort; the registration already accepted the file
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

// appendState records a history entry for the customer's current state.
// When a registration service response is given its envelope is
// snapshotted into the entry; its message wins over the fallback.
func (s *onboardingService) appendState(customer *model.Customer, resp *cronos.Response, fallback string) {
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

func (s *onboardingService) updateProgressPending(customerID string, pending []string) {
	if pending == nil {
		return
	}
	progress, err := s.progress.FindByCustomerID(customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = &model.OnboardingProgress{CustomerID: customerID}
	} else if err != nil {
		logger.Error("Failed to load progress", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return
	}

	progress.PendingFields = pq.StringArray(pending)
	if err := s.progress.Upsert(progress); err != nil {
		logger.Error("Failed to update progress", err, map[string]interface{}{
			"customer_id": customerID,
		})
	}
}

func (s *onboardingService) notify(customer *model.Customer) {
	if s.notifier != nil {
		s.notifier.NotifyStatus(customer.ID, string(customer.Status), customer.CurrentStep)
	}
}

func (s *onboardingService) result(customer *model.Customer, resp *cronos.Response) *OnboardingResult {
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

// isIdentityDocument accepts the document types valid for the identity
// image step
func isIdentityDocument(t model.DocumentType) bool {
	switch t {
	case model.DocTypeRGFrente, model.DocTypeRGVerso,
		model.DocTypeCNHFrente, model.DocTypeCNHVerso,
		model.DocTypeRNEFrente, model.DocTypeRNEVerso:
		return true
	}
	return false
}

// splitPhone separates the two-digit area prefix from a stored phone
// number
func splitPhone(phone string) (string, string) {
	if len(phone) <= 2 {
		return phone, ""
	}
	return phone[:2], phone[2:]
}
