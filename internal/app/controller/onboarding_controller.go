package controller

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/internal/app/service"
	apperrors "github.com/contaleve/onboarding-backend/internal/errors"
	"github.com/contaleve/onboarding-backend/internal/middleware"
	"github.com/contaleve/onboarding-backend/pkg/cronos"
)

// maxUploadSize caps document uploads at 10MB, the upstream limit
const maxUploadSize = 10 << 20

type OnboardingController struct {
	onboardingService service.OnboardingService
}

func NewOnboardingController(onboardingService service.OnboardingService) *OnboardingController {
	return &OnboardingController{
		onboardingService: onboardingService,
	}
}

type StartRequest struct {
	Document string `json:"document" binding:"required"`
}

type ConfirmPhoneRequest struct {
	Code string `json:"code" binding:"required"`
}

type FinalizeRequest struct {
	Password string `json:"password" binding:"required,min=10"`
}

// Start begins or resumes an onboarding for a document
// POST /api/v1/onboarding/start
func (ctrl *OnboardingController) Start(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Documento é obrigatório")
		return
	}

	result, err := ctrl.onboardingService.Start(c.Request.Context(), req.Document)
	if err != nil {
		respondServiceError(c, err, "onboarding")
		return
	}

	log.Info("Onboarding started", map[string]interface{}{
		"customer_id": result.CustomerID,
		"tipo_conta":  result.AccountType,
	})

	c.JSON(http.StatusOK, result)
}

// Situation returns the current onboarding state for a document
// GET /api/v1/onboarding/situation/:document
func (ctrl *OnboardingController) Situation(c *gin.Context) {
	result, err := ctrl.onboardingService.Situation(c.Request.Context(), c.Param("document"))
	if err != nil {
		respondServiceError(c, err, "onboarding")
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitPersonalInfo submits name, username and email
// POST /api/v1/onboarding/:id/personal-info
func (ctrl *OnboardingController) SubmitPersonalInfo(c *gin.Context) {
	var input service.PersonalInfoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Dados pessoais inválidos")
		return
	}

	result, err := ctrl.onboardingService.SubmitPersonalInfo(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err, "onboarding")
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitPhone submits the phone number and triggers the SMS code
// POST /api/v1/onboarding/:id/phone
func (ctrl *OnboardingController) SubmitPhone(c *gin.Context) {
	var input service.PhoneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Telefone inválido")
		return
	}

	result, err := ctrl.onboardingService.SubmitPhone(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err, "onboarding")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ConfirmPhone confirms the SMS code and completes the phone step
// PUT /api/v1/onboarding/:id/phone
func (ctrl *OnboardingController) ConfirmPhone(c *gin.Context) {
	var req ConfirmPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Código é obrigatório")
		return
	}

	result, err := ctrl.onboardingService.ConfirmPhone(c.Request.Context(), c.Param("id"), req.Code)
	if err != nil {
		respondServiceError(c, err, "onboarding")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ResendCode asks for a new SMS verification code
// POST /api/v1/onboarding/:id/phone/resend
func (ctrl *OnboardingController) ResendCode(c *gin.Context) {
	if err := ctrl.onboardingService.ResendCode(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err, "onboarding")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Código reenviado"})
}

// SubmitDocumentImage uploads an identity document photo
// POST /api/v1/onboarding/:id/documents (multipart)
func (ctrl *OnboardingController) SubmitDocumentImage(c *gin.Context) {
	upload, ok := bindUpload(c, true)
	if !ok {
		return
	}

	result, err := ctrl.onboardingService.SubmitDocumentImage(c.Request.Context(), c.Param("id"), upload)
	if err != nil {
		respondServiceError(c, err, "document")
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitPersonalDetail submits filiation, identity document data and
// marital status
// POST /api/v1/onboarding/:id/personal-detail
func (ctrl *OnboardingController) SubmitPersonalDetail(c *gin.Context) {
	var input service.PersonalDetailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Dados complementares inválidos")
		return
	}

	result, err := ctrl.onboardingService.SubmitPersonalDetail(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err, "onboarding")
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitSelfie uploads the holder selfie
// POST /api/v1/onboarding/:id/selfie (multipart)
func (ctrl *OnboardingController) SubmitSelfie(c *gin.Context) {
	upload, ok := bindUpload(c, false)
	if !ok {
		return
	}

	result, err := ctrl.onboardingService.SubmitSelfie(c.Request.Context(), c.Param("id"), upload)
	if err != nil {
		respondServiceError(c, err, "document")
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitAddress submits the residential address
// POST /api/v1/onboarding/:id/address
func (ctrl *OnboardingController) SubmitAddress(c *gin.Context) {
	var input service.AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Endereço inválido")
		return
	}

	result, err := ctrl.onboardingService.SubmitAddress(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err, "onboarding")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Finalize sets the access password and completes the personal flow
// POST /api/v1/onboarding/:id/finalize
func (ctrl *OnboardingController) Finalize(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "A senha deve ter pelo menos 10 caracteres")
		return
	}

	result, err := ctrl.onboardingService.Finalize(c.Request.Context(), c.Param("id"), req.Password)
	if err != nil {
		respondServiceError(c, err, "onboarding")
		return
	}

	log.Info("Onboarding finalized", map[string]interface{}{
		"customer_id": result.CustomerID,
	})

	c.JSON(http.StatusOK, result)
}

// Progress returns the stored progress snapshot
// GET /api/v1/onboarding/:id/progress
func (ctrl *OnboardingController) Progress(c *gin.Context) {
	progress, err := ctrl.onboardingService.Progress(c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "onboarding")
		return
	}

	c.JSON(http.StatusOK, progress)
}

// History returns the onboarding state history, oldest first
// GET /api/v1/onboarding/:id/history
func (ctrl *OnboardingController) History(c *gin.Context) {
	history, err := ctrl.onboardingService.History(c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "onboarding")
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history, "count": len(history)})
}

// LookupCEP resolves a postal code into address fields
// GET /api/v1/cep/:cep
func (ctrl *OnboardingController) LookupCEP(c *gin.Context) {
	result, err := ctrl.onboardingService.LookupCEP(c.Request.Context(), c.Param("cep"))
	if err != nil {
		respondServiceError(c, err, "cep")
		return
	}

	c.JSON(http.StatusOK, result)
}

// bindUpload reads the multipart upload fields shared by the document
// endpoints. document_type is only required when requireType is set.
func bindUpload(c *gin.Context, requireType bool) (service.DocumentUpload, bool) {
	upload := service.DocumentUpload{
		ImageType:    c.PostForm("image_type"),
		DocumentType: model.DocumentType(c.PostForm("document_type")),
	}

	if requireType && !model.KnownDocumentType(upload.DocumentType) {
		apperrors.BadRequest(c, apperrors.DocumentInvalidType, "Tipo de documento inválido")
		return upload, false
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.DocumentInvalidFile, "Arquivo é obrigatório")
		return upload, false
	}
	if fileHeader.Size > maxUploadSize {
		apperrors.RespondWithError(c, http.StatusRequestEntityTooLarge, apperrors.DocumentFileTooLarge, "Arquivo excede o limite de 10MB")
		return upload, false
	}

	content, err := readUpload(fileHeader)
	if err != nil {
		apperrors.BadRequest(c, apperrors.DocumentInvalidFile, "Não foi possível ler o arquivo")
		return upload, false
	}

	upload.FileName = fileHeader.Filename
	upload.MimeType = fileHeader.Header.Get("Content-Type")
	upload.Content = content
	return upload, true
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// respondServiceError maps service errors onto the HTTP error envelope
func respondServiceError(c *gin.Context, err error, context string) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrCustomerNotFound):
		apperrors.NotFound(c, apperrors.CustomerNotFound, "Cadastro não encontrado")
	case errors.Is(err, service.ErrPartnerNotFound):
		apperrors.NotFound(c, apperrors.PartnerNotFound, "Sócio não encontrado")
	case errors.Is(err, service.ErrInvalidDocument):
		apperrors.BadRequest(c, apperrors.CustomerInvalidDoc, "Documento inválido: informe um CPF ou CNPJ")
	case errors.Is(err, service.ErrWrongFlow):
		apperrors.BadRequest(c, apperrors.CustomerWrongFlow, "Operação não disponível para este tipo de conta")
	case errors.Is(err, service.ErrStepOrder):
		apperrors.UnprocessableEntity(c, apperrors.OnboardingStepOrder, "Conclua as etapas anteriores antes de prosseguir")
	case errors.Is(err, service.ErrAlreadySent):
		apperrors.Conflict(c, apperrors.OnboardingAlreadySent, "Cadastro já enviado, alterações não são permitidas")
	case errors.Is(err, service.ErrNotStarted):
		apperrors.UnprocessableEntity(c, apperrors.OnboardingIncomplete, "Cadastro ainda não iniciado no serviço de registro")
	case errors.Is(err, service.ErrPayloadIncomplete):
		apperrors.UnprocessableEntity(c, apperrors.OnboardingIncomplete, "Cadastro incompleto: preencha os campos pendentes")
	case errors.Is(err, service.ErrStateDrift):
		apperrors.Conflict(c, apperrors.OnboardingStateDrift, "Cadastro divergente do serviço de registro, contate o suporte")
	case errors.Is(err, service.ErrInvalidDocumentType):
		apperrors.BadRequest(c, apperrors.DocumentInvalidType, "Tipo de documento inválido")
	case errors.Is(err, cronos.ErrNetwork):
		log.Error("Registration service unreachable", err, nil)
		apperrors.BadGateway(c, "")
	default:
		info := apperrors.ParseError(err, context)
		status := http.StatusInternalServerError
		switch info.Code {
		case apperrors.ResourceNotFound:
			status = http.StatusNotFound
		case apperrors.ResourceConflict, apperrors.CustomerAlreadyExists:
			status = http.StatusConflict
		case apperrors.ValidationInvalidInput, apperrors.ValidationInvalidID, apperrors.ValidationRequired, apperrors.SyncFailed:
			status = http.StatusUnprocessableEntity
		case apperrors.SyncUnavailable, apperrors.InternalExternalAPI:
			status = http.StatusBadGateway
		}
		if status == http.StatusInternalServerError {
			log.Error("Unhandled service error", err, map[string]interface{}{
				"context": context,
			})
		}
		apperrors.RespondWithError(c, status, info.Code, info.Message)
	}
}
