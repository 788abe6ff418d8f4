package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contaleve/onboarding-backend/internal/app/service"
	apperrors "github.com/contaleve/onboarding-backend/internal/errors"
	"github.com/contaleve/onboarding-backend/internal/middleware"
)

type BusinessController struct {
	businessService service.BusinessService
}

func NewBusinessController(businessService service.BusinessService) *BusinessController {
	return &BusinessController{
		businessService: businessService,
	}
}

// UpsertCompany saves the company identification data
// PUT /api/v1/business/:id/company
func (ctrl *BusinessController) UpsertCompany(c *gin.Context) {
	var input service.CompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Dados da empresa inválidos")
		return
	}

	result, err := ctrl.businessService.UpsertCompany(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err, "business")
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpsertPartner creates or updates a partner, keyed by document
// POST /api/v1/business/:id/partners
func (ctrl *BusinessController) UpsertPartner(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input service.PartnerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.PartnerInvalidData, "Dados do sócio inválidos")
		return
	}

	partner, err := ctrl.businessService.UpsertPartner(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err, "partner")
		return
	}

	log.Info("Partner saved", map[string]interface{}{
		"customer_id": c.Param("id"),
		"partner_id":  partner.ID,
	})

	c.JSON(http.StatusOK, gin.H{"partner": partner})
}

// ListPartners returns the partners registered for the business
// GET /api/v1/business/:id/partners
func (ctrl *BusinessController) ListPartners(c *gin.Context) {
	partners, err := ctrl.businessService.ListPartners(c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "partner")
		return
	}

	c.JSON(http.StatusOK, gin.H{"partners": partners, "count": len(partners)})
}

// DeletePartner removes a partner locally and upstream
// DELETE /api/v1/business/:id/partners/:partnerId
func (ctrl *BusinessController) DeletePartner(c *gin.Context) {
	err := ctrl.businessService.DeletePartner(c.Request.Context(), c.Param("id"), c.Param("partnerId"))
	if err != nil {
		respondServiceError(c, err, "partner")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sócio removido"})
}

// AddCompanyDocument uploads a company document
// POST /api/v1/business/:id/documents (multipart)
func (ctrl *BusinessController) AddCompanyDocument(c *gin.Context) {
	upload, ok := bindUpload(c, true)
	if !ok {
		return
	}

	err := ctrl.businessService.AddCompanyDocument(c.Request.Context(), c.Param("id"), upload)
	if err != nil {
		respondServiceError(c, err, "document")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Documento armazenado"})
}

// AddPartnerDocument uploads a partner identity document
// POST /api/v1/business/:id/partners/:partnerId/documents (multipart)
func (ctrl *BusinessController) AddPartnerDocument(c *gin.Context) {
	upload, ok := bindUpload(c, true)
	if !ok {
		return
	}

	err := ctrl.businessService.AddPartnerDocument(c.Request.Context(), c.Param("id"), c.Param("partnerId"), upload)
	if err != nil {
		respondServiceError(c, err, "document")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Documento armazenado"})
}

// UpdateAddress saves the company address
// PUT /api/v1/business/:id/address
func (ctrl *BusinessController) UpdateAddress(c *gin.Context) {
	var input service.AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Endereço inválido")
		return
	}

	result, err := ctrl.businessService.UpdateAddress(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err, "business")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Validation reports whether the registration is ready to sync
// GET /api/v1/business/:id/validation
func (ctrl *BusinessController) Validation(c *gin.Context) {
	result, err := ctrl.businessService.Validate(c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "business")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Sync sends the aggregated registration to the registration service
// POST /api/v1/business/:id/sync
func (ctrl *BusinessController) Sync(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	result, err := ctrl.businessService.Sync(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "sync")
		return
	}

	log.Info("Business registration synced", map[string]interface{}{
		"customer_id": result.CustomerID,
	})

	c.JSON(http.StatusOK, result)
}
