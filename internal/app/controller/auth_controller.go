package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contaleve/onboarding-backend/internal/app/service"
	apperrors "github.com/contaleve/onboarding-backend/internal/errors"
	"github.com/contaleve/onboarding-backend/internal/middleware"
)

// TokenWarmer forces a fresh application token on the registration
// service, replacing whatever is cached
type TokenWarmer interface {
	AppToken(ctx context.Context) (string, error)
}

type AuthController struct {
	authService service.AuthService
	warmer      TokenWarmer
}

func NewAuthController(authService service.AuthService, warmer TokenWarmer) *AuthController {
	return &AuthController{
		authService: authService,
		warmer:      warmer,
	}
}

type LoginRequest struct {
	Document string `json:"document" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login authenticates a customer by document and password
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Documento e senha são obrigatórios")
		return
	}

	result, err := ctrl.authService.Login(req.Document, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Documento ou senha incorretos")
		case errors.Is(err, service.ErrNotFinalized):
			apperrors.UnprocessableEntity(c, apperrors.OnboardingIncomplete, "Conclua o cadastro antes de fazer login")
		default:
			log.Error("Login failed", err, nil)
			apperrors.InternalError(c, "")
		}
		return
	}

	log.Info("Customer logged in", map[string]interface{}{
		"customer_id": result.CustomerID,
	})

	c.JSON(http.StatusOK, result)
}

// WarmToken forces a fresh application token on the registration
// service. Operational endpoint, used after credential rotation.
// GET /api/v1/auth/token
func (ctrl *AuthController) WarmToken(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if _, err := ctrl.warmer.AppToken(c.Request.Context()); err != nil {
		log.Error("Token refresh failed", err, nil)
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.SyncUnavailable, "Serviço de cadastro indisponível")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Token renovado"})
}

// Refresh exchanges a refresh token for a new token pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Token de atualização é obrigatório")
		return
	}

	result, err := ctrl.authService.Refresh(req.RefreshToken)
	if err != nil {
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Token de atualização inválido")
		return
	}

	c.JSON(http.StatusOK, result)
}
