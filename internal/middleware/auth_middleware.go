package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/internal/errors"
	"github.com/contaleve/onboarding-backend/pkg/util"
)

// Context keys for the authenticated customer
const (
	CustomerIDKey  = "customer_id"
	DocumentKey    = "document"
	AccountTypeKey = "account_type"
)

type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

// Authenticate validates the JWT token (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Formato de autenticação inválido")
				c.Abort()
				return
			}
			token = parts[1]
		} else {
			// WebSocket clients cannot set headers, so the token may
			// arrive as a query parameter
			token = c.Query("token")
			if token == "" {
				log.Warn("Missing authorization header", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.Unauthorized(c, "Autenticação necessária")
				c.Abort()
				return
			}
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			if err == util.ErrExpiredToken {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "Sessão expirada, faça login novamente")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Token de autenticação inválido")
			}
			c.Abort()
			return
		}

		c.Set(CustomerIDKey, claims.CustomerID)
		c.Set(DocumentKey, claims.Document)
		c.Set(AccountTypeKey, model.AccountType(claims.AccountType))

		c.Next()
	}
}

// RequireAccountType restricts a route group to one onboarding flow
func (m *AuthMiddleware) RequireAccountType(accountTypes ...model.AccountType) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		value, exists := c.Get(AccountTypeKey)
		if !exists {
			errors.Forbidden(c, "Tipo de conta não identificado")
			c.Abort()
			return
		}

		accountType := value.(model.AccountType)
		for _, t := range accountTypes {
			if accountType == t {
				c.Next()
				return
			}
		}

		log.Warn("Account type not allowed for route", map[string]interface{}{
			"tipo_conta": accountType,
			"path":       c.Request.URL.Path,
		})
		errors.Forbidden(c, "Operação não disponível para este tipo de conta")
		c.Abort()
	}
}

// GetCustomerID extracts the customer id from context
func GetCustomerID(c *gin.Context) (string, bool) {
	value, exists := c.Get(CustomerIDKey)
	if !exists {
		return "", false
	}
	return value.(string), true
}

// GetDocument extracts the customer document from context
func GetDocument(c *gin.Context) (string, bool) {
	value, exists := c.Get(DocumentKey)
	if !exists {
		return "", false
	}
	return value.(string), true
}

// GetAccountType extracts the account type from context
func GetAccountType(c *gin.Context) (model.AccountType, bool) {
	value, exists := c.Get(AccountTypeKey)
	if !exists {
		return "", false
	}
	return value.(model.AccountType), true
}
