package service

import (
	"errors"

	"github.com/contaleve/onboarding-backend/config"
	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/internal/app/repository"
	"github.com/contaleve/onboarding-backend/pkg/logger"
	"github.com/contaleve/onboarding-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid document or password")
	ErrNotFinalized       = errors.New("onboarding has no access password yet")
)

type LoginResult struct {
	AccessToken  string                 `json:"access_token"`
	RefreshToken string                 `json:"refresh_token"`
	CustomerID   string                 `json:"customer_id"`
	Document     string                 `json:"document"`
	AccountType  model.AccountType      `json:"tipo_conta"`
	Status       model.OnboardingStatus `json:"onboarding_status"`
}

type AuthService interface {
	Login(document, password string) (*LoginResult, error)
	Refresh(refreshToken string) (*LoginResult, error)
}

type authService struct {
	customers repository.CustomerRepository
	jwtConfig config.JWTConfig
}

func NewAuthService(customers repository.CustomerRepository, jwtConfig config.JWTConfig) AuthService {
	return &authService{customers: customers, jwtConfig: jwtConfig}
}

// Login authenticates a customer by document and the password set on
// finalization
func (s *authService) Login(document, password string) (*LoginResult, error) {
	normalized := util.NormalizeDocument(document)

	customer, err := s.customers.FindByDocument(normalized)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Same error as a wrong password, so lookups cannot probe documents
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if customer.PasswordHash == "" {
		return nil, ErrNotFinalized
	}
	if !util.VerifyPassword(customer.PasswordHash, password) {
		logger.Warn("Login failed: wrong password", map[string]interface{}{
			"customer_id": customer.ID,
		})
		return nil, ErrInvalidCredentials
	}

	return s.issue(customer)
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *authService) Refresh(refreshToken string) (*LoginResult, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtConfig.Secret)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	customer, err := s.customers.FindByID(claims.CustomerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	return s.issue(customer)
}

func (s *authService) issue(customer *model.Customer) (*LoginResult, error) {
	pair, err := util.GenerateTokenPair(
		customer.ID,
		customer.Document,
		string(customer.AccountType),
		s.jwtConfig.Secret,
		s.jwtConfig.AccessTokenExpiry,
		s.jwtConfig.RefreshTokenExpiry,
	)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		CustomerID:   customer.ID,
		Document:     customer.Document,
		AccountType:  customer.AccountType,
		Status:       customer.Status,
	}, nil
}
