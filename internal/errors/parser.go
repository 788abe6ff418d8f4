package errors

import (
	"errors"
	"strings"

	"github.com/contaleve/onboarding-backend/pkg/cronos"
	"gorm.io/gorm"
)

// ErrorInfo is a parsed error, ready for a response
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts database and upstream errors into user-facing
// codes and messages. Sensitive detail stays out of the message; the
// raw error belongs in the logs.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Erro interno do servidor",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// GORM
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// Registration service
	switch {
	case errors.Is(err, cronos.ErrConflict):
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "Documento já cadastrado no serviço de registro",
		}
	case errors.Is(err, cronos.ErrValidation):
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: upstreamMessage(err, "Dados recusados pelo serviço de registro"),
		}
	case errors.Is(err, cronos.ErrUnauthorized):
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "Falha de autenticação com o serviço de registro",
		}
	case errors.Is(err, cronos.ErrNotFound):
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: "Cadastro não encontrado no serviço de registro",
		}
	case errors.Is(err, cronos.ErrNetwork):
		return ErrorInfo{
			Code:    SyncUnavailable,
			Message: "Serviço de registro indisponível. Tente novamente em instantes",
		}
	case errors.Is(err, cronos.ErrService):
		return ErrorInfo{
			Code:    SyncFailed,
			Message: upstreamMessage(err, "Erro no serviço de registro"),
		}
	}

	// PostgreSQL constraint violations
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr)
	}
	if strings.Contains(errStrLower, "foreign key constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidID,
			Message: "Referência inválida. Verifique os dados informados",
		}
	}
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "Campo obrigatório não informado",
		}
	}

	// Network
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "Falha de conexão com serviço externo. Tente novamente em instantes",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "customers") && strings.Contains(errLower, "document") {
		return ErrorInfo{
			Code:    CustomerAlreadyExists,
			Message: "Já existe um cadastro em andamento para este documento",
		}
	}
	if strings.Contains(errLower, "idx_partner_customer_document") || strings.Contains(errLower, "socios") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "Sócio já cadastrado para este cliente",
		}
	}
	if strings.Contains(errLower, "pkey") || strings.Contains(errLower, "primary key") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "Registro já existente. Tente novamente",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "Registro já existente",
	}
}

// upstreamMessage prefers the upstream envelope message when present
func upstreamMessage(err error, fallback string) string {
	var apiErr *cronos.APIError
	if errors.As(err, &apiErr) && apiErr.Response != nil && apiErr.Response.Message != "" {
		return apiErr.Response.Message
	}
	return fallback
}

func getNotFoundMessage(context string) string {
	switch context {
	case "customer":
		return "Cliente não encontrado"
	case "partner":
		return "Sócio não encontrado"
	case "document":
		return "Documento não encontrado"
	case "progress":
		return "Progresso de cadastro não encontrado"
	default:
		return "Registro não encontrado"
	}
}

func getDefaultErrorMessage(context string) string {
	switch context {
	case "sync":
		return "Falha ao enviar o cadastro. Tente novamente em instantes"
	default:
		return "Erro interno do servidor. Tente novamente em instantes"
	}
}
