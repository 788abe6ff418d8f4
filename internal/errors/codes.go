package errors

// Error code constants, format: CATEGORY_SPECIFIC_DETAIL.
// Frontends map these codes to their own messages.

const (
	// ==================== auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong document/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthForbidden          = "AUTH_FORBIDDEN"

	// ==================== validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== customer (CUSTOMER_) ====================
	CustomerNotFound       = "CUSTOMER_NOT_FOUND"
	CustomerAlreadyExists  = "CUSTOMER_ALREADY_EXISTS"  // document already onboarding locally
	CustomerInvalidDoc     = "CUSTOMER_INVALID_DOCUMENT" // not a CPF nor a CNPJ
	CustomerWrongFlow      = "CUSTOMER_WRONG_FLOW"       // PF operation on a PJ account or vice versa

	// ==================== onboarding (ONBOARDING_) ====================
	OnboardingStepOrder      = "ONBOARDING_STEP_ORDER"      // step submitted out of order
	OnboardingAlreadySent    = "ONBOARDING_ALREADY_SENT"    // registration already accepted upstream
	OnboardingIncomplete     = "ONBOARDING_INCOMPLETE"      // payload still has pending fields
	OnboardingCodeInvalid    = "ONBOARDING_CODE_INVALID"    // SMS code rejected
	OnboardingStateDrift     = "ONBOARDING_STATE_DRIFT"     // local state diverged from upstream

	// ==================== partners (PARTNER_) ====================
	PartnerNotFound    = "PARTNER_NOT_FOUND"
	PartnerInvalidData = "PARTNER_INVALID_DATA"

	// ==================== documents (DOCUMENT_) ====================
	DocumentNotFound       = "DOCUMENT_NOT_FOUND"
	DocumentInvalidType    = "DOCUMENT_INVALID_TYPE"
	DocumentUploadFailed   = "DOCUMENT_UPLOAD_FAILED"
	DocumentFileTooLarge   = "DOCUMENT_FILE_TOO_LARGE"
	DocumentInvalidFile    = "DOCUMENT_INVALID_FILE"

	// ==================== sync (SYNC_) ====================
	SyncFailed       = "SYNC_FAILED"        // registration service rejected the payload
	SyncUnavailable  = "SYNC_UNAVAILABLE"   // registration service unreachable

	// ==================== internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
