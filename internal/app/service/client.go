package service

import (
	"context"

	"github.com/contaleve/onboarding-backend/pkg/cronos"
)

// RegistrationClient is the slice of the Cronos API the onboarding
// services depend on, satisfied by *cronos.Client
type RegistrationClient interface {
	Register(ctx context.Context, document string) (*cronos.Response, error)
	Situation(ctx context.Context, document string) (*cronos.Response, error)
	Step1(ctx context.Context, req cronos.Step1Request) (*cronos.Response, error)
	Step2(ctx context.Context, req cronos.Step2Request) (*cronos.Response, error)
	ConfirmPhone(ctx context.Context, req cronos.Step2Request) (*cronos.Response, error)
	ResendCode(ctx context.Context, individualID string) (*cronos.Response, error)
	DocumentImage(ctx context.Context, req cronos.DocumentImageRequest) (*cronos.Response, error)
	Step4(ctx context.Context, req cronos.Step4Request) (*cronos.Response, error)
	Selfie(ctx context.Context, req cronos.SelfieRequest) (*cronos.Response, error)
	Step6(ctx context.Context, req cronos.Step6Request) (*cronos.Response, error)
	Step7(ctx context.Context, req cronos.Step7Request) (*cronos.Response, error)
	PartnerDocument(ctx context.Context, req cronos.PartnerDocumentRequest) (*cronos.Response, error)
	ListPartners(ctx context.Context, individualID string) (*cronos.Response, error)
	SelectPartner(ctx context.Context, individualID, partnerID string) (*cronos.Response, error)
	DeletePartner(ctx context.Context, individualID, partnerID string) (*cronos.Response, error)
	UpdateSimplify(ctx context.Context, individualID string, payload map[string]interface{}) (*cronos.Response, error)
	LookupCEP(ctx context.Context, cep string) (map[string]interface{}, error)
}

// StatusNotifier receives onboarding status changes, used to push
// events to connected clients. Implementations must not block.
type StatusNotifier interface {
	NotifyStatus(customerID string, status string, step int)
}

// DocumentArchiver stores an accepted document copy for compliance and
// returns the object key. A nil archiver disables archiving.
type DocumentArchiver interface {
	Archive(ctx context.Context, customerID, fileName, mimeType string, content []byte) (string, error)
}
