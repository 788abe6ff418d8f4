package cronos

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/contaleve/onboarding-backend/pkg/cache"
	"github.com/contaleve/onboarding-backend/pkg/logger"
)

const defaultTokenTTL = 50 * time.Minute

// Client talks to the Cronos registration API. All endpoints except the
// application token exchange require a Bearer token, which the client
// acquires lazily and caches in the provided TokenStore. A 401 clears
// the cached token and the request is retried once with a fresh one.
type Client struct {
	config     Config
	httpClient *http.Client
	tokens     cache.TokenStore
}

// NewClient creates a new registration API client with the given configuration
func NewClient(config Config, tokens cache.TokenStore) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if config.TokenTTL == 0 {
		config.TokenTTL = defaultTokenTTL
	}
	if tokens == nil {
		tokens = cache.NewMemoryTokenStore()
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// AppToken exchanges the application key pair for a Bearer token and
// caches it for subsequent calls
func (c *Client) AppToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/v1/application/token", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.config.PublicKey + ":" + c.config.PrivateKey))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Err: sentinelForStatus(resp.StatusCode), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if tokenResp.Token == "" {
		return "", fmt.Errorf("%w: empty token in response", ErrService)
	}

	if err := c.tokens.SetToken(ctx, tokenResp.Token, c.config.TokenTTL); err != nil {
		logger.Warn("Failed to cache application token", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return tokenResp.Token, nil
}

// Register starts a registration for a document. A conflict response
// means the document is already registered upstream; the returned error
// matches ErrConflict and carries the upstream state in its Response.
func (c *Client) Register(ctx context.Context, document string) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/v1/register/individual", RegisterRequest{Document: document})
}

// Situation fetches the current registration state of a document
func (c *Client) Situation(ctx context.Context, document string) (*Response, error) {
	return c.doJSON(ctx, http.MethodGet, "/v1/individual/"+document, nil)
}

// Step1 submits identification data
func (c *Client) Step1(ctx context.Context, req Step1Request) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/v1/register/individual/step1", req)
}

// Step2 submits the phone number, triggering an SMS verification code
func (c *Client) Step2(ctx context.Context, req Step2Request) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/v1/register/individual/step2", req)
}

// ConfirmPhone confirms the SMS verification code
func (c *Client) ConfirmPhone(ctx context.Context, req Step2Request) (*Response, error) {
	return c.doJSON(ctx, http.MethodPut, "/v1/register/individual/step2", req)
}

// ResendCode asks the API to resend the SMS verification code
func (c *Client) ResendCode(ctx context.Context, individualID string) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/v1/register/individual/resendsmscode", ResendCodeRequest{IndividualID: individualID})
}

// DocumentImage uploads an identity document image
func (c *Client) DocumentImage(ctx context.Context, req DocumentImageRequest) (*Response, error) {
	fields := map[string]string{
		"individual_id": req.IndividualID,
		"image_type":    req.ImageType,
		"document_type": req.DocumentType,
	}
	return c.doMultipart(ctx, "/v1/register/individual/step3", fields, req.File)
}

// Step4 submits personal detail data
func (c *Client) Step4(ctx context.Context, req Step4Request) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/v1/register/individual/step4", req)
}

// Selfie uploads the holder selfie
func (c *Client) Selfie(ctx context.Context, req SelfieRequest) (*Response, error) {
	fields := map[string]string{
		"individual_id": req.IndividualID,
		"image_type":    req.ImageType,
	}
	return c.doMultipart(ctx, "/v1/register/individual/step5", fields, req.File)
}

// Step6 submits the residential address
func (c *Client) Step6(ctx context.Context, req Step6Request) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/v1/register/individual/step6", req)
}

// Step7 finalizes the registration with the access password
func (c *Client) Step7(ctx context.Context, req Step7Request) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/v1/register/individual/step7", req)
}

// PartnerDocument uploads a partner identity document on a business
// registration. The upstream path keeps the API's historical spelling.
func (c *Client) PartnerDocument(ctx context.Context, req PartnerDocumentRequest) (*Response, error) {
	fields := map[string]string{
		"individual_id": req.IndividualID,
		"name":          req.PartnerName,
		"image_type":    req.ImageType,
		"document_type": req.DocumentType,
	}
	return c.doMultipart(ctx, "/v1/register/individual/step3/documentpernonal", fields, req.File)
}

// ListPartners fetches the partners registered for a business
func (c *Client) ListPartners(ctx context.Context, individualID string) (*Response, error) {
	return c.doJSON(ctx, http.MethodGet, "/v1/register/individual/step3/"+individualID, nil)
}

// SelectPartner marks a partner as the active one on the registration
func (c *Client) SelectPartner(ctx context.Context, individualID, partnerID string) (*Response, error) {
	path := fmt.Sprintf("/v1/register/individual/step3/%s?id_socio=%s", individualID, partnerID)
	return c.doJSON(ctx, http.MethodPut, path, nil)
}

// DeletePartner removes a partner from the registration
func (c *Client) DeletePartner(ctx context.Context, individualID, partnerID string) (*Response, error) {
	path := fmt.Sprintf("/v1/register/individual/step3/%s/%s", individualID, partnerID)
	return c.doJSON(ctx, http.MethodDelete, path, nil)
}

// UpdateSimplify pushes an aggregated registration payload for an
// individual, filling whatever fields the upstream still reports pending
func (c *Client) UpdateSimplify(ctx context.Context, individualID string, payload map[string]interface{}) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/v1/register/simplify/"+individualID, payload)
}

// LookupCEP resolves a Brazilian postal code into address fields
func (c *Client) LookupCEP(ctx context.Context, cep string) (map[string]interface{}, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/v1/register/consultcep/"+cep, nil)
	if err != nil {
		return nil, err
	}

	var address map[string]interface{}
	if err := json.Unmarshal(body, &address); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cep response: %w", err)
	}
	return address, nil
}

// doJSON performs an authenticated JSON request and parses the canonical envelope
func (c *Client) doJSON(ctx context.Context, method, path string, payload interface{}) (*Response, error) {
	body, err := c.doRequest(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &resp, nil
}

// doRequest performs an authenticated HTTP request with a single retry
// after a 401, which refreshes the cached application token
func (c *Client) doRequest(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	body, status, err := c.send(ctx, method, path, "application/json", reqBody)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		if err := c.tokens.Clear(ctx); err != nil {
			logger.Warn("Failed to clear application token", map[string]interface{}{
				"error": err.Error(),
			})
		}
		body, status, err = c.send(ctx, method, path, "application/json", reqBody)
		if err != nil {
			return nil, err
		}
	}

	return c.checkStatus(status, body)
}

// doMultipart performs an authenticated multipart request with the same
// retry-once semantics as doRequest
func (c *Client) doMultipart(ctx context.Context, path string, fields map[string]string, file FilePart) (*Response, error) {
	buildBody := func() (string, []byte, error) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)

		for name, value := range fields {
			if value == "" {
				continue
			}
			if err := writer.WriteField(name, value); err != nil {
				return "", nil, err
			}
		}

		fieldName := file.FieldName
		if fieldName == "" {
			fieldName = "file"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, file.FileName))
		if file.ContentType != "" {
			header.Set("Content-Type", file.ContentType)
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			return "", nil, err
		}
		if _, err := part.Write(file.Content); err != nil {
			return "", nil, err
		}
		if err := writer.Close(); err != nil {
			return "", nil, err
		}
		return writer.FormDataContentType(), buf.Bytes(), nil
	}

	contentType, reqBody, err := buildBody()
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	body, status, err := c.send(ctx, http.MethodPost, path, contentType, reqBody)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		if err := c.tokens.Clear(ctx); err != nil {
			logger.Warn("Failed to clear application token", map[string]interface{}{
				"error": err.Error(),
			})
		}
		body, status, err = c.send(ctx, http.MethodPost, path, contentType, reqBody)
		if err != nil {
			return nil, err
		}
	}

	checked, err := c.checkStatus(status, body)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(checked, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &resp, nil
}

// send performs one HTTP round trip with a Bearer token attached
func (c *Client) send(ctx context.Context, method, path, contentType string, reqBody []byte) ([]byte, int, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load application token: %w", err)
	}
	if token == "" {
		token, err = c.AppToken(ctx)
		if err != nil {
			return nil, 0, err
		}
	}

	var bodyReader io.Reader
	if reqBody != nil {
		bodyReader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if reqBody != nil {
		req.Header.Set("Content-Type", contentType)
	}

	logger.Debug("Cronos API request", map[string]interface{}{
		"method": method,
		"path":   redactPath(path),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// checkStatus maps non-2xx responses to APIError, keeping whatever
// envelope the API returned so callers can inspect conflict state
func (c *Client) checkStatus(status int, body []byte) ([]byte, error) {
	if status >= 200 && status < 300 {
		return body, nil
	}

	apiErr := &APIError{Err: sentinelForStatus(status), StatusCode: status, Body: string(body)}
	var resp Response
	if err := json.Unmarshal(body, &resp); err == nil {
		apiErr.Response = &resp
	}

	logger.Debug("Cronos API error response", map[string]interface{}{
		"status":  status,
		"message": apiErr.Error(),
	})

	return nil, apiErr
}

// redactPath strips document numbers from paths before logging
func redactPath(path string) string {
	if strings.HasPrefix(path, "/v1/individual/") {
		return "/v1/individual/:document"
	}
	if strings.HasPrefix(path, "/v1/register/consultcep/") {
		return "/v1/register/consultcep/:cep"
	}
	return path
}
