package cronos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date on the registration API wire. The API is not
// consistent about formats: it emits and accepts "YYYY-MM-DD", full
// timestamps and occasionally epoch numbers. Date normalizes all of
// them and always marshals back as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate builds a Date truncated to the calendar day in UTC
func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a wire date string
func ParseDate(s string) (Date, error) {
	layouts := []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date format: %q", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" || string(trimmed) == `""` {
		*d = Date{}
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		parsed, err := ParseDate(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}

	// Epoch number; values past the year ~33658 in seconds are milliseconds
	epoch, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return fmt.Errorf("unrecognized date value: %s", string(trimmed))
	}
	if epoch > 1_000_000_000_000 {
		*d = NewDate(time.UnixMilli(epoch).UTC())
	} else {
		*d = NewDate(time.Unix(epoch, 0).UTC())
	}
	return nil
}

// String formats the date as it appears on the wire
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// StepValue is the current_step field of an API response, which may be
// a number (PF flows) or a label string (PJ flows and terminal states).
type StepValue struct {
	number int
	label  string
	set    bool
}

// StepNumber builds a numeric StepValue
func StepNumber(n int) StepValue {
	return StepValue{number: n, set: true}
}

// StepLabel builds a textual StepValue
func StepLabel(s string) StepValue {
	return StepValue{label: s, set: true}
}

// Int returns the numeric step and whether the value was numeric
func (s StepValue) Int() (int, bool) {
	return s.number, s.set && s.label == ""
}

// IsZero reports whether the field was absent from the response
func (s StepValue) IsZero() bool {
	return !s.set
}

func (s StepValue) String() string {
	if !s.set {
		return ""
	}
	if s.label != "" {
		return s.label
	}
	return strconv.Itoa(s.number)
}

func (s StepValue) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}
	if s.label != "" {
		return json.Marshal(s.label)
	}
	return json.Marshal(s.number)
}

func (s *StepValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*s = StepValue{}
		return nil
	}
	if trimmed[0] == '"' {
		var label string
		if err := json.Unmarshal(trimmed, &label); err != nil {
			return err
		}
		// Numeric strings count as numbers
		if n, err := strconv.Atoi(strings.TrimSpace(label)); err == nil {
			*s = StepValue{number: n, set: true}
			return nil
		}
		*s = StepValue{label: label, set: true}
		return nil
	}
	var n int
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*s = StepValue{number: n, set: true}
	return nil
}

// Response is the canonical envelope returned by the registration API
type Response struct {
	Success       bool                     `json:"success"`
	Message       string                   `json:"message,omitempty"`
	Code          json.Number              `json:"code,omitempty"`
	IndividualID  string                   `json:"individual_id,omitempty"`
	Document      string                   `json:"document,omitempty"`
	Status        string                   `json:"status,omitempty"`
	StatusLabel   string                   `json:"status_label,omitempty"`
	CurrentStep   StepValue                `json:"current_step,omitempty"`
	AccountType   string                   `json:"tipo_conta,omitempty"`
	PendingFields []string                 `json:"pending_fields,omitempty"`
	UploadedFiles []map[string]interface{} `json:"uploaded_files,omitempty"`
	Errors        []string                 `json:"errors,omitempty"`
}

// TokenResponse is the body of the application token endpoint
type TokenResponse struct {
	Token string `json:"token"`
}


// RegisterRequest starts a registration for a document
type RegisterRequest struct {
	Document string `json:"document"`
}

// Step1Request carries identification data; the company fields are only
// sent on business registrations
type Step1Request struct {
	IndividualID       string `json:"individual_id"`
	FullName           string `json:"full_name"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	FoundationDate     string `json:"dataFundacaoEmpresa,omitempty"`
	RepresentativeCPF  string `json:"cpfRepresentanteEmpresa,omitempty"`
	CNAE               string `json:"cnae,omitempty"`
	CNAEDescription    string `json:"cnae_descricao,omitempty"`
	ShareCapital       string `json:"capital_social,omitempty"`
	LegalName          string `json:"razaoSocial,omitempty"`
	TradeName          string `json:"nomeFantasia,omitempty"`
}

// Step2Request carries the phone number; Code is present on confirmation
type Step2Request struct {
	IndividualID string `json:"individual_id"`
	PhonePrefix  string `json:"phone_prefix"`
	PhoneNumber  string `json:"phone_number"`
	Code         string `json:"code,omitempty"`
}

// ResendCodeRequest asks the API to resend the SMS verification code
type ResendCodeRequest struct {
	IndividualID string `json:"individual_id"`
}

// FilePart is a binary attachment for a multipart submission
type FilePart struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     []byte
}

// DocumentImageRequest uploads an identity document image (step 3)
type DocumentImageRequest struct {
	IndividualID string
	ImageType    string
	DocumentType string
	File         FilePart
}

// SelfieRequest uploads the holder selfie (step 5)
type SelfieRequest struct {
	IndividualID string
	ImageType    string
	File         FilePart
}

// Step4Request carries personal detail data
type Step4Request struct {
	IndividualID     string `json:"individual_id"`
	MotherName       string `json:"mother_name,omitempty"`
	FatherName       string `json:"father_name,omitempty"`
	Gender           string `json:"gender,omitempty"`
	BirthDate        Date   `json:"birth_date,omitempty"`
	Nationality      string `json:"nationality,omitempty"`
	NationalityState string `json:"nationality_state,omitempty"`
	DocumentName     string `json:"document_name,omitempty"`
	DocumentNumber   string `json:"document_number,omitempty"`
	DocumentState    string `json:"document_state,omitempty"`
	IssuanceDate     Date   `json:"issuance_date,omitempty"`
	DocumentIssuance string `json:"document_issuance,omitempty"`
	MaritalStatus    int    `json:"marital_status,omitempty"`
	PEP              int    `json:"pep"`
}

// Step6Request carries the residential address
type Step6Request struct {
	IndividualID  string `json:"individual_id"`
	PostalCode    string `json:"postal_code"`
	AddressTypeID int    `json:"address_type_id,omitempty"`
	Street        string `json:"street"`
	Number        string `json:"number"`
	Neighborhood  string `json:"neighborhood"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	Complement    string `json:"complement,omitempty"`
}

// Step7Request finalizes the registration with the access password
type Step7Request struct {
	IndividualID string `json:"individual_id"`
	Password     string `json:"password"`
}

// PartnerDocumentRequest uploads a partner identity document (PJ step 3)
type PartnerDocumentRequest struct {
	IndividualID string
	PartnerName  string
	ImageType    string
	DocumentType string
	File         FilePart
}
