package service

import (
	"fmt"
	"strconv"

	"github.com/contaleve/onboarding-backend/internal/app/model"
)

const wireDateLayout = "2006-01-02"

// BuildPayload aggregates everything collected for a business customer
// into the flat payload the registration service expects. Empty fields
// are omitted entirely; documents are flattened into base64 fields
// keyed by their type.
func BuildPayload(customer *model.Customer) map[string]interface{} {
	payload := map[string]interface{}{}
	set := func(key, value string) {
		if value != "" {
			payload[key] = value
		}
	}

	data := customer.BusinessData
	if data != nil {
		set("name", data.LegalName)
		set("nome_fantasia", data.TradeName)
		set("cnae", data.CNAE)
		set("cnae_description", data.CNAEDescription)
		if data.FoundationDate != nil {
			payload["foundation_date"] = data.FoundationDate.Format(wireDateLayout)
		}
		if data.ShareCapital != "" {
			if capital, err := strconv.ParseFloat(data.ShareCapital, 64); err == nil {
				payload["capital_social"] = capital
			} else {
				payload["capital_social"] = data.ShareCapital
			}
		}

		set("street", data.Street)
		set("number", data.Number)
		set("postal_code", data.PostalCode)
		set("neighborhood", data.Neighborhood)
		set("city", data.City)
		set("state", data.State)
		set("country", data.Country)
		set("complement", data.Complement)
	}

	set("email", customer.Email)
	set("phone", customer.PhoneNumber)

	// Company documents, flattened by type
	for _, doc := range customer.Documents {
		if doc.PartnerID != nil {
			continue
		}
		switch doc.DocumentType {
		case model.DocTypeContratoSocial, model.DocTypeCartaoCNPJ, model.DocTypeComprovanteEndereco:
			if doc.FileBase64 != "" {
				payload[string(doc.DocumentType)] = doc.FileBase64
			}
		}
	}

	if len(customer.Partners) > 0 {
		socios := make([]map[string]interface{}, 0, len(customer.Partners))
		for _, partner := range customer.Partners {
			socios = append(socios, buildPartnerPayload(partner))
		}
		payload["socios"] = socios
	}

	return payload
}

func buildPartnerPayload(partner model.Partner) map[string]interface{} {
	socio := map[string]interface{}{
		"document": partner.Document,
	}
	set := func(key, value string) {
		if value != "" {
			socio[key] = value
		}
	}

	set("name", partner.Name)
	set("mother_name", partner.MotherName)
	set("father_name", partner.FatherName)
	set("gender", partner.Gender)
	set("nationality", partner.Nationality)
	set("nationality_state", partner.NationalityState)
	set("document_name", partner.DocumentName)
	set("document_number", partner.DocumentNumber)
	set("document_state", partner.DocumentState)
	set("document_issuance", partner.DocumentIssuance)

	if partner.BirthDate != nil {
		socio["birth_date"] = partner.BirthDate.Format(wireDateLayout)
	}
	if partner.IssuanceDate != nil {
		socio["issuance_date"] = partner.IssuanceDate.Format(wireDateLayout)
	}
	if partner.MaritalStatus != nil {
		socio["marital_status"] = *partner.MaritalStatus
	}
	if partner.PEP != nil {
		socio["pep"] = *partner.PEP
	}
	if partner.ParticipationPercent != nil {
		socio["percentual_participacao"] = *partner.ParticipationPercent
	}
	if partner.Majority != nil {
		socio["majority"] = *partner.Majority
	}

	// Partner documents, flattened by type
	for _, doc := range partner.Documents {
		if doc.FileBase64 != "" {
			socio[string(doc.DocumentType)] = doc.FileBase64
		}
	}

	return socio
}

// requiredPayloadFields are the company-level fields the registration
// service refuses to accept a business without
var requiredPayloadFields = []string{
	"name",
	"email",
	"phone",
	"foundation_date",
	"cnae",
	"street",
	"number",
	"postal_code",
	"neighborhood",
	"city",
	"state",
	"country",
	"contrato_social",
	"cartao_cnpj",
}

// ValidatePayload returns the required fields still missing from an
// aggregated payload. Partner entries are reported with indexed
// notation (socios[0].name). An empty result means the payload is
// ready to sync.
func ValidatePayload(payload map[string]interface{}) []string {
	missing := []string{}

	for _, field := range requiredPayloadFields {
		if isEmptyField(payload[field]) {
			missing = append(missing, field)
		}
	}

	socios, ok := payload["socios"].([]map[string]interface{})
	if !ok || len(socios) == 0 {
		missing = append(missing, "socios")
		return missing
	}

	for i, socio := range socios {
		if isEmptyField(socio["document"]) {
			missing = append(missing, fmt.Sprintf("socios[%d].document", i))
		}
		if isEmptyField(socio["name"]) {
			missing = append(missing, fmt.Sprintf("socios[%d].name", i))
		}
	}

	return missing
}

func isEmptyField(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}
