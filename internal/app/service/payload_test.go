package service

import (
	"testing"
	"time"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullBusinessCustomer() *model.Customer {
	foundation := time.Date(2015, 3, 10, 0, 0, 0, 0, time.UTC)
	partnerID := "partner-1"
	return &model.Customer{
		ID:          "customer-1",
		Document:    "12345678000190",
		AccountType: model.AccountTypeCNPJ,
		Email:       "contato@acme.com.br",
		PhoneNumber: "11987654321",
		BusinessData: &model.BusinessData{
			CustomerID:     "customer-1",
			LegalName:      "ACME Comércio LTDA",
			TradeName:      "ACME",
			CNAE:           "4751201",
			ShareCapital:   "150000.50",
			FoundationDate: &foundation,
			PostalCode:     "01310100",
			Street:         "Avenida Paulista",
			Number:         "1000",
			Neighborhood:   "Bela Vista",
			City:           "São Paulo",
			State:          "SP",
			Country:        "BR",
		},
		Partners: []model.Partner{
			{
				ID:         partnerID,
				CustomerID: "customer-1",
				Document:   "12345678901",
				Name:       "Maria Silva",
			},
		},
		Documents: []model.Document{
			{
				CustomerID:   "customer-1",
				DocumentType: model.DocTypeContratoSocial,
				FileBase64:   "Y29udHJhdG8=",
			},
			{
				CustomerID:   "customer-1",
				DocumentType: model.DocTypeCartaoCNPJ,
				FileBase64:   "Y2FydGFv",
			},
			{
				CustomerID:   "customer-1",
				PartnerID:    &partnerID,
				DocumentType: model.DocTypeRGFrente,
				FileBase64:   "cmdmcmVudGU=",
			},
		},
	}
}

func TestBuildPayload(t *testing.T) {
	t.Run("Complete customer", func(t *testing.T) {
		payload := BuildPayload(fullBusinessCustomer())

		assert.Equal(t, "ACME Comércio LTDA", payload["name"])
		assert.Equal(t, "ACME", payload["nome_fantasia"])
		assert.Equal(t, "2015-03-10", payload["foundation_date"])
		assert.Equal(t, 150000.50, payload["capital_social"])
		assert.Equal(t, "contato@acme.com.br", payload["email"])
		assert.Equal(t, "Y29udHJhdG8=", payload["contrato_social"])
		assert.Equal(t, "Y2FydGFv", payload["cartao_cnpj"])

		socios, ok := payload["socios"].([]map[string]interface{})
		require.True(t, ok)
		require.Len(t, socios, 1)
		assert.Equal(t, "Maria Silva", socios[0]["name"])
		assert.Equal(t, "12345678901", socios[0]["document"])
		assert.Equal(t, "cmdmcmVudGU=", socios[0]["rg_frente"])
	})

	t.Run("Empty fields are omitted", func(t *testing.T) {
		customer := fullBusinessCustomer()
		customer.BusinessData.TradeName = ""
		customer.BusinessData.FoundationDate = nil

		payload := BuildPayload(customer)

		_, hasTradeName := payload["nome_fantasia"]
		assert.False(t, hasTradeName)
		_, hasFoundation := payload["foundation_date"]
		assert.False(t, hasFoundation)
	})

	t.Run("Unparseable capital is kept as text", func(t *testing.T) {
		customer := fullBusinessCustomer()
		customer.BusinessData.ShareCapital = "cem mil"

		payload := BuildPayload(customer)
		assert.Equal(t, "cem mil", payload["capital_social"])
	})

	t.Run("Partner documents do not leak into company fields", func(t *testing.T) {
		payload := BuildPayload(fullBusinessCustomer())

		_, hasRG := payload["rg_frente"]
		assert.False(t, hasRG)
	})

	t.Run("No business data", func(t *testing.T) {
		customer := &model.Customer{
			ID:          "customer-2",
			Document:    "98765432000110",
			AccountType: model.AccountTypeCNPJ,
		}

		payload := BuildPayload(customer)
		_, hasName := payload["name"]
		assert.False(t, hasName)
	})
}

func TestValidatePayload(t *testing.T) {
	t.Run("Complete payload passes", func(t *testing.T) {
		missing := ValidatePayload(BuildPayload(fullBusinessCustomer()))
		assert.Empty(t, missing)
	})

	t.Run("Missing company fields are reported", func(t *testing.T) {
		customer := fullBusinessCustomer()
		customer.BusinessData.CNAE = ""
		customer.Documents = customer.Documents[1:] // drop contrato_social

		missing := ValidatePayload(BuildPayload(customer))

		assert.Contains(t, missing, "cnae")
		assert.Contains(t, missing, "contrato_social")
		assert.NotContains(t, missing, "cartao_cnpj")
	})

	t.Run("Empty partner list is reported", func(t *testing.T) {
		customer := fullBusinessCustomer()
		customer.Partners = nil

		missing := ValidatePayload(BuildPayload(customer))
		assert.Contains(t, missing, "socios")
	})

	t.Run("Partner fields are reported by index", func(t *testing.T) {
		customer := fullBusinessCustomer()
		customer.Partners[0].Name = ""

		missing := ValidatePayload(BuildPayload(customer))
		assert.Contains(t, missing, "socios[0].name")
	})
}
