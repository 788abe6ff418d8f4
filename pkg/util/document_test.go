package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDocument(t *testing.T) {
	tests := []struct {
		name     string
		document string
		want     string
	}{
		{
			name:     "Formatted CPF",
			document: "123.456.789-01",
			want:     "12345678901",
		},
		{
			name:     "Formatted CNPJ",
			document: "12.345.678/0001-99",
			want:     "12345678000199",
		},
		{
			name:     "Already normalized",
			document: "12345678901",
			want:     "12345678901",
		},
		{
			name:     "Empty",
			document: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDocument(tt.document))
		})
	}
}

func TestDetectAccountType(t *testing.T) {
	tests := []struct {
		name     string
		document string
		want     string
	}{
		{
			name:     "CPF",
			document: "123.456.789-01",
			want:     "cpf",
		},
		{
			name:     "CNPJ",
			document: "12.345.678/0001-99",
			want:     "cnpj",
		},
		{
			name:     "Invalid length",
			document: "12345",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectAccountType(tt.document))
		})
	}
}

func TestGenerateVerificationCode(t *testing.T) {
	code := GenerateVerificationCode(6)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}
