package util

import (
	"fmt"
	"math/rand"
	"strings"
)

// NormalizeDocument strips formatting characters (dots, dashes, slashes)
// from a CPF or CNPJ, keeping digits only.
func NormalizeDocument(document string) string {
	var b strings.Builder
	for _, r := range document {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsCPF reports whether the normalized document has CPF length (11 digits)
func IsCPF(document string) bool {
	return len(NormalizeDocument(document)) == 11
}

// IsCNPJ reports whether the normalized document has CNPJ length (14 digits)
func IsCNPJ(document string) bool {
	return len(NormalizeDocument(document)) == 14
}

// DetectAccountType returns "cpf" or "cnpj" based on document length,
// or an empty string when the document matches neither.
func DetectAccountType(document string) string {
	switch len(NormalizeDocument(document)) {
	case 11:
		return "cpf"
	case 14:
		return "cnpj"
	default:
		return ""
	}
}

// GenerateVerificationCode generates a random numeric code of the given length
func GenerateVerificationCode(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		fmt.Fprintf(&b, "%d", rand.Intn(10))
	}
	return b.String()
}
