package usecase

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`[^\d]`)

// sanitizeDocument strips everything but digits from a CPF/CNPJ.
func sanitizeDocument(doc string) string {
	return nonDigits.ReplaceAllString(doc, "")
}

// NormalizeCPF returns the 11 digits of a valid CPF, or ErrInvalidPayerDocument.
func NormalizeCPF(doc string) (string, error) {
	cpf := sanitizeDocument(strings.TrimSpace(doc))
	if len(cpf) != 11 {
		return "", ErrInvalidPayerDocument
	}
	if strings.Count(cpf, cpf[:1]) == 11 {
		return "", ErrInvalidPayerDocument
	}
	if cpfCheckDigit(cpf[:9], 10) != int(cpf[9]-'0') || cpfCheckDigit(cpf[:10], 11) != int(cpf[10]-'0') {
		return "", ErrInvalidPayerDocument
	}
	return cpf, nil
}

func cpfCheckDigit(digits string, weight int) int {
	sum := 0
	for _, r := range digits {
		sum += int(r-'0') * weight
		weight--
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}
