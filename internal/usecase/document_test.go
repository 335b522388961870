package usecase

import (
	"errors"
	"testing"
)

func TestNormalizeCPF(t *testing.T) {
	valid := map[string]string{
		"529.982.247-25":  "52998224725",
		"52998224725":     "52998224725",
		" 111.444.777-35": "11144477735",
		"123 456 789 09":  "12345678909",
	}
	for in, want := range valid {
		got, err := NormalizeCPF(in)
		if err != nil || got != want {
			t.Fatalf("NormalizeCPF(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	for _, in := range []string{"", "529.982.247-24", "5299822472", "529982247250", "000.000.000-00", "99999999999", "abc"} {
		if _, err := NormalizeCPF(in); !errors.Is(err, ErrInvalidPayerDocument) {
			t.Fatalf("NormalizeCPF(%q) expected ErrInvalidPayerDocument, got %v", in, err)
		}
	}
}
