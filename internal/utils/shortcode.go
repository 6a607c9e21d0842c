package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Alphabet is the 62-character set used for generated short codes
	Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// GeneratedCodeLength is the length of random short codes
	GeneratedCodeLength = 6

	// CustomCodeMinLength is the minimum length of a custom short code
	CustomCodeMinLength = 3

	// CustomCodeMaxLength matches the short_code column width
	CustomCodeMaxLength = 32
)

// GenerateShortCode draws GeneratedCodeLength characters independently
// and uniformly from Alphabet using crypto/rand. The resulting space is
// 62^6; collisions are possible and the caller handles duplicate-key
// errors by regenerating.
func GenerateShortCode() (string, error) {
	code := make([]byte, GeneratedCodeLength)
	alphabetLen := big.NewInt(int64(len(Alphabet)))

	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}
		code[i] = Alphabet[n.Int64()]
	}
	return string(code), nil
}

// NormalizeCustomCode lowercases a requested custom code and strips
// every character outside [a-z0-9-].
func NormalizeCustomCode(raw string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(strings.TrimSpace(raw)) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// ValidateCustomCode checks a normalized custom code: at least
// CustomCodeMinLength characters, all within [a-z0-9-].
func ValidateCustomCode(code string) error {
	if len(code) < CustomCodeMinLength {
		return fmt.Errorf("custom code must be at least %d characters", CustomCodeMinLength)
	}
	if len(code) > CustomCodeMaxLength {
		return fmt.Errorf("custom code must be at most %d characters", CustomCodeMaxLength)
	}
	for _, c := range code {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return fmt.Errorf("custom code may only contain lowercase letters, digits and hyphens")
		}
	}
	return nil
}
