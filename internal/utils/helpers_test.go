package contextutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("authority@mcc.tn.gov.in"))
	assert.True(t, IsValidEmail("citizen+madurai@example.com"))
	assert.True(t, IsValidEmail("user@subdomain.example.com"))

	assert.False(t, IsValidEmail(""))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("@example.com"))
	assert.False(t, IsValidEmail("user@"))
	assert.False(t, IsValidEmail("user name@example.com"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "officer@mcc.tn.gov.in", NormalizeEmail("  Officer@MCC.tn.gov.in "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		expected string
	}{
		{name: "empty", secret: "", expected: "[EMPTY]"},
		{name: "short", secret: "abcd", expected: "****"},
		{name: "eight chars", secret: "abcdefgh", expected: "********"},
		{name: "twelve chars", secret: "abcdefghijkl", expected: "abcd****ijkl"},
		{name: "api key", secret: "AIzaSyD-1234567890", expected: "AIza**********7890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskSecret(tt.secret))
		})
	}
}
