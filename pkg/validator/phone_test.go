package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	validNumbers := []struct {
		input    string
		expected string
		name     string
	}{
		{"0771234567", "0771234567", "Local digits"},
		{"+94 77 000 0000", "+94 77 000 0000", "International with spaces"},
		{"  +1 (415) 555-0100 ", "+1 (415) 555-0100", "Trimmed"},
		{"030.1234.5678", "030.1234.5678", "With dots"},
		{"", "", "Empty clears the field"},
	}

	for _, tc := range validNumbers {
		t.Run(tc.name, func(t *testing.T) {
			sanitized, err := validator.Validate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sanitized)
		})
	}
}

func TestValidate_InvalidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	invalidNumbers := []struct {
		input string
		err   error
		name  string
	}{
		{"0123456789012345678901", ErrPhoneTooLong, "Too long"},
		{"077 123 abcd", ErrInvalidFormat, "Letters"},
		{"77+1234567", ErrInvalidFormat, "Plus not leading"},
		{"12345", ErrInvalidLength, "Too few digits"},
		{"1234567890123456", ErrInvalidLength, "Too many digits"},
	}

	for _, tc := range invalidNumbers {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate(tc.input)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestDigits(t *testing.T) {
	validator := NewPhoneValidator()
	assert.Equal(t, "14155550100", validator.Digits("+1 (415) 555-0100"))
}
