package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrPhoneTooLong indicates the number does not fit the profile column
	ErrPhoneTooLong = errors.New("phone number must be at most 20 characters")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number may only contain digits, spaces, dashes, dots, parentheses and a leading +")

	// ErrInvalidLength indicates the number has too few or too many digits
	ErrInvalidLength = errors.New("phone number must contain between 7 and 15 digits")
)

// MaxPhoneLength matches profiles.phone_number
const MaxPhoneLength = 20

// phoneRegex matches an optional leading + followed by digits and separators
var phoneRegex = regexp.MustCompile(`^\+?[0-9 ().-]+$`)

// PhoneValidator checks contact numbers stored on profiles. Numbers keep
// the caller's formatting; only surrounding whitespace is removed.
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate returns the trimmed number, or an error if it is not a plausible
// international number. An empty number is valid and clears the field.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}

	if len(phone) > MaxPhoneLength {
		return "", ErrPhoneTooLong
	}
	if !phoneRegex.MatchString(phone) {
		return "", ErrInvalidFormat
	}

	digits := len(v.Digits(phone))
	if digits < 7 || digits > 15 {
		return "", ErrInvalidLength
	}

	return phone, nil
}

// Digits strips everything but digits, e.g. for duplicate detection
func (v *PhoneValidator) Digits(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
