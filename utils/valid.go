// utils/valid.go
package utils

import (
	"errors"
	"regexp"
	"strings"

	"github.com/revom/revom_backend/models"
)

// emailFormatRegex is the minimal local@domain.tld shape check used by both
// the validation engine and the deliverability gateway.
var emailFormatRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// phoneRegex is deliberately permissive: at least 10 digit-ish characters,
// allowing +, spaces, hyphens and parentheses.
var phoneRegex = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)

// IsEmailFormat reports whether the address passes the minimal syntactic check
func IsEmailFormat(email string) bool {
	return emailFormatRegex.MatchString(email)
}

// IsPhoneLike reports whether the identifier looks like a phone number
func IsPhoneLike(identifier string) bool {
	return phoneRegex.MatchString(identifier)
}

// DetectChannel classifies a sign-in identifier as phone-shaped or
// email-shaped. Any 10+ digit-ish string counts as a phone; everything
// else falls back to the email channel.
func DetectChannel(identifier string) models.SignupChannel {
	if IsPhoneLike(identifier) {
		return models.ChannelPhone
	}
	return models.ChannelEmail
}

// SanitizeEmail sanitizes and validates an email address
func SanitizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	if !IsEmailFormat(email) {
		return "", errors.New("invalid email format")
	}

	return email, nil
}

// SanitizePhone normalizes a phone number to +digits form
func SanitizePhone(phone string) (string, error) {
	// If phone is empty, return empty string (phone is optional)
	if strings.TrimSpace(phone) == "" {
		return "", nil
	}

	// Remove all non-numeric characters except +
	phone = regexp.MustCompile(`[^\d+]`).ReplaceAllString(phone, "")

	// Ensure phone number starts with +
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	// Basic validation for international phone number
	if len(phone) < 8 || len(phone) > 15 {
		return "", errors.New("invalid phone number length")
	}

	return phone, nil
}
