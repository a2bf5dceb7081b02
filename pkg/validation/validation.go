package validation

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrInvalidInput indicates the input failed validation
	ErrInvalidInput = errors.New("invalid input")

	// Model name must be alphanumeric with hyphens/underscores, 3-100 chars
	modelNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{2,99}$`)

	// Asset ids follow the same shape as model names
	assetIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,99}$`)
)

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters except newline and tab
	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ValidateModelName checks if a detection model name is valid
func ValidateModelName(name string) error {
	name = SanitizeString(name)

	if name == "" {
		return errors.New("model name cannot be empty")
	}

	if len(name) < 3 {
		return errors.New("model name must be at least 3 characters")
	}

	if len(name) > 100 {
		return errors.New("model name must not exceed 100 characters")
	}

	if !modelNameRegex.MatchString(name) {
		return errors.New("model name must start with alphanumeric and contain only letters, numbers, hyphens, and underscores")
	}

	return nil
}

// ValidateAssetID checks if an asset identifier is valid
func ValidateAssetID(id string) error {
	id = SanitizeString(id)

	if id == "" {
		return errors.New("asset id cannot be empty")
	}

	if !assetIDRegex.MatchString(id) {
		return errors.New("asset id must start with alphanumeric and contain only letters, numbers, hyphens, and underscores")
	}

	return nil
}

// ValidateTimeWindow checks run window bounds
func ValidateTimeWindow(from, to time.Time) error {
	if !to.After(from) {
		return errors.New("window end must be after window start")
	}

	if to.Sub(from) > 31*24*time.Hour {
		return errors.New("window must not exceed 31 days")
	}

	return nil
}

// ValidateUsername checks if a username is valid
func ValidateUsername(username string) error {
	username = SanitizeString(username)

	if username == "" {
		return errors.New("username cannot be empty")
	}

	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}

	if len(username) > 50 {
		return errors.New("username must not exceed 50 characters")
	}

	return nil
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	if len(password) > 128 {
		return errors.New("password must not exceed 128 characters")
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	if !hasSpecial {
		return errors.New("password must contain at least one special character")
	}

	return nil
}
