package validation

import (
	"errors"
)

const (
	MinPasswordLength = 6
	// bcrypt ignores everything past 72 bytes
	MaxPasswordLength = 72
)

// ValidatePassword validates password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 6 characters")
	}

	if len(password) > MaxPasswordLength {
		return errors.New("password must not exceed 72 bytes")
	}

	return nil
}
