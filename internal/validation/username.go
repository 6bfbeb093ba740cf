package validation

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
)

// NormalizeUsername trims surrounding space and applies NFC so visually
// identical names compare equal.
func NormalizeUsername(username string) string {
	return norm.NFC.String(strings.TrimSpace(username))
}

// ValidateUsername expects an already normalized username.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength {
		return errors.New("username must be at least 3 characters")
	}
	if n > MaxUsernameLength {
		return errors.New("username is too long (max 32 characters)")
	}

	for _, r := range username {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return errors.New("username must not contain spaces or control characters")
		}
	}

	return nil
}
