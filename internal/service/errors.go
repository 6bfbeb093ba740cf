package service

import (
	"errors"
)

var (
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrEmailNotVerified       = errors.New("email not verified")
	ErrUsernameTaken          = errors.New("username already taken")
	ErrEmailTaken             = errors.New("email already in use")
	ErrAlreadyVerified        = errors.New("email already verified")
	ErrInvalidCode            = errors.New("invalid verification code")
	ErrCodeExpired            = errors.New("verification code has expired")
	ErrNoPendingEmailChange   = errors.New("no pending email change")
	ErrSameEmail              = errors.New("new email is the same as the current one")
	ErrSameUsername           = errors.New("new username is the same as the current one")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	ErrPasswordReused         = errors.New("new password must differ from the current one")
	ErrResetTokenExpired      = errors.New("password reset token has expired")
	ErrMailDelivery           = errors.New("failed to deliver email")
	ErrStorageDisabled        = errors.New("file uploads are not configured")
	ErrInvalidToken           = errors.New("invalid or expired token")
)

// UnverifiedError is returned by Login for a correct password on an account
// whose email is not verified yet. It carries the address so the client can
// offer to resend the code.
type UnverifiedError struct {
	Email string
}

func (e *UnverifiedError) Error() string {
	return "email not verified"
}

func (e *UnverifiedError) Unwrap() error {
	return ErrEmailNotVerified
}
