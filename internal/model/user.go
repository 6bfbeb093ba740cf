package model

import (
	"time"
)

type User struct {
	ID              string  `db:"id" json:"id"`
	Username        string  `db:"username" json:"username"`
	Email           string  `db:"email" json:"email"`
	PasswordHash    string  `db:"password_hash" json:"-"`
	IsAdmin         bool    `db:"is_admin" json:"isAdmin"`
	IsEmailVerified bool    `db:"is_email_verified" json:"isEmailVerified"`
	ProfilePhotoURL *string `db:"profile_photo_url" json:"profilePhotoUrl"`

	// Verification code for the current email, cleared once used
	EmailVerificationCode    *string    `db:"email_verification_code" json:"-"`
	EmailVerificationExpires *time.Time `db:"email_verification_expires" json:"-"`

	// Email change in progress
	PendingNewEmail             *string    `db:"pending_new_email" json:"pendingNewEmail,omitempty"`
	NewEmailVerificationCode    *string    `db:"new_email_verification_code" json:"-"`
	NewEmailVerificationExpires *time.Time `db:"new_email_verification_expires" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// HasPendingEmailChange reports whether a new address awaits confirmation.
func (u *User) HasPendingEmailChange() bool {
	return u.PendingNewEmail != nil && *u.PendingNewEmail != "" && u.NewEmailVerificationCode != nil
}
