package model

import (
	"time"
)

type PasswordReset struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (p *PasswordReset) IsExpiredAt(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
