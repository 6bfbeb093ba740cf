package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/quizline/internal/model"
)

var (
	ErrResetTokenNotFound = errors.New("reset token not found")
)

type PasswordResetRepository interface {
	Create(ctx context.Context, reset *model.PasswordReset) error
	ByToken(ctx context.Context, token string) (*model.PasswordReset, error)
	Consume(ctx context.Context, token string) (*model.PasswordReset, error)
	DeleteByEmail(ctx context.Context, email string) error
	Redeem(ctx context.Context, token, userID, passwordHash string, now time.Time) error
}

type passwordResetRepository struct {
	db *sqlx.DB
}

func NewPasswordResetRepository(db *sqlx.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, reset *model.PasswordReset) error {
	if reset.ID == "" {
		reset.ID = uuid.New().String()
	}

	query := `INSERT INTO password_resets (id, email, token, expires_at, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		reset.ID,
		reset.Email,
		reset.Token,
		reset.ExpiresAt.UTC(),
		reset.CreatedAt.UTC(),
	)
	return err
}

func (r *passwordResetRepository) ByToken(ctx context.Context, token string) (*model.PasswordReset, error) {
	var reset model.PasswordReset

	err := r.db.GetContext(ctx, &reset, `SELECT * FROM password_resets WHERE token = $1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResetTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &reset, nil
}

// Consume deletes the token and returns it. Only one caller can win the
// DELETE, so a token is never redeemed twice. Expiry is left to the caller:
// an expired token is still removed.
func (r *passwordResetRepository) Consume(ctx context.Context, token string) (*model.PasswordReset, error) {
	var reset model.PasswordReset
	query := `DELETE FROM password_resets WHERE token = $1 RETURNING *`

	err := r.db.GetContext(ctx, &reset, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResetTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &reset, nil
}

func (r *passwordResetRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE email = $1`, email)
	return err
}

// Redeem consumes the token and stores the new password hash in one
// transaction. If the user update fails the token stays valid.
func (r *passwordResetRepository) Redeem(ctx context.Context, token, userID, passwordHash string, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id string
	err = tx.GetContext(ctx, &id, `DELETE FROM password_resets WHERE token = $1 RETURNING id`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrResetTokenNotFound
	}
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, now.UTC(), userID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return tx.Commit()
}
