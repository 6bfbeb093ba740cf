package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/quizline/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrCodeNotMatched    = errors.New("verification code not matched")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByUsername(ctx context.Context, username string) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	MarkEmailVerified(ctx context.Context, id, code string, now time.Time) error
	ConfirmNewEmail(ctx context.Context, id, code string, now time.Time) error
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	List(ctx context.Context) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, email, password_hash, is_admin, is_email_verified,
	              email_verification_code, email_verification_expires, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.IsEmailVerified,
		user.EmailVerificationCode,
		utcPtr(user.EmailVerificationExpires),
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	return mapUserWriteError(err)
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	return r.getBy(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

func (r *userRepository) ByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, `SELECT * FROM users WHERE username = $1`, username)
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, `SELECT * FROM users WHERE email = $1`, email)
}

func (r *userRepository) getBy(ctx context.Context, query string, arg string) (*model.User, error) {
	user := &model.User{}

	err := r.db.GetContext(ctx, user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Update writes every mutable column of user.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `UPDATE users SET
	              username = $1,
	              email = $2,
	              password_hash = $3,
	              is_admin = $4,
	              is_email_verified = $5,
	              email_verification_code = $6,
	              email_verification_expires = $7,
	              pending_new_email = $8,
	              new_email_verification_code = $9,
	              new_email_verification_expires = $10,
	              profile_photo_url = $11,
	              updated_at = $12
	          WHERE id = $13`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.IsEmailVerified,
		user.EmailVerificationCode,
		utcPtr(user.EmailVerificationExpires),
		user.PendingNewEmail,
		user.NewEmailVerificationCode,
		utcPtr(user.NewEmailVerificationExpires),
		user.ProfilePhotoURL,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return mapUserWriteError(err)
	}

	return requireRow(result, ErrUserNotFound)
}

// MarkEmailVerified clears the verification code only if it still equals code,
// so a code can be redeemed once even under concurrent requests.
func (r *userRepository) MarkEmailVerified(ctx context.Context, id, code string, now time.Time) error {
	query := `UPDATE users SET
	              is_email_verified = TRUE,
	              email_verification_code = NULL,
	              email_verification_expires = NULL,
	              updated_at = $1
	          WHERE id = $2 AND email_verification_code = $3`

	result, err := r.db.ExecContext(ctx, query, now.UTC(), id, code)
	if err != nil {
		return err
	}

	return requireRow(result, ErrCodeNotMatched)
}

// ConfirmNewEmail swaps in the pending address if code still matches.
func (r *userRepository) ConfirmNewEmail(ctx context.Context, id, code string, now time.Time) error {
	query := `UPDATE users SET
	              email = pending_new_email,
	              is_email_verified = TRUE,
	              pending_new_email = NULL,
	              new_email_verification_code = NULL,
	              new_email_verification_expires = NULL,
	              updated_at = $1
	          WHERE id = $2 AND new_email_verification_code = $3 AND pending_new_email IS NOT NULL`

	result, err := r.db.ExecContext(ctx, query, now.UTC(), id, code)
	if err != nil {
		return mapUserWriteError(err)
	}

	return requireRow(result, ErrCodeNotMatched)
}

func (r *userRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	query := `UPDATE users SET is_admin = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, isAdmin, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	return requireRow(result, ErrUserNotFound)
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	users := []*model.User{}
	query := `SELECT * FROM users ORDER BY created_at DESC, id ASC`

	err := r.db.SelectContext(ctx, &users, query)
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

func mapUserWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case uniqueViolationOn(err, "username"):
		return ErrDuplicateUsername
	case uniqueViolationOn(err, "email"):
		return ErrDuplicateEmail
	default:
		return err
	}
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
