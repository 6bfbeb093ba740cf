package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/templui/quizline/internal/model"
	"github.com/templui/quizline/internal/repository"
	"github.com/templui/quizline/internal/validation"
)

type ResetPasswordInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,password"`
}

// ForgotPassword mails a reset link. Unknown addresses succeed silently so the
// endpoint cannot be used to probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	err := validation.ValidateEmail(email)
	if err != nil {
		return validation.Errors{"email": err.Error()}
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		slog.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	// only the newest link stays valid
	err = s.resetRepository.DeleteByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("failed to clear old reset tokens: %w", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	now := s.now()
	err = s.resetRepository.Create(ctx, &model.PasswordReset{
		Email:     user.Email,
		Token:     token,
		ExpiresAt: now.Add(s.resetExpiry),
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	err = s.mailer.SendPasswordReset(ctx, user.Email, user.Username, token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	slog.Info("password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password using a single-use token. A token whose
// new password matches the old one is left in place so the user can retry.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	err := validation.Struct(input)
	if err != nil {
		return err
	}

	reset, err := s.resetRepository.ByToken(ctx, input.Token)
	if err != nil {
		return err
	}

	if reset.IsExpiredAt(s.now()) {
		_, err = s.resetRepository.Consume(ctx, input.Token)
		if err != nil && !errors.Is(err, repository.ErrResetTokenNotFound) {
			slog.Warn("failed to delete expired reset token", "error", err)
		}
		return ErrResetTokenExpired
	}

	user, err := s.userRepository.ByEmail(ctx, reset.Email)
	if err != nil {
		return err
	}

	if s.ComparePassword(input.NewPassword, user.PasswordHash) == nil {
		return ErrPasswordReused
	}

	hash, err := s.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// losing a race here surfaces as ErrResetTokenNotFound
	err = s.resetRepository.Redeem(ctx, input.Token, user.ID, hash, s.now())
	if errors.Is(err, repository.ErrResetTokenNotFound) || errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password reset", "user_id", user.ID)
	return nil
}
