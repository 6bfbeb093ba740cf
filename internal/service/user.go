package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/quizline/internal/model"
	"github.com/templui/quizline/internal/repository"
	"github.com/templui/quizline/internal/validation"
)

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
}

type ChangeUsernameInput struct {
	Username string `json:"username" validate:"required,username"`
}

type ChangeEmailInput struct {
	NewEmail string `json:"newEmail" validate:"required,mailaddr"`
}

type PhotoURLInput struct {
	PhotoURL string `json:"photoUrl" validate:"required,http_url"`
}

type UserService struct {
	userRepository repository.UserRepository
	authService    *AuthService
	mailer         Mailer
	codeExpiry     time.Duration
	now            func() time.Time
}

func NewUserService(
	userRepository repository.UserRepository,
	authService *AuthService,
	mailer Mailer,
	codeExpiry time.Duration,
) *UserService {
	return &UserService{
		userRepository: userRepository,
		authService:    authService,
		mailer:         mailer,
		codeExpiry:     codeExpiry,
		now:            time.Now,
	}
}

func (s *UserService) Profile(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepository.ByID(ctx, userID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	err := validation.Struct(input)
	if err != nil {
		return err
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	err = s.authService.ComparePassword(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return ErrInvalidCurrentPassword
	}

	if input.NewPassword == input.CurrentPassword {
		return ErrPasswordReused
	}

	hash, err := s.authService.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	err = s.userRepository.Update(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password changed", "user_id", userID)
	return nil
}

// ChangeUsername renames the user and returns a session whose token carries
// the new name.
func (s *UserService) ChangeUsername(ctx context.Context, userID string, input ChangeUsernameInput) (*Session, error) {
	input.Username = validation.NormalizeUsername(input.Username)
	err := validation.Struct(input)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Username == input.Username {
		return nil, ErrSameUsername
	}

	old := user.Username
	user.Username = input.Username
	err = s.userRepository.Update(ctx, user)
	if err != nil {
		return nil, mapDuplicate(err)
	}

	slog.Info("username changed", "user_id", userID, "old", old, "new", user.Username)
	return s.authService.IssueSession(user)
}

// UpdatePhotoURL points the profile photo at an externally hosted image.
func (s *UserService) UpdatePhotoURL(ctx context.Context, userID string, input PhotoURLInput) (*model.User, error) {
	err := validation.Struct(input)
	if err != nil {
		return nil, err
	}

	return s.setPhoto(ctx, userID, input.PhotoURL)
}

func (s *UserService) setPhoto(ctx context.Context, userID, url string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.ProfilePhotoURL = &url
	err = s.userRepository.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update photo: %w", err)
	}

	return user, nil
}

// ChangeEmail parks the new address until the code mailed to it is confirmed.
// If the mail cannot be sent the pending change is withdrawn again.
func (s *UserService) ChangeEmail(ctx context.Context, userID string, input ChangeEmailInput) error {
	input.NewEmail = validation.NormalizeEmail(input.NewEmail)
	err := validation.Struct(input)
	if err != nil {
		return err
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.Email == input.NewEmail {
		return ErrSameEmail
	}

	_, err = s.userRepository.ByEmail(ctx, input.NewEmail)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	expires := s.now().Add(s.codeExpiry)
	user.PendingNewEmail = &input.NewEmail
	user.NewEmailVerificationCode = &code
	user.NewEmailVerificationExpires = &expires

	err = s.userRepository.Update(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to store pending email: %w", err)
	}

	err = s.mailer.SendEmailChangeCode(ctx, input.NewEmail, user.Username, code)
	if err != nil {
		user.PendingNewEmail = nil
		user.NewEmailVerificationCode = nil
		user.NewEmailVerificationExpires = nil
		clearErr := s.userRepository.Update(ctx, user)
		if clearErr != nil {
			slog.Error("failed to withdraw pending email", "error", clearErr, "user_id", userID)
		}
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	slog.Info("email change requested", "user_id", userID)
	return nil
}

func (s *UserService) VerifyNewEmail(ctx context.Context, userID, code string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.HasPendingEmailChange() {
		return nil, ErrNoPendingEmailChange
	}

	err = checkCode(user.NewEmailVerificationCode, user.NewEmailVerificationExpires, code, s.now())
	if err != nil {
		return nil, err
	}

	err = s.userRepository.ConfirmNewEmail(ctx, userID, code, s.now())
	switch {
	case errors.Is(err, repository.ErrCodeNotMatched):
		return nil, ErrInvalidCode
	case errors.Is(err, repository.ErrDuplicateEmail):
		return nil, ErrEmailTaken
	case err != nil:
		return nil, fmt.Errorf("failed to confirm email: %w", err)
	}

	slog.Info("email changed", "user_id", userID)
	return s.userRepository.ByID(ctx, userID)
}

func (s *UserService) Users(ctx context.Context) ([]*model.User, error) {
	return s.userRepository.List(ctx)
}

func (s *UserService) User(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepository.ByID(ctx, userID)
}

func (s *UserService) SetAdmin(ctx context.Context, userID string, isAdmin bool) (*model.User, error) {
	err := s.userRepository.SetAdmin(ctx, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	slog.Info("admin flag changed", "user_id", userID, "is_admin", isAdmin)
	return s.userRepository.ByID(ctx, userID)
}

// SetAdminByUsername is the command line entry point for granting admin.
func (s *UserService) SetAdminByUsername(ctx context.Context, username string, isAdmin bool) (*model.User, error) {
	user, err := s.userRepository.ByUsername(ctx, validation.NormalizeUsername(username))
	if err != nil {
		return nil, err
	}

	return s.SetAdmin(ctx, user.ID, isAdmin)
}
