package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/templui/quizline/internal/model"
	"github.com/templui/quizline/internal/repository"
	"github.com/templui/quizline/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// Session is what a client needs after signing in.
type Session struct {
	AccessToken string      `json:"access_token"`
	User        *model.User `json:"user"`
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,mailaddr"`
	Password string `json:"password" validate:"required,password"`
}

type RegisterResult struct {
	User                  *model.User `json:"user"`
	VerificationEmailSent bool        `json:"verificationEmailSent"`
}

type AuthService struct {
	userRepository  repository.UserRepository
	resetRepository repository.PasswordResetRepository
	mailer          Mailer
	jwtSecret       string
	jwtExpiry       time.Duration
	codeExpiry      time.Duration
	resetExpiry     time.Duration
	bcryptCost      int
	now             func() time.Time
}

func NewAuthService(
	userRepository repository.UserRepository,
	resetRepository repository.PasswordResetRepository,
	mailer Mailer,
	jwtSecret string,
	jwtExpiry time.Duration,
	codeExpiry time.Duration,
	resetExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:  userRepository,
		resetRepository: resetRepository,
		mailer:          mailer,
		jwtSecret:       jwtSecret,
		jwtExpiry:       jwtExpiry,
		codeExpiry:      codeExpiry,
		resetExpiry:     resetExpiry,
		bcryptCost:      bcrypt.DefaultCost,
		now:             time.Now,
	}
}

// Register creates an unverified account and mails it a verification code.
// A failed send does not undo the registration: the code can be resent.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	input.Username = validation.NormalizeUsername(input.Username)
	input.Email = validation.NormalizeEmail(input.Email)

	err := validation.Struct(input)
	if err != nil {
		return nil, err
	}

	_, err = s.userRepository.ByUsername(ctx, input.Username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	_, err = s.userRepository.ByEmail(ctx, input.Email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	now := s.now()
	expires := now.Add(s.codeExpiry)
	user := &model.User{
		ID:                       uuid.New().String(),
		Username:                 input.Username,
		Email:                    input.Email,
		PasswordHash:             hash,
		EmailVerificationCode:    &code,
		EmailVerificationExpires: &expires,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	// the unique constraints still guard against concurrent registrations
	err = s.userRepository.Create(ctx, user)
	if err != nil {
		return nil, mapDuplicate(err)
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)

	sent := true
	err = s.mailer.SendVerificationCode(ctx, user.Email, user.Username, code)
	if err != nil {
		sent = false
		slog.Warn("failed to send verification email", "error", err, "user_id", user.ID)
	}

	return &RegisterResult{User: user, VerificationEmailSent: sent}, nil
}

// VerifyEmail redeems a verification code and signs the user in.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*Session, error) {
	user, err := s.userRepository.ByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	if user.IsEmailVerified {
		return nil, ErrAlreadyVerified
	}

	err = checkCode(user.EmailVerificationCode, user.EmailVerificationExpires, code, s.now())
	if err != nil {
		return nil, err
	}

	err = s.userRepository.MarkEmailVerified(ctx, user.ID, code, s.now())
	if errors.Is(err, repository.ErrCodeNotMatched) {
		// a concurrent request redeemed it first
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify email: %w", err)
	}

	user, err = s.userRepository.ByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	slog.Info("email verified", "user_id", user.ID)
	return s.IssueSession(user)
}

// ResendVerification replaces the pending code with a fresh one.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepository.ByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return err
	}

	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	expires := s.now().Add(s.codeExpiry)
	user.EmailVerificationCode = &code
	user.EmailVerificationExpires = &expires

	err = s.userRepository.Update(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	err = s.mailer.SendVerificationCode(ctx, user.Email, user.Username, code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	return nil
}

// Login checks credentials. Accounts that have not verified their email are
// refused with an *UnverifiedError and no token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.userRepository.ByUsername(ctx, validation.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return nil, &UnverifiedError{Email: user.Email}
	}

	slog.Info("user logged in", "user_id", user.ID)
	return s.IssueSession(user)
}

// Authenticate resolves a bearer token to the current user record.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.VerifyJWT(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthService) IssueSession(user *model.User) (*Session, error) {
	token, err := s.GenerateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{AccessToken: token, User: user}, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"exp":      now.Add(s.jwtExpiry).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyJWT validates signature and expiry and returns the subject.
func (s *AuthService) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(s.jwtSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return subject, nil
}

// checkCode compares a submitted code against the stored one. A mismatch is
// reported before expiry so that guessing never learns whether a code is live.
func checkCode(stored *string, expires *time.Time, submitted string, now time.Time) error {
	if stored == nil || expires == nil || submitted != *stored {
		return ErrInvalidCode
	}
	if now.After(*expires) {
		return ErrCodeExpired
	}
	return nil
}

func mapDuplicate(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateUsername):
		return ErrUsernameTaken
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	default:
		return err
	}
}
