package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/templui/quizline/internal/model"
	"github.com/templui/quizline/internal/repository"
	"github.com/templui/quizline/internal/validation"
)

func TestRegisterVerifyLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, RegisterInput{Username: " alice ", Email: "Alice@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !registered.VerificationEmailSent || registered.User.IsEmailVerified {
		t.Fatalf("unexpected register result %+v", registered)
	}
	if registered.User.Username != "alice" || registered.User.Email != "alice@example.com" {
		t.Fatalf("expected normalized identity, got %q %q", registered.User.Username, registered.User.Email)
	}

	_, err = env.auth.Login(ctx, "alice", "secret1")
	var unverified *UnverifiedError
	if !errors.As(err, &unverified) || unverified.Email != "alice@example.com" {
		t.Fatalf("expected unverified error, got %v", err)
	}
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected error to match ErrEmailNotVerified")
	}

	_, err = env.auth.VerifyEmail(ctx, "alice@example.com", "WRONG123")
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected invalid code, got %v", err)
	}

	code := env.mailer.last(t, "verify", "alice@example.com")
	if len(code) != 8 {
		t.Fatalf("expected 8 character code, got %q", code)
	}
	session, err := env.auth.VerifyEmail(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !session.User.IsEmailVerified || session.AccessToken == "" {
		t.Fatalf("expected verified session, got %+v", session)
	}

	_, err = env.auth.VerifyEmail(ctx, "alice@example.com", code)
	if !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected code to be single use, got %v", err)
	}

	_, err = env.auth.Login(ctx, "alice", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	_, err = env.auth.Login(ctx, "nobody", "secret1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}

	session, err = env.auth.Login(ctx, "alice", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	user, err := env.auth.Authenticate(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != registered.User.ID {
		t.Fatalf("token resolved to %s, want %s", user.ID, registered.User.ID)
	}
}

func TestRegisterDuplicateLeavesNoRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.verifiedUser(t, "alice")

	_, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "new@example.com", Password: "secret1"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
	_, err = env.auth.Register(ctx, RegisterInput{Username: "bob", Email: "alice@example.com", Password: "secret1"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}

	count, err := env.users.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 user, got %d", count)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), RegisterInput{Username: "al", Email: "nope", Password: "123"})
	var fields validation.Errors
	if !errors.As(err, &fields) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected three field errors, got %v", fields)
	}
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mailer.fail(errMailDown)

	registered, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.VerificationEmailSent {
		t.Fatalf("expected verificationEmailSent=false")
	}

	err = env.auth.ResendVerification(ctx, "alice@example.com")
	if !errors.Is(err, ErrMailDelivery) {
		t.Fatalf("expected mail delivery error, got %v", err)
	}

	env.mailer.fail(nil)
	err = env.auth.ResendVerification(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	_, err = env.auth.VerifyEmail(ctx, "alice@example.com", env.mailer.last(t, "verify", "alice@example.com"))
	if err != nil {
		t.Fatalf("verify after resend: %v", err)
	}
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	code := env.mailer.last(t, "verify", "alice@example.com")

	env.clock.Advance(11 * time.Minute)
	_, err = env.auth.VerifyEmail(ctx, "alice@example.com", code)
	if !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected expired code, got %v", err)
	}

	err = env.auth.ResendVerification(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	fresh := env.mailer.last(t, "verify", "alice@example.com")
	_, err = env.auth.VerifyEmail(ctx, "alice@example.com", fresh)
	if err != nil {
		t.Fatalf("verify fresh code: %v", err)
	}
}

func TestVerifyEmailUnknownAddress(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.VerifyEmail(context.Background(), "ghost@example.com", "ABCDEFGH")
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResendVerificationForVerifiedUser(t *testing.T) {
	env := newTestEnv(t)
	env.verifiedUser(t, "alice")

	err := env.auth.ResendVerification(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected already verified, got %v", err)
	}
}

func TestJWTExpiresAndCarriesClaims(t *testing.T) {
	env := newTestEnv(t)
	user := &model.User{ID: "u1", Username: "alice"}

	token, err := env.auth.GenerateJWT(user)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims["sub"] != "u1" || claims["username"] != "alice" {
		t.Fatalf("unexpected claims %v", claims)
	}

	subject, err := env.auth.VerifyJWT(token)
	if err != nil || subject != "u1" {
		t.Fatalf("verify = %q, %v", subject, err)
	}

	env.clock.Advance(61 * time.Minute)
	_, err = env.auth.VerifyJWT(token)
	if err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyJWTRejectsForeignTokens(t *testing.T) {
	env := newTestEnv(t)
	exp := env.clock.Now().Add(time.Hour).Unix()

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": exp})
	signed, err := other.SignedString([]byte("another-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, err = env.auth.VerifyJWT(signed)
	if err == nil {
		t.Fatalf("expected token with other secret to fail")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "exp": exp})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	_, err = env.auth.VerifyJWT(unsigned)
	if err == nil {
		t.Fatalf("expected alg=none token to fail")
	}

	_, err = env.auth.Authenticate(context.Background(), "not-a-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestGeneratedCodesUseAlphabet(t *testing.T) {
	for range 50 {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 8 || strings.Trim(code, "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789") != "" {
			t.Fatalf("unexpected code %q", code)
		}
	}

	token, err := generateResetToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(token))
	}
}
