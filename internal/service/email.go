package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/resend/resend-go/v2"
)

// Mailer delivers the account emails.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, username, code string) error
	SendEmailChangeCode(ctx context.Context, to, username, code string) error
	SendPasswordReset(ctx context.Context, to, username, token string) error
}

type EmailService struct {
	client      *resend.Client
	fromEmail   string
	isDev       bool
	appURL      string
	appName     string
	codeExpiry  time.Duration
	resetExpiry time.Duration
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool, codeExpiry, resetExpiry time.Duration) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:      client,
		fromEmail:   fromEmail,
		isDev:       isDev,
		appURL:      appURL,
		appName:     appName,
		codeExpiry:  codeExpiry,
		resetExpiry: resetExpiry,
	}
}

func (s *EmailService) SendVerificationCode(ctx context.Context, to, username, code string) error {
	subject, body := verificationCodeTemplate(username, code, humanDuration(s.codeExpiry), s.appName)
	return s.send(ctx, "email_verification", to, subject, body, "code", code)
}

func (s *EmailService) SendEmailChangeCode(ctx context.Context, to, username, code string) error {
	subject, body := emailChangeCodeTemplate(username, code, humanDuration(s.codeExpiry), s.appName)
	return s.send(ctx, "email_change", to, subject, body, "code", code)
}

func (s *EmailService) SendPasswordReset(ctx context.Context, to, username, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, url.QueryEscape(token))
	subject, body := passwordResetTemplate(username, resetURL, humanDuration(s.resetExpiry), s.appName)
	return s.send(ctx, "password_reset", to, subject, body, "url", resetURL)
}

// send logs instead of sending in development. devAttrs are only logged there.
func (s *EmailService) send(ctx context.Context, kind, to, subject, body string, devAttrs ...any) error {
	if s.isDev {
		attrs := append([]any{"type", kind, "to", to, "subject", subject}, devAttrs...)
		slog.Info("email sent (dev mode)", attrs...)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return err
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
