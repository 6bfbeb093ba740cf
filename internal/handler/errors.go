package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/templui/quizline/internal/ctxkeys"
	"github.com/templui/quizline/internal/repository"
	"github.com/templui/quizline/internal/service"
	"github.com/templui/quizline/internal/ui"
	"github.com/templui/quizline/internal/validation"
)

const maxJSONBody = 1 << 20

var errInvalidBody = errors.New("invalid JSON body")

// errorStatuses maps domain errors to HTTP statuses. The first match wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},

	{repository.ErrUserNotFound, http.StatusNotFound},
	{repository.ErrQuizNotFound, http.StatusNotFound},
	{repository.ErrResultNotFound, http.StatusNotFound},
	{repository.ErrResetTokenNotFound, http.StatusNotFound},

	{service.ErrUsernameTaken, http.StatusConflict},
	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrAlreadyVerified, http.StatusConflict},
	{service.ErrCodeExpired, http.StatusConflict},
	{service.ErrInvalidCurrentPassword, http.StatusConflict},
	{service.ErrPasswordReused, http.StatusConflict},
	{service.ErrResetTokenExpired, http.StatusConflict},

	{service.ErrInvalidCode, http.StatusBadRequest},
	{service.ErrSameEmail, http.StatusBadRequest},
	{service.ErrSameUsername, http.StatusBadRequest},
	{service.ErrNoPendingEmailChange, http.StatusBadRequest},
	{errInvalidBody, http.StatusBadRequest},

	{service.ErrMailDelivery, http.StatusBadGateway},
	{service.ErrStorageDisabled, http.StatusServiceUnavailable},
}

// unverifiedBody tells the client which address to offer a resend for.
type unverifiedBody struct {
	Message         string `json:"message"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	Email           string `json:"email"`
}

// writeError renders err with the status of the first matching domain error.
// Anything unknown is logged and reported as 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fields validation.Errors
	if errors.As(err, &fields) {
		ui.FieldErrors(w, "validation failed", fields)
		return
	}

	var unverified *service.UnverifiedError
	if errors.As(err, &unverified) {
		ui.JSON(w, http.StatusForbidden, unverifiedBody{
			Message:         "please verify your email before signing in",
			IsEmailVerified: false,
			Email:           unverified.Email,
		})
		return
	}

	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			if e.status >= http.StatusInternalServerError {
				slog.Error("request failed", "error", err, "path", r.URL.Path, "request_id", ctxkeys.RequestID(r.Context()))
			}
			ui.Error(w, e.status, e.err.Error())
			return
		}
	}

	slog.Error("unexpected error", "error", err, "method", r.Method, "path", r.URL.Path, "request_id", ctxkeys.RequestID(r.Context()))
	ui.Error(w, http.StatusInternalServerError, "internal server error")
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched so
// validation reports the missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}
