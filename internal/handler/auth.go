package handler

import (
	"net/http"

	"github.com/templui/quizline/internal/service"
	"github.com/templui/quizline/internal/ui"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type registerResponse struct {
	Message string `json:"message"`
	*service.RegisterResult
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.authService.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	message := "Registration successful. Check your email for the verification code."
	if !result.VerificationEmailSent {
		message = "Registration successful, but the verification email could not be sent. Request a new code."
	}
	ui.JSON(w, http.StatusCreated, registerResponse{Message: message, RegisterResult: result})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input credentialsRequest
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.authService.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, session)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var input verifyEmailRequest
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.authService.VerifyEmail(r.Context(), input.Email, input.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, session)
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var input emailRequest
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.authService.ResendVerification(r.Context(), input.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.Message(w, http.StatusOK, "A new verification code has been sent.")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input emailRequest
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.authService.ForgotPassword(r.Context(), input.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.Message(w, http.StatusOK, "If an account exists for that email, a reset link has been sent.")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input service.ResetPasswordInput
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.authService.ResetPassword(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.Message(w, http.StatusOK, "Your password has been reset. You can sign in now.")
}
