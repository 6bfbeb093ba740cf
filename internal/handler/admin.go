package handler

import (
	"net/http"

	"github.com/templui/quizline/internal/service"
	"github.com/templui/quizline/internal/ui"
)

type AdminHandler struct {
	quizService   *service.QuizService
	userService   *service.UserService
	resultService *service.ResultService
}

func NewAdminHandler(quizService *service.QuizService, userService *service.UserService, resultService *service.ResultService) *AdminHandler {
	return &AdminHandler{
		quizService:   quizService,
		userService:   userService,
		resultService: resultService,
	}
}

type activeRequest struct {
	IsActive *bool `json:"isActive"`
}

type adminRequest struct {
	IsAdmin *bool `json:"isAdmin"`
}

func (h *AdminHandler) Quizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizService.AdminQuizzes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, quizzes)
}

func (h *AdminHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizService.AdminQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, quiz)
}

func (h *AdminHandler) SetQuizActive(w http.ResponseWriter, r *http.Request) {
	var input activeRequest
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if input.IsActive == nil {
		ui.FieldErrors(w, "validation failed", map[string]string{"isActive": "is required"})
		return
	}

	quiz, err := h.quizService.SetActive(r.Context(), r.PathValue("id"), *input.IsActive)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, quiz)
}

func (h *AdminHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	err := h.quizService.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.Message(w, http.StatusOK, "Quiz deleted.")
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.Users(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, users)
}

func (h *AdminHandler) User(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.User(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, user)
}

func (h *AdminHandler) SetUserAdmin(w http.ResponseWriter, r *http.Request) {
	var input adminRequest
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if input.IsAdmin == nil {
		ui.FieldErrors(w, "validation failed", map[string]string{"isAdmin": "is required"})
		return
	}

	user, err := h.userService.SetAdmin(r.Context(), r.PathValue("id"), *input.IsAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, user)
}

func (h *AdminHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.resultService.AllResults(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, results)
}

func (h *AdminHandler) Result(w http.ResponseWriter, r *http.Request) {
	result, err := h.resultService.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, result)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.resultService.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, stats)
}
