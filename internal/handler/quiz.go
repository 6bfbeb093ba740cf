package handler

import (
	"net/http"

	"github.com/templui/quizline/internal/ctxkeys"
	"github.com/templui/quizline/internal/service"
	"github.com/templui/quizline/internal/ui"
)

type QuizHandler struct {
	quizService   *service.QuizService
	resultService *service.ResultService
}

func NewQuizHandler(quizService *service.QuizService, resultService *service.ResultService) *QuizHandler {
	return &QuizHandler{
		quizService:   quizService,
		resultService: resultService,
	}
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizService.Catalog(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, quizzes)
}

func (h *QuizHandler) Show(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizService.PublicQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.QuizInput
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	quiz, err := h.quizService.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var input service.SubmitInput
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.resultService.Submit(r.Context(), user.ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusCreated, result)
}
