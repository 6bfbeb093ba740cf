package handler

import (
	"net/http"

	"github.com/templui/quizline/internal/ctxkeys"
	"github.com/templui/quizline/internal/service"
	"github.com/templui/quizline/internal/ui"
)

type ResultHandler struct {
	resultService *service.ResultService
}

func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
	}
}

func (h *ResultHandler) MyResults(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	results, err := h.resultService.MyResults(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, results)
}

// Leaderboard covers one quiz when ?quizId= is given, every quiz otherwise.
func (h *ResultHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.resultService.Leaderboard(r.Context(), r.URL.Query().Get("quizId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, entries)
}
