package handler

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/quizline/internal/ui"
)

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HomeHandler struct {
	static fs.FS
	db     Pinger
}

// NewHomeHandler serves the browser client from static, which must contain
// index.html at its root.
func NewHomeHandler(static fs.FS, db Pinger) *HomeHandler {
	return &HomeHandler{
		static: static,
		db:     db,
	}
}

func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, h.static, "index.html")
}

func (h *HomeHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	err := h.db.PingContext(ctx)
	if err != nil {
		slog.Error("health check failed", "error", err)
		ui.Message(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	ui.Message(w, http.StatusOK, "ok")
}

func (h *HomeHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	ui.Error(w, http.StatusNotFound, "not found")
}
