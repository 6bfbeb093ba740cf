package routes

import (
	"io/fs"
	"net/http"

	"github.com/templui/quizline"
	"github.com/templui/quizline/internal/app"
	"github.com/templui/quizline/internal/handler"
	"github.com/templui/quizline/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	static, err := fs.Sub(quizline.StaticFS, "web/static")
	if err != nil {
		panic(err) // embedded path is fixed at build time
	}

	// Handlers
	home := handler.NewHomeHandler(static, app.DB)
	auth := handler.NewAuthHandler(app.AuthService)
	account := handler.NewAccountHandler(app.UserService, app.PhotoService)
	quiz := handler.NewQuizHandler(app.QuizService, app.ResultService)
	result := handler.NewResultHandler(app.ResultService)
	admin := handler.NewAdminHandler(app.QuizService, app.UserService, app.ResultService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Browser client
	mux.HandleFunc("GET /{$}", home.HomePage)
	mux.HandleFunc("GET /reset-password", home.HomePage)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	mux.HandleFunc("GET /healthz", home.Health)

	// Auth - unauthenticated flows (rate limited, one budget per client IP)
	rateLimiter := middleware.RateLimitAuth(app.Cfg.RateLimitEnabled)

	mux.HandleFunc("POST /auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /auth/verify-email", rateLimiter(auth.VerifyEmail))
	mux.HandleFunc("POST /auth/resend-verification", rateLimiter(auth.ResendVerification))
	mux.HandleFunc("POST /auth/forgot-password", rateLimiter(auth.ForgotPassword))
	mux.HandleFunc("POST /auth/reset-password", rateLimiter(auth.ResetPassword))

	// Quiz catalog
	mux.HandleFunc("GET /quiz", quiz.List)

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	// Account
	mux.HandleFunc("GET /auth/profile", middleware.RequireAuth(account.Profile))
	mux.HandleFunc("POST /auth/change-password", middleware.RequireAuth(account.ChangePassword))
	mux.HandleFunc("PUT /auth/profile/username", middleware.RequireAuth(account.ChangeUsername))
	mux.HandleFunc("PUT /auth/profile/photo", middleware.RequireAuth(account.UpdatePhoto))
	mux.HandleFunc("POST /auth/change-email", middleware.RequireAuth(account.ChangeEmail))
	mux.HandleFunc("POST /auth/verify-new-email", middleware.RequireAuth(account.VerifyNewEmail))

	// Playing
	mux.HandleFunc("GET /quiz/{id}", middleware.RequireAuth(quiz.Show))
	mux.HandleFunc("POST /quiz/submit", middleware.RequireAuth(quiz.Submit))
	mux.HandleFunc("GET /results/my-results", middleware.RequireAuth(result.MyResults))
	mux.HandleFunc("GET /results/leaderboard", middleware.RequireAuth(result.Leaderboard))

	// ============================================================================
	// ADMIN ROUTES
	// ============================================================================

	mux.HandleFunc("POST /quiz", middleware.RequireAdmin(quiz.Create))
	mux.HandleFunc("POST /admin/quiz", middleware.RequireAdmin(quiz.Create))
	mux.HandleFunc("GET /admin/quizzes", middleware.RequireAdmin(admin.Quizzes))
	mux.HandleFunc("GET /admin/quiz/{id}", middleware.RequireAdmin(admin.Quiz))
	mux.HandleFunc("PUT /admin/quiz/{id}/active", middleware.RequireAdmin(admin.SetQuizActive))
	mux.HandleFunc("DELETE /admin/quiz/{id}", middleware.RequireAdmin(admin.DeleteQuiz))
	mux.HandleFunc("GET /admin/users", middleware.RequireAdmin(admin.Users))
	mux.HandleFunc("GET /admin/users/{id}", middleware.RequireAdmin(admin.User))
	mux.HandleFunc("PUT /admin/users/{id}/admin", middleware.RequireAdmin(admin.SetUserAdmin))
	mux.HandleFunc("GET /admin/results", middleware.RequireAdmin(admin.Results))
	mux.HandleFunc("GET /admin/results/{id}", middleware.RequireAdmin(admin.Result))
	mux.HandleFunc("GET /admin/stats", middleware.RequireAdmin(admin.Stats))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/", home.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.AuthService),
	)

	return handler
}
