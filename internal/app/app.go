package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/templui/quizline/internal/cache"
	"github.com/templui/quizline/internal/config"
	"github.com/templui/quizline/internal/db"
	"github.com/templui/quizline/internal/markdown"
	"github.com/templui/quizline/internal/repository"
	"github.com/templui/quizline/internal/service"
	"github.com/templui/quizline/internal/storage"
)

type App struct {
	Cfg           *config.Config
	DB            *sqlx.DB
	Redis         *redis.Client // nil without REDIS_URL
	AuthService   *service.AuthService
	UserService   *service.UserService
	PhotoService  *service.PhotoService
	QuizService   *service.QuizService
	ResultService *service.ResultService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &App{Cfg: cfg, DB: database}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	resetRepository := repository.NewPasswordResetRepository(database)
	quizRepository := repository.NewQuizRepository(database)
	resultRepository := repository.NewResultRepository(database)

	// Storage
	photoStorage, err := storage.New(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Quiz cache
	quizCache, err := a.newQuizCache(ctx, cache.LoaderFunc(quizRepository.ByID))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
		cfg.CodeExpiry,
		cfg.PasswordResetExpiry,
	)
	a.AuthService = service.NewAuthService(
		userRepository,
		resetRepository,
		emailService,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.CodeExpiry,
		cfg.PasswordResetExpiry,
	)
	a.UserService = service.NewUserService(userRepository, a.AuthService, emailService, cfg.CodeExpiry)
	a.PhotoService = service.NewPhotoService(a.UserService, photoStorage)
	a.QuizService = service.NewQuizService(quizRepository, quizCache, markdown.NewParser())
	a.ResultService = service.NewResultService(resultRepository, a.QuizService, userRepository, quizRepository)

	return a, nil
}

// newQuizCache uses Redis when configured and an in-process cache otherwise.
func (a *App) newQuizCache(ctx context.Context, loader cache.QuizLoader) (cache.QuizCache, error) {
	if a.Cfg.RedisURL == "" {
		slog.Info("quiz cache in memory", "ttl", a.Cfg.QuizCacheTTL)
		return cache.NewMemoryQuizCache(loader, a.Cfg.QuizCacheTTL), nil
	}

	client, err := cache.NewRedisClient(ctx, a.Cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	a.Redis = client

	slog.Info("quiz cache in redis", "ttl", a.Cfg.QuizCacheTTL)
	return cache.NewRedisQuizCache(client, loader, a.Cfg.QuizCacheTTL), nil
}

func (a *App) Close() error {
	if a.Redis != nil {
		err := a.Redis.Close()
		if err != nil {
			slog.Error("failed to close redis", "error", err)
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
