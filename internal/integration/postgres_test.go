package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/quizline/internal/cache"
	"github.com/templui/quizline/internal/db"
	"github.com/templui/quizline/internal/markdown"
	"github.com/templui/quizline/internal/repository"
	"github.com/templui/quizline/internal/service"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type codeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *codeMailer) store(to, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = value
	return nil
}

func (m *codeMailer) SendVerificationCode(_ context.Context, to, _, code string) error {
	return m.store(to, code)
}

func (m *codeMailer) SendEmailChangeCode(_ context.Context, to, _, code string) error {
	return m.store(to, code)
}

func (m *codeMailer) SendPasswordReset(_ context.Context, to, _, token string) error {
	return m.store(to, token)
}

func (m *codeMailer) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

func TestQuizFlowOnPostgresAndRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	tc.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	database := startPostgres(t, ctx)
	redisURL := startRedis(t, ctx)

	err := db.RunMigrations(ctx, database.DB, "pgx")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	client, err := cache.NewRedisClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	mailer := &codeMailer{codes: map[string]string{}}
	userRepository := repository.NewUserRepository(database)
	quizRepository := repository.NewQuizRepository(database)
	authService := service.NewAuthService(
		userRepository,
		repository.NewPasswordResetRepository(database),
		mailer,
		"integration-secret",
		time.Hour,
		10*time.Minute,
		time.Hour,
	)
	userService := service.NewUserService(userRepository, authService, mailer, 10*time.Minute)
	quizService := service.NewQuizService(
		quizRepository,
		cache.NewRedisQuizCache(client, cache.LoaderFunc(quizRepository.ByID), time.Minute),
		markdown.NewParser(),
	)
	resultService := service.NewResultService(repository.NewResultRepository(database), quizService, userRepository, quizRepository)

	register := func(username, email string) string {
		t.Helper()
		_, err := authService.Register(ctx, service.RegisterInput{Username: username, Email: email, Password: "secret1"})
		if err != nil {
			t.Fatalf("register %s: %v", username, err)
		}
		session, err := authService.VerifyEmail(ctx, email, mailer.code(email))
		if err != nil {
			t.Fatalf("verify %s: %v", username, err)
		}
		return session.User.ID
	}

	alice := register("alice", "alice@example.com")
	bob := register("bob", "bob@example.com")

	_, err = authService.Register(ctx, service.RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "secret1"})
	if !errors.Is(err, service.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	_, err = userService.SetAdmin(ctx, alice, true)
	if err != nil {
		t.Fatalf("set admin: %v", err)
	}

	quiz, err := quizService.Create(ctx, service.QuizInput{
		Title:           "Capitals",
		TimePerQuestion: 20,
		Questions: []service.QuestionInput{
			{QuestionText: "France?", Options: []string{"Paris", "Lyon"}, CorrectAnswerIndex: 0},
			{QuestionText: "Japan?", Options: []string{"Osaka", "Tokyo"}, CorrectAnswerIndex: 1},
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	// first read fills the cache, second is served from Redis
	for range 2 {
		public, err := quizService.PublicQuiz(ctx, quiz.ID)
		if err != nil || len(public.Questions) != 2 {
			t.Fatalf("public quiz: %+v %v", public, err)
		}
	}

	_, err = resultService.Submit(ctx, alice, service.SubmitInput{QuizID: quiz.ID, Answers: []int{0, 0}, TimeSpent: 30})
	if err != nil {
		t.Fatalf("alice submit: %v", err)
	}
	_, err = resultService.Submit(ctx, bob, service.SubmitInput{QuizID: quiz.ID, Answers: []int{0, 1}, TimeSpent: 50})
	if err != nil {
		t.Fatalf("bob submit: %v", err)
	}

	board, err := resultService.Leaderboard(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 || board[0].Username != "bob" || board[0].Score != 2 || board[1].Rank != 2 {
		t.Fatalf("unexpected leaderboard %+v", board)
	}

	stats, err := resultService.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsers != 2 || stats.TotalQuizzes != 1 || stats.TotalResults != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	_, err = quizService.SetActive(ctx, quiz.ID, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = quizService.PlayableQuiz(ctx, quiz.ID)
	if !errors.Is(err, repository.ErrQuizNotFound) {
		t.Fatalf("expected cached quiz to be invalidated, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) *sqlx.DB {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizline"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizline?sslmode=disable", host, port.Port())
	database, err := db.Init("pgx", dsn)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func startRedis(t *testing.T, ctx context.Context) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}
