package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/templui/quizline/internal/cache"
	"github.com/templui/quizline/internal/db/dbtest"
	"github.com/templui/quizline/internal/markdown"
	"github.com/templui/quizline/internal/model"
	"github.com/templui/quizline/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type sentMail struct {
	kind  string
	to    string
	value string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) record(kind, to, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to, value: value})
	return nil
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, to, _, code string) error {
	return m.record("verify", to, code)
}

func (m *fakeMailer) SendEmailChangeCode(_ context.Context, to, _, code string) error {
	return m.record("change", to, code)
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, _, token string) error {
	return m.record("reset", to, token)
}

func (m *fakeMailer) fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// last returns the most recent mail of kind sent to addr.
func (m *fakeMailer) last(t *testing.T, kind, addr string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind && m.sent[i].to == addr {
			return m.sent[i].value
		}
	}
	t.Fatalf("no %s mail to %s", kind, addr)
	return ""
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

var errMailDown = errors.New("smtp down")

type testEnv struct {
	clock   *testClock
	mailer  *fakeMailer
	users   repository.UserRepository
	quizzes repository.QuizRepository
	auth    *AuthService
	user    *UserService
	quiz    *QuizService
	result  *ResultService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := dbtest.New(t)

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	mailer := &fakeMailer{}

	userRepository := repository.NewUserRepository(database)
	resetRepository := repository.NewPasswordResetRepository(database)
	quizRepository := repository.NewQuizRepository(database)
	resultRepository := repository.NewResultRepository(database)

	authService := NewAuthService(userRepository, resetRepository, mailer, "test-secret", time.Hour, 10*time.Minute, time.Hour)
	authService.bcryptCost = bcrypt.MinCost
	authService.now = clock.Now

	userService := NewUserService(userRepository, authService, mailer, 10*time.Minute)
	userService.now = clock.Now

	quizCache := cache.NewMemoryQuizCache(cache.LoaderFunc(quizRepository.ByID), time.Minute)
	quizService := NewQuizService(quizRepository, quizCache, markdown.NewParser())

	resultService := NewResultService(resultRepository, quizService, userRepository, quizRepository)
	resultService.now = clock.Now

	return &testEnv{
		clock:   clock,
		mailer:  mailer,
		users:   userRepository,
		quizzes: quizRepository,
		auth:    authService,
		user:    userService,
		quiz:    quizService,
		result:  resultService,
	}
}

// verifiedUser registers and verifies an account with password "secret1".
func (e *testEnv) verifiedUser(t *testing.T, username string) *model.User {
	t.Helper()
	ctx := context.Background()
	email := username + "@example.com"

	_, err := e.auth.Register(ctx, RegisterInput{Username: username, Email: email, Password: "secret1"})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	session, err := e.auth.VerifyEmail(ctx, email, e.mailer.last(t, "verify", email))
	if err != nil {
		t.Fatalf("verify %s: %v", username, err)
	}
	return session.User
}

func (e *testEnv) createQuiz(t *testing.T, correct ...int) *model.Quiz {
	t.Helper()
	input := QuizInput{
		Title:           "General knowledge",
		Description:     "Answer **quickly**.",
		TimePerQuestion: 20,
	}
	for _, c := range correct {
		input.Questions = append(input.Questions, QuestionInput{
			QuestionText:       "Pick one",
			Options:            []string{"a", "b", "c"},
			CorrectAnswerIndex: c,
		})
	}
	quiz, err := e.quiz.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz
}
