package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/quizline/internal/db/dbtest"
	"github.com/templui/quizline/internal/model"
)

func newUser(id, username, email string) *model.User {
	now := time.Now().UTC()
	return &model.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func sampleQuiz(title string) *model.Quiz {
	return &model.Quiz{
		Title:           title,
		Description:     "A *short* quiz",
		TimePerQuestion: 15,
		IsActive:        true,
		Questions: []model.Question{
			{QuestionText: "2+2?", Options: model.StringList{"3", "4"}, CorrectAnswerIndex: 1},
			{QuestionText: "Capital of Italy?", Options: model.StringList{"Rome", "Milan", "Turin"}, CorrectAnswerIndex: 0},
		},
	}
}

func mustCreateUser(t *testing.T, database *sqlx.DB, id, username, email string) *model.User {
	t.Helper()
	user := newUser(id, username, email)
	err := NewUserRepository(database).Create(context.Background(), user)
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func TestUserRepositoryDuplicates(t *testing.T) {
	ctx := context.Background()
	database := dbtest.New(t)
	repo := NewUserRepository(database)

	mustCreateUser(t, database, "u1", "alice", "alice@example.com")

	err := repo.Create(ctx, newUser("u2", "alice", "other@example.com"))
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
	err = repo.Create(ctx, newUser("u3", "bob", "alice@example.com"))
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected no extra rows after conflicts, got %d", count)
	}
}

func TestUserRepositoryLookups(t *testing.T) {
	ctx := context.Background()
	database := dbtest.New(t)
	repo := NewUserRepository(database)
	mustCreateUser(t, database, "u1", "alice", "alice@example.com")

	byName, err := repo.ByUsername(ctx, "alice")
	if err != nil || byName.ID != "u1" {
		t.Fatalf("by username: %v %+v", err, byName)
	}
	byEmail, err := repo.ByEmail(ctx, "alice@example.com")
	if err != nil || byEmail.ID != "u1" {
		t.Fatalf("by email: %v %+v", err, byEmail)
	}
	_, err = repo.ByID(ctx, "missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkEmailVerifiedIsOneShot(t *testing.T) {
	ctx := context.Background()
	database := dbtest.New(t)
	repo := NewUserRepository(database)

	code := "ABCD1234"
	expires := time.Now().Add(10 * time.Minute)
	user := newUser("u1", "alice", "alice@example.com")
	user.EmailVerificationCode = &code
	user.EmailVerificationExpires = &expires
	err := repo.Create(ctx, user)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = repo.MarkEmailVerified(ctx, "u1", "WRONG000", time.Now())
	if !errors.Is(err, ErrCodeNotMatched) {
		t.Fatalf("expected mismatch, got %v", err)
	}

	err = repo.MarkEmailVerified(ctx, "u1", code, time.Now())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	err = repo.MarkEmailVerified(ctx, "u1", code, time.Now())
	if !errors.Is(err, ErrCodeNotMatched) {
		t.Fatalf("expected second use to fail, got %v", err)
	}

	got, err := repo.ByID(ctx, "u1")
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if !got.IsEmailVerified || got.EmailVerificationCode != nil || got.EmailVerificationExpires != nil {
		t.Fatalf("expected verified with cleared code, got %+v", got)
	}
}

func TestConfirmNewEmailSwapsAddress(t *testing.T) {
	ctx := context.Background()
	database := dbtest.New(t)
	repo := NewUserRepository(database)
	user := mustCreateUser(t, database, "u1", "alice", "alice@example.com")
	mustCreateUser(t, database, "u2", "bob", "bob@example.com")

	pending := "bob@example.com"
	code := "NEWCODE1"
	expires := time.Now().Add(time.Minute)
	user.PendingNewEmail = &pending
	user.NewEmailVerificationCode = &code
	user.NewEmailVerificationExpires = &expires
	err := repo.Update(ctx, user)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	err = repo.ConfirmNewEmail(ctx, "u1", code, time.Now())
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	pending = "alice@new.example.com"
	user.PendingNewEmail = &pending
	err = repo.Update(ctx, user)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	err = repo.ConfirmNewEmail(ctx, "u1", code, time.Now())
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	got, _ := repo.ByID(ctx, "u1")
	if got.Email != "alice@new.example.com" || got.PendingNewEmail != nil || got.NewEmailVerificationCode != nil {
		t.Fatalf("unexpected user after confirm: %+v", got)
	}
}

func TestUserRepositoryAdminAndList(t *testing.T) {
	ctx := context.Background()
	database := dbtest.New(t)
	repo := NewUserRepository(database)
	mustCreateUser(t, database, "u1", "alice", "alice@example.com")

	err := repo.SetAdmin(ctx, "u1", true)
	if err != nil {
		t.Fatalf("set admin: %v", err)
	}
	err = repo.SetAdmin(ctx, "missing", true)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 || !users[0].IsAdmin {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestPasswordResetConsumeOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewPasswordResetRepository(dbtest.New(t))

	reset := &model.PasswordReset{
		Email:     "alice@example.com",
		Token:     "tok-1",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	err := repo.Create(ctx, reset)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	peeked, err := repo.ByToken(ctx, "tok-1")
	if err != nil || peeked.Email != "alice@example.com" {
		t.Fatalf("by token: %v %+v", err, peeked)
	}

	consumed, err := repo.Consume(ctx, "tok-1")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if consumed.Email != "alice@example.com" {
		t.Fatalf("unexpected reset %+v", consumed)
	}

	_, err = repo.Consume(ctx, "tok-1")
	if !errors.Is(err, ErrResetTokenNotFound) {
		t.Fatalf("expected second consume to fail, got %v", err)
	}
}

func TestPasswordResetRedeem(t *testing.T) {
	ctx := context.Background()
	database := dbtest.New(t)
	users := NewUserRepository(database)
	repo := NewPasswordResetRepository(database)
	mustCreateUser(t, database, "u1", "alice", "alice@example.com")

	for _, token := range []string{"tok-1", "tok-2"} {
		err := repo.Create(ctx, &model.PasswordReset{Email: "alice@example.com", Token: token, ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now()})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	err := repo.Redeem(ctx, "tok-1", "missing-user", "new-hash", time.Now())
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	_, err = repo.ByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("token must survive a failed password update: %v", err)
	}

	err = repo.Redeem(ctx, "tok-1", "u1", "new-hash", time.Now())
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	user, err := users.ByID(ctx, "u1")
	if err != nil || user.PasswordHash != "new-hash" {
		t.Fatalf("expected new hash, got %v %+v", err, user)
	}

	err = repo.Redeem(ctx, "tok-1", "u1", "other-hash", time.Now())
	if !errors.Is(err, ErrResetTokenNotFound) {
		t.Fatalf("expected second redeem to fail, got %v", err)
	}
	user, _ = users.ByID(ctx, "u1")
	if user.PasswordHash != "new-hash" {
		t.Fatalf("failed redeem changed the password")
	}
}

func TestPasswordResetDeleteByEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewPasswordResetRepository(dbtest.New(t))

	for _, token := range []string{"a", "b"} {
		err := repo.Create(ctx, &model.PasswordReset{Email: "x@example.com", Token: token, ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now()})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	err := repo.DeleteByEmail(ctx, "x@example.com")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = repo.ByToken(ctx, "a")
	if !errors.Is(err, ErrResetTokenNotFound) {
		t.Fatalf("expected token a gone, got %v", err)
	}
}

func TestQuizRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewQuizRepository(dbtest.New(t))

	quiz := sampleQuiz("Basics")
	err := repo.Create(ctx, quiz)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.ByID(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if len(got.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got.Questions))
	}
	if got.Questions[0].QuestionText != "2+2?" || got.Questions[1].Options[2] != "Turin" {
		t.Fatalf("questions out of order: %+v", got.Questions)
	}
	if got.Questions[0].CorrectAnswerIndex != 1 {
		t.Fatalf("expected answer key kept, got %d", got.Questions[0].CorrectAnswerIndex)
	}
}

func TestQuizRepositorySummariesAndActive(t *testing.T) {
	ctx := context.Background()
	repo := NewQuizRepository(dbtest.New(t))

	active := sampleQuiz("Active")
	hidden := sampleQuiz("Hidden")
	for _, q := range []*model.Quiz{active, hidden} {
		err := repo.Create(ctx, q)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	err := repo.SetActive(ctx, hidden.ID, false)
	if err != nil {
		t.Fatalf("set active: %v", err)
	}

	summaries, err := repo.Summaries(ctx, true)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != active.ID || summaries[0].QuestionCount != 2 {
		t.Fatalf("unexpected summaries %+v", summaries)
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected inactive quiz in full list, got %d", len(all))
	}
}

func TestQuizDeleteKeepsResults(t *testing.T) {
	ctx := context.Background()
	database := dbtest.New(t)
	quizzes := NewQuizRepository(database)
	results := NewResultRepository(database)
	mustCreateUser(t, database, "u1", "alice", "alice@example.com")

	quiz := sampleQuiz("Doomed")
	err := quizzes.Create(ctx, quiz)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	err = results.Create(ctx, &model.Result{UserID: "u1", QuizID: quiz.ID, Score: 1, TotalQuestions: 2, Answers: model.IntList{1, 1}, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("create result: %v", err)
	}

	err = quizzes.Delete(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = quizzes.ByID(ctx, quiz.ID)
	if !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("expected quiz gone, got %v", err)
	}
	err = quizzes.Delete(ctx, quiz.ID)
	if !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("expected second delete not found, got %v", err)
	}

	var orphaned int
	err = database.Get(&orphaned, `SELECT COUNT(*) FROM questions WHERE quiz_id = $1`, quiz.ID)
	if err != nil || orphaned != 0 {
		t.Fatalf("expected questions removed, got %d (%v)", orphaned, err)
	}

	rows, err := results.ByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("by user: %v", err)
	}
	if len(rows) != 1 || rows[0].QuizTitle != "" || rows[0].Username != "alice" {
		t.Fatalf("expected surviving result with empty title, got %+v", rows)
	}
}

func TestResultRepositoryOrdering(t *testing.T) {
	ctx := context.Background()
	database := dbtest.New(t)
	results := NewResultRepository(database)
	mustCreateUser(t, database, "u1", "alice", "alice@example.com")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, quizID := range []string{"q1", "q2", "q1"} {
		err := results.Create(ctx, &model.Result{
			UserID:         "u1",
			QuizID:         quizID,
			Score:          i,
			TotalQuestions: 3,
			TimeSpent:      10,
			Answers:        model.IntList{},
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	asc, err := results.InCreationOrder(ctx, "")
	if err != nil {
		t.Fatalf("in creation order: %v", err)
	}
	if len(asc) != 3 || asc[0].Score != 0 || asc[2].Score != 2 {
		t.Fatalf("expected oldest first, got %+v", asc)
	}

	filtered, err := results.InCreationOrder(ctx, "q1")
	if err != nil {
		t.Fatalf("filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 results for q1, got %d", len(filtered))
	}

	mine, err := results.ByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("by user: %v", err)
	}
	if mine[0].Score != 2 {
		t.Fatalf("expected newest first, got %+v", mine[0])
	}

	got, err := results.ByID(ctx, mine[0].ID)
	if err != nil || got.Answers == nil {
		t.Fatalf("by id: %v %+v", err, got)
	}
	_, err = results.ByID(ctx, "missing")
	if !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
