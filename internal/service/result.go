package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/quizline/internal/model"
	"github.com/templui/quizline/internal/repository"
	"github.com/templui/quizline/internal/validation"
	"golang.org/x/sync/errgroup"
)

type SubmitInput struct {
	QuizID    string `json:"quizId" validate:"required"`
	Answers   []int  `json:"answers"`
	TimeSpent int    `json:"timeSpent" validate:"gte=0"`
}

type ResultService struct {
	resultRepository repository.ResultRepository
	quizService      *QuizService
	userRepository   repository.UserRepository
	quizRepository   repository.QuizRepository
	now              func() time.Time
}

func NewResultService(
	resultRepository repository.ResultRepository,
	quizService *QuizService,
	userRepository repository.UserRepository,
	quizRepository repository.QuizRepository,
) *ResultService {
	return &ResultService{
		resultRepository: resultRepository,
		quizService:      quizService,
		userRepository:   userRepository,
		quizRepository:   quizRepository,
		now:              time.Now,
	}
}

// Score counts answers equal to the correct index at the same position.
// Missing answers and indexes outside the options never match.
func Score(questions []model.Question, answers []int) int {
	score := 0
	for i, question := range questions {
		if i >= len(answers) {
			break
		}
		if answers[i] == question.CorrectAnswerIndex {
			score++
		}
	}
	return score
}

// Submit scores an attempt against the quiz as it is now and stores the result.
func (s *ResultService) Submit(ctx context.Context, userID string, input SubmitInput) (*model.Result, error) {
	err := validation.Struct(input)
	if err != nil {
		return nil, err
	}

	quiz, err := s.quizService.PlayableQuiz(ctx, input.QuizID)
	if err != nil {
		return nil, err
	}

	answers := input.Answers
	if answers == nil {
		answers = []int{}
	}

	result := &model.Result{
		UserID:         userID,
		QuizID:         quiz.ID,
		Score:          Score(quiz.Questions, answers),
		TotalQuestions: len(quiz.Questions),
		TimeSpent:      input.TimeSpent,
		Answers:        model.IntList(answers),
		CreatedAt:      s.now().UTC(),
	}

	err = s.resultRepository.Create(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	slog.Info("quiz submitted",
		"user_id", userID,
		"quiz_id", quiz.ID,
		"score", result.Score,
		"total_questions", result.TotalQuestions,
	)
	return result, nil
}

func (s *ResultService) MyResults(ctx context.Context, userID string) ([]*model.ResultRow, error) {
	return s.resultRepository.ByUser(ctx, userID)
}

// Leaderboard ranks the best result per user and quiz. An empty quizID
// covers every quiz.
func (s *ResultService) Leaderboard(ctx context.Context, quizID string) ([]model.LeaderboardEntry, error) {
	rows, err := s.resultRepository.InCreationOrder(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	return BuildLeaderboard(rows), nil
}

func (s *ResultService) AllResults(ctx context.Context) ([]*model.ResultRow, error) {
	return s.resultRepository.All(ctx)
}

func (s *ResultService) Result(ctx context.Context, resultID string) (*model.ResultRow, error) {
	return s.resultRepository.ByID(ctx, resultID)
}

func (s *ResultService) Stats(ctx context.Context) (*model.Stats, error) {
	stats := &model.Stats{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalUsers, err = s.userRepository.Count(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalQuizzes, err = s.quizRepository.Count(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalResults, err = s.resultRepository.Count(ctx)
		return err
	})

	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to count: %w", err)
	}
	return stats, nil
}
