package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/templui/quizline/internal/cache"
	"github.com/templui/quizline/internal/markdown"
	"github.com/templui/quizline/internal/model"
	"github.com/templui/quizline/internal/repository"
	"github.com/templui/quizline/internal/validation"
)

type QuestionInput struct {
	QuestionText       string   `json:"questionText" yaml:"questionText" validate:"required,max=1000"`
	Options            []string `json:"options" yaml:"options" validate:"min=2,max=6,dive,required,max=500"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex" yaml:"correctAnswerIndex" validate:"gte=0"`
}

type QuizInput struct {
	Title           string          `json:"title" yaml:"title" validate:"required,max=200"`
	Description     string          `json:"description" yaml:"description" validate:"max=10000"`
	TimePerQuestion int             `json:"timePerQuestion" yaml:"timePerQuestion" validate:"gte=5,lte=60"`
	IsActive        *bool           `json:"isActive,omitempty" yaml:"isActive,omitempty"`
	Questions       []QuestionInput `json:"questions" yaml:"questions" validate:"min=1,dive"`
}

type QuizService struct {
	quizRepository repository.QuizRepository
	quizCache      cache.QuizCache
	parser         *markdown.Parser
}

func NewQuizService(quizRepository repository.QuizRepository, quizCache cache.QuizCache, parser *markdown.Parser) *QuizService {
	return &QuizService{
		quizRepository: quizRepository,
		quizCache:      quizCache,
		parser:         parser,
	}
}

// Catalog lists active quizzes without their questions.
func (s *QuizService) Catalog(ctx context.Context) ([]*model.QuizSummary, error) {
	return s.quizRepository.Summaries(ctx, true)
}

// PlayableQuiz returns an active quiz through the cache. Inactive quizzes are
// reported as not found.
func (s *QuizService) PlayableQuiz(ctx context.Context, quizID string) (*model.Quiz, error) {
	quiz, err := s.quizCache.Quiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, repository.ErrQuizNotFound
	}
	return quiz, nil
}

// PublicQuiz is the player's view: answers stripped, description rendered.
func (s *QuizService) PublicQuiz(ctx context.Context, quizID string) (*model.PublicQuiz, error) {
	quiz, err := s.PlayableQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	public := quiz.Public()
	html, err := s.parser.Render(quiz.Description)
	if err != nil {
		slog.Warn("failed to render quiz description", "error", err, "quiz_id", quizID)
	} else {
		public.DescriptionHTML = html
	}

	return &public, nil
}

// Create stores a new quiz. Quizzes are active unless the input says otherwise.
func (s *QuizService) Create(ctx context.Context, input QuizInput) (*model.Quiz, error) {
	input.Title = strings.TrimSpace(input.Title)
	err := validation.Struct(input)
	if err != nil {
		return nil, err
	}

	fields := validation.Errors{}
	for i, q := range input.Questions {
		if q.CorrectAnswerIndex >= len(q.Options) {
			fields[fmt.Sprintf("questions[%d].correctAnswerIndex", i)] = "must be an index into options"
		}
	}
	if len(fields) > 0 {
		return nil, fields
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	quiz := &model.Quiz{
		Title:           input.Title,
		Description:     input.Description,
		TimePerQuestion: input.TimePerQuestion,
		IsActive:        active,
		Questions:       make([]model.Question, 0, len(input.Questions)),
	}
	for _, q := range input.Questions {
		quiz.Questions = append(quiz.Questions, model.Question{
			QuestionText:       strings.TrimSpace(q.QuestionText),
			Options:            model.StringList(q.Options),
			CorrectAnswerIndex: q.CorrectAnswerIndex,
		})
	}

	err = s.quizRepository.Create(ctx, quiz)
	if err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	slog.Info("quiz created", "quiz_id", quiz.ID, "questions", len(quiz.Questions))
	return quiz, nil
}

// AdminQuizzes returns every quiz, inactive ones and answers included.
func (s *QuizService) AdminQuizzes(ctx context.Context) ([]*model.Quiz, error) {
	return s.quizRepository.All(ctx)
}

func (s *QuizService) AdminQuiz(ctx context.Context, quizID string) (*model.Quiz, error) {
	return s.quizRepository.ByID(ctx, quizID)
}

func (s *QuizService) SetActive(ctx context.Context, quizID string, active bool) (*model.Quiz, error) {
	err := s.quizRepository.SetActive(ctx, quizID, active)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, quizID)

	slog.Info("quiz activity changed", "quiz_id", quizID, "is_active", active)
	return s.quizRepository.ByID(ctx, quizID)
}

// Delete removes a quiz and its questions. Results keep their quiz id.
func (s *QuizService) Delete(ctx context.Context, quizID string) error {
	err := s.quizRepository.Delete(ctx, quizID)
	if err != nil {
		return err
	}
	s.invalidate(ctx, quizID)

	slog.Info("quiz deleted", "quiz_id", quizID)
	return nil
}

func (s *QuizService) invalidate(ctx context.Context, quizID string) {
	err := s.quizCache.Invalidate(ctx, quizID)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("failed to invalidate cached quiz", "error", err, "quiz_id", quizID)
	}
}
