package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/quizline/internal/model"
)

var (
	ErrQuizNotFound = errors.New("quiz not found")
)

type QuizRepository interface {
	Create(ctx context.Context, quiz *model.Quiz) error
	ByID(ctx context.Context, id string) (*model.Quiz, error)
	Summaries(ctx context.Context, activeOnly bool) ([]*model.QuizSummary, error)
	All(ctx context.Context) ([]*model.Quiz, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type quizRepository struct {
	db *sqlx.DB
}

func NewQuizRepository(db *sqlx.DB) QuizRepository {
	return &quizRepository{db: db}
}

// Create inserts the quiz and its questions in one transaction. Question ids
// and positions are assigned here from slice order.
func (r *quizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	quiz.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO quizzes (id, title, description, time_per_question, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = tx.ExecContext(ctx, query,
		quiz.ID,
		quiz.Title,
		quiz.Description,
		quiz.TimePerQuestion,
		quiz.IsActive,
		quiz.CreatedAt.UTC(),
		quiz.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quiz: %w", err)
	}

	questionQuery := `INSERT INTO questions (id, quiz_id, position, question_text, options, correct_answer_index)
	                  VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		q.ID = uuid.New().String()
		q.QuizID = quiz.ID
		q.Position = i

		_, err = tx.ExecContext(ctx, questionQuery, q.ID, q.QuizID, q.Position, q.QuestionText, q.Options, q.CorrectAnswerIndex)
		if err != nil {
			return fmt.Errorf("failed to insert question %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (r *quizRepository) ByID(ctx context.Context, id string) (*model.Quiz, error) {
	quiz := &model.Quiz{}

	err := r.db.GetContext(ctx, quiz, `SELECT * FROM quizzes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}

	questions := []model.Question{}
	query := `SELECT * FROM questions WHERE quiz_id = $1 ORDER BY position ASC`
	err = r.db.SelectContext(ctx, &questions, query, id)
	if err != nil {
		return nil, err
	}
	quiz.Questions = questions

	return quiz, nil
}

func (r *quizRepository) Summaries(ctx context.Context, activeOnly bool) ([]*model.QuizSummary, error) {
	summaries := []*model.QuizSummary{}

	query := `SELECT qz.id, qz.title, qz.description, qz.time_per_question, qz.is_active, qz.created_at,
	                 (SELECT COUNT(*) FROM questions qs WHERE qs.quiz_id = qz.id) AS question_count
	          FROM quizzes qz`
	if activeOnly {
		query += ` WHERE qz.is_active = TRUE`
	}
	query += ` ORDER BY qz.created_at DESC, qz.id ASC`

	err := r.db.SelectContext(ctx, &summaries, query)
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

// All returns every quiz, inactive ones included, with its answer key.
func (r *quizRepository) All(ctx context.Context) ([]*model.Quiz, error) {
	quizzes := []*model.Quiz{}

	err := r.db.SelectContext(ctx, &quizzes, `SELECT * FROM quizzes ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}

	var questions []model.Question
	err = r.db.SelectContext(ctx, &questions, `SELECT * FROM questions ORDER BY quiz_id, position ASC`)
	if err != nil {
		return nil, err
	}

	byQuiz := make(map[string][]model.Question, len(quizzes))
	for _, q := range questions {
		byQuiz[q.QuizID] = append(byQuiz[q.QuizID], q)
	}
	for _, quiz := range quizzes {
		quiz.Questions = byQuiz[quiz.ID]
		if quiz.Questions == nil {
			quiz.Questions = []model.Question{}
		}
	}

	return quizzes, nil
}

func (r *quizRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE quizzes SET is_active = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	return requireRow(result, ErrQuizNotFound)
}

// Delete removes the quiz and its questions. Results keep their quiz id.
func (r *quizRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM questions WHERE quiz_id = $1`, id)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return err
	}

	err = requireRow(result, ErrQuizNotFound)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *quizRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM quizzes`)
	return count, err
}
