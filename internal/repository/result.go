package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/quizline/internal/model"
)

var (
	ErrResultNotFound = errors.New("result not found")
)

type ResultRepository interface {
	Create(ctx context.Context, result *model.Result) error
	ByID(ctx context.Context, id string) (*model.ResultRow, error)
	ByUser(ctx context.Context, userID string) ([]*model.ResultRow, error)
	InCreationOrder(ctx context.Context, quizID string) ([]*model.ResultRow, error)
	All(ctx context.Context) ([]*model.ResultRow, error)
	Count(ctx context.Context) (int, error)
}

type resultRepository struct {
	db *sqlx.DB
}

func NewResultRepository(db *sqlx.DB) ResultRepository {
	return &resultRepository{db: db}
}

// Deleted quizzes leave an empty title behind.
const resultRowSelect = `SELECT r.*, u.username, COALESCE(q.title, '') AS quiz_title
	FROM results r
	JOIN users u ON u.id = r.user_id
	LEFT JOIN quizzes q ON q.id = r.quiz_id`

func (r *resultRepository) Create(ctx context.Context, result *model.Result) error {
	// v7 ids sort in creation order, which breaks created_at ties
	if result.ID == "" {
		result.ID = uuid.Must(uuid.NewV7()).String()
	}

	query := `INSERT INTO results (id, user_id, quiz_id, score, total_questions, time_spent, answers, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		result.ID,
		result.UserID,
		result.QuizID,
		result.Score,
		result.TotalQuestions,
		result.TimeSpent,
		result.Answers,
		result.CreatedAt.UTC(),
	)
	return err
}

func (r *resultRepository) ByID(ctx context.Context, id string) (*model.ResultRow, error) {
	row := &model.ResultRow{}

	err := r.db.GetContext(ctx, row, resultRowSelect+` WHERE r.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}

	return row, nil
}

// ByUser returns the user's results, newest first.
func (r *resultRepository) ByUser(ctx context.Context, userID string) ([]*model.ResultRow, error) {
	rows := []*model.ResultRow{}
	query := resultRowSelect + ` WHERE r.user_id = $1 ORDER BY r.created_at DESC, r.id DESC`

	err := r.db.SelectContext(ctx, &rows, query, userID)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// InCreationOrder returns results oldest first, optionally for one quiz.
func (r *resultRepository) InCreationOrder(ctx context.Context, quizID string) ([]*model.ResultRow, error) {
	rows := []*model.ResultRow{}
	var err error

	if quizID == "" {
		err = r.db.SelectContext(ctx, &rows, resultRowSelect+` ORDER BY r.created_at ASC, r.id ASC`)
	} else {
		query := resultRowSelect + ` WHERE r.quiz_id = $1 ORDER BY r.created_at ASC, r.id ASC`
		err = r.db.SelectContext(ctx, &rows, query, quizID)
	}
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *resultRepository) All(ctx context.Context) ([]*model.ResultRow, error) {
	rows := []*model.ResultRow{}

	err := r.db.SelectContext(ctx, &rows, resultRowSelect+` ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *resultRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM results`)
	return count, err
}
