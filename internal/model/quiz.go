package model

import (
	"time"
)

const (
	MinTimePerQuestion = 5
	MaxTimePerQuestion = 60
	MinOptions         = 2
	MaxOptions         = 6
)

type Quiz struct {
	ID              string    `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	TimePerQuestion int       `db:"time_per_question" json:"timePerQuestion"`
	IsActive        bool      `db:"is_active" json:"isActive"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`

	// Loaded separately, ordered by position
	Questions []Question `db:"-" json:"questions"`
}

type Question struct {
	ID                 string     `db:"id" json:"id"`
	QuizID             string     `db:"quiz_id" json:"quizId"`
	Position           int        `db:"position" json:"position"`
	QuestionText       string     `db:"question_text" json:"questionText"`
	Options            StringList `db:"options" json:"options"`
	CorrectAnswerIndex int        `db:"correct_answer_index" json:"correctAnswerIndex"`
}

// QuizSummary is the catalog view of a quiz.
type QuizSummary struct {
	ID              string    `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	TimePerQuestion int       `db:"time_per_question" json:"timePerQuestion"`
	IsActive        bool      `db:"is_active" json:"isActive"`
	QuestionCount   int       `db:"question_count" json:"questionCount"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// PublicQuiz is a quiz as shown to a player: no correct answers.
type PublicQuiz struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	DescriptionHTML string           `json:"descriptionHtml"`
	TimePerQuestion int              `json:"timePerQuestion"`
	CreatedAt       time.Time        `json:"createdAt"`
	Questions       []PublicQuestion `json:"questions"`
}

type PublicQuestion struct {
	ID           string   `json:"id"`
	QuestionText string   `json:"questionText"`
	Options      []string `json:"options"`
}

// Public strips the answer key.
func (q *Quiz) Public() PublicQuiz {
	questions := make([]PublicQuestion, 0, len(q.Questions))
	for _, question := range q.Questions {
		options := make([]string, len(question.Options))
		copy(options, question.Options)
		questions = append(questions, PublicQuestion{
			ID:           question.ID,
			QuestionText: question.QuestionText,
			Options:      options,
		})
	}
	return PublicQuiz{
		ID:              q.ID,
		Title:           q.Title,
		Description:     q.Description,
		TimePerQuestion: q.TimePerQuestion,
		CreatedAt:       q.CreatedAt,
		Questions:       questions,
	}
}
