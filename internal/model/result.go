package model

import (
	"time"
)

type Result struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"userId"`
	QuizID         string    `db:"quiz_id" json:"quizId"`
	Score          int       `db:"score" json:"score"`
	TotalQuestions int       `db:"total_questions" json:"totalQuestions"`
	TimeSpent      int       `db:"time_spent" json:"timeSpent"`
	Answers        IntList   `db:"answers" json:"answers"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// ResultRow is a result joined with the names needed for display.
// QuizTitle is empty when the quiz has since been deleted.
type ResultRow struct {
	Result
	Username  string `db:"username" json:"username"`
	QuizTitle string `db:"quiz_title" json:"quizTitle"`
}

type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	UserID         string    `json:"userId"`
	Username       string    `json:"username"`
	QuizID         string    `json:"quizId"`
	QuizTitle      string    `json:"quizTitle"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	TimeSpent      int       `json:"timeSpent"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Stats struct {
	TotalUsers   int `db:"total_users" json:"totalUsers"`
	TotalQuizzes int `db:"total_quizzes" json:"totalQuizzes"`
	TotalResults int `db:"total_results" json:"totalResults"`
}
