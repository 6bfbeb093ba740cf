package service

import (
	"sort"

	"github.com/templui/quizline/internal/model"
)

type leaderboardKey struct {
	userID string
	quizID string
}

// BuildLeaderboard keeps one result per user and quiz and ranks them by
// score, then by time spent.
//
// rows must be in creation order. Within a group a later result only
// replaces the kept one when its score is strictly higher, so among equal
// best scores the earliest attempt stands even if a later one was faster.
func BuildLeaderboard(rows []*model.ResultRow) []model.LeaderboardEntry {
	best := make(map[leaderboardKey]*model.ResultRow)
	order := make([]leaderboardKey, 0)

	for _, row := range rows {
		key := leaderboardKey{userID: row.UserID, quizID: row.QuizID}
		kept, ok := best[key]
		if !ok {
			order = append(order, key)
			best[key] = row
			continue
		}
		if kept.Score < row.Score {
			best[key] = row
		}
	}

	entries := make([]model.LeaderboardEntry, 0, len(order))
	for _, key := range order {
		row := best[key]
		entries = append(entries, model.LeaderboardEntry{
			UserID:         row.UserID,
			Username:       row.Username,
			QuizID:         row.QuizID,
			QuizTitle:      row.QuizTitle,
			Score:          row.Score,
			TotalQuestions: row.TotalQuestions,
			TimeSpent:      row.TimeSpent,
			CreatedAt:      row.CreatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].TimeSpent < entries[j].TimeSpent
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
