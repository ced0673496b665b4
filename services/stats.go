package services

import (
	"learnplay/models"
)

// SessionStats summarizes a finished session for the host's report
// screen. Averages are nil, not zero, when nobody responded.
type SessionStats struct {
	SessionID      uint            `json:"session_id"`
	Pin            string          `json:"pin"`
	TotalPlayers   int             `json:"total_players"`
	AverageScore   *float64        `json:"average_score"`
	CompletionRate float64         `json:"completion_rate"`
	Questions      []QuestionStats `json:"questions"`
}

type QuestionStats struct {
	QuestionID            uint     `json:"question_id"`
	Text                  string   `json:"text"`
	TotalResponses        int      `json:"total_responses"`
	CorrectResponses      int      `json:"correct_responses"`
	AverageResponseTimeMs *float64 `json:"average_response_time_ms"`
	AnswerDistribution    []int    `json:"answer_distribution"`
}

// GetSessionStats aggregates per-player and per-question results for
// the session's host.
func (s *GameService) GetSessionStats(pin string, hostID uint) (*SessionStats, error) {
	session, err := s.ownedSession(pin, hostID)
	if err != nil {
		return nil, err
	}

	questions, err := s.quizQuestions(session.QuizID)
	if err != nil {
		return nil, err
	}

	var players []models.PlayerSession
	if err := s.db.Where("game_session_id = ?", session.ID).Find(&players).Error; err != nil {
		return nil, err
	}

	var answers []models.PlayerAnswer
	if err := s.db.Where("game_session_id = ?", session.ID).Find(&answers).Error; err != nil {
		return nil, err
	}

	stats := &SessionStats{
		SessionID:    session.ID,
		Pin:          session.Pin,
		TotalPlayers: len(players),
		Questions:    make([]QuestionStats, 0, len(questions)),
	}

	if len(players) > 0 {
		total := 0
		for _, p := range players {
			total += p.Score
		}
		avg := float64(total) / float64(len(players))
		stats.AverageScore = &avg
	}

	byQuestion := make(map[uint][]models.PlayerAnswer)
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}

	answered := make(map[uint]int) // player id -> questions answered
	for _, a := range answers {
		answered[a.PlayerSessionID]++
	}
	if len(players) > 0 && len(questions) > 0 {
		completed := 0
		for _, p := range players {
			if answered[p.ID] == len(questions) {
				completed++
			}
		}
		stats.CompletionRate = float64(completed) / float64(len(players))
	}

	for _, q := range questions {
		qs := QuestionStats{
			QuestionID:         q.ID,
			Text:               q.Text,
			AnswerDistribution: make([]int, len(q.Options)),
		}

		qa := byQuestion[q.ID]
		qs.TotalResponses = len(qa)

		var timeSum int64
		for _, a := range qa {
			if a.IsCorrect {
				qs.CorrectResponses++
			}
			if a.SelectedIndex >= 0 && a.SelectedIndex < len(qs.AnswerDistribution) {
				qs.AnswerDistribution[a.SelectedIndex]++
			}
			timeSum += int64(a.ResponseTimeMs)
		}

		if len(qa) > 0 {
			avg := float64(timeSum) / float64(len(qa))
			qs.AverageResponseTimeMs = &avg
		}

		stats.Questions = append(stats.Questions, qs)
	}

	return stats, nil
}
