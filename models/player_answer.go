package models

import (
	"time"
)

type PlayerAnswer struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	GameSessionID   uint      `json:"game_session_id" gorm:"not null"`
	PlayerSessionID uint      `json:"player_session_id" gorm:"not null;uniqueIndex:idx_player_question"`
	QuestionID      uint      `json:"question_id" gorm:"not null;uniqueIndex:idx_player_question"`
	SelectedIndex   int       `json:"selected_index" gorm:"not null"`
	IsCorrect       bool      `json:"is_correct" gorm:"not null"`
	Points          int       `json:"points" gorm:"not null"`
	ResponseTimeMs  int       `json:"response_time_ms" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`

	// Relationships
	GameSession   GameSession   `json:"game_session,omitempty"`
	PlayerSession PlayerSession `json:"player_session,omitempty"`
	Question      Question      `json:"question,omitempty"`
}
