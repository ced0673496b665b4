package models

import (
	"time"
)

type PlayerSession struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	GameSessionID uint      `json:"game_session_id" gorm:"not null;uniqueIndex:idx_session_player_name"`
	Name          string    `json:"name" gorm:"not null;uniqueIndex:idx_session_player_name"`
	Score         int       `json:"score" gorm:"not null;default:0"`
	JoinedAt      time.Time `json:"joined_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	GameSession GameSession    `json:"game_session,omitempty"`
	Answers     []PlayerAnswer `json:"answers,omitempty" gorm:"foreignKey:PlayerSessionID"`
}
