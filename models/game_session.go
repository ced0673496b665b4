package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SessionStatusWaiting  = "waiting"
	SessionStatusActive   = "active"
	SessionStatusFinished = "finished"
)

// NoQuestion is the CurrentQuestion sentinel before the first question starts.
const NoQuestion = -1

type GameSession struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	QuizID           uint           `json:"quiz_id" gorm:"not null"`
	HostID           uint           `json:"host_id" gorm:"not null"`
	Pin              string         `json:"pin" gorm:"index;not null"`                // unique only among non-finished sessions
	Status           string         `json:"status" gorm:"not null;default:'waiting'"` // waiting, active, finished
	CurrentQuestion  int            `json:"current_question" gorm:"not null;default:-1"`
	QuestionDeadline *time.Time     `json:"question_deadline,omitempty"` // persisted so timers survive a restart
	StartedAt        *time.Time     `json:"started_at"`
	EndedAt          *time.Time     `json:"ended_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Quiz    Quiz            `json:"quiz,omitempty"`
	Players []PlayerSession `json:"players,omitempty" gorm:"foreignKey:GameSessionID"`
	Answers []PlayerAnswer  `json:"answers,omitempty" gorm:"foreignKey:GameSessionID"`
}
