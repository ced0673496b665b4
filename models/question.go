package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
)

type Question struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	QuizID       uint           `json:"quiz_id" gorm:"not null"`
	Text         string         `json:"text" gorm:"not null"`
	Type         string         `json:"type" gorm:"not null;default:'multiple_choice'"` // multiple_choice, true_false
	CorrectIndex int            `json:"correct_index" gorm:"not null"`                  // index into ordered options
	TimeLimit    int            `json:"time_limit" gorm:"not null;default:30"`          // seconds
	Points       int            `json:"points" gorm:"not null;default:100"`
	ImageURL     string         `json:"image_url,omitempty"`
	VideoURL     string         `json:"video_url,omitempty"`
	Order        int            `json:"order" gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Quiz    Quiz     `json:"quiz,omitempty"`
	Options []Option `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}
