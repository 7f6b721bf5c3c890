package models

import "time"

// Mark is a grading event attached to an answer. Marks are append-only.
type Mark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AnswerID  uint      `gorm:"not null;index" json:"answer_id"`
	GraderID  uint      `gorm:"not null" json:"grader_id"`
	Score     float64   `gorm:"not null" json:"score"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
