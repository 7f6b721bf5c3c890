package models

import "time"

// Unit is a gradable piece of a course. Weight is optional; nil counts as 1.
type Unit struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Weight     *float64  `json:"weight"`
	Answerable bool      `gorm:"not null;default:false" json:"answerable"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Answers    []Answer  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers,omitempty"`
}
