package models

import "time"

// Answer is a student's submission for a unit. Editing it bumps UpdatedAt, which
// invalidates marks recorded before the edit.
type Answer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UnitID    uint      `gorm:"not null;index:idx_answer_unit_user" json:"unit_id"`
	UserID    uint      `gorm:"not null;index:idx_answer_unit_user" json:"user_id"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Marks     []Mark    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"marks"`
	Unit      Unit      `json:"-"`
	User      User      `json:"-"`
}
