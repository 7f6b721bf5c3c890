package dto

import (
	"time"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

// AnswerSubmitRequest is the payload a student sends for a unit. Resubmit appends a new
// answer instead of editing the latest one.
type AnswerSubmitRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=20000"`
	Resubmit bool   `json:"resubmit"`
}

// AnswerResponse describes an answer together with its grading state.
type AnswerResponse struct {
	ID        uint           `json:"id"`
	UnitID    uint           `json:"unit_id"`
	UserID    uint           `json:"user_id"`
	Content   string         `json:"content"`
	Mark      *float64       `json:"mark"`
	IsStale   bool           `json:"is_stale"`
	Marks     []MarkResponse `json:"marks"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewAnswerResponse converts an Answer model. mark and stale come from the gradebook resolver.
func NewAnswerResponse(model models.Answer, mark *float64, stale bool) AnswerResponse {
	marks := make([]MarkResponse, 0, len(model.Marks))
	for _, m := range model.Marks {
		marks = append(marks, NewMarkResponse(m))
	}

	return AnswerResponse{
		ID:        model.ID,
		UnitID:    model.UnitID,
		UserID:    model.UserID,
		Content:   model.Content,
		Mark:      mark,
		IsStale:   stale,
		Marks:     marks,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
