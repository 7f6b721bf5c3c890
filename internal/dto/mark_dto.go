package dto

import (
	"time"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

// MarkCreateRequest captures a grading event for an answer.
type MarkCreateRequest struct {
	Score   *float64 `json:"score" validate:"required,gte=0"`
	Comment string   `json:"comment" validate:"omitempty,max=5000"`
}

// MarkResponse serializes a grading event.
type MarkResponse struct {
	ID        uint      `json:"id"`
	AnswerID  uint      `json:"answer_id"`
	GraderID  uint      `json:"grader_id"`
	Score     float64   `json:"score"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMarkResponse converts a Mark model into a DTO.
func NewMarkResponse(model models.Mark) MarkResponse {
	return MarkResponse{
		ID:        model.ID,
		AnswerID:  model.AnswerID,
		GraderID:  model.GraderID,
		Score:     model.Score,
		Comment:   model.Comment,
		CreatedAt: model.CreatedAt,
	}
}
