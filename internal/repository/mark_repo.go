package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

// MarkRepository persists grading events. Marks are never updated in place.
type MarkRepository interface {
	Create(ctx context.Context, mark *models.Mark) error
	ListByAnswer(ctx context.Context, answerID uint) ([]models.Mark, error)
}

type markRepository struct {
	db *gorm.DB
}

// NewMarkRepository instantiates the repository.
func NewMarkRepository(db *gorm.DB) MarkRepository {
	return &markRepository{db: db}
}

func (r *markRepository) Create(ctx context.Context, mark *models.Mark) error {
	return r.db.WithContext(ctx).Create(mark).Error
}

func (r *markRepository) ListByAnswer(ctx context.Context, answerID uint) ([]models.Mark, error) {
	var marks []models.Mark
	if err := r.db.WithContext(ctx).
		Where("answer_id = ?", answerID).
		Order("created_at ASC").
		Find(&marks).Error; err != nil {
		return nil, err
	}

	return marks, nil
}
