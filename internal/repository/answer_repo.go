package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

// AnswerRepository defines data operations for answers.
type AnswerRepository interface {
	GetByID(ctx context.Context, id uint) (models.Answer, error)
	ListByUnitAndUser(ctx context.Context, unitID, userID uint) ([]models.Answer, error)
	LatestByUnitAndUser(ctx context.Context, unitID, userID uint) (models.Answer, error)
	Create(ctx context.Context, answer *models.Answer) error
	Update(ctx context.Context, answer *models.Answer) error
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository instantiates the repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Answer{}).
		Preload("Unit").
		Preload("Marks", func(q *gorm.DB) *gorm.DB {
			return q.Order("id ASC")
		})
}

func (r *answerRepository) GetByID(ctx context.Context, id uint) (models.Answer, error) {
	var answer models.Answer
	if err := r.baseQuery(ctx).First(&answer, id).Error; err != nil {
		return models.Answer{}, err
	}

	return answer, nil
}

func (r *answerRepository) ListByUnitAndUser(ctx context.Context, unitID, userID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.baseQuery(ctx).
		Where("unit_id = ?", unitID).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

func (r *answerRepository) LatestByUnitAndUser(ctx context.Context, unitID, userID uint) (models.Answer, error) {
	var answer models.Answer
	if err := r.baseQuery(ctx).
		Where("unit_id = ?", unitID).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		First(&answer).Error; err != nil {
		return models.Answer{}, err
	}

	return answer, nil
}

func (r *answerRepository) Create(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).Omit("Unit", "User", "Marks").Create(answer).Error
}

// Update stores the content and UpdatedAt as given; the caller owns the edit clock.
func (r *answerRepository) Update(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).
		Model(answer).
		UpdateColumns(map[string]interface{}{
			"content":    answer.Content,
			"updated_at": answer.UpdatedAt,
		}).Error
}
