package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

// UnitRepository defines lookups for course units.
type UnitRepository interface {
	GetByID(ctx context.Context, id uint) (models.Unit, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Unit, error)
	Create(ctx context.Context, unit *models.Unit) error
}

type unitRepository struct {
	db *gorm.DB
}

// NewUnitRepository instantiates the repository.
func NewUnitRepository(db *gorm.DB) UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) GetByID(ctx context.Context, id uint) (models.Unit, error) {
	var unit models.Unit
	if err := r.db.WithContext(ctx).First(&unit, id).Error; err != nil {
		return models.Unit{}, err
	}

	return unit, nil
}

func (r *unitRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Unit, error) {
	var units []models.Unit
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("title ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}

	return units, nil
}

func (r *unitRepository) Create(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}
