package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

// CourseFilter narrows course listings. Zero values match everything.
type CourseFilter struct {
	IDs      []uint
	MemberID uint
}

// CourseRepository manages courses, their rosters and gradebook snapshots.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	GetGradebookSnapshot(ctx context.Context, id uint) (models.Course, error)
	GetMember(ctx context.Context, courseID, userID uint) (models.CourseMember, error)
	ListMembers(ctx context.Context, courseID uint) ([]models.CourseMember, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	AddMember(ctx context.Context, member *models.CourseMember) error
	CreateWithRoster(ctx context.Context, course *models.Course, roster []models.CourseMember) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})
	if len(filter.IDs) > 0 {
		query = query.Where("courses.id IN ?", filter.IDs)
	}
	if filter.MemberID != 0 {
		query = query.
			Joins("JOIN course_members ON course_members.course_id = courses.id").
			Where("course_members.user_id = ?", filter.MemberID)
	}

	var courses []models.Course
	if err := query.Order("courses.id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

// GetGradebookSnapshot loads the course with every unit, answer, mark and member in one
// consistent read. Answers and marks are ordered by id so the gradebook fold sees them in
// creation order.
func (r *courseRepository) GetGradebookSnapshot(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Preload("Units", func(q *gorm.DB) *gorm.DB {
				return q.Order("id ASC")
			}).
			Preload("Units.Answers", func(q *gorm.DB) *gorm.DB {
				return q.Order("id ASC")
			}).
			Preload("Units.Answers.Marks", func(q *gorm.DB) *gorm.DB {
				return q.Order("id ASC")
			}).
			Preload("Members", func(q *gorm.DB) *gorm.DB {
				return q.Order("id ASC")
			}).
			Preload("Members.User").
			First(&course, id).Error
	})
	if err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) GetMember(ctx context.Context, courseID, userID uint) (models.CourseMember, error) {
	var member models.CourseMember
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Where("user_id = ?", userID).
		First(&member).Error; err != nil {
		return models.CourseMember{}, err
	}

	return member, nil
}

func (r *courseRepository) ListMembers(ctx context.Context, courseID uint) ([]models.CourseMember, error) {
	var members []models.CourseMember
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}

// Create stores the course with its units. Members are enrolled by user id; their users
// must already exist.
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		members := course.Members
		if err := tx.Omit("Members").Create(course).Error; err != nil {
			return err
		}

		for i := range members {
			members[i].CourseID = course.ID
			if err := tx.Omit("User").Create(&members[i]).Error; err != nil {
				return err
			}
		}
		course.Members = members
		return nil
	})
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit("Units", "Members").Save(course).Error
}

// Delete removes the course with its roster, units, answers and marks.
func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		units := tx.Model(&models.Unit{}).Select("id").Where("course_id = ?", id)
		answers := tx.Model(&models.Answer{}).Select("id").Where("unit_id IN (?)", units)

		if err := tx.Where("answer_id IN (?)", answers).Delete(&models.Mark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("unit_id IN (?)", units).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.Unit{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.CourseMember{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Course{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *courseRepository) AddMember(ctx context.Context, member *models.CourseMember) error {
	return r.db.WithContext(ctx).Omit("User").Create(member).Error
}

// CreateWithRoster creates the course with its units and enrols the roster in one
// transaction. Roster users are matched by email and created when missing.
func (r *courseRepository) CreateWithRoster(ctx context.Context, course *models.Course, roster []models.CourseMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range roster {
			user := roster[i].User
			if err := tx.
				Where(models.User{Email: user.Email}).
				Attrs(models.User{DisplayName: user.DisplayName}).
				FirstOrCreate(&user).Error; err != nil {
				return err
			}
			roster[i].UserID = user.ID
			roster[i].User = user
		}

		course.Members = nil
		if err := tx.Create(course).Error; err != nil {
			return err
		}

		for i := range roster {
			roster[i].CourseID = course.ID
			if err := tx.Omit("User").Create(&roster[i]).Error; err != nil {
				return err
			}
		}
		course.Members = roster
		return nil
	})
}
