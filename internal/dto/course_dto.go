package dto

import (
	"time"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

// CourseCreateRequest creates an empty course.
type CourseCreateRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

// CourseUpdateRequest renames a course. Omitted fields are left untouched.
type CourseUpdateRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=255"`
}

// CourseListQuery filters the course listing by id.
type CourseListQuery struct {
	IDs []uint `query:"ids"`
}

// CourseResponse serializes a course.
type CourseResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCourseResponse converts a Course model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:        model.ID,
		Title:     model.Title,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// MemberCreateRequest enrols an existing user. Role defaults to student.
type MemberCreateRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

// MemberResponse serializes a course enrolment.
type MemberResponse struct {
	CourseID    uint      `json:"course_id"`
	UserID      uint      `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewMemberResponse converts a CourseMember model. The user must be preloaded for names.
func NewMemberResponse(model models.CourseMember) MemberResponse {
	return MemberResponse{
		CourseID:    model.CourseID,
		UserID:      model.UserID,
		DisplayName: model.User.DisplayName,
		Email:       model.User.Email,
		Role:        model.Role,
		CreatedAt:   model.CreatedAt,
	}
}

// UnitCreateRequest adds a unit to a course. A nil weight counts as 1.
type UnitCreateRequest struct {
	Title      string   `json:"title" validate:"required,max=255"`
	Weight     *float64 `json:"weight" validate:"omitempty,gte=0"`
	Answerable bool     `json:"answerable"`
}

// UnitResponse serializes a unit.
type UnitResponse struct {
	ID         uint      `json:"id"`
	CourseID   uint      `json:"course_id"`
	Title      string    `json:"title"`
	Weight     *float64  `json:"weight"`
	Answerable bool      `json:"answerable"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewUnitResponse converts a Unit model into a DTO.
func NewUnitResponse(model models.Unit) UnitResponse {
	return UnitResponse{
		ID:         model.ID,
		CourseID:   model.CourseID,
		Title:      model.Title,
		Weight:     model.Weight,
		Answerable: model.Answerable,
		CreatedAt:  model.CreatedAt,
	}
}
