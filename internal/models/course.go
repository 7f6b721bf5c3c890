package models

import "time"

const (
	// CourseRoleStudent members submit answers and appear in the gradebook.
	CourseRoleStudent = "student"
	// CourseRoleTeacher members grade answers.
	CourseRoleTeacher = "teacher"
	// CourseRoleAdmin members manage the course.
	CourseRoleAdmin = "admin"
)

// Course groups units and members.
type Course struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Units     []Unit         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"units"`
	Members   []CourseMember `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"members"`
}

// CourseMember links a user to a course with a role.
type CourseMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_course_member" json:"course_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_course_member" json:"user_id"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
}

// IsStudent reports whether the member takes part in the gradebook.
func (m CourseMember) IsStudent() bool {
	return m.Role == CourseRoleStudent
}
