package dto

// SeedCourseRequest describes a course to create together with its units and roster.
type SeedCourseRequest struct {
	Title   string           `json:"title" validate:"required,max=255"`
	Units   []SeedUnit       `json:"units" validate:"dive"`
	Members []SeedCourseUser `json:"members" validate:"dive"`
}

// SeedUnit is a unit of a seeded course. A nil weight counts as 1.
type SeedUnit struct {
	Title      string   `json:"title" validate:"required,max=255"`
	Weight     *float64 `json:"weight" validate:"omitempty,gte=0"`
	Answerable bool     `json:"answerable"`
}

// SeedCourseUser enrols a user, matched by email, with a course role.
type SeedCourseUser struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=255"`
	Role        string `json:"role" validate:"required,oneof=student teacher admin"`
}

// SeedCourseResponse reports what was created.
type SeedCourseResponse struct {
	CourseID uint            `json:"course_id"`
	Units    map[string]uint `json:"units"`
	Members  map[string]uint `json:"members"`
}
