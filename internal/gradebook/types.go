// Package gradebook computes the course gradebook matrix from an in-memory snapshot of
// units, answers and marks. It performs no I/O; every computation is a pure function of the
// snapshot it receives, so matrices for different courses can be built concurrently.
package gradebook

import "time"

// Role identifies how a course member participates in the course.
type Role string

const (
	// RoleStudent members appear as gradebook rows.
	RoleStudent Role = "student"
	// RoleTeacher members grade answers and never appear in the matrix.
	RoleTeacher Role = "teacher"
	// RoleAdmin members manage the course.
	RoleAdmin Role = "admin"
)

// Student is a course member as seen by the gradebook.
type Student struct {
	ID          uint
	DisplayName string
	Role        Role
}

// Unit is a gradable unit of a course.
type Unit struct {
	ID         uint
	Title      string
	Weight     *float64
	Answerable bool
	Answers    []Answer
}

// EffectiveWeight returns the unit weight, defaulting to 1 when none was set.
// An explicit zero is kept as zero.
func (u Unit) EffectiveWeight() float64 {
	if u.Weight == nil {
		return 1
	}
	return *u.Weight
}

// Answer is one submission by a student for a unit.
type Answer struct {
	ID        uint
	UnitID    uint
	StudentID uint
	UpdatedAt time.Time
	Marks     []Mark
}

// Mark is a grading event recorded against an answer.
type Mark struct {
	ID        uint
	Score     float64
	CreatedAt time.Time
}

// ValidFor reports whether the mark was recorded after the answer was last edited.
func (m Mark) ValidFor(answer Answer) bool {
	return m.CreatedAt.After(answer.UpdatedAt)
}

// Course is the snapshot a gradebook is built from.
type Course struct {
	ID      uint
	Title   string
	Units   []Unit
	Members []Student
}
