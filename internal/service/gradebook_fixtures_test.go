package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/models"
)

type gradebookFixture struct {
	db      *gorm.DB
	mini    *miniredis.Miniredis
	redis   *redis.Client
	course  models.Course
	alice   models.User
	bob     models.User
	teacher models.User
	graphs  models.Unit
	sorting models.Unit
	notes   models.Unit
}

func newGradebookFixture(t *testing.T) *gradebookFixture {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Course{}, &models.CourseMember{}, &models.Unit{}, &models.Answer{}, &models.Mark{}))

	f := &gradebookFixture{
		db:      db,
		mini:    mini,
		redis:   redis.NewClient(&redis.Options{Addr: mini.Addr()}),
		alice:   models.User{DisplayName: "alice", Email: "alice@example.com"},
		bob:     models.User{DisplayName: "Bob", Email: "bob@example.com"},
		teacher: models.User{DisplayName: "Teacher", Email: "teacher@example.com"},
		course:  models.Course{Title: "Algorithms"},
	}
	require.NoError(t, db.Create(&f.bob).Error)
	require.NoError(t, db.Create(&f.alice).Error)
	require.NoError(t, db.Create(&f.teacher).Error)
	require.NoError(t, db.Create(&f.course).Error)

	for _, member := range []models.CourseMember{
		{CourseID: f.course.ID, UserID: f.bob.ID, Role: models.CourseRoleStudent},
		{CourseID: f.course.ID, UserID: f.alice.ID, Role: models.CourseRoleStudent},
		{CourseID: f.course.ID, UserID: f.teacher.ID, Role: models.CourseRoleTeacher},
	} {
		m := member
		require.NoError(t, db.Create(&m).Error)
	}

	one, three := 1.0, 3.0
	f.sorting = models.Unit{CourseID: f.course.ID, Title: "Sorting", Weight: &three, Answerable: true}
	f.graphs = models.Unit{CourseID: f.course.ID, Title: "Graphs", Weight: &one, Answerable: true}
	f.notes = models.Unit{CourseID: f.course.ID, Title: "Lecture notes"}
	require.NoError(t, db.Create(&f.sorting).Error)
	require.NoError(t, db.Create(&f.graphs).Error)
	require.NoError(t, db.Create(&f.notes).Error)

	return f
}

func (f *gradebookFixture) answer(t *testing.T, unit models.Unit, user models.User, updatedAt time.Time) models.Answer {
	t.Helper()
	answer := models.Answer{UnitID: unit.ID, UserID: user.ID, Content: "answer", CreatedAt: updatedAt, UpdatedAt: updatedAt}
	require.NoError(t, f.db.Omit("Unit", "User", "Marks").Create(&answer).Error)
	return answer
}

func (f *gradebookFixture) mark(t *testing.T, answer models.Answer, score float64, createdAt time.Time) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.Mark{AnswerID: answer.ID, GraderID: f.teacher.ID, Score: score, CreatedAt: createdAt}).Error)
}

type recordingInvalidator struct {
	courses []uint
	err     error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, courseID uint) error {
	r.courses = append(r.courses, courseID)
	return r.err
}
