package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

func newTestCourseService(f *gradebookFixture, invalidator GradebookInvalidator) CourseService {
	return NewCourseService(
		repository.NewCourseRepository(f.db),
		repository.NewUnitRepository(f.db),
		repository.NewUserRepository(f.db),
		invalidator,
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)
}

func TestCourseServiceCreateEnrolsTeacher(t *testing.T) {
	f := newGradebookFixture(t)
	svc := newTestCourseService(f, nil)
	ctx := context.Background()
	teacher := Actor{ID: f.teacher.ID, Role: "teacher"}

	created, err := svc.Create(ctx, dto.CourseCreateRequest{Title: " Compilers "}, teacher)
	require.NoError(t, err)
	require.Equal(t, "Compilers", created.Title)

	member, err := repository.NewCourseRepository(f.db).GetMember(ctx, created.ID, f.teacher.ID)
	require.NoError(t, err)
	require.Equal(t, models.CourseRoleTeacher, member.Role)

	admin, err := svc.Create(ctx, dto.CourseCreateRequest{Title: "Ops"}, Actor{ID: 999, Role: "admin"})
	require.NoError(t, err)
	members, err := svc.ListMembers(ctx, admin.ID, Actor{ID: 999, Role: "admin"})
	require.NoError(t, err)
	require.Empty(t, members, "platform admins are not enrolled")

	_, err = svc.Create(ctx, dto.CourseCreateRequest{}, teacher)
	_, isValidation := err.(validator.ValidationErrors)
	require.True(t, isValidation)
}

func TestCourseServiceListScopesToMembership(t *testing.T) {
	f := newGradebookFixture(t)
	svc := newTestCourseService(f, nil)
	ctx := context.Background()

	other, err := svc.Create(ctx, dto.CourseCreateRequest{Title: "Elsewhere"}, Actor{ID: 999, Role: "admin"})
	require.NoError(t, err)

	mine, err := svc.List(ctx, dto.CourseListQuery{}, Actor{ID: f.teacher.ID, Role: "teacher"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, f.course.ID, mine[0].ID)

	all, err := svc.List(ctx, dto.CourseListQuery{}, Actor{ID: 999, Role: "admin"})
	require.NoError(t, err)
	require.Len(t, all, 2)

	byID, err := svc.List(ctx, dto.CourseListQuery{IDs: []uint{other.ID}}, Actor{ID: 999, Role: "admin"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	require.Equal(t, "Elsewhere", byID[0].Title)
}

func TestCourseServiceUpdateAndAuthorization(t *testing.T) {
	f := newGradebookFixture(t)
	invalidator := &recordingInvalidator{}
	svc := newTestCourseService(f, invalidator)
	ctx := context.Background()

	title := "Advanced Algorithms"
	updated, err := svc.Update(ctx, f.course.ID, dto.CourseUpdateRequest{Title: &title}, Actor{ID: f.teacher.ID, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, []uint{f.course.ID}, invalidator.courses)

	reloaded, err := svc.Get(ctx, f.course.ID, Actor{ID: f.teacher.ID, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, title, reloaded.Title)

	_, err = svc.Update(ctx, f.course.ID, dto.CourseUpdateRequest{Title: &title}, Actor{ID: f.bob.ID, Role: "teacher"})
	require.ErrorIs(t, err, ErrNotCourseGrader)

	_, err = svc.Get(ctx, f.course.ID+100, Actor{ID: 999, Role: "admin"})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourseServiceEnrollDefaultsToStudent(t *testing.T) {
	f := newGradebookFixture(t)
	invalidator := &recordingInvalidator{}
	svc := newTestCourseService(f, invalidator)
	ctx := context.Background()
	teacher := Actor{ID: f.teacher.ID, Role: "teacher"}

	carol := models.User{DisplayName: "Carol", Email: "carol@example.com"}
	require.NoError(t, f.db.Create(&carol).Error)
	assistant := models.User{DisplayName: "Assistant", Email: "ta@example.com"}
	require.NoError(t, f.db.Create(&assistant).Error)

	member, err := svc.Enroll(ctx, f.course.ID, dto.MemberCreateRequest{UserID: carol.ID}, teacher)
	require.NoError(t, err)
	require.Equal(t, models.CourseRoleStudent, member.Role)
	require.Equal(t, "carol@example.com", member.Email)
	require.Equal(t, []uint{f.course.ID}, invalidator.courses, "new students change the gradebook rows")

	ta, err := svc.Enroll(ctx, f.course.ID, dto.MemberCreateRequest{UserID: assistant.ID, Role: models.CourseRoleTeacher}, teacher)
	require.NoError(t, err)
	require.Equal(t, models.CourseRoleTeacher, ta.Role)
	require.Len(t, invalidator.courses, 1)

	_, err = svc.Enroll(ctx, f.course.ID, dto.MemberCreateRequest{UserID: carol.ID}, teacher)
	require.ErrorIs(t, err, ErrAlreadyEnrolled)

	_, err = svc.Enroll(ctx, f.course.ID, dto.MemberCreateRequest{UserID: 4242}, teacher)
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Enroll(ctx, f.course.ID, dto.MemberCreateRequest{UserID: carol.ID}, Actor{ID: f.alice.ID, Role: "teacher"})
	require.ErrorIs(t, err, ErrNotCourseGrader)

	members, err := svc.ListMembers(ctx, f.course.ID, teacher)
	require.NoError(t, err)
	require.Len(t, members, 5)
	require.Equal(t, "Carol", members[3].DisplayName)

	gradebooks := NewGradebookService(repository.NewCourseRepository(f.db), nil, time.Minute, nil, zerolog.Nop())
	response, _, err := gradebooks.GetGradebook(ctx, f.course.ID)
	require.NoError(t, err)
	require.Len(t, response.Students, 3)
}

func TestCourseServiceUnits(t *testing.T) {
	f := newGradebookFixture(t)
	invalidator := &recordingInvalidator{}
	svc := newTestCourseService(f, invalidator)
	ctx := context.Background()
	teacher := Actor{ID: f.teacher.ID, Role: "teacher"}

	weight := 0.5
	unit, err := svc.CreateUnit(ctx, f.course.ID, dto.UnitCreateRequest{Title: "Heaps", Weight: &weight, Answerable: true}, teacher)
	require.NoError(t, err)
	require.Equal(t, f.course.ID, unit.CourseID)
	require.InDelta(t, 0.5, *unit.Weight, 1e-9)
	require.Equal(t, []uint{f.course.ID}, invalidator.courses)

	_, err = svc.CreateUnit(ctx, f.course.ID, dto.UnitCreateRequest{Title: "Reading list"}, teacher)
	require.NoError(t, err)
	require.Len(t, invalidator.courses, 1, "hidden units leave the gradebook untouched")

	negative := -1.0
	_, err = svc.CreateUnit(ctx, f.course.ID, dto.UnitCreateRequest{Title: "Bad", Weight: &negative}, teacher)
	require.Error(t, err)

	units, err := svc.ListUnits(ctx, f.course.ID, teacher)
	require.NoError(t, err)
	require.Len(t, units, 5)
	require.Equal(t, "Graphs", units[0].Title)
	require.Equal(t, "Heaps", units[1].Title)

	_, err = svc.ListUnits(ctx, f.course.ID, Actor{ID: f.bob.ID, Role: "student"})
	require.ErrorIs(t, err, ErrNotCourseGrader)
}

func TestCourseServiceDeleteRemovesGradebookData(t *testing.T) {
	f := newGradebookFixture(t)
	invalidator := &recordingInvalidator{}
	svc := newTestCourseService(f, invalidator)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	answer := f.answer(t, f.graphs, f.bob, base)
	f.mark(t, answer, 4, base.Add(time.Minute))

	require.ErrorIs(t, svc.Delete(ctx, f.course.ID, Actor{ID: f.bob.ID, Role: "teacher"}), ErrNotCourseGrader)
	require.NoError(t, svc.Delete(ctx, f.course.ID, Actor{ID: f.teacher.ID, Role: "teacher"}))
	require.Equal(t, []uint{f.course.ID}, invalidator.courses)

	var count int64
	require.NoError(t, f.db.Model(&models.Mark{}).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, f.db.Model(&models.Answer{}).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, f.db.Model(&models.Unit{}).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, f.db.Model(&models.CourseMember{}).Count(&count).Error)
	require.Zero(t, count)

	require.ErrorIs(t, svc.Delete(ctx, f.course.ID, Actor{ID: 999, Role: "admin"}), ErrCourseNotFound)
}
