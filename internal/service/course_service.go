package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

var (
	// ErrUserNotFound indicates the user to enrol does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyEnrolled indicates the user is already a member of the course.
	ErrAlreadyEnrolled = errors.New("user already enrolled in course")
)

// CourseService manages courses, their units and their rosters.
type CourseService interface {
	List(ctx context.Context, query dto.CourseListQuery, actor Actor) ([]dto.CourseResponse, error)
	Get(ctx context.Context, courseID uint, actor Actor) (dto.CourseResponse, error)
	Create(ctx context.Context, payload dto.CourseCreateRequest, actor Actor) (dto.CourseResponse, error)
	Update(ctx context.Context, courseID uint, payload dto.CourseUpdateRequest, actor Actor) (dto.CourseResponse, error)
	Delete(ctx context.Context, courseID uint, actor Actor) error
	ListMembers(ctx context.Context, courseID uint, actor Actor) ([]dto.MemberResponse, error)
	Enroll(ctx context.Context, courseID uint, payload dto.MemberCreateRequest, actor Actor) (dto.MemberResponse, error)
	ListUnits(ctx context.Context, courseID uint, actor Actor) ([]dto.UnitResponse, error)
	CreateUnit(ctx context.Context, courseID uint, payload dto.UnitCreateRequest, actor Actor) (dto.UnitResponse, error)
}

type courseService struct {
	courses     repository.CourseRepository
	units       repository.UnitRepository
	users       repository.UserRepository
	invalidator GradebookInvalidator
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewCourseService constructs the course service. invalidator may be nil.
func NewCourseService(courses repository.CourseRepository, units repository.UnitRepository, users repository.UserRepository, invalidator GradebookInvalidator, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:     courses,
		units:       units,
		users:       users,
		invalidator: invalidator,
		validator:   validate,
		logger:      logger.With().Str("component", "course_service").Logger(),
	}
}

// List returns every course to platform admins and the actor's own courses to everyone else.
func (s *courseService) List(ctx context.Context, query dto.CourseListQuery, actor Actor) ([]dto.CourseResponse, error) {
	filter := repository.CourseFilter{IDs: query.IDs}
	if !isPlatformAdmin(actor) {
		filter.MemberID = actor.ID
	}

	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, dto.NewCourseResponse(course))
	}
	return responses, nil
}

func (s *courseService) Get(ctx context.Context, courseID uint, actor Actor) (dto.CourseResponse, error) {
	course, err := s.managedCourse(ctx, courseID, actor)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

// Create stores a new course. Unless the actor is a platform admin they are enrolled as
// its teacher so they can grade it.
func (s *courseService) Create(ctx context.Context, payload dto.CourseCreateRequest, actor Actor) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{Title: strings.TrimSpace(payload.Title)}
	if !isPlatformAdmin(actor) {
		course.Members = []models.CourseMember{{UserID: actor.ID, Role: models.CourseRoleTeacher}}
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("actor_id", actor.ID).Msg("course created")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, courseID uint, payload dto.CourseUpdateRequest, actor Actor) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.managedCourse(ctx, courseID, actor)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if payload.Title != nil {
		course.Title = strings.TrimSpace(*payload.Title)
	}
	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.invalidate(ctx, course.ID)
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, courseID uint, actor Actor) error {
	if _, err := s.managedCourse(ctx, courseID, actor); err != nil {
		return err
	}

	if err := s.courses.Delete(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	s.logger.Info().Uint("course_id", courseID).Uint("actor_id", actor.ID).Msg("course deleted")
	s.invalidate(ctx, courseID)
	return nil
}

func (s *courseService) ListMembers(ctx context.Context, courseID uint, actor Actor) ([]dto.MemberResponse, error) {
	if _, err := s.managedCourse(ctx, courseID, actor); err != nil {
		return nil, err
	}

	members, err := s.courses.ListMembers(ctx, courseID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.MemberResponse, 0, len(members))
	for _, member := range members {
		responses = append(responses, dto.NewMemberResponse(member))
	}
	return responses, nil
}

// Enroll adds an existing user to the course, as a student unless another role is given.
func (s *courseService) Enroll(ctx context.Context, courseID uint, payload dto.MemberCreateRequest, actor Actor) (dto.MemberResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MemberResponse{}, err
	}

	if _, err := s.managedCourse(ctx, courseID, actor); err != nil {
		return dto.MemberResponse{}, err
	}

	user, err := s.users.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MemberResponse{}, ErrUserNotFound
		}
		return dto.MemberResponse{}, err
	}

	if _, err := s.courses.GetMember(ctx, courseID, user.ID); err == nil {
		return dto.MemberResponse{}, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.MemberResponse{}, err
	}

	role := payload.Role
	if role == "" {
		role = models.CourseRoleStudent
	}

	member := models.CourseMember{CourseID: courseID, UserID: user.ID, Role: role}
	if err := s.courses.AddMember(ctx, &member); err != nil {
		return dto.MemberResponse{}, err
	}
	member.User = user

	s.logger.Info().Uint("course_id", courseID).Uint("user_id", user.ID).Str("role", role).Msg("user enrolled")
	if member.IsStudent() {
		s.invalidate(ctx, courseID)
	}
	return dto.NewMemberResponse(member), nil
}

func (s *courseService) ListUnits(ctx context.Context, courseID uint, actor Actor) ([]dto.UnitResponse, error) {
	if _, err := s.managedCourse(ctx, courseID, actor); err != nil {
		return nil, err
	}

	units, err := s.units.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UnitResponse, 0, len(units))
	for _, unit := range units {
		responses = append(responses, dto.NewUnitResponse(unit))
	}
	return responses, nil
}

func (s *courseService) CreateUnit(ctx context.Context, courseID uint, payload dto.UnitCreateRequest, actor Actor) (dto.UnitResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UnitResponse{}, err
	}

	if _, err := s.managedCourse(ctx, courseID, actor); err != nil {
		return dto.UnitResponse{}, err
	}

	unit := models.Unit{
		CourseID:   courseID,
		Title:      strings.TrimSpace(payload.Title),
		Weight:     payload.Weight,
		Answerable: payload.Answerable,
	}
	if err := s.units.Create(ctx, &unit); err != nil {
		return dto.UnitResponse{}, err
	}

	if unit.Answerable {
		s.invalidate(ctx, courseID)
	}
	return dto.NewUnitResponse(unit), nil
}

// managedCourse loads the course and checks the actor teaches or administers it.
func (s *courseService) managedCourse(ctx context.Context, courseID uint, actor Actor) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	if err := authorizeGrader(ctx, s.courses, courseID, actor); err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (s *courseService) invalidate(ctx context.Context, courseID uint) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, courseID); err != nil {
		s.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to invalidate gradebook after course change")
	}
}

func isPlatformAdmin(actor Actor) bool {
	return strings.EqualFold(actor.Role, models.CourseRoleAdmin)
}
