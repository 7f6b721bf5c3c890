package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService bootstraps courses for environments without an admin console.
type SeedService interface {
	SeedCourse(ctx context.Context, token string, payload dto.SeedCourseRequest) (dto.SeedCourseResponse, error)
}

type seedService struct {
	courses   repository.CourseRepository
	validator *validator.Validate
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(courses repository.CourseRepository, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		courses:   courses,
		validator: validate,
		enabled:   enabled,
		token:     strings.TrimSpace(token),
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedCourse(ctx context.Context, token string, payload dto.SeedCourseRequest) (dto.SeedCourseResponse, error) {
	if !s.enabled {
		return dto.SeedCourseResponse{}, ErrSeedDisabled
	}
	if !s.validToken(token) {
		return dto.SeedCourseResponse{}, ErrSeedUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.SeedCourseResponse{}, err
	}

	course := models.Course{Title: strings.TrimSpace(payload.Title)}
	for _, unit := range payload.Units {
		course.Units = append(course.Units, models.Unit{
			Title:      strings.TrimSpace(unit.Title),
			Weight:     unit.Weight,
			Answerable: unit.Answerable,
		})
	}

	roster := make([]models.CourseMember, 0, len(payload.Members))
	for _, member := range payload.Members {
		roster = append(roster, models.CourseMember{
			Role: member.Role,
			User: models.User{
				Email:       strings.ToLower(strings.TrimSpace(member.Email)),
				DisplayName: strings.TrimSpace(member.DisplayName),
			},
		})
	}

	if err := s.courses.CreateWithRoster(ctx, &course, roster); err != nil {
		return dto.SeedCourseResponse{}, err
	}

	response := dto.SeedCourseResponse{
		CourseID: course.ID,
		Units:    make(map[string]uint, len(course.Units)),
		Members:  make(map[string]uint, len(course.Members)),
	}
	for _, unit := range course.Units {
		response.Units[unit.Title] = unit.ID
	}
	for _, member := range course.Members {
		response.Members[member.User.Email] = member.UserID
	}

	s.logger.Info().
		Uint("course_id", course.ID).
		Int("units", len(course.Units)).
		Int("members", len(course.Members)).
		Msg("course seeded")

	return response, nil
}

func (s *seedService) validToken(token string) bool {
	if s.token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.token), []byte(strings.TrimSpace(token))) == 1
}
